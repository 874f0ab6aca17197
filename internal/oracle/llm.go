package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/apply-agent/internal/llm"
	"github.com/jonathan/apply-agent/internal/logging"
	"github.com/jonathan/apply-agent/internal/prompts"
	"github.com/jonathan/apply-agent/internal/textmatch"
	"github.com/jonathan/apply-agent/internal/types"
	"go.uber.org/zap"
)

var (
	numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	datePattern   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// LLM answers application questions with a language model, speaking for the
// candidate described by the profile text.
type LLM struct {
	client  llm.Client
	profile string
	logger  *zap.Logger
	now     func() time.Time
	job     *types.ApplicationJob
	prompts prompts.Set
}

// NewLLM creates an LLM oracle for the candidate profile.
func NewLLM(client llm.Client, profile string, logger *zap.Logger) *LLM {
	return &LLM{
		client:  client,
		profile: profile,
		logger:  logging.OrNop(logger),
		now:     time.Now,
		prompts: prompts.Oracle(),
	}
}

// SetJob tailors subsequent answers to job. A nil job clears it.
func (o *LLM) SetJob(job *types.ApplicationJob) {
	o.job = job
}

func (o *LLM) data(extra map[string]string) map[string]string {
	data := map[string]string{"Profile": o.profile}
	if o.job != nil {
		data["JobTitle"] = o.job.Title
		data["Company"] = o.job.Company
		data["JobDescription"] = o.job.Description
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

func (o *LLM) prompt(op string, key prompts.Key, extra map[string]string) (string, error) {
	text, err := o.prompts.Render(key, o.data(extra))
	if err != nil {
		return "", fmt.Errorf("%s: render prompt: %w", op, err)
	}
	return text, nil
}

type scoreResponse struct {
	Score     *int   `json:"score"`
	Reasoning string `json:"reasoning"`
}

// ScoreJobMatch rates the job description against the profile.
func (o *LLM) ScoreJobMatch(ctx context.Context, description string) (int, error) {
	prompt, err := o.prompt(OpScoreJobMatch, prompts.ScoreJobMatch, map[string]string{"JobDescription": description})
	if err != nil {
		return 0, err
	}
	text, err := o.client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", OpScoreJobMatch, err)
	}

	var resp scoreResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return 0, &ResponseError{Operation: OpScoreJobMatch, Response: text, Cause: err}
	}
	if resp.Score == nil {
		return 0, &ResponseError{Operation: OpScoreJobMatch, Response: text, Cause: fmt.Errorf("missing score")}
	}
	if *resp.Score < 0 || *resp.Score > 100 {
		return 0, &ResponseError{Operation: OpScoreJobMatch, Response: text, Cause: fmt.Errorf("score %d out of range", *resp.Score)}
	}
	o.logger.Info("job match scored", zap.Int("score", *resp.Score), zap.String("reasoning", resp.Reasoning))
	return *resp.Score, nil
}

// AnswerFromOptions asks the model to pick an option and maps its reply onto
// the closest offered option, so the result is always one of options.
func (o *LLM) AnswerFromOptions(ctx context.Context, question string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("%s: no options offered for %q", OpAnswerFromOptions, question)
	}
	prompt, err := o.prompt(OpAnswerFromOptions, prompts.AnswerFromOptions, map[string]string{
		"Question": question,
		"Options":  "- " + strings.Join(options, "\n- "),
	})
	if err != nil {
		return "", err
	}
	text, err := o.client.GenerateContent(ctx, prompt, llm.TierLite)
	if err != nil {
		return "", fmt.Errorf("%s: %w", OpAnswerFromOptions, err)
	}
	reply := llm.FirstLine(text)
	if idx := textmatch.IndexOption(reply, options); idx >= 0 {
		return options[idx], nil
	}
	chosen := options[textmatch.Closest(reply, options)]
	o.logger.Debug("mapped model reply to closest option", zap.String("reply", reply), zap.String("option", chosen))
	return chosen, nil
}

// AnswerFreeText writes an open answer.
func (o *LLM) AnswerFreeText(ctx context.Context, question string) (string, error) {
	prompt, err := o.prompt(OpAnswerFreeText, prompts.AnswerFreeText, map[string]string{"Question": question})
	if err != nil {
		return "", err
	}
	text, err := o.client.GenerateContent(ctx, prompt, llm.TierStandard)
	if err != nil {
		return "", fmt.Errorf("%s: %w", OpAnswerFreeText, err)
	}
	answer := strings.TrimSpace(text)
	if answer == "" {
		return "", &ResponseError{Operation: OpAnswerFreeText, Response: text, Cause: fmt.Errorf("empty answer")}
	}
	return answer, nil
}

// AnswerNumeric returns the first number in the model reply.
func (o *LLM) AnswerNumeric(ctx context.Context, question string) (string, error) {
	prompt, err := o.prompt(OpAnswerNumeric, prompts.AnswerNumeric, map[string]string{"Question": question})
	if err != nil {
		return "", err
	}
	text, err := o.client.GenerateContent(ctx, prompt, llm.TierLite)
	if err != nil {
		return "", fmt.Errorf("%s: %w", OpAnswerNumeric, err)
	}
	number := numberPattern.FindString(text)
	if number == "" {
		return "", &ResponseError{Operation: OpAnswerNumeric, Response: text, Cause: fmt.Errorf("no number in reply")}
	}
	if _, err := strconv.ParseFloat(number, 64); err != nil {
		return "", &ResponseError{Operation: OpAnswerNumeric, Response: text, Cause: err}
	}
	return number, nil
}

// AnswerDate returns the first YYYY-MM-DD date in the model reply.
func (o *LLM) AnswerDate(ctx context.Context, question string) (time.Time, error) {
	prompt, err := o.prompt(OpAnswerDate, prompts.AnswerDate, map[string]string{
		"Question": question,
		"Today":    o.now().Format("2006-01-02"),
	})
	if err != nil {
		return time.Time{}, err
	}
	text, err := o.client.GenerateContent(ctx, prompt, llm.TierLite)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", OpAnswerDate, err)
	}
	raw := datePattern.FindString(text)
	if raw == "" {
		return time.Time{}, &ResponseError{Operation: OpAnswerDate, Response: text, Cause: fmt.Errorf("no date in reply")}
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, &ResponseError{Operation: OpAnswerDate, Response: text, Cause: err}
	}
	return date, nil
}

// ClassifyUpload decides whether an upload control wants a resume or a cover letter.
func (o *LLM) ClassifyUpload(ctx context.Context, labelText string) (types.UploadKind, error) {
	prompt, err := o.prompt(OpClassifyUpload, prompts.ClassifyUpload, map[string]string{"Label": labelText})
	if err != nil {
		return types.UploadUnknown, err
	}
	text, err := o.client.GenerateContent(ctx, prompt, llm.TierLite)
	if err != nil {
		return types.UploadUnknown, fmt.Errorf("%s: %w", OpClassifyUpload, err)
	}
	return ParseUploadKind(text), nil
}

// ParseUploadKind maps a free-form reply onto an UploadKind.
func ParseUploadKind(reply string) types.UploadKind {
	word := strings.ToLower(llm.FirstLine(reply))
	switch {
	case strings.Contains(word, "cover"):
		return types.UploadCover
	case strings.Contains(word, "resume"), strings.Contains(word, "résumé"), word == "cv":
		return types.UploadResume
	default:
		return types.UploadUnknown
	}
}

var (
	_ Oracle    = (*LLM)(nil)
	_ JobSetter = (*LLM)(nil)
)
