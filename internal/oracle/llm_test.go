package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonathan/apply-agent/internal/llm"
	"github.com/jonathan/apply-agent/internal/prompts"
	"github.com/jonathan/apply-agent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedClient replies with a fixed response and remembers the last prompt.
type scriptedClient struct {
	reply      string
	err        error
	lastPrompt string
	lastTier   llm.ModelTier
	jsonCalls  int
}

func (c *scriptedClient) GenerateContent(_ context.Context, prompt string, tier llm.ModelTier) (string, error) {
	c.lastPrompt = prompt
	c.lastTier = tier
	return c.reply, c.err
}

func (c *scriptedClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	c.jsonCalls++
	text, err := c.GenerateContent(ctx, prompt, tier)
	return llm.CleanJSONBlock(text), err
}

func (c *scriptedClient) Close() error { return nil }

func newTestLLM(reply string) (*LLM, *scriptedClient) {
	client := &scriptedClient{reply: reply}
	o := NewLLM(client, "Go engineer, 6 years, based in Berlin", zap.NewNop())
	o.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return o, client
}

func TestScoreJobMatch(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    int
		wantErr bool
	}{
		{name: "plain", reply: `{"score": 82, "reasoning": "strong Go match"}`, want: 82},
		{name: "fenced", reply: "```json\n{\"score\": 65}\n```", want: 65},
		{name: "missing score", reply: `{"reasoning": "?"}`, wantErr: true},
		{name: "out of range", reply: `{"score": 140}`, wantErr: true},
		{name: "not json", reply: "I would say seventy", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, client := newTestLLM(tt.reply)
			got, err := o.ScoreJobMatch(context.Background(), "Senior Go developer")
			if tt.wantErr {
				var respErr *ResponseError
				assert.ErrorAs(t, err, &respErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1, client.jsonCalls)
			assert.Contains(t, client.lastPrompt, "Senior Go developer")
			assert.Contains(t, client.lastPrompt, "based in Berlin")
		})
	}
}

func TestAnswerFromOptions(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  string
	}{
		{"exact", "No", "No"},
		{"case and quotes", "\"yes\"", "Yes"},
		{"closest option", "Yes, I am", "Yes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, client := newTestLLM(tt.reply)
			got, err := o.AnswerFromOptions(context.Background(), "Are you authorized to work?", []string{"Yes", "No"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, llm.TierLite, client.lastTier)
			assert.Contains(t, client.lastPrompt, "- Yes\n- No")
		})
	}
}

func TestAnswerFromOptions_NoOptions(t *testing.T) {
	o, _ := newTestLLM("Yes")
	_, err := o.AnswerFromOptions(context.Background(), "q", nil)
	assert.Error(t, err)
}

func TestAnswerFreeText_UsesJob(t *testing.T) {
	o, client := newTestLLM("  I enjoy distributed systems.  ")
	o.SetJob(&types.ApplicationJob{Title: "Platform Engineer", Company: "Acme", Description: "Kubernetes all day"})

	got, err := o.AnswerFreeText(context.Background(), "Why do you want to join?")
	require.NoError(t, err)
	assert.Equal(t, "I enjoy distributed systems.", got)
	assert.Contains(t, client.lastPrompt, "Platform Engineer at Acme")
	assert.Contains(t, client.lastPrompt, "Kubernetes all day")
}

func TestAnswerFreeText_Empty(t *testing.T) {
	o, _ := newTestLLM("   ")
	_, err := o.AnswerFreeText(context.Background(), "Why?")
	var respErr *ResponseError
	assert.ErrorAs(t, err, &respErr)
}

func TestAnswerNumeric(t *testing.T) {
	o, _ := newTestLLM("About 6 years")
	got, err := o.AnswerNumeric(context.Background(), "Years of Go?")
	require.NoError(t, err)
	assert.Equal(t, "6", got)

	o, _ = newTestLLM("several")
	_, err = o.AnswerNumeric(context.Background(), "Years of Go?")
	assert.Error(t, err)
}

func TestAnswerDate(t *testing.T) {
	o, client := newTestLLM("2026-04-15")
	got, err := o.AnswerDate(context.Background(), "When can you start?")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC), got)
	assert.Contains(t, client.lastPrompt, "Today is 2026-03-01")

	o, _ = newTestLLM("next month")
	_, err = o.AnswerDate(context.Background(), "When can you start?")
	assert.Error(t, err)
}

func TestClassifyUpload(t *testing.T) {
	tests := []struct {
		reply string
		want  types.UploadKind
	}{
		{"resume", types.UploadResume},
		{"Resume.", types.UploadResume},
		{"CV", types.UploadResume},
		{"cover", types.UploadCover},
		{"Cover letter", types.UploadCover},
		{"transcript", types.UploadUnknown},
		{"", types.UploadUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			o, _ := newTestLLM(tt.reply)
			got, err := o.ClassifyUpload(context.Background(), "Upload your resume")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClientErrorsPropagate(t *testing.T) {
	cause := errors.New("deadline exceeded")
	o, client := newTestLLM("")
	client.err = cause

	_, err := o.AnswerFreeText(context.Background(), "q")
	assert.ErrorIs(t, err, cause)
	_, err = o.ScoreJobMatch(context.Background(), "d")
	assert.ErrorIs(t, err, cause)
	_, err = o.ClassifyUpload(context.Background(), "l")
	assert.ErrorIs(t, err, cause)
}

func TestMissingPromptTemplateReturnsError(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		op   string
		call func(o *LLM) error
	}{
		{"score job match", OpScoreJobMatch, func(o *LLM) error { _, err := o.ScoreJobMatch(ctx, "d"); return err }},
		{"answer from options", OpAnswerFromOptions, func(o *LLM) error { _, err := o.AnswerFromOptions(ctx, "q", []string{"Yes"}); return err }},
		{"answer free text", OpAnswerFreeText, func(o *LLM) error { _, err := o.AnswerFreeText(ctx, "q"); return err }},
		{"answer numeric", OpAnswerNumeric, func(o *LLM) error { _, err := o.AnswerNumeric(ctx, "q"); return err }},
		{"answer date", OpAnswerDate, func(o *LLM) error { _, err := o.AnswerDate(ctx, "q"); return err }},
		{"classify upload", OpClassifyUpload, func(o *LLM) error { _, err := o.ClassifyUpload(ctx, "l"); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, client := newTestLLM("42")
			o.prompts = prompts.Set{}

			var err error
			require.NotPanics(t, func() { err = tt.call(o) })
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.op)
			assert.Contains(t, err.Error(), "not found")
			assert.Empty(t, client.lastPrompt, "no model call without a prompt")
		})
	}
}
