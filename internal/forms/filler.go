package forms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/apply-agent/internal/answers"
	"github.com/jonathan/apply-agent/internal/driver"
	"github.com/jonathan/apply-agent/internal/logging"
	"github.com/jonathan/apply-agent/internal/metrics"
	"github.com/jonathan/apply-agent/internal/textmatch"
	"github.com/jonathan/apply-agent/internal/types"
	"go.uber.org/zap"
)

// DefaultAutofillSettle is how long a text box is given to be autofilled before it is read.
const DefaultAutofillSettle = time.Second

// DateLayout is the format date answers are typed in.
const DateLayout = "2006-01-02"

// Resolver produces answers for questions.
type Resolver interface {
	Resolve(ctx context.Context, q answers.Query) (string, error)
	ResolveDate(ctx context.Context, question string) (time.Time, error)
}

// Uploader attaches a document to a file input.
type Uploader interface {
	Attach(ctx context.Context, upload FileUpload, job *types.ApplicationJob) error
}

// Filler applies answers to classified fields.
//
// Fill returns an error only for failures that must abort the application:
// answer resolution and attachment failures. Browser-level problems with a
// single field are logged and the field is skipped.
type Filler struct {
	resolver Resolver
	uploader Uploader
	settle   time.Duration
	logger   *zap.Logger
}

// NewFiller creates a Filler. settle is the autofill wait for text boxes; negative means DefaultAutofillSettle.
func NewFiller(resolver Resolver, uploader Uploader, settle time.Duration, logger *zap.Logger) *Filler {
	if settle < 0 {
		settle = DefaultAutofillSettle
	}
	return &Filler{resolver: resolver, uploader: uploader, settle: settle, logger: logging.OrNop(logger)}
}

// Fill applies the right interaction for v.
func (f *Filler) Fill(ctx context.Context, job *types.ApplicationJob, v Variant) error {
	var err error
	switch field := v.(type) {
	case TermsCheckbox:
		err = f.fillTerms(ctx, field)
	case RadioGroup:
		err = f.fillRadio(ctx, field)
	case TextBox:
		err = f.fillTextBox(ctx, field)
	case DateInput:
		err = f.fillDate(ctx, field)
	case Dropdown:
		err = f.fillDropdown(ctx, field)
	case FileUpload:
		if f.uploader == nil {
			return fmt.Errorf("no uploader configured for %q", field.Label)
		}
		err = f.uploader.Attach(ctx, field, job)
	default:
		return fmt.Errorf("unknown field variant %T", v)
	}
	if err != nil {
		return err
	}
	metrics.FieldsFilled.WithLabelValues(v.Name()).Inc()
	return nil
}

func (f *Filler) fillTerms(ctx context.Context, field TermsCheckbox) error {
	if err := driver.ClickWithFallback(ctx, field.Label); err != nil {
		f.logger.Warn("could not accept terms, skipping", zap.Error(err))
	}
	return nil
}

func (f *Filler) fillRadio(ctx context.Context, field RadioGroup) error {
	if len(field.Options) == 0 {
		return nil
	}
	answer, err := f.resolver.Resolve(ctx, answers.Query{
		Question: field.Question,
		Type:     types.FieldRadio,
		Options:  field.OptionTexts(),
	})
	if err != nil {
		return err
	}

	chosen := field.Options[len(field.Options)-1]
	matched := false
	for _, opt := range field.Options {
		if textmatch.EqualFold(opt.Text, answer) {
			chosen = opt
			matched = true
			break
		}
	}
	if !matched {
		f.logger.Warn("no radio option matches answer, selecting last option",
			zap.String("question", field.Question),
			zap.String("answer", answer),
			zap.String("selected", chosen.Text))
	}

	if err := selectRadio(ctx, chosen); err != nil {
		f.logger.Warn("could not select radio option, skipping",
			zap.String("question", field.Question), zap.String("option", chosen.Text), zap.Error(err))
	}
	return nil
}

// selectRadio clicks the option's label, falling back to a script click on its input.
func selectRadio(ctx context.Context, opt RadioOption) error {
	if label, err := driver.FindFirst(ctx, opt.Element, "label"); err == nil {
		if err := label.Click(ctx); err == nil {
			return nil
		}
	}
	if in, err := driver.FindFirst(ctx, opt.Element, "input"); err == nil {
		return in.ScriptClick(ctx)
	}
	return driver.ClickWithFallback(ctx, opt.Element)
}

func (f *Filler) fillTextBox(ctx context.Context, field TextBox) error {
	if err := sleep(ctx, f.settle); err != nil {
		return err
	}
	current, err := field.Input.Value(ctx)
	if err != nil {
		f.logger.Warn("could not read text box, skipping", zap.String("question", field.Question), zap.Error(err))
		return nil
	}
	if current != "" {
		f.logger.Debug("text box already filled", zap.String("question", field.Question))
		return nil
	}

	answer, err := f.resolver.Resolve(ctx, answers.Query{Question: field.Question, Type: field.FieldType()})
	if err != nil {
		return err
	}
	if err := field.Input.SetValue(ctx, answer); err != nil {
		f.logger.Warn("could not type answer, skipping", zap.String("question", field.Question), zap.Error(err))
	}
	return nil
}

func (f *Filler) fillDate(ctx context.Context, field DateInput) error {
	date, err := f.resolver.ResolveDate(ctx, field.Question)
	if err != nil {
		return err
	}
	if err := field.Input.SetValue(ctx, date.Format(DateLayout)); err != nil {
		f.logger.Warn("could not type date, skipping", zap.String("question", field.Question), zap.Error(err))
	}
	return nil
}

func (f *Filler) fillDropdown(ctx context.Context, field Dropdown) error {
	answer, err := f.resolver.Resolve(ctx, answers.Query{
		Question: field.Question,
		Type:     types.FieldDropdown,
		Options:  field.Options,
	})
	if err != nil {
		return err
	}

	err = field.Select.SelectByText(ctx, answer)
	if err != nil && errors.Is(err, driver.ErrNotFound) {
		if idx := textmatch.IndexOption(answer, field.Options); idx >= 0 {
			err = field.Select.SelectByText(ctx, field.Options[idx])
		}
	}
	if err != nil {
		f.logger.Warn("could not select dropdown option, skipping",
			zap.String("question", field.Question), zap.String("answer", answer), zap.Error(err))
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
