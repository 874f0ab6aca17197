package forms

import (
	"context"
	"strings"

	"github.com/jonathan/apply-agent/internal/driver"
	"github.com/jonathan/apply-agent/internal/logging"
	"go.uber.org/zap"
)

// Probe recognizes one variant. Detect returns ok=false when the section does not have its shape.
type Probe struct {
	Name   string
	Detect func(ctx context.Context, section driver.Element) (Variant, bool, error)
}

// DefaultProbes returns the probes in priority order.
func DefaultProbes() []Probe {
	return []Probe{
		{Name: "terms", Detect: detectTerms},
		{Name: "radio", Detect: detectRadio},
		{Name: "textbox", Detect: detectTextBox},
		{Name: "date", Detect: detectDate},
		{Name: "dropdown", Detect: detectDropdown},
	}
}

// Classifier maps a section to a Variant with the first matching probe.
type Classifier struct {
	probes []Probe
	logger *zap.Logger
}

// NewClassifier creates a Classifier. A nil probe list uses DefaultProbes.
func NewClassifier(probes []Probe, logger *zap.Logger) *Classifier {
	if probes == nil {
		probes = DefaultProbes()
	}
	return &Classifier{probes: probes, logger: logging.OrNop(logger)}
}

// Classify returns the variant of section, or ok=false for an unrecognized
// shape. Probe errors are logged and the probe is treated as not matching.
func (c *Classifier) Classify(ctx context.Context, section driver.Element) (Variant, bool) {
	for _, p := range c.probes {
		v, ok, err := p.Detect(ctx, section)
		if err != nil {
			c.logger.Warn("field probe failed", zap.String("probe", p.Name), zap.Error(err))
			continue
		}
		if ok {
			return v, true
		}
	}
	return nil, false
}

var termsPhrases = []string{"terms of service", "privacy policy"}

func detectTerms(ctx context.Context, section driver.Element) (Variant, bool, error) {
	labels, err := section.Find(ctx, "label")
	if err != nil || len(labels) == 0 {
		return nil, false, err
	}
	text := strings.ToLower(driver.TextOf(ctx, labels[0]))
	for _, phrase := range termsPhrases {
		if strings.Contains(text, phrase) {
			return TermsCheckbox{Label: labels[0]}, true, nil
		}
	}
	return nil, false, nil
}

var radioOptionSelectors = []string{
	".fb-text-selectable__option",
	"div[data-test-text-selectable-option]",
}

var radioQuestionSelectors = []string{
	"legend",
	".fb-dash-form-element__label",
	"[data-test-form-builder-radio-button-form-component__title]",
}

func detectRadio(ctx context.Context, section driver.Element) (Variant, bool, error) {
	scope := section
	if inner, err := driver.FindFirst(ctx, section, ".jobs-easy-apply-form-element"); err == nil {
		scope = inner
	}

	var radios []driver.Element
	for _, sel := range radioOptionSelectors {
		found, err := scope.Find(ctx, sel)
		if err != nil {
			return nil, false, err
		}
		if len(found) > 0 {
			radios = found
			break
		}
	}
	if len(radios) == 0 {
		return nil, false, nil
	}

	group := RadioGroup{Question: questionText(ctx, section, radioQuestionSelectors)}
	for _, r := range radios {
		group.Options = append(group.Options, RadioOption{Text: driver.TextOf(ctx, r), Element: r})
	}
	return group, true, nil
}

var textInputTypes = map[string]bool{"text": true, "number": true, "email": true, "tel": true, "": true}

const datePickerClass = "artdeco-datepicker__input"

func detectTextBox(ctx context.Context, section driver.Element) (Variant, bool, error) {
	fields, err := section.Find(ctx, "input, textarea")
	if err != nil {
		return nil, false, err
	}
	for _, f := range fields {
		if f.Tag() == "input" {
			inputType, _ := f.Attr(ctx, "type")
			class, _ := f.Attr(ctx, "class")
			if !textInputTypes[strings.ToLower(inputType)] || hasClass(class, datePickerClass) {
				continue
			}
		}
		return TextBox{
			Question: questionText(ctx, section, []string{"label"}),
			Input:    f,
			Numeric:  isNumeric(ctx, f),
		}, true, nil
	}
	return nil, false, nil
}

func detectDate(ctx context.Context, section driver.Element) (Variant, bool, error) {
	inputs, err := section.Find(ctx, "."+datePickerClass+", input[type=date]")
	if err != nil || len(inputs) == 0 {
		return nil, false, err
	}
	return DateInput{Question: questionText(ctx, section, []string{"label"}), Input: inputs[0]}, true, nil
}

func detectDropdown(ctx context.Context, section driver.Element) (Variant, bool, error) {
	selects, err := section.Find(ctx, "select")
	if err != nil || len(selects) == 0 {
		return nil, false, err
	}
	opts, err := selects[0].Find(ctx, "option")
	if err != nil {
		return nil, false, err
	}
	d := Dropdown{Question: questionText(ctx, section, []string{"label"}), Select: selects[0]}
	for _, o := range opts {
		d.Options = append(d.Options, driver.TextOf(ctx, o))
	}
	return d, true, nil
}

// questionText reads the question from the first selector with text, falling
// back to the first line of the section text.
func questionText(ctx context.Context, section driver.Element, selectors []string) string {
	for _, sel := range selectors {
		el, err := driver.FindFirst(ctx, section, sel)
		if err != nil {
			continue
		}
		if text := driver.TextOf(ctx, el); text != "" {
			return text
		}
	}
	text, _, _ := strings.Cut(driver.TextOf(ctx, section), "\n")
	return strings.TrimSpace(text)
}

func isNumeric(ctx context.Context, input driver.Element) bool {
	id, _ := input.Attr(ctx, "id")
	inputType, _ := input.Attr(ctx, "type")
	return strings.Contains(strings.ToLower(id), "numeric") || strings.EqualFold(inputType, "number")
}

func hasClass(classAttr, class string) bool {
	for _, c := range strings.Fields(classAttr) {
		if c == class {
			return true
		}
	}
	return false
}
