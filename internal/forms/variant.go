// Package forms discovers the fields of one application form step, classifies
// each into a closed set of variants and fills them.
package forms

import (
	"github.com/jonathan/apply-agent/internal/driver"
	"github.com/jonathan/apply-agent/internal/types"
)

// Variant is one of the recognized field shapes. The set is closed: only the
// types in this file implement it.
type Variant interface {
	// Name identifies the variant in logs and metrics.
	Name() string
	variant()
}

// TermsCheckbox is a consent checkbox for terms of service or a privacy policy.
type TermsCheckbox struct {
	Label driver.Element
}

// RadioOption is one choice of a RadioGroup.
type RadioOption struct {
	Text    string
	Element driver.Element
}

// RadioGroup is a single-choice question.
type RadioGroup struct {
	Question string
	Options  []RadioOption
}

// TextBox is a text, number, email or telephone input, or a textarea.
type TextBox struct {
	Question string
	Input    driver.Element
	Numeric  bool
}

// DateInput is a date-picker input.
type DateInput struct {
	Question string
	Input    driver.Element
}

// Dropdown is a select control.
type Dropdown struct {
	Question string
	Select   driver.Element
	Options  []string
}

// FileUpload is a file input. Label is the text surrounding the control.
type FileUpload struct {
	Input driver.Element
	Label string
}

func (TermsCheckbox) Name() string { return "terms_checkbox" }
func (RadioGroup) Name() string    { return "radio" }
func (TextBox) Name() string       { return "textbox" }
func (DateInput) Name() string     { return "date" }
func (Dropdown) Name() string      { return "dropdown" }
func (FileUpload) Name() string    { return "file_upload" }

func (TermsCheckbox) variant() {}
func (RadioGroup) variant()    {}
func (TextBox) variant()       {}
func (DateInput) variant()     {}
func (Dropdown) variant()      {}
func (FileUpload) variant()    {}

// OptionTexts returns the visible label of every option.
func (r RadioGroup) OptionTexts() []string {
	texts := make([]string, len(r.Options))
	for i, o := range r.Options {
		texts[i] = o.Text
	}
	return texts
}

// FieldType is the cache type a text box answer is stored under.
func (t TextBox) FieldType() types.FieldType {
	if t.Numeric {
		return types.FieldNumeric
	}
	return types.FieldTextbox
}
