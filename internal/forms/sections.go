package forms

import (
	"context"
	"fmt"

	"github.com/jonathan/apply-agent/internal/driver"
)

// Selectors locating the form container of the current step, in priority order.
var ContainerSelectors = []string{
	".jobs-easy-apply-content",
	".artdeco-modal__content",
}

// Selectors locating field sections inside the container, in priority order.
// The first selector that yields any section is used.
var SectionSelectors = []string{
	".jobs-easy-apply-form-section__element",
	"[data-test-form-element]",
}

// labelSelector finds one label per labelled div. Its parent is the section
// when no SectionSelectors match.
const labelSelector = "div > label:first-of-type"

const fileInputSelector = "input[type=file]"

// Container returns the form container of the current step.
func Container(ctx context.Context, page driver.Searcher) (driver.Element, error) {
	for _, sel := range ContainerSelectors {
		elems, err := page.Find(ctx, sel)
		if err != nil {
			return nil, err
		}
		if len(elems) > 0 {
			return elems[0], nil
		}
	}
	return nil, fmt.Errorf("form container: %w", driver.ErrNotFound)
}

// Sections returns the field sections of the current step.
func Sections(ctx context.Context, container driver.Element) ([]driver.Element, error) {
	for _, sel := range SectionSelectors {
		elems, err := container.Find(ctx, sel)
		if err != nil {
			return nil, err
		}
		if len(elems) > 0 {
			return elems, nil
		}
	}

	labels, err := container.Find(ctx, labelSelector)
	if err != nil {
		return nil, err
	}
	sections := make([]driver.Element, 0, len(labels))
	for _, label := range labels {
		parent, err := label.Parent(ctx)
		if err != nil {
			return nil, err
		}
		sections = append(sections, parent)
	}
	return sections, nil
}

// HasUpload reports whether section contains a file input.
func HasUpload(ctx context.Context, section driver.Element) bool {
	return driver.Exists(ctx, section, fileInputSelector)
}

// Uploads returns a FileUpload for every file input on the page.
func Uploads(ctx context.Context, page driver.Searcher) ([]FileUpload, error) {
	inputs, err := page.Find(ctx, fileInputSelector)
	if err != nil {
		return nil, err
	}
	uploads := make([]FileUpload, 0, len(inputs))
	for _, in := range inputs {
		label, err := in.ParentText(ctx)
		if err != nil {
			label = ""
		}
		uploads = append(uploads, FileUpload{Input: in, Label: label})
	}
	return uploads, nil
}
