// Package driver defines the browser-control surface the form engine consumes
// and a chromedp implementation of it.
//
// Elements are located with CSS selectors. Text predicates are evaluated in Go
// over the located elements with FilterText, which covers the text and
// XPath-style lookups the engine needs without a second query language.
package driver

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when a lookup that needs one element finds none.
var ErrNotFound = errors.New("element not found")

// Searcher locates zero or more elements matching a CSS selector.
type Searcher interface {
	Find(ctx context.Context, selector string) ([]Element, error)
}

// Element is a handle to one DOM node. Handles are valid for the current page
// state only and must not be kept across steps.
type Element interface {
	Searcher
	// Tag returns the lowercase tag name.
	Tag() string
	// Text returns the rendered text of the node.
	Text(ctx context.Context) (string, error)
	// Attr returns an attribute value, or "" when the attribute is absent.
	Attr(ctx context.Context, name string) (string, error)
	// Value returns the current value of an input, textarea or select.
	Value(ctx context.Context) (string, error)
	// ParentText returns the rendered text of the node's parent.
	ParentText(ctx context.Context) (string, error)
	// Parent returns the parent element, or ErrNotFound at the document root.
	Parent(ctx context.Context) (Element, error)
	Click(ctx context.Context) error
	// ScriptClick clicks through the DOM API rather than a synthesized mouse event.
	ScriptClick(ctx context.Context) error
	ScrollIntoView(ctx context.Context) error
	// SetValue clears the field and types value into it.
	SetValue(ctx context.Context, value string) error
	// SelectByText selects the option whose visible text equals text exactly.
	SelectByText(ctx context.Context, text string) error
	// Upload attaches a local file to a file input.
	Upload(ctx context.Context, path string) error
	// Reveal makes a hidden input displayable so it can receive files.
	Reveal(ctx context.Context) error
}

// Driver controls one browser tab.
type Driver interface {
	Searcher
	Navigate(ctx context.Context, url string) error
	Refresh(ctx context.Context) error
	// URL returns the current page location.
	URL(ctx context.Context) (string, error)
	// HTML returns the serialized document.
	HTML(ctx context.Context) (string, error)
	// Execute runs a script in the page and discards its result.
	Execute(ctx context.Context, script string) error
}

// Scripts shared by callers of Execute.
const (
	ScriptBlurActive  = `document.activeElement && document.activeElement.blur && document.activeElement.blur();`
	ScriptScrollToEnd = `window.scrollTo(0, document.body.scrollHeight);`
	ScriptScrollToTop = `window.scrollTo(0, 0);`
)

// FindFirst returns the first element matching selector under s.
func FindFirst(ctx context.Context, s Searcher, selector string) (Element, error) {
	elems, err := s.Find(ctx, selector)
	if err != nil {
		return nil, err
	}
	if len(elems) == 0 {
		return nil, ErrNotFound
	}
	return elems[0], nil
}

// Exists reports whether selector matches anything under s. Lookup errors count as absent.
func Exists(ctx context.Context, s Searcher, selector string) bool {
	elems, err := s.Find(ctx, selector)
	return err == nil && len(elems) > 0
}

// FilterText keeps the elements whose text satisfies match. Elements whose
// text cannot be read are dropped.
func FilterText(ctx context.Context, elems []Element, match func(text string) bool) []Element {
	var out []Element
	for _, e := range elems {
		text, err := e.Text(ctx)
		if err != nil {
			continue
		}
		if match(strings.TrimSpace(text)) {
			out = append(out, e)
		}
	}
	return out
}

// TextOf returns the trimmed text of e, or "" when it cannot be read.
func TextOf(ctx context.Context, e Element) string {
	text, err := e.Text(ctx)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// ClickWithFallback scrolls e into view and clicks it, retrying with a script
// click when the native click fails.
func ClickWithFallback(ctx context.Context, e Element) error {
	_ = e.ScrollIntoView(ctx)
	if err := e.Click(ctx); err != nil {
		if scriptErr := e.ScriptClick(ctx); scriptErr != nil {
			return errors.Join(err, scriptErr)
		}
	}
	return nil
}
