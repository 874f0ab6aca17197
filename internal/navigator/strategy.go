package navigator

import (
	"context"
	"strings"

	"github.com/jonathan/apply-agent/internal/driver"
)

// Strategy is one way of locating the control that opens the application form.
// Selector narrows the candidates; Match, when set, filters them by their
// whitespace-normalized text.
type Strategy struct {
	Name     string
	Selector string
	Match    func(text string) bool
}

// DefaultEntryStrategies returns the entry locators in the order they are tried.
func DefaultEntryStrategies() []Strategy {
	return []Strategy{
		{
			Name:     "apply button id",
			Selector: "button#jobs-apply-button-id",
		},
		{
			Name:     "easy apply buttons",
			Selector: "button.jobs-apply-button",
			Match:    containsAny("Easy Apply"),
		},
		{
			Name:     "aria-label",
			Selector: `button[aria-label*="Easy Apply to"]`,
		},
		{
			Name:     "button text",
			Selector: "button",
			Match:    containsAny("Easy Apply", "Apply now"),
		},
		{
			Name:     "apply button class",
			Selector: "button.jobs-apply-button",
		},
	}
}

func containsAny(needles ...string) func(string) bool {
	return func(text string) bool {
		for _, n := range needles {
			if strings.Contains(text, n) {
				return true
			}
		}
		return false
	}
}

// locate returns the first usable candidate, or nil when there is none.
func (s Strategy) locate(ctx context.Context, page driver.Searcher) (driver.Element, error) {
	candidates, err := page.Find(ctx, s.Selector)
	if err != nil {
		return nil, err
	}
	for _, el := range candidates {
		if s.Match != nil && !s.Match(normalizeSpace(driver.TextOf(ctx, el))) {
			continue
		}
		if disabled, _ := el.Attr(ctx, "aria-disabled"); disabled == "true" {
			continue
		}
		if err := el.ScrollIntoView(ctx); err != nil {
			continue
		}
		return el, nil
	}
	return nil, nil
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
