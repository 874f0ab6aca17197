// Package jobpage reads the job description and recruiter link from a rendered
// job posting.
package jobpage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/apply-agent/internal/driver"
	"github.com/jonathan/apply-agent/internal/logging"
	"go.uber.org/zap"
)

// ErrDescriptionNotFound is returned when no description selector matches.
var ErrDescriptionNotFound = errors.New("job description not found")

const (
	SeeMoreSelector   = `button[aria-label="Click to see more description"]`
	HiringTeamHeading = "Meet the hiring team"

	recruiterSelector = `a[href*="linkedin.com/in/"]`
)

// DescriptionSelectors locate the description body, in priority order.
var DescriptionSelectors = []string{
	".jobs-description-content__text",
	"#job-details",
}

// Reader scrapes the job posting currently shown in a tab.
type Reader struct {
	page   driver.Driver
	settle time.Duration
	logger *zap.Logger
}

// NewReader creates a Reader. settle is how long the description is given to
// expand after "see more" is clicked.
func NewReader(page driver.Driver, settle time.Duration, logger *zap.Logger) *Reader {
	return &Reader{page: page, settle: settle, logger: logging.OrNop(logger)}
}

// Description expands the description if it is collapsed and returns its text.
func (r *Reader) Description(ctx context.Context) (string, error) {
	if seeMore, err := driver.FindFirst(ctx, r.page, SeeMoreSelector); err == nil {
		if err := driver.ClickWithFallback(ctx, seeMore); err != nil {
			r.logger.Debug("could not expand description", zap.Error(err))
		} else if err := wait(ctx, r.settle); err != nil {
			return "", err
		}
	}

	doc, err := r.document(ctx)
	if err != nil {
		return "", err
	}
	text, ok := ExtractDescription(doc)
	if !ok {
		return "", ErrDescriptionNotFound
	}
	return text, nil
}

// RecruiterLink returns the first profile link under the hiring team heading,
// or "" when the posting has none.
func (r *Reader) RecruiterLink(ctx context.Context) string {
	doc, err := r.document(ctx)
	if err != nil {
		r.logger.Debug("could not read recruiter link", zap.Error(err))
		return ""
	}
	return ExtractRecruiterLink(doc)
}

func (r *Reader) document(ctx context.Context) (*goquery.Document, error) {
	html, err := r.page.HTML(ctx)
	if err != nil {
		return nil, &driver.BrowserError{Action: "read html", Cause: err}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// ExtractDescription returns the cleaned text of the first matching
// description element.
func ExtractDescription(doc *goquery.Document) (string, bool) {
	for _, selector := range DescriptionSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			text := cleanWhitespace(selection.First().Text())
			if text != "" {
				return text, true
			}
		}
	}
	return "", false
}

// ExtractRecruiterLink returns the href of the first profile link that follows
// the hiring team heading in document order.
func ExtractRecruiterLink(doc *goquery.Document) string {
	seenHeading := false
	var link string
	doc.Find("h2, " + recruiterSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if goquery.NodeName(s) == "h2" {
			if strings.TrimSpace(s.Text()) == HiringTeamHeading {
				seenHeading = true
			}
			return true
		}
		if seenHeading {
			link, _ = s.Attr("href")
			return false
		}
		return true
	})
	return link
}

func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
