package jobpage

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/apply-agent/internal/driver/drivertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const postingURL = "https://www.linkedin.com/jobs/view/42"

const postingHTML = `<html><body>
<div class="jobs-description-content__text">
  <h2>About the job</h2>
  <p>We build   payment rails.</p>

  <p>You will own Go services.</p>
</div>
<div id="job-details">fallback details</div>
<section>
  <a href="https://www.linkedin.com/in/not-the-recruiter">Someone earlier</a>
  <h2>Meet the hiring team</h2>
  <div><a href="https://www.linkedin.com/in/jane-recruiter">Jane</a></div>
  <a href="https://www.linkedin.com/in/second">Second</a>
</section>
</body></html>`

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestExtractDescription(t *testing.T) {
	tests := []struct {
		name   string
		html   string
		want   string
		wantOK bool
	}{
		{
			name:   "primary selector",
			html:   postingHTML,
			want:   "About the job\nWe build   payment rails.\nYou will own Go services.",
			wantOK: true,
		},
		{
			name:   "falls back to job details",
			html:   `<div id="job-details">  Remote friendly  </div>`,
			want:   "Remote friendly",
			wantOK: true,
		},
		{
			name:   "empty primary falls back",
			html:   `<div class="jobs-description-content__text">  </div><div id="job-details">Details</div>`,
			want:   "Details",
			wantOK: true,
		},
		{
			name: "missing",
			html: `<p>nothing</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractDescription(parse(t, tt.html))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractRecruiterLink(t *testing.T) {
	assert.Equal(t, "https://www.linkedin.com/in/jane-recruiter", ExtractRecruiterLink(parse(t, postingHTML)))
	assert.Equal(t, "", ExtractRecruiterLink(parse(t, `<a href="https://www.linkedin.com/in/x">x</a>`)))
	assert.Equal(t, "", ExtractRecruiterLink(parse(t, `<h2>Meet the hiring team</h2><p>No one listed</p>`)))
}

func TestReader_DescriptionExpandsSeeMore(t *testing.T) {
	page := drivertest.NewPage(postingURL, `<html><body>
<button aria-label="Click to see more description">See more</button>
<div class="jobs-description-content__text">Short</div>
</body></html>`)
	page.OnClick(SeeMoreSelector, func(p *drivertest.Page) {
		p.SetHTML(`<div class="jobs-description-content__text">Short and the full story</div>`)
	})

	desc, err := NewReader(page, 0, zaptest.NewLogger(t)).Description(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Short and the full story", desc)
	assert.Equal(t, []string{"button:See more"}, page.Clicks())
}

func TestReader_DescriptionNotFound(t *testing.T) {
	page := drivertest.NewPage(postingURL, `<html><body><p>Job closed</p></body></html>`)

	_, err := NewReader(page, 0, zaptest.NewLogger(t)).Description(context.Background())
	assert.ErrorIs(t, err, ErrDescriptionNotFound)
}

func TestReader_RecruiterLink(t *testing.T) {
	page := drivertest.NewPage(postingURL, postingHTML)
	assert.Equal(t, "https://www.linkedin.com/in/jane-recruiter", NewReader(page, 0, nil).RecruiterLink(context.Background()))
}
