package rendering

import (
	_ "embed"
	"strings"
	"text/template"
	"time"

	"github.com/jonathan/apply-agent/internal/types"
)

//go:embed templates/cover_letter.tex
var coverLetterTemplate string

// MaxCoverLetterChars bounds the letter body so the document stays on one page.
const MaxCoverLetterChars = 3000

// CoverLetterData is passed to the cover letter template. All fields are LaTeX-escaped.
type CoverLetterData struct {
	Name       string
	Company    string
	Title      string
	Date       string
	Paragraphs []string
}

var coverLetterTmpl = template.Must(template.New("cover_letter").Parse(coverLetterTemplate))

// RenderCoverLetter renders body as a one-page LaTeX letter addressed to the job's company.
func RenderCoverLetter(body string, job *types.ApplicationJob, name string, date time.Time) (string, error) {
	paragraphs := Paragraphs(truncate(body, MaxCoverLetterChars))
	if len(paragraphs) == 0 {
		return "", &TemplateError{Message: "cover letter body is empty"}
	}

	data := CoverLetterData{
		Name: EscapeLaTeX(name),
		Date: EscapeLaTeX(date.Format("January 2, 2006")),
	}
	if job != nil {
		data.Company = EscapeLaTeX(job.Company)
		data.Title = EscapeLaTeX(job.Title)
	}
	for _, p := range paragraphs {
		data.Paragraphs = append(data.Paragraphs, EscapeLaTeX(p))
	}

	var result strings.Builder
	if err := coverLetterTmpl.Execute(&result, data); err != nil {
		return "", &TemplateError{Message: "failed to execute template", Cause: err}
	}
	return result.String(), nil
}

// truncate cuts text to at most limit runes, backing up to the last space.
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	cut := string(runes[:limit])
	if idx := strings.LastIndexAny(cut, " \n"); idx > 0 {
		cut = cut[:idx]
	}
	return cut
}
