package rendering

import (
	"strings"
	"testing"
	"time"

	"github.com/jonathan/apply-agent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCoverLetter(t *testing.T) {
	job := &types.ApplicationJob{Title: "Backend Engineer (Go)", Company: "Acme & Sons"}
	body := "I have built payment systems handling $1M/day.\n\nI would love to bring that to 100% of your users."

	tex, err := RenderCoverLetter(body, job, "Jane Doe", time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Contains(t, tex, `\documentclass[11pt]{letter}`)
	assert.Contains(t, tex, `\signature{Jane Doe}`)
	assert.Contains(t, tex, `\begin{letter}{Acme \& Sons}`)
	assert.Contains(t, tex, `\date{March 9, 2026}`)
	assert.Contains(t, tex, "for the Backend Engineer (Go) role")
	assert.Contains(t, tex, `handling \$1M/day.`)
	assert.Contains(t, tex, `100\% of your users.`)
	assert.Less(t, strings.Index(tex, "payment systems"), strings.Index(tex, "your users"))
}

func TestRenderCoverLetter_NoJobTitle(t *testing.T) {
	tex, err := RenderCoverLetter("Hello.", nil, "Jane", time.Now())
	require.NoError(t, err)
	assert.Contains(t, tex, `\opening{Dear Hiring Team,}`)
}

func TestRenderCoverLetter_EmptyBody(t *testing.T) {
	_, err := RenderCoverLetter(" \n\n ", nil, "Jane", time.Now())
	var tmplErr *TemplateError
	assert.ErrorAs(t, err, &tmplErr)
}

func TestRenderCoverLetter_TruncatesLongBody(t *testing.T) {
	body := strings.Repeat("word ", MaxCoverLetterChars)

	tex, err := RenderCoverLetter(body, nil, "Jane", time.Now())
	require.NoError(t, err)
	assert.LessOrEqual(t, strings.Count(tex, "word"), MaxCoverLetterChars/5)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "hello", truncate("hello world", 8))
	assert.Equal(t, "abcdefgh", truncate("abcdefghij", 8))
}
