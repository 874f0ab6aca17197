// Package prompts holds the oracle prompt templates.
// Templates live in oracle.json, embedded at compile time, and use {{.Name}}
// placeholders.
package prompts

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"
)

// Key names one oracle prompt.
type Key string

const (
	ScoreJobMatch     Key = "score-job-match"
	AnswerFromOptions Key = "answer-from-options"
	AnswerFreeText    Key = "answer-free-text"
	AnswerNumeric     Key = "answer-numeric"
	AnswerDate        Key = "answer-date"
	ClassifyUpload    Key = "classify-upload"
)

// Keys lists every prompt the oracle needs.
var Keys = []Key{ScoreJobMatch, AnswerFromOptions, AnswerFreeText, AnswerNumeric, AnswerDate, ClassifyUpload}

//go:embed oracle.json
var oracleFile []byte

var placeholder = regexp.MustCompile(`\{\{\.([A-Za-z]+)\}\}`)

// Set is a parsed collection of prompt templates.
type Set map[Key]string

// Parse reads a JSON object of key -> template and checks that every key in Keys is present.
func Parse(data []byte) (Set, error) {
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file: %w", err)
	}
	var missing []string
	for _, k := range Keys {
		if strings.TrimSpace(set[k]) == "" {
			missing = append(missing, string(k))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("prompt file is missing %s", strings.Join(missing, ", "))
	}
	return set, nil
}

var loadOracle = sync.OnceValues(func() (Set, error) {
	return Parse(oracleFile)
})

// Oracle returns the embedded oracle prompts.
func Oracle() Set {
	set, err := loadOracle()
	if err != nil {
		panic(fmt.Sprintf("embedded oracle prompts: %v", err))
	}
	return set
}

// Placeholders returns the distinct placeholder names used by the template for key, in order.
func (s Set) Placeholders(key Key) []string {
	var names []string
	for _, m := range placeholder.FindAllStringSubmatch(s[key], -1) {
		if !slices.Contains(names, m[1]) {
			names = append(names, m[1])
		}
	}
	return names
}

// Render fills the template for key. Placeholders without data render empty.
func (s Set) Render(key Key, data map[string]string) (string, error) {
	tmpl, ok := s[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found", key)
	}
	out := placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		return data[placeholder.FindStringSubmatch(m)[1]]
	})
	return out, nil
}
