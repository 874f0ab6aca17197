package textmatch

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase and trim", "  Do you have a license?  ", "do you have a license?"},
		{"trailing comma", "City,", "city"},
		{"trailing comma then space", "City , ", "city"},
		{"quotes and backslashes", `What is your \"preferred\" name`, "what is your preferred name"},
		{"newline folded", "Years of\nexperience", "years of experience"},
		{"carriage return dropped", "Years\r\nof experience", "years of experience"},
		{"control characters", "abc\x01\x1fdef\x7f", "abcdef"},
		{"control char hides trailing comma", "a ,\x01", "a"},
		{"tab stripped", "\tPhone number", "phone number"},
		{"empty", "", ""},
		{"only commas", ",,,", ""},
		{"unicode", "  ÉTES-VOUS Disponible? ", "étes-vous disponible?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	samples := []string{
		"", " ", ",", " , ,", "a ,\x01", "\n,\n", "X\u0085,", " Hello, ", `"\"`, "İstanbul",
		"Are you legally authorized to work in the United States?\n",
	}
	for _, s := range samples {
		once := Normalize(s)
		assert.Equal(t, once, Normalize(once), "input %q", s)
	}

	property := func(s string) bool {
		once := Normalize(s)
		return Normalize(once) == once
	}
	assert.NoError(t, quick.Check(property, nil))
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 1.0, Ratio("same", "same"))
	assert.Equal(t, 1.0, Ratio("", ""))
	assert.Equal(t, 0.0, Ratio("abc", ""))
	assert.Equal(t, 0.0, Ratio("abc", "xyz"))
	assert.InDelta(t, 0.75, Ratio("abcd", "abcx"), 1e-9)

	score := Ratio("do you have a license?", "do you have a licence?")
	assert.Greater(t, score, 0.85)
	assert.Less(t, score, 1.0)
}

func TestRatio_Symmetric(t *testing.T) {
	property := func(a, b string) bool {
		return Ratio(a, b) == Ratio(b, a)
	}
	assert.NoError(t, quick.Check(property, nil))
}

func TestRatio_Bounds(t *testing.T) {
	property := func(a, b string) bool {
		r := Ratio(a, b)
		return r >= 0 && r <= 1
	}
	assert.NoError(t, quick.Check(property, nil))
}

func TestIndexOption(t *testing.T) {
	options := []string{"Yes", "No", " Prefer not to say "}

	assert.Equal(t, 0, IndexOption("yes", options))
	assert.Equal(t, 1, IndexOption("  NO ", options))
	assert.Equal(t, 2, IndexOption("prefer not to say", options))
	assert.Equal(t, -1, IndexOption("maybe", options))
	assert.Equal(t, -1, IndexOption("yes", nil))
}

func TestClosest(t *testing.T) {
	options := []string{"Immediately", "2 weeks", "1 month"}

	assert.Equal(t, 1, Closest("2 Weeks.", options))
	assert.Equal(t, 0, Closest("immediately", options))
	assert.Equal(t, -1, Closest("anything", nil))
	assert.Equal(t, 0, Closest("zzz", []string{"aaa", "bbb"}), "first-seen wins ties")
}
