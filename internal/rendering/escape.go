package rendering

import "strings"

// EscapeLaTeX escapes special LaTeX characters in text.
// Special characters: \ { } $ & % # ^ _ ~ < >
// Control characters other than newline and tab are dropped.
func EscapeLaTeX(text string) string {
	if text == "" {
		return ""
	}

	var result strings.Builder
	result.Grow(len(text) * 2)

	for _, r := range text {
		switch r {
		case '\\':
			result.WriteString(`\textbackslash{}`)
		case '{':
			result.WriteString(`\{`)
		case '}':
			result.WriteString(`\}`)
		case '$':
			result.WriteString(`\$`)
		case '&':
			result.WriteString(`\&`)
		case '%':
			result.WriteString(`\%`)
		case '#':
			result.WriteString(`\#`)
		case '^':
			result.WriteString(`\textasciicircum{}`)
		case '_':
			result.WriteString(`\_`)
		case '~':
			result.WriteString(`\textasciitilde{}`)
		case '<':
			result.WriteString(`\textless{}`)
		case '>':
			result.WriteString(`\textgreater{}`)
		case '\n', '\t':
			result.WriteRune(r)
		default:
			if r < 0x20 || r == 0x7F {
				continue
			}
			result.WriteRune(r)
		}
	}

	return result.String()
}

// Paragraphs splits text on blank lines, joins the lines inside each paragraph
// and drops empty paragraphs.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, block := range strings.Split(text, "\n\n") {
		p := strings.Join(strings.Fields(block), " ")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
