package llm

import "strings"

// CleanJSONBlock removes markdown code block wrappers and conversational
// preamble from JSON responses.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip a language identifier on the first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.ContainsAny(firstLine, " {[") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	start := strings.IndexAny(text, "{[")
	if start <= 0 {
		return text
	}
	closing := "}"
	if text[start] == '[' {
		closing = "]"
	}
	end := strings.LastIndex(text, closing)
	if end < start {
		return text
	}
	return text[start : end+1]
}

// FirstLine returns the first non-empty line of a model answer with
// surrounding quotes and whitespace removed.
func FirstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, "\"'`*")
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}
