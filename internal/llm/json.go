package llm

import "strings"

// extractJSON pulls a JSON payload out of a model response that may be
// wrapped in markdown fences or surrounded by prose.
func extractJSON(s string) string {
	for _, fence := range []string{"```json", "```"} {
		if body, ok := fencedBlock(s, fence); ok {
			return body
		}
	}

	// Fall back to the first balanced {...} or [...] in the text.
	for i := 0; i < len(s); i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		depth := 0
		for j := i; j < len(s); j++ {
			switch s[j] {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
				if depth == 0 {
					return s[i : j+1]
				}
			}
		}
	}

	return s
}

func fencedBlock(s, fence string) (string, bool) {
	start := strings.Index(s, fence)
	if start == -1 {
		return "", false
	}
	start += len(fence)
	end := strings.Index(s[start:], "```")
	if end == -1 {
		return "", false
	}
	return strings.Trim(s[start:start+end], "\r\n"), true
}
