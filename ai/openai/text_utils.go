package openai

import "strings"

// maxInputWords bounds how much document text is sent to the model.
// Long contracts are clipped rather than rejected.
const maxInputWords = 12000

// clipWords truncates text to at most max words.
func clipWords(text string, max int) string {
	words := strings.Fields(text)
	if len(words) <= max {
		return text
	}
	return strings.Join(words[:max], " ")
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
