package scan

import (
	"strings"
	"unicode"
)

// SplitSentences splits text into sentence-like units. A boundary is a
// sentence-ending punctuation mark followed by whitespace and a capital
// letter, which keeps abbreviations and decimals like "3.5 million" intact.
func SplitSentences(text string) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	var sentences []string
	start := 0
	runes := []rune(text)

	for i := 0; i < len(runes)-2; i++ {
		if !isTerminator(runes[i]) {
			continue
		}
		if !unicode.IsSpace(runes[i+1]) {
			continue
		}

		// Skip past any further whitespace to the next word
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j >= len(runes) || !startsCapital(runes[j:]) {
			continue
		}

		sentence := strings.TrimSpace(string(runes[start : i+1]))
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = j
		i = j - 1
	}

	if rest := strings.TrimSpace(string(runes[start:])); rest != "" {
		sentences = append(sentences, rest)
	}

	return sentences
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// startsCapital reports whether the unit begins with a capital letter,
// looking past opening brackets and quotes.
func startsCapital(runes []rune) bool {
	for _, r := range runes {
		switch {
		case r == '[' || r == '(' || r == '"' || r == '\'' || r == '“':
			continue
		case unicode.IsUpper(r):
			return true
		default:
			return false
		}
	}
	return false
}
