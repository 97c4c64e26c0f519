package keywords

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Match returns the vocabulary entries that occur in text as whole words or
// phrases, ignoring case. Results follow vocabulary order without duplicates.
//
// Only edges of a keyword that are word characters are anchored: "script"
// does not match inside "typescript", while "c++" and "c#" match after a word
// boundary regardless of what follows the symbol.
func Match(text string, vocabulary []string) []string {
	found := make([]string, 0)
	if text == "" {
		return found
	}

	lower := strings.ToLower(text)
	seen := make(map[string]struct{}, len(vocabulary))
	for _, keyword := range vocabulary {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		if _, ok := seen[keyword]; ok {
			continue
		}
		if containsWord(lower, keyword) {
			seen[keyword] = struct{}{}
			found = append(found, keyword)
		}
	}
	return found
}

// containsWord expects both arguments already lowercased.
func containsWord(text, keyword string) bool {
	first, _ := utf8.DecodeRuneInString(keyword)
	last, _ := utf8.DecodeLastRuneInString(keyword)
	anchorStart := isWordRune(first)
	anchorEnd := isWordRune(last)

	for offset := 0; offset < len(text); {
		idx := strings.Index(text[offset:], keyword)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(keyword)

		if (!anchorStart || boundaryBefore(text, start)) && (!anchorEnd || boundaryAfter(text, end)) {
			return true
		}

		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return false
}

func boundaryBefore(text string, pos int) bool {
	if pos == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:pos])
	return !isWordRune(r)
}

func boundaryAfter(text string, pos int) bool {
	if pos >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[pos:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
