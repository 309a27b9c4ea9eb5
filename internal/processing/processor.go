package processing

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var tokenRegex = regexp.MustCompile(`[\p{L}\p{N}\p{M}_]+`)

// Normalized is the lowercased form of a report used by every matcher.
type Normalized struct {
	Text   string
	Tokens []string
}

// Normalize joins title and body with a space, folds the result and splits
// it into the distinct word tokens it contains.
func Normalize(title, text string) Normalized {
	folded := Fold(title + " " + text)
	return Normalized{Text: folded, Tokens: Tokenize(folded)}
}

// Fold composes the input to NFC and lowercases it, so that umlauts typed as
// combining sequences compare equal to their precomposed forms.
func Fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// Tokenize returns the sorted set of word tokens in text.
func Tokenize(text string) []string {
	matches := tokenRegex.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	tokens := make([]string, 0, len(matches))
	for _, tok := range matches {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)
	return tokens
}

// IsWordRune reports whether r belongs to a word token.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// AtBoundary reports whether the span [start, end) of text is delimited by
// non-word characters (or the ends of text) on both sides.
func AtBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if IsWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if IsWordRune(r) {
			return false
		}
	}
	return true
}

// FindWord returns every whole-word occurrence of word in text.
func FindWord(text, word string) []string {
	if word == "" {
		return nil
	}
	var out []string
	for pos := 0; pos < len(text); {
		i := strings.Index(text[pos:], word)
		if i < 0 {
			break
		}
		start := pos + i
		end := start + len(word)
		if AtBoundary(text, start, end) {
			out = append(out, text[start:end])
			pos = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		pos = start + size
	}
	return out
}

// FindAllWords runs re over text and returns the submatch indices of every
// match that sits on word boundaries. A match rejected for its boundaries is
// retried one rune further on. Patterns must not start with ^ or \b.
func FindAllWords(re *regexp.Regexp, text string) [][]int {
	var out [][]int
	for pos := 0; pos <= len(text); {
		loc := re.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		for i := range loc {
			if loc[i] >= 0 {
				loc[i] += pos
			}
		}
		start, end := loc[0], loc[1]
		if end > start && AtBoundary(text, start, end) {
			out = append(out, loc)
			pos = end
			continue
		}
		if start >= len(text) {
			break
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		pos = start + size
	}
	return out
}
