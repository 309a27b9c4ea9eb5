// Package extract pulls structured facts out of relevant reports.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/DeafMist/incident-radar/internal/fuzzy"
	"github.com/DeafMist/incident-radar/internal/models"
	"github.com/DeafMist/incident-radar/internal/processing"
)

// Word boundaries are checked by processing.FindAllWords since RE2's \b is
// ASCII only and would split words such as "hitlergruß".
var (
	dateRegex   = regexp.MustCompile(`(\d{1,2}[./]\d{1,2}[./]\d{2,4})`)
	timeRegex   = regexp.MustCompile(`([0-2]?\d[:.][0-5]\d)(?:\s*uhr\b)?`)
	ageRegex    = regexp.MustCompile(`(\d{1,3})(?:[- ]?jährig(?:e[rn]?)?|\sjahre alt)`)
	genderRegex = regexp.MustCompile(`(jugendlicher|jugendliche|mädchen|junge|mann|frau)`)
	streetRegex = regexp.MustCompile(`([a-zäöüß]+(?:straße|platz|allee|ring))`)
)

// Extractor is safe for concurrent use.
type Extractor struct {
	actions *fuzzy.Matcher
}

// New builds an Extractor matching actions at the given threshold.
func New(actions []string, threshold float64) *Extractor {
	return &Extractor{actions: fuzzy.New(actions, threshold)}
}

// Extract runs every field pattern. rawDate is the source Date column, n the
// normalized title and body. Absent fields come back as empty slices.
func (e *Extractor) Extract(rawDate string, n processing.Normalized) models.Extraction {
	actions := e.actions.Match(n).Terms
	if actions == nil {
		actions = []string{}
	}
	return models.Extraction{
		Date:    ExtractDate(rawDate),
		Times:   ExtractTimes(n.Text),
		Ages:    findAll(ageRegex, n.Text),
		Genders: findAll(genderRegex, n.Text),
		Actions: actions,
		Streets: findAll(streetRegex, n.Text),
	}
}

// ExtractDate returns the first d.m.y date in raw, or raw unchanged.
func ExtractDate(raw string) string {
	matches := findAll(dateRegex, strings.ToLower(raw))
	if len(matches) == 0 {
		return raw
	}
	return matches[0]
}

// ExtractTimes returns every clock time in text, with or without a trailing
// "uhr". Candidates that are part of a longer dotted or slashed number, such
// as "18.03" in "18.03.2021", are skipped, as are day-month dates written
// without a year ("18.03.").
func ExtractTimes(text string) []string {
	out := []string{}
	for _, loc := range processing.FindAllWords(timeRegex, text) {
		if partOfNumber(text, loc[2], loc[3]) {
			continue
		}
		if loc[1] == loc[3] && shortDate(text, loc[2], loc[3]) {
			continue
		}
		out = append(out, text[loc[2]:loc[3]])
	}
	return out
}

func findAll(re *regexp.Regexp, text string) []string {
	out := []string{}
	for _, loc := range processing.FindAllWords(re, text) {
		out = append(out, text[loc[2]:loc[3]])
	}
	return out
}

// partOfNumber reports whether [start, end) continues into a separator and
// digit on either side.
func partOfNumber(text string, start, end int) bool {
	if end+1 < len(text) && isSeparator(text[end]) && isDigit(text[end+1]) {
		return true
	}
	if start >= 2 && isSeparator(text[start-1]) && isDigit(text[start-2]) {
		return true
	}
	return false
}

// shortDate reports whether text[start:end] reads as "dd.mm" followed by a
// closing dot, with a valid day and month.
func shortDate(text string, start, end int) bool {
	if end >= len(text) || text[end] != '.' {
		return false
	}
	day, month, ok := strings.Cut(text[start:end], ".")
	if !ok {
		return false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return false
	}
	m, err := strconv.Atoi(month)
	return err == nil && m >= 1 && m <= 12
}

func isSeparator(b byte) bool {
	return b == '.' || b == ':' || b == '/'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
