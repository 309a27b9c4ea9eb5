// Package fuzzy finds lexicon terms in normalized text, either verbatim or
// as near-miss spellings.
package fuzzy

import (
	"sort"
	"unicode/utf8"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/DeafMist/incident-radar/internal/processing"
)

// DefaultThreshold is the minimum Ratio for an approximate match.
const DefaultThreshold = 0.85

// maxLengthDelta bounds the rune length difference between a token and a term
// for the token to be scored at all.
const maxLengthDelta = 3

// Result lists what a Matcher found in one text.
type Result struct {
	// Terms are the matched lexicon terms in lexicon order.
	Terms []string
	// Surfaces is the sorted set of literal spans that triggered any match.
	Surfaces []string
	// ByTerm maps each matched term to the spans that matched it.
	ByTerm map[string][]string
}

// Matcher matches one term list. It is safe for concurrent use.
type Matcher struct {
	terms     []string
	lengths   []int
	threshold float64
	ac        *ahocorasick.Matcher
}

// New builds a Matcher over already folded terms.
func New(terms []string, threshold float64) *Matcher {
	m := &Matcher{
		terms:     append([]string(nil), terms...),
		lengths:   make([]int, len(terms)),
		threshold: threshold,
	}
	for i, term := range terms {
		m.lengths[i] = utf8.RuneCountInString(term)
	}
	if len(terms) > 0 {
		m.ac = ahocorasick.NewStringMatcher(m.terms)
	}
	return m
}

// Match looks up every term in n. A term matches when it occurs as a whole
// word or phrase, or when some token of similar length scores at least the
// threshold against it. Every occurrence of a triggering span is recorded.
func (m *Matcher) Match(n processing.Normalized) Result {
	res := Result{ByTerm: map[string][]string{}}
	if m.ac == nil {
		return res
	}

	candidates := make(map[int]struct{})
	for _, idx := range m.ac.MatchThreadSafe([]byte(n.Text)) {
		candidates[idx] = struct{}{}
	}

	tokenLens := make([]int, len(n.Tokens))
	for i, tok := range n.Tokens {
		tokenLens[i] = utf8.RuneCountInString(tok)
	}

	all := map[string]struct{}{}
	for idx, term := range m.terms {
		var surfaces []string
		if _, ok := candidates[idx]; ok {
			surfaces = append(surfaces, processing.FindWord(n.Text, term)...)
		}
		for i, tok := range n.Tokens {
			if abs(tokenLens[i]-m.lengths[idx]) > maxLengthDelta {
				continue
			}
			if Ratio(tok, term) >= m.threshold {
				surfaces = append(surfaces, processing.FindWord(n.Text, tok)...)
			}
		}
		if len(surfaces) == 0 {
			continue
		}
		surfaces = uniqueSorted(surfaces)
		res.Terms = append(res.Terms, term)
		res.ByTerm[term] = surfaces
		for _, s := range surfaces {
			all[s] = struct{}{}
		}
	}

	res.Surfaces = setToSorted(all)
	return res
}

func uniqueSorted(in []string) []string {
	set := make(map[string]struct{}, len(in))
	for _, s := range in {
		set[s] = struct{}{}
	}
	return setToSorted(set)
}

func setToSorted(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
