package classify

import (
	"sort"

	"github.com/DeafMist/incident-radar/internal/fuzzy"
	"github.com/DeafMist/incident-radar/internal/lexicon"
	"github.com/DeafMist/incident-radar/internal/models"
	"github.com/DeafMist/incident-radar/internal/processing"
)

// Classification is the verdict for one report.
type Classification struct {
	Topic               models.Topic
	RightWingRelated    bool
	GeneralCrimeRelated bool
	KeywordMatch        []string
	KeywordExtracted    []string
}

// Relevant reports whether field extraction should run.
func (c Classification) Relevant() bool {
	return c.RightWingRelated || c.GeneralCrimeRelated
}

// Classifier assigns topics using the right-wing and general-crime lexicons.
type Classifier struct {
	rightWing    *fuzzy.Matcher
	generalCrime *fuzzy.Matcher
}

// New builds a Classifier for lex at the given similarity threshold.
func New(lex lexicon.Lexicon, threshold float64) *Classifier {
	return &Classifier{
		rightWing:    fuzzy.New(lex.RightWing, threshold),
		generalCrime: fuzzy.New(lex.GeneralCrime, threshold),
	}
}

// Classify matches both lexicons against n. Both flags are reported as found;
// the topic prefers RightWing over GeneralCrime.
func (c *Classifier) Classify(n processing.Normalized) Classification {
	rw := c.rightWing.Match(n)
	gc := c.generalCrime.Match(n)

	out := Classification{
		Topic:               models.TopicOther,
		RightWingRelated:    len(rw.Terms) > 0,
		GeneralCrimeRelated: len(gc.Terms) > 0,
		KeywordMatch:        appendUnique(nil, rw.Terms, gc.Terms),
		KeywordExtracted:    mergeSorted(rw.Surfaces, gc.Surfaces),
	}

	switch {
	case out.RightWingRelated:
		out.Topic = models.TopicRightWing
	case out.GeneralCrimeRelated:
		out.Topic = models.TopicGeneralCrime
	}
	return out
}

func appendUnique(dst []string, lists ...[]string) []string {
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, s := range list {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			dst = append(dst, s)
		}
	}
	return dst
}

func mergeSorted(a, b []string) []string {
	out := appendUnique(nil, a, b)
	sort.Strings(out)
	return out
}
