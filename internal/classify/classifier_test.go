package classify_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/incident-radar/internal/classify"
	"github.com/DeafMist/incident-radar/internal/fuzzy"
	"github.com/DeafMist/incident-radar/internal/lexicon"
	"github.com/DeafMist/incident-radar/internal/models"
	"github.com/DeafMist/incident-radar/internal/processing"
)

func TestClassifyDefaultLexicon(t *testing.T) {
	c := classify.New(lexicon.Default(), fuzzy.DefaultThreshold)

	tests := []struct {
		name      string
		title     string
		text      string
		topic     models.Topic
		rightWing bool
		general   bool
		match     []string
		extracted []string
	}{
		{
			name:      "hitler salute",
			text:      "Täter zeigte den Hitlergruß vor Zeugen",
			topic:     models.TopicRightWing,
			rightWing: true,
			match:     []string{"hitlergruß"},
			extracted: []string{"hitlergruß"},
		},
		{
			name:      "burglary",
			title:     "Einbruch in ein Einfamilienhaus",
			text:      "Diebstahl von Schmuck",
			topic:     models.TopicGeneralCrime,
			general:   true,
			match:     []string{"diebstahl", "einbruch"},
			extracted: []string{"diebstahl", "einbruch"},
		},
		{
			name:      "both categories",
			text:      "Rassistische Beleidigung und Diebstahl in der Hauptstraße",
			topic:     models.TopicRightWing,
			rightWing: true,
			general:   true,
			match:     []string{"rassistisch", "diebstahl"},
			extracted: []string{"diebstahl", "rassistische"},
		},
		{
			name:      "unrelated",
			title:     "Sonniges Wetter",
			text:      "in Potsdam",
			topic:     models.TopicOther,
			match:     nil,
			extracted: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(processing.Normalize(tt.title, tt.text))
			require.Equal(t, tt.topic, got.Topic)
			require.Equal(t, tt.rightWing, got.RightWingRelated)
			require.Equal(t, tt.general, got.GeneralCrimeRelated)
			require.Equal(t, tt.match, got.KeywordMatch)
			require.Equal(t, tt.extracted, got.KeywordExtracted)
			require.Equal(t, tt.rightWing || tt.general, got.Relevant())
		})
	}
}

func TestClassifyPriorityWithMinimalLexicon(t *testing.T) {
	lex := lexicon.Lexicon{RightWing: []string{"alpha"}, GeneralCrime: []string{"beta", "alpha"}}
	c := classify.New(lex, fuzzy.DefaultThreshold)

	both := c.Classify(processing.Normalize("", "alpha beta"))
	require.Equal(t, models.TopicRightWing, both.Topic)
	require.True(t, both.RightWingRelated)
	require.True(t, both.GeneralCrimeRelated)
	require.Equal(t, []string{"alpha", "beta"}, both.KeywordMatch)

	general := c.Classify(processing.Normalize("", "nur beta"))
	require.Equal(t, models.TopicGeneralCrime, general.Topic)

	other := c.Classify(processing.Normalize("", "gamma"))
	require.Equal(t, models.TopicOther, other.Topic)
	require.False(t, other.Relevant())
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := classify.New(lexicon.Default(), fuzzy.DefaultThreshold)
	n := processing.Normalize("Hakenkreuzen und Nazzi-Parolen", "Diebstahl und Einbruch")

	first := c.Classify(n)
	for range 5 {
		require.Equal(t, first, c.Classify(n))
	}
}
