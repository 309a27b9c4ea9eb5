package models_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/incident-radar/internal/models"
)

func TestParseTopic(t *testing.T) {
	require.Equal(t, models.TopicRightWing, models.ParseTopic("RightWing"))
	require.Equal(t, models.TopicGeneralCrime, models.ParseTopic("GeneralCrime"))
	require.Equal(t, models.TopicOther, models.ParseTopic("Other"))
	require.Equal(t, models.Topic(""), models.ParseTopic("rightwing"))
	require.Equal(t, models.Topic(""), models.ParseTopic(""))
}

func TestIDDependsOnCompositeKeyOnly(t *testing.T) {
	a := models.RawDocument{Title: "T", Date: "d", Location: "l", URL: "u", Text: "one"}
	b := a
	b.Text = "two"
	b.SourceFile = "other.csv"
	require.Equal(t, a.ID(), b.ID())
	require.Equal(t, a.Key(), b.Key())
	require.Len(t, a.ID(), 40)

	c := a
	c.Location = "m"
	require.NotEqual(t, a.ID(), c.ID())
}

func TestIDSeparatesFields(t *testing.T) {
	tests := []struct {
		name string
		a, b models.RawDocument
	}{
		{
			name: "separator inside title",
			a:    models.RawDocument{Title: "a|b", Date: "c"},
			b:    models.RawDocument{Title: "a", Date: "b|c"},
		},
		{
			name: "field shifted into neighbour",
			a:    models.RawDocument{Title: "ab", Location: ""},
			b:    models.RawDocument{Title: "a", Date: "b"},
		},
		{
			name: "length-like prefix in value",
			a:    models.RawDocument{Title: "1:a", URL: "u"},
			b:    models.RawDocument{Title: "", Date: "a", URL: "u"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotEqual(t, tt.a.Key(), tt.b.Key())
			require.NotEqual(t, tt.a.ID(), tt.b.ID())
		})
	}
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		name string
		rw   *bool
		gc   *bool
		want bool
	}{
		{name: "unset", want: false},
		{name: "right wing", rw: models.Bool(true), gc: models.Bool(false), want: true},
		{name: "general crime", rw: models.Bool(false), gc: models.Bool(true), want: true},
		{name: "neither", rw: models.Bool(false), gc: models.Bool(false), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := models.AnnotatedDocument{RightWingRelated: tt.rw, GeneralCrimeRelated: tt.gc}
			require.Equal(t, tt.want, doc.Relevant())
		})
	}
}
