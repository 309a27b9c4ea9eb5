package lexicon_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/incident-radar/internal/lexicon"
)

func TestDefault(t *testing.T) {
	lex := lexicon.Default()
	require.Len(t, lex.RightWing, 23)
	require.Len(t, lex.GeneralCrime, 11)
	require.Len(t, lex.Actions, 13)
	require.Contains(t, lex.RightWing, "sieg heil")
	require.NoError(t, lex.Validate())

	// Default hands out copies.
	lex.RightWing[0] = "changed"
	require.Equal(t, "volksverhetzung", lexicon.Default().RightWing[0])
}

func TestParseOverridesListsPresentInFile(t *testing.T) {
	lex, err := lexicon.Parse([]byte(`
right_wing:
  - " Reichsbürger "
  - reichsbürger
  - ""
actions: []
`))
	require.NoError(t, err)
	require.Equal(t, []string{"reichsbürger"}, lex.RightWing)
	require.Equal(t, lexicon.Default().GeneralCrime, lex.GeneralCrime)
	require.Empty(t, lex.Actions)
}

func TestParseRejectsEmptyCategories(t *testing.T) {
	_, err := lexicon.Parse([]byte("right_wing: []\ngeneral_crime: []\n"))
	require.ErrorIs(t, err, lexicon.ErrEmpty)
}

func TestParseRejectsInvalidYAML(t *testing.T) {
	_, err := lexicon.Parse([]byte("right_wing: [unclosed"))
	require.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("general_crime: [Raub]\n"), 0o644))

	lex, err := lexicon.Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"raub"}, lex.GeneralCrime)

	_, err = lexicon.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
