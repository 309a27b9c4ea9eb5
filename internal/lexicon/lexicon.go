// Package lexicon holds the term lists used to classify reports and detect
// action types. The lists are German and may be replaced by a YAML file.
package lexicon

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/DeafMist/incident-radar/internal/processing"
)

// ErrEmpty is returned when a lexicon has no category terms at all.
var ErrEmpty = errors.New("lexicon has no category terms")

// Lexicon is the static term configuration of a run.
type Lexicon struct {
	RightWing    []string `yaml:"right_wing"`
	GeneralCrime []string `yaml:"general_crime"`
	Actions      []string `yaml:"actions"`
}

var defaultRightWing = []string{
	"volksverhetzung", "hitlergruß", "hakenkreuz", "nazi", "rechtsextremistisch",
	"rechtsextremisch", "fremdenfeindlich", "islamophobie", "islamfeindlichkeit",
	"nationalsozialismus", "nationalsozialistisch", "nationalsozialistische",
	"rassismus", "rassistisch", "antisemitismus", "antisemitisch",
	"homophobie", "transphobie", "queerfeindlichkeit", "queerphobie",
	"sieg heil", "verfassungswidrig", "mit politischem hintergrund",
}

var defaultGeneralCrime = []string{
	"diebstahl", "einbruch", "raub", "betrug", "körpverletzung", "brandstiftung",
	"überfall", "unfall", "drogen", "waffe", "drohung",
}

var defaultActions = []string{
	"graffiti", "angriff", "schlagen", "treten", "schubsen",
	"brandanschlag", "beleidigung", "versammlung", "online posts",
	"raubüberfall", "diebstahl", "körperverletzung",
	"tötungsversuch",
}

// Default returns a copy of the built-in lexicon.
func Default() Lexicon {
	return Lexicon{
		RightWing:    clean(defaultRightWing),
		GeneralCrime: clean(defaultGeneralCrime),
		Actions:      clean(defaultActions),
	}
}

// Load reads a YAML lexicon. Lists absent from the file keep their defaults.
func Load(path string) (Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, fmt.Errorf("read lexicon %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML lexicon document.
func Parse(data []byte) (Lexicon, error) {
	var file struct {
		RightWing    *[]string `yaml:"right_wing"`
		GeneralCrime *[]string `yaml:"general_crime"`
		Actions      *[]string `yaml:"actions"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Lexicon{}, fmt.Errorf("decode lexicon: %w", err)
	}

	lex := Default()
	if file.RightWing != nil {
		lex.RightWing = clean(*file.RightWing)
	}
	if file.GeneralCrime != nil {
		lex.GeneralCrime = clean(*file.GeneralCrime)
	}
	if file.Actions != nil {
		lex.Actions = clean(*file.Actions)
	}

	if err := lex.Validate(); err != nil {
		return Lexicon{}, err
	}
	return lex, nil
}

// Validate checks that at least one category can match.
func (l Lexicon) Validate() error {
	if len(l.RightWing) == 0 && len(l.GeneralCrime) == 0 {
		return ErrEmpty
	}
	return nil
}

// clean folds and trims terms, dropping blanks and repeats.
func clean(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		term = processing.Fold(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	return out
}
