package models

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// Topic is the single label assigned to a classified report.
type Topic string

const (
	TopicRightWing    Topic = "RightWing"
	TopicGeneralCrime Topic = "GeneralCrime"
	TopicOther        Topic = "Other"
)

// ParseTopic maps a stored label back to a Topic. Unknown labels yield "".
func ParseTopic(raw string) Topic {
	switch Topic(raw) {
	case TopicRightWing, TopicGeneralCrime, TopicOther:
		return Topic(raw)
	default:
		return ""
	}
}

// RawDocument is one ingested press release as produced by the scrapers.
type RawDocument struct {
	Title      string `json:"title"`
	Date       string `json:"date"`
	Location   string `json:"location"`
	Text       string `json:"text"`
	URL        string `json:"url"`
	SourceFile string `json:"source_file"`
}

// Key is the composite identity used to deduplicate the master dataset.
type Key struct {
	Title    string
	Date     string
	Location string
	URL      string
}

// Key returns the (Title, Date, Location, URL) tuple of the document.
func (d RawDocument) Key() Key {
	return Key{Title: d.Title, Date: d.Date, Location: d.Location, URL: d.URL}
}

// ID hashes the composite key into a stable document identifier. Each field
// is length-prefixed so that no two distinct keys share an encoding.
func (d RawDocument) ID() string {
	h := sha1.New()
	for _, field := range []string{d.Title, d.Date, d.Location, d.URL} {
		fmt.Fprintf(h, "%d:%s", len(field), field)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Extraction holds the facts pulled from a relevant report.
type Extraction struct {
	Date    string   `json:"date"`
	Times   []string `json:"times"`
	Ages    []string `json:"ages"`
	Genders []string `json:"genders"`
	Actions []string `json:"actions"`
	Streets []string `json:"streets"`
}

// AnnotatedDocument is a RawDocument plus its classification and, for
// relevant reports, the extracted fields. Nil flags mean the value was not
// recorded (older master files).
type AnnotatedDocument struct {
	RawDocument
	RightWingRelated    *bool       `json:"right_wing_related,omitempty"`
	GeneralCrimeRelated *bool       `json:"general_crime_related,omitempty"`
	Topic               Topic       `json:"topic,omitempty"`
	KeywordMatch        []string    `json:"keyword_match"`
	KeywordExtracted    []string    `json:"keyword_extracted"`
	Extraction          *Extraction `json:"extraction,omitempty"`

	// Extra carries columns of the master file this version does not know about.
	Extra map[string]string `json:"-"`
}

// Relevant reports whether either category matched.
func (d AnnotatedDocument) Relevant() bool {
	return isTrue(d.RightWingRelated) || isTrue(d.GeneralCrimeRelated)
}

func isTrue(b *bool) bool {
	return b != nil && *b
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}
