// Package pipeline turns raw reports into annotated ones.
package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/DeafMist/incident-radar/internal/classify"
	"github.com/DeafMist/incident-radar/internal/extract"
	"github.com/DeafMist/incident-radar/internal/lexicon"
	"github.com/DeafMist/incident-radar/internal/models"
	"github.com/DeafMist/incident-radar/internal/processing"
)

const defaultWorkers = 4

// Annotator classifies a report and extracts fields from relevant ones.
type Annotator struct {
	classifier *classify.Classifier
	extractor  *extract.Extractor
	workers    int
}

// NewAnnotator wires a classifier and extractor for lex. workers bounds the
// fan-out of AnnotateAll; values below 1 fall back to a default.
func NewAnnotator(lex lexicon.Lexicon, threshold float64, workers int) *Annotator {
	if workers < 1 {
		workers = defaultWorkers
	}
	return &Annotator{
		classifier: classify.New(lex, threshold),
		extractor:  extract.New(lex.Actions, threshold),
		workers:    workers,
	}
}

// Annotate produces a new AnnotatedDocument for doc. Extraction is only
// attempted when the classification is relevant.
func (a *Annotator) Annotate(doc models.RawDocument) models.AnnotatedDocument {
	n := processing.Normalize(doc.Title, doc.Text)
	c := a.classifier.Classify(n)

	out := models.AnnotatedDocument{
		RawDocument:         doc,
		RightWingRelated:    models.Bool(c.RightWingRelated),
		GeneralCrimeRelated: models.Bool(c.GeneralCrimeRelated),
		Topic:               c.Topic,
		KeywordMatch:        nonNil(c.KeywordMatch),
		KeywordExtracted:    nonNil(c.KeywordExtracted),
	}
	if c.Relevant() {
		ex := a.extractor.Extract(doc.Date, n)
		out.Extraction = &ex
	}
	return out
}

// AnnotateAll annotates docs concurrently. The result is in input order.
func (a *Annotator) AnnotateAll(ctx context.Context, docs []models.RawDocument) ([]models.AnnotatedDocument, error) {
	out := make([]models.AnnotatedDocument, len(docs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, doc := range docs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			out[i] = a.Annotate(doc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
