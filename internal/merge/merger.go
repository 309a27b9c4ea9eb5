// Package merge folds newly ingested reports into the master dataset.
package merge

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/DeafMist/incident-radar/internal/dedupe"
	"github.com/DeafMist/incident-radar/internal/models"
)

// Store loads and saves the master dataset.
type Store interface {
	Load(ctx context.Context) ([]models.AnnotatedDocument, error)
	Save(ctx context.Context, docs []models.AnnotatedDocument) error
}

// Sink receives the records a run appended to the master dataset before the
// master is saved.
type Sink interface {
	Publish(ctx context.Context, docs []models.AnnotatedDocument) error
}

// Annotator classifies and extracts a batch of raw reports.
type Annotator interface {
	AnnotateAll(ctx context.Context, docs []models.RawDocument) ([]models.AnnotatedDocument, error)
}

// AuditFunc receives every newly annotated report of a run, relevant or not.
type AuditFunc func(ctx context.Context, annotated []models.AnnotatedDocument) error

// Result describes one merge.
type Result struct {
	// Master is the updated dataset.
	Master []models.AnnotatedDocument
	// Annotated holds every new report with its classification, relevant or not.
	Annotated []models.AnnotatedDocument
	// Appended are the records added to Master.
	Appended []models.AnnotatedDocument
	// Skipped counts incoming reports whose URL was already known.
	Skipped int
	// Irrelevant counts new reports that matched no category.
	Irrelevant int
}

// Added is the number of records appended to the master dataset.
func (r Result) Added() int {
	return len(r.Appended)
}

// Merger merges batches of raw reports into the master dataset.
type Merger struct {
	annotator Annotator
	log       *slog.Logger
	audit     AuditFunc
}

// New creates a Merger.
func New(annotator Annotator, logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Merger{annotator: annotator, log: logger}
}

// WithAudit sets a hook that Run calls with the annotated reports before any
// sink is published to or the master is saved.
func (m *Merger) WithAudit(fn AuditFunc) *Merger {
	m.audit = fn
	return m
}

// Merge annotates the reports of incoming whose URL is not yet in master and
// appends the relevant ones. The result never holds two records with the same
// (Title, Date, Location, URL); the earlier record wins. master is not
// modified.
func (m *Merger) Merge(ctx context.Context, master []models.AnnotatedDocument, incoming []models.RawDocument) (Result, error) {
	urls := dedupe.NewSet[string](len(master) + len(incoming))
	for _, doc := range master {
		urls.MarkSeen(doc.URL)
	}

	fresh := make([]models.RawDocument, 0, len(incoming))
	skipped := 0
	for _, doc := range incoming {
		if urls.CheckAndMark(doc.URL) {
			skipped++
			continue
		}
		fresh = append(fresh, doc)
	}

	if len(fresh) == 0 {
		m.log.Info("no new reports", slog.Int("skipped", skipped))
		return Result{Master: master, Skipped: skipped}, nil
	}

	annotated, err := m.annotator.AnnotateAll(ctx, fresh)
	if err != nil {
		return Result{}, fmt.Errorf("annotate reports: %w", err)
	}

	relevant := make([]models.AnnotatedDocument, 0, len(annotated))
	for _, doc := range annotated {
		if doc.Relevant() {
			relevant = append(relevant, doc)
		}
	}

	updated, appended := Deduplicate(master, relevant)

	m.log.Info("merged reports",
		slog.Int("incoming", len(incoming)),
		slog.Int("skipped", skipped),
		slog.Int("new", len(fresh)),
		slog.Int("relevant", len(relevant)),
		slog.Int("appended", len(appended)),
	)

	return Result{
		Master:     updated,
		Annotated:  annotated,
		Appended:   appended,
		Skipped:    skipped,
		Irrelevant: len(annotated) - len(relevant),
	}, nil
}

// Deduplicate concatenates master and extra, keeping the first record of each
// composite key. It returns the combined slice and the records of extra that
// survived.
func Deduplicate(master, extra []models.AnnotatedDocument) (combined, kept []models.AnnotatedDocument) {
	keys := dedupe.NewSet[models.Key](len(master) + len(extra))
	combined = make([]models.AnnotatedDocument, 0, len(master)+len(extra))
	for _, doc := range master {
		if keys.CheckAndMark(doc.Key()) {
			continue
		}
		combined = append(combined, doc)
	}
	for _, doc := range extra {
		if keys.CheckAndMark(doc.Key()) {
			continue
		}
		combined = append(combined, doc)
		kept = append(kept, doc)
	}
	return combined, kept
}

// Run loads the master dataset, merges incoming into it, passes the annotated
// reports to the audit hook, hands the appended records to every sink and
// saves the master. Nothing is saved unless every step succeeds, and nothing
// at all when no record was appended.
func (m *Merger) Run(ctx context.Context, store Store, incoming []models.RawDocument, sinks ...Sink) (Result, error) {
	master, err := store.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load master: %w", err)
	}

	res, err := m.Merge(ctx, master, incoming)
	if err != nil {
		return Result{}, err
	}
	if m.audit != nil && len(res.Annotated) > 0 {
		if err := m.audit(ctx, res.Annotated); err != nil {
			return Result{}, fmt.Errorf("audit annotated reports: %w", err)
		}
	}
	if res.Added() == 0 {
		return res, nil
	}

	for _, sink := range sinks {
		if err := sink.Publish(ctx, res.Appended); err != nil {
			return Result{}, fmt.Errorf("publish appended records: %w", err)
		}
	}

	if err := store.Save(ctx, res.Master); err != nil {
		return Result{}, fmt.Errorf("save master: %w", err)
	}
	return res, nil
}
