// Package dataset reads CSV and XLSX input tables and reads and writes the
// master dataset as CSV.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/DeafMist/incident-radar/internal/models"
)

var (
	// ErrNoInput means there was nothing to process.
	ErrNoInput = errors.New("no input rows")
	// ErrMissingColumn means a table lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
)

// LoadDir reads every *.csv and *.xlsx file of dir in name order and
// concatenates their rows. SourceFile is set to the file's base name.
func LoadDir(dir string) ([]models.RawDocument, error) {
	var paths []string
	for _, pattern := range []string{"*.csv", "*.xlsx"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", dir, err)
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no CSV or XLSX files found in %s", ErrNoInput, dir)
	}
	sort.Strings(paths)

	docs, err := LoadFiles(paths...)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: input files in %s contain no rows", ErrNoInput, dir)
	}
	return docs, nil
}

// LoadFiles reads and concatenates the given input tables. Files ending in
// .xlsx are read as workbooks, everything else as CSV.
func LoadFiles(paths ...string) ([]models.RawDocument, error) {
	var docs []models.RawDocument
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		read := ReadInput
		if strings.EqualFold(filepath.Ext(path), ".xlsx") {
			read = ReadWorkbook
		}
		rows, err := read(f, filepath.Base(path))
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		docs = append(docs, rows...)
	}
	return docs, nil
}

// ReadInput parses one CSV input table. Title, Text and URL columns are
// required; Date and Location default to empty. A SourceFile column in the
// table wins over source.
func ReadInput(r io.Reader, source string) ([]models.RawDocument, error) {
	tbl, err := readTable(r, RequiredInputColumns)
	if err != nil {
		return nil, err
	}
	return tbl.rawDocuments(source), nil
}

func (t *table) rawDocuments(source string) []models.RawDocument {
	docs := make([]models.RawDocument, 0, len(t.rows))
	for _, row := range t.rows {
		doc := t.raw(row)
		if doc.SourceFile == "" {
			doc.SourceFile = source
		}
		docs = append(docs, doc)
	}
	return docs
}

type table struct {
	header []string
	index  map[string]int
	rows   [][]string
}

func readTable(r io.Reader, required []string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty table, expected %s", ErrMissingColumn, strings.Join(required, ", "))
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	tbl, err := newTable(header, required)
	if err != nil {
		return nil, err
	}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		tbl.rows = append(tbl.rows, row)
	}
	return tbl, nil
}

// newTable indexes header by trimmed column name and checks required.
func newTable(header []string, required []string) (*table, error) {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	tbl := &table{header: header, index: make(map[string]int, len(header))}
	for i, name := range header {
		name = strings.TrimSpace(name)
		header[i] = name
		if _, dup := tbl.index[name]; !dup {
			tbl.index[name] = i
		}
	}
	for _, col := range required {
		if _, ok := tbl.index[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}
	return tbl, nil
}

func (t *table) has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// get returns the cell of col, or "" when the column or cell is absent.
func (t *table) get(row []string, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func (t *table) raw(row []string) models.RawDocument {
	return models.RawDocument{
		Title:      t.get(row, ColTitle),
		Date:       t.get(row, ColDate),
		Location:   t.get(row, ColLocation),
		Text:       t.get(row, ColText),
		URL:        t.get(row, ColURL),
		SourceFile: t.get(row, ColSourceFile),
	}
}
