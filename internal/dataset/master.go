package dataset

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/DeafMist/incident-radar/internal/models"
)

// CSVStore keeps the master dataset in a single CSV file.
type CSVStore struct {
	Path string
}

// NewCSVStore returns a store backed by path.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{Path: path}
}

// Load reads the master file. A missing file is an empty master.
func (s *CSVStore) Load(ctx context.Context) ([]models.AnnotatedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open master %s: %w", s.Path, err)
	}
	defer f.Close()

	docs, err := ReadMaster(f)
	if err != nil {
		return nil, fmt.Errorf("read master %s: %w", s.Path, err)
	}
	return docs, nil
}

// Save replaces the master file. The file is written next to the target and
// renamed into place, so a failed write leaves the old master intact.
func (s *CSVStore) Save(ctx context.Context, docs []models.AnnotatedDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return WriteTable(s.Path, docs)
}

// ReadMaster parses an annotated table. Optional columns missing from the
// file are left unset; columns this package does not know are kept in Extra.
func ReadMaster(r io.Reader) ([]models.AnnotatedDocument, error) {
	tbl, err := readTable(r, RequiredMasterColumns)
	if err != nil {
		return nil, err
	}

	var extra []string
	for _, name := range tbl.header {
		if _, ok := knownColumns[name]; !ok && name != "" {
			extra = append(extra, name)
		}
	}

	docs := make([]models.AnnotatedDocument, 0, len(tbl.rows))
	for i, row := range tbl.rows {
		doc, err := decodeRow(tbl, row, extra)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func decodeRow(tbl *table, row []string, extra []string) (models.AnnotatedDocument, error) {
	doc := models.AnnotatedDocument{
		RawDocument: tbl.raw(row),
		Topic:       models.ParseTopic(tbl.get(row, ColTopic)),
	}

	var err error
	if doc.RightWingRelated, err = parseBool(tbl.get(row, ColRightWingRelated)); err != nil {
		return doc, fmt.Errorf("%s: %w", ColRightWingRelated, err)
	}
	if doc.GeneralCrimeRelated, err = parseBool(tbl.get(row, ColGeneralCrimeRelated)); err != nil {
		return doc, fmt.Errorf("%s: %w", ColGeneralCrimeRelated, err)
	}
	if doc.KeywordMatch, err = parseList(tbl.get(row, ColKeywordMatch)); err != nil {
		return doc, fmt.Errorf("%s: %w", ColKeywordMatch, err)
	}
	if doc.KeywordExtracted, err = parseList(tbl.get(row, ColKeywordExtracted)); err != nil {
		return doc, fmt.Errorf("%s: %w", ColKeywordExtracted, err)
	}

	if hasExtraction(tbl, row) {
		ex := models.Extraction{Date: tbl.get(row, ColExtractedDate)}
		lists := []struct {
			col string
			dst *[]string
		}{
			{ColExtractedTime, &ex.Times},
			{ColExtractedAge, &ex.Ages},
			{ColExtractedGender, &ex.Genders},
			{ColExtractedAction, &ex.Actions},
			{ColExtractedStreet, &ex.Streets},
		}
		for _, l := range lists {
			v, err := parseList(tbl.get(row, l.col))
			if err != nil {
				return doc, fmt.Errorf("%s: %w", l.col, err)
			}
			if v == nil {
				v = []string{}
			}
			*l.dst = v
		}
		doc.Extraction = &ex
	}

	if len(extra) > 0 {
		doc.Extra = make(map[string]string, len(extra))
		for _, name := range extra {
			doc.Extra[name] = tbl.get(row, name)
		}
	}
	return doc, nil
}

func hasExtraction(tbl *table, row []string) bool {
	for _, col := range extractionColumns {
		if tbl.has(col) && strings.TrimSpace(tbl.get(row, col)) != "" {
			return true
		}
	}
	return false
}

// WriteTable writes docs with the output schema, followed by any extra
// columns carried by the documents, to path.
func WriteTable(path string, docs []models.AnnotatedDocument) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := EncodeTable(tmp, docs); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// EncodeTable writes docs as CSV to w.
func EncodeTable(w io.Writer, docs []models.AnnotatedDocument) error {
	extra := extraColumns(docs)
	header := append(append([]string(nil), OutputColumns...), extra...)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, doc := range docs {
		if err := cw.Write(encodeRow(doc, extra)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func extraColumns(docs []models.AnnotatedDocument) []string {
	set := map[string]struct{}{}
	for _, doc := range docs {
		for name := range doc.Extra {
			set[name] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func encodeRow(doc models.AnnotatedDocument, extra []string) []string {
	row := []string{
		doc.Title, doc.Date, doc.Location, doc.Text, doc.URL, doc.SourceFile,
		formatBool(doc.RightWingRelated),
		formatBool(doc.GeneralCrimeRelated),
		string(doc.Topic),
		formatList(doc.KeywordMatch),
		formatList(doc.KeywordExtracted),
	}
	if ex := doc.Extraction; ex != nil {
		row = append(row,
			ex.Date,
			formatList(nonNil(ex.Times)),
			formatList(nonNil(ex.Ages)),
			formatList(nonNil(ex.Genders)),
			formatList(nonNil(ex.Actions)),
			formatList(nonNil(ex.Streets)),
		)
	} else {
		row = append(row, "", "", "", "", "", "")
	}
	for _, name := range extra {
		row = append(row, doc.Extra[name])
	}
	return row
}

func formatBool(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

func parseBool(raw string) (*bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(strings.ToLower(raw))
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// formatList encodes a list as a JSON array; nil is an empty cell.
func formatList(list []string) string {
	if list == nil {
		return ""
	}
	data, err := json.Marshal(list)
	if err != nil {
		return ""
	}
	return string(data)
}

// parseList accepts JSON arrays and the single-quoted list literals found in
// older master files.
func parseList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err == nil {
		if out == nil {
			out = []string{}
		}
		return out, nil
	}
	if !strings.HasPrefix(raw, "[") || !strings.HasSuffix(raw, "]") {
		return nil, fmt.Errorf("invalid list %q", raw)
	}
	out = []string{}
	body := strings.TrimSpace(raw[1 : len(raw)-1])
	if body == "" {
		return out, nil
	}
	for _, item := range strings.Split(body, ",") {
		item = strings.Trim(strings.TrimSpace(item), `'"`)
		if item != "" {
			out = append(out, item)
		}
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
