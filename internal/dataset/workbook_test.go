package dataset_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/DeafMist/incident-radar/internal/dataset"
)

// workbook renders rows into an in-memory .xlsx file, the first row being the header.
func workbook(t *testing.T, rows [][]string) []byte {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, val := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, val))
		}
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestReadWorkbook(t *testing.T) {
	data := workbook(t, [][]string{
		{"Title", "Date", "Text", "URL"},
		{"Hakenkreuz geschmiert", "18.03.2021", "An einer Schule", "https://p.example/1"},
		{"", "", "", ""},
		{"Raub", "", "Am Bahnhof", "https://p.example/2"},
	})

	docs, err := dataset.ReadWorkbook(bytes.NewReader(data), "export.xlsx")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "Hakenkreuz geschmiert", docs[0].Title)
	require.Equal(t, "18.03.2021", docs[0].Date)
	require.Equal(t, "export.xlsx", docs[0].SourceFile)
	require.Equal(t, "https://p.example/2", docs[1].URL)
}

func TestReadWorkbookMissingColumn(t *testing.T) {
	data := workbook(t, [][]string{{"Title", "Text"}, {"A", "B"}})

	_, err := dataset.ReadWorkbook(bytes.NewReader(data), "export.xlsx")
	require.ErrorIs(t, err, dataset.ErrMissingColumn)
}

func TestLoadDirMixesCSVAndWorkbooks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.csv", "Title,Text,URL\nA,text a,u1\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.xlsx"), workbook(t, [][]string{
		{"Title", "Text", "URL"},
		{"B", "text b", "u2"},
	}), 0o644))

	docs, err := dataset.LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "a.csv", docs[0].SourceFile)
	require.Equal(t, "b.xlsx", docs[1].SourceFile)
	require.Equal(t, "text b", docs[1].Text)
}
