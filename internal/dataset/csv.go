package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/franz/lute-composers/internal/composer"
	"github.com/franz/lute-composers/internal/util"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Encoding is the text encoding of a CSV file
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingLatin1      Encoding = "latin-1"
	EncodingWindows1252 Encoding = "windows-1252"
)

// charmaps holds the single-byte encodings; utf-8 passes through
var charmaps = map[Encoding]*charmap.Charmap{
	EncodingLatin1:      charmap.ISO8859_1,
	EncodingWindows1252: charmap.Windows1252,
}

// ParseEncoding accepts the common spellings of the supported encodings
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "latin-1", "latin1", "iso-8859-1", "iso8859-1":
		return EncodingLatin1, nil
	case "utf-8", "utf8":
		return EncodingUTF8, nil
	case "windows-1252", "cp1252":
		return EncodingWindows1252, nil
	}
	return "", fmt.Errorf("%w: unsupported encoding %q", util.ErrInvalidConfig, s)
}

// NewReader decodes r into UTF-8
func (e Encoding) NewReader(r io.Reader) io.Reader {
	if cm, ok := charmaps[e]; ok {
		return transform.NewReader(r, cm.NewDecoder())
	}
	return r
}

// NewWriter encodes UTF-8 text written to it. Runes the target charset
// cannot represent are replaced. Close flushes buffered output but does not
// close w.
func (e Encoding) NewWriter(w io.Writer) io.WriteCloser {
	if cm, ok := charmaps[e]; ok {
		return transform.NewWriter(w, encoding.ReplaceUnsupported(cm.NewEncoder()))
	}
	return nopCloser{w}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// Table is a CSV file read into memory with its header indexed by name
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// Column returns the index of a header column
func (t *Table) Column(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Cell returns the named cell of a row, or "" when absent
func (t *Table) Cell(row []string, name string) string {
	i, ok := t.index[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// ReadTable reads a whole CSV file with a header row
func ReadTable(path string, enc Encoding) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(enc.NewReader(f))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty file: %w", path, util.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	t := &Table{Header: header, index: make(map[string]int, len(header))}
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		if _, dup := t.index[name]; !dup {
			t.index[name] = i
		}
	}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// WriteTable writes a header and rows to path in the given encoding
func WriteTable(path string, enc Encoding, header []string, rows [][]string) error {
	f, err := CreateFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoded := enc.NewWriter(f)
	w := csv.NewWriter(encoded)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	if err := encoded.Close(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return f.Close()
}

// WriteMerged writes the merged composer table
func WriteMerged(path string, enc Encoding, records []composer.Merged) error {
	rows := make([][]string, 0, len(records))
	for i := range records {
		rows = append(rows, records[i].Row())
	}
	return WriteTable(path, enc, composer.Columns, rows)
}

// ReadMerged reads a merged composer table. Columns are matched by name,
// so files with extra or reordered columns are accepted.
func ReadMerged(path string, enc Encoding) ([]composer.Merged, error) {
	t, err := ReadTable(path, enc)
	if err != nil {
		return nil, err
	}
	if _, ok := t.Column("composer"); !ok {
		return nil, fmt.Errorf("%s: %w: composer", path, util.ErrMissingColumn)
	}

	records := make([]composer.Merged, 0, len(t.Rows))
	for _, row := range t.Rows {
		ordered := make([]string, len(composer.Columns))
		for i, name := range composer.Columns {
			ordered[i] = t.Cell(row, name)
		}
		records = append(records, composer.FromRow(ordered))
	}
	return records, nil
}

// ReadComposerList returns the distinct non-empty values of column, in file order
func ReadComposerList(path string, enc Encoding, column string) ([]string, error) {
	t, err := ReadTable(path, enc)
	if err != nil {
		return nil, err
	}
	if _, ok := t.Column(column); !ok {
		return nil, fmt.Errorf("%s: %w: %s", path, util.ErrMissingColumn, column)
	}

	seen := make(map[string]bool)
	var names []string
	for _, row := range t.Rows {
		name := strings.TrimSpace(t.Cell(row, column))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}

// LuteRow is one piece of the lute tablature table
type LuteRow struct {
	Index    int // zero-based data row position in the full file
	Composer string
	URL      string
}

// ReadLuteRows reads the lute table. The Midi column is required; Composer is optional.
func ReadLuteRows(path string, enc Encoding) ([]LuteRow, error) {
	t, err := ReadTable(path, enc)
	if err != nil {
		return nil, err
	}
	if _, ok := t.Column("Midi"); !ok {
		return nil, fmt.Errorf("%s: %w: Midi", path, util.ErrMissingColumn)
	}

	rows := make([]LuteRow, 0, len(t.Rows))
	for i, row := range t.Rows {
		rows = append(rows, LuteRow{
			Index:    i,
			Composer: strings.TrimSpace(t.Cell(row, "Composer")),
			URL:      strings.TrimSpace(t.Cell(row, "Midi")),
		})
	}
	return rows, nil
}
