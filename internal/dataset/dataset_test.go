package dataset

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/franz/lute-composers/internal/composer"
	"github.com/franz/lute-composers/internal/util"
)

func TestOrderedPreservesDocumentOrder(t *testing.T) {
	doc := `{"Nicolas Vallet": "a", "John Dowland": "b", "Hans Newsidler": "c"}`

	var o Ordered[string]
	if err := json.Unmarshal([]byte(doc), &o); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	want := []string{"Nicolas Vallet", "John Dowland", "Hans Newsidler"}
	got := o.Keys()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	if v, ok := o.Get("John Dowland"); !ok || v != "b" {
		t.Errorf("Get(John Dowland) = %q, %v", v, ok)
	}
}

func TestOrderedMarshalKeepsOrderAndSkipsHTMLEscaping(t *testing.T) {
	o := NewOrdered[string]()
	o.Set("Zeta", "1563-1626 <b>")
	o.Set("Alpha", "Córdoba & Sevilla")
	o.Set("Zeta", "1563-1626")

	raw, err := json.Marshal(o)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"Zeta":"1563-1626","Alpha":"Córdoba & Sevilla"}`
	if string(raw) != want {
		t.Errorf("Marshal = %s, want %s", raw, want)
	}
}

func TestOrderedNilIsSafe(t *testing.T) {
	var o *Ordered[[]string]
	if o.Len() != 0 || o.Keys() != nil {
		t.Error("nil ordered map should be empty")
	}
	if _, ok := o.Get("x"); ok {
		t.Error("nil ordered map should not contain keys")
	}
}

func TestJSONRoundTripThroughFiles(t *testing.T) {
	dir := t.TempDir()

	classical := NewOrdered[string]()
	classical.Set("John Dowland", "1563-1626 London, England - London, England")
	musicalics := NewMusicalicsData()
	musicalics.Birth.Set("John Dowland", []string{"Birth", "1563", "London"})
	musicalics.Group.Set("John Dowland", []string{"England"})

	cPath := filepath.Join(dir, "nested", ClassicalFile)
	mPath := filepath.Join(dir, MusicalicsFile)
	if err := WriteJSON(cPath, classical); err != nil {
		t.Fatalf("WriteJSON classical: %v", err)
	}
	if err := WriteJSON(mPath, musicalics); err != nil {
		t.Fatalf("WriteJSON musicalics: %v", err)
	}

	raw, _ := os.ReadFile(mPath)
	if !strings.Contains(string(raw), "\n    \"birth\": {") {
		t.Errorf("expected 4-space indentation, got:\n%s", raw)
	}

	gotC, err := ReadClassical(cPath)
	if err != nil {
		t.Fatalf("ReadClassical: %v", err)
	}
	if v, _ := gotC.Get("John Dowland"); v != "1563-1626 London, England - London, England" {
		t.Errorf("classical value = %q", v)
	}

	gotM, err := ReadMusicalics(mPath)
	if err != nil {
		t.Fatalf("ReadMusicalics: %v", err)
	}
	if frags, _ := gotM.Birth.Get("John Dowland"); len(frags) != 3 || frags[1] != "1563" {
		t.Errorf("birth fragments = %v", frags)
	}
	if gotM.Death.Len() != 0 {
		t.Errorf("death table should be empty, has %d", gotM.Death.Len())
	}
}

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		input   string
		want    Encoding
		wantErr bool
	}{
		{"", EncodingLatin1, false},
		{"latin1", EncodingLatin1, false},
		{"ISO-8859-1", EncodingLatin1, false},
		{"UTF8", EncodingUTF8, false},
		{"utf-8", EncodingUTF8, false},
		{"CP1252", EncodingWindows1252, false},
		{"windows-1252", EncodingWindows1252, false},
		{"ebcdic", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseEncoding(tt.input)
			if tt.wantErr {
				if !errors.Is(err, util.ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseEncoding(%q) = %q, %v; want %q", tt.input, got, err, tt.want)
			}
		})
	}
}

func TestWindows1252Table(t *testing.T) {
	path := filepath.Join(t.TempDir(), "composers.csv")
	// 0x80 is the euro sign in windows-1252 and a control character in latin-1
	raw := []byte("cleaned_name,note\nLuys de Narv\xe1ez,\x80 5\n")
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatal(err)
	}

	table, err := ReadTable(path, EncodingWindows1252)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(table.Rows))
	}
	if got := table.Cell(table.Rows[0], "cleaned_name"); got != "Luys de Narváez" {
		t.Errorf("name = %q", got)
	}
	if got := table.Cell(table.Rows[0], "note"); got != "€ 5" {
		t.Errorf("note = %q, want the euro sign", got)
	}
}

func TestMergedCSVLatin1RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), MergedFile)
	records := []composer.Merged{
		{Composer: "Francesco da Milano", DateOfBirth: "1497", BirthTown: "Monza", BirthCountry: "Italy", DateOfDeath: "1543", Nationality: "Italy"},
		{Composer: "Luys de Narváez", BirthTown: "Granada", Nationality: "Spain"},
		{Composer: "Adam Długorai", Nationality: "Poland"},
	}

	if err := WriteMerged(path, EncodingLatin1, records); err != nil {
		t.Fatalf("WriteMerged: %v", err)
	}

	raw, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(raw), strings.Join(composer.Columns, ",")+"\n") {
		t.Errorf("unexpected header: %q", strings.SplitN(string(raw), "\n", 2)[0])
	}
	// á is 0xE1 in latin-1
	if !strings.Contains(string(raw), "Narv\xe1ez") {
		t.Error("expected latin-1 encoded á")
	}

	got, err := ReadMerged(path, EncodingLatin1)
	if err != nil {
		t.Fatalf("ReadMerged: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	if got[0] != records[0] || got[1] != records[1] {
		t.Errorf("round trip mismatch: %+v", got[:2])
	}
	// ł has no latin-1 form and is replaced rather than failing the write
	if got[2].Composer == records[2].Composer || !strings.HasPrefix(got[2].Composer, "Adam D") {
		t.Errorf("unexpected replacement result %q", got[2].Composer)
	}
}

func TestReadMergedMatchesColumnsByName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraped_composer_data_cleaned.csv")
	content := "nationality,composer,birth_town,extra\nFrance,Robert de Visée,Paris,x\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadMerged(path, EncodingUTF8)
	if err != nil {
		t.Fatalf("ReadMerged: %v", err)
	}
	want := composer.Merged{Composer: "Robert de Visée", BirthTown: "Paris", Nationality: "France"}
	if len(got) != 1 || got[0] != want {
		t.Errorf("ReadMerged = %+v, want %+v", got, want)
	}
}

func TestReadComposerList(t *testing.T) {
	path := filepath.Join(t.TempDir(), ComposersFile)
	content := "raw_name,cleaned_name\nDowland,John Dowland\nJ. Dowland,John Dowland\nx,\nVallet,Nicolas Vallet\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadComposerList(path, EncodingLatin1, "cleaned_name")
	if err != nil {
		t.Fatalf("ReadComposerList: %v", err)
	}
	if strings.Join(got, "|") != "John Dowland|Nicolas Vallet" {
		t.Errorf("ReadComposerList = %v", got)
	}

	if _, err := ReadComposerList(path, EncodingLatin1, "name"); !errors.Is(err, util.ErrMissingColumn) {
		t.Errorf("expected ErrMissingColumn, got %v", err)
	}
}

func TestReadLuteRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), LuteFile)
	content := "Title,Composer,Midi\nFantasia,John Dowland,http://x/1.mid\nRicercar,Francesco da Milano, http://x/2.mid \n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	rows, err := ReadLuteRows(path, EncodingUTF8)
	if err != nil {
		t.Fatalf("ReadLuteRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[1].Index != 1 || rows[1].URL != "http://x/2.mid" || rows[1].Composer != "Francesco da Milano" {
		t.Errorf("row 1 = %+v", rows[1])
	}

	bad := filepath.Join(t.TempDir(), "bad.csv")
	os.WriteFile(bad, []byte("Title,Composer\nx,y\n"), 0644)
	if _, err := ReadLuteRows(bad, EncodingUTF8); !errors.Is(err, util.ErrMissingColumn) {
		t.Errorf("expected ErrMissingColumn, got %v", err)
	}
}
