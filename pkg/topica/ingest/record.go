package ingest

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/cognicore/topica/pkg/topica/internalerr"
)

// Record is one social-media post. Clean is filled by the normalizer.
type Record struct {
	ID    string `json:"id"`
	Date  string `json:"date"`
	Text  string `json:"content"`
	Clean string `json:"clean_tweets,omitempty"`
}

// Validate checks that the record carries text.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return errors.New("record text is required")
	}
	return nil
}

// CSVOptions selects columns by header name.
type CSVOptions struct {
	IDColumn   string // default "id"
	TextColumn string // default "content"
	DateColumn string // default "date"
}

func (o CSVOptions) withDefaults() CSVOptions {
	if o.IDColumn == "" {
		o.IDColumn = "id"
	}
	if o.TextColumn == "" {
		o.TextColumn = "content"
	}
	if o.DateColumn == "" {
		o.DateColumn = "date"
	}
	return o
}

// LoadCSV reads records from a CSV file with a header row.
func LoadCSV(path string, opts CSVOptions) ([]Record, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return ReadCSV(f, opts)
}

// ReadCSV reads records from CSV with a header row. The text column is
// required; id and date are optional. Rows that fail to parse or have no
// text are skipped and counted.
func ReadCSV(r io.Reader, opts CSVOptions) ([]Record, int, error) {
	opts = opts.withDefaults()

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read csv header: %v", internalerr.ErrInvalidInput, err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	textIdx, ok := cols[opts.TextColumn]
	if !ok {
		return nil, 0, fmt.Errorf("%w: csv has no %q column", internalerr.ErrInvalidInput, opts.TextColumn)
	}
	idIdx, hasID := cols[opts.IDColumn]
	dateIdx, hasDate := cols[opts.DateColumn]

	field := func(row []string, idx int, present bool) string {
		if !present || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	var records []Record
	skipped := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				skipped++
				continue
			}
			return nil, skipped, err
		}
		rec := Record{
			ID:   field(row, idIdx, hasID),
			Date: field(row, dateIdx, hasDate),
			Text: field(row, textIdx, true),
		}
		if rec.Validate() != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

// LoadJSONL reads one JSON record per line. Blank lines are ignored;
// malformed lines and records without text are skipped and counted.
func LoadJSONL(path string) ([]Record, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	var records []Record
	skipped := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil || rec.Validate() != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, skipped, fmt.Errorf("read %s: %w", path, err)
	}
	return records, skipped, nil
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01-02-2006 15:04:05",
	"01/02/2006 15:04:05",
	"01/02/2006",
	time.RubyDate,
}

// ParseDate tries the layouts found in tweet archives.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SortByDate orders records chronologically in place. The sort is stable;
// records with unparseable dates go last, ordered by their raw date string.
func SortByDate(records []Record) {
	type key struct {
		t  time.Time
		ok bool
	}
	keys := make([]key, len(records))
	for i := range records {
		t, ok := ParseDate(records[i].Date)
		keys[i] = key{t, ok}
	}
	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		switch {
		case ka.ok && kb.ok:
			return ka.t.Before(kb.t)
		case ka.ok != kb.ok:
			return ka.ok
		default:
			return records[idx[a]].Date < records[idx[b]].Date
		}
	})
	sorted := make([]Record, len(records))
	for i, j := range idx {
		sorted[i] = records[j]
	}
	copy(records, sorted)
}

// CleanTexts returns the Clean field of each record in order.
func CleanTexts(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Clean
	}
	return out
}

// WriteCSV writes records with the header id,content,date,clean_tweets.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "content", "date", "clean_tweets"}); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write([]string{r.ID, r.Text, r.Date, r.Clean}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
