package ingest

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadCSV(t *testing.T) {
	data := "id,link,content,date,retweets\n" +
		"1,x,\"Make America Great Again!\",2016-11-08 10:00:00,5\n" +
		"2,x,,2016-11-09 10:00:00,1\n" +
		"3,x,\"multi\nline\",2016-11-07 09:00:00,2\n"

	recs, skipped, err := ReadCSV(strings.NewReader(data), CSVOptions{})
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if skipped != 1 {
		t.Errorf("expected 1 skipped row, got %d", skipped)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].ID != "1" || recs[0].Text != "Make America Great Again!" || recs[0].Date != "2016-11-08 10:00:00" {
		t.Errorf("unexpected record %+v", recs[0])
	}
	if recs[1].Text != "multi\nline" {
		t.Errorf("quoted newline not preserved: %q", recs[1].Text)
	}
}

func TestReadCSVMissingTextColumn(t *testing.T) {
	if _, _, err := ReadCSV(strings.NewReader("id,date\n1,2020-01-01\n"), CSVOptions{}); err == nil {
		t.Error("expected error when text column is absent")
	}
}

func TestReadCSVCustomColumns(t *testing.T) {
	data := "tweet_id,text\n7,hello world\n"
	recs, _, err := ReadCSV(strings.NewReader(data), CSVOptions{IDColumn: "tweet_id", TextColumn: "text"})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].ID != "7" || recs[0].Date != "" {
		t.Errorf("unexpected records %+v", recs)
	}
}

func TestLoadJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tweets.jsonl")
	content := `{"id":"1","content":"first","date":"2020-01-01"}

not json
{"id":"2","content":""}
{"id":"3","content":"third"}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	recs, skipped, err := LoadJSONL(path)
	if err != nil {
		t.Fatalf("LoadJSONL: %v", err)
	}
	if len(recs) != 2 || skipped != 2 {
		t.Errorf("got %d records, %d skipped", len(recs), skipped)
	}
	if recs[1].ID != "3" {
		t.Errorf("order not preserved: %+v", recs)
	}
}

func TestSortByDate(t *testing.T) {
	recs := []Record{
		{ID: "c", Date: "2017-01-20 12:00:00"},
		{ID: "x", Date: "someday"},
		{ID: "a", Date: "2009-05-04 20:54:25"},
		{ID: "b1", Date: "2012-03-01"},
		{ID: "b2", Date: "2012-03-01 00:00:00"},
	}
	SortByDate(recs)

	want := []string{"a", "b1", "b2", "c", "x"}
	for i, id := range want {
		if recs[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, recs[i].ID, id)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	recs := []Record{{ID: "1", Text: "RT @x: hi", Date: "2020-01-01", Clean: ""}}
	if err := WriteCSV(&buf, recs); err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0][3] != "clean_tweets" || rows[1][1] != "RT @x: hi" {
		t.Errorf("unexpected csv %v", rows)
	}
}

func TestCleanTexts(t *testing.T) {
	got := CleanTexts([]Record{{Text: "A", Clean: "a"}, {Text: "B"}})
	if got[0] != "a" || got[1] != "" {
		t.Errorf("CleanTexts = %v", got)
	}
}
