package stoplist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/topica/pkg/topica/internalerr"
)

func TestManagerBasic(t *testing.T) {
	stops := []string{"the", "a", "and"}
	mgr := NewManager(stops)

	if !mgr.IsStop("the") {
		t.Error("'the' should be a stopword")
	}

	if mgr.IsStop("hello") {
		t.Error("'hello' should not be a stopword")
	}
}

func TestManagerAddRemove(t *testing.T) {
	mgr := NewManager([]string{"the"})

	mgr.Add("Test", " amp ", "")

	if !mgr.IsStop("test") {
		t.Error("'test' should be stopword after adding")
	}
	if !mgr.IsStop("amp") {
		t.Error("'amp' should be trimmed and added")
	}
	if mgr.Len() != 3 {
		t.Errorf("Expected 3 stopwords, got %d", mgr.Len())
	}

	mgr.Remove("test")

	if mgr.IsStop("test") {
		t.Error("'test' should not be stopword after removing")
	}
}

func TestManagerAll(t *testing.T) {
	mgr := NewManager([]string{"the", "a", "and"})

	all := mgr.All()
	want := []string{"a", "and", "the"}
	if len(all) != len(want) {
		t.Fatalf("Expected %d stopwords, got %d", len(want), len(all))
	}
	for i := range want {
		if all[i] != want[i] {
			t.Errorf("All()[%d] = %q, want %q", i, all[i], want[i])
		}
	}
}

func TestNilManager(t *testing.T) {
	var mgr *Manager
	if mgr.IsStop("the") {
		t.Error("nil manager should not report stopwords")
	}
}

func TestForLanguage(t *testing.T) {
	mgr, err := ForLanguage("English")
	if err != nil {
		t.Fatalf("ForLanguage: %v", err)
	}
	if mgr.Language() != "english" {
		t.Errorf("Language() = %q", mgr.Language())
	}
	for _, w := range []string{"the", "and", "wouldn't", "ourselves"} {
		if !mgr.IsStop(w) {
			t.Errorf("%q should be an English stopword", w)
		}
	}
	if mgr.IsStop("president") {
		t.Error("'president' should not be a stopword")
	}
}

func TestForLanguageUnknown(t *testing.T) {
	_, err := ForLanguage("klingon")
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadTerms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.yaml")
	content := `terms:
  - amp
  - rt
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	terms, err := LoadTerms(path)
	if err != nil {
		t.Fatalf("LoadTerms: %v", err)
	}
	if len(terms) != 2 || terms[0] != "amp" || terms[1] != "rt" {
		t.Errorf("unexpected terms %v", terms)
	}

	if _, err := LoadTerms(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
