package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteTextfile(t *testing.T) {
	Register()
	Register()

	SweepIterationsTotal.Inc()
	Coherence.WithLabelValues("4", "c_v").Set(0.42)

	path := filepath.Join(t.TempDir(), "topica.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{"topica_sweep_iterations_total", `topica_coherence{k="4",measure="c_v"} 0.42`} {
		if !strings.Contains(out, want) {
			t.Errorf("textfile missing %q", want)
		}
	}
}
