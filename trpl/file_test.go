package trpl_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wasedatakeuchilab/tlab-analysis/trpl"
)

func TestReadFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "measurement.img")
	raw := rawFile(3, 2, []uint16{1, 2, 3, 4, 5, 6})
	if err := os.WriteFile(fn, raw, 0666); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d, err := trpl.ReadFile(fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Header.Width != 3 || d.Header.Height != 2 {
		t.Errorf("expected extents 3x2, got %dx%d", d.Header.Width, d.Header.Height)
	}
}

func TestReadFileMissing(t *testing.T) {
	// missing files are a permanent condition, not retried
	_, err := trpl.ReadFile(filepath.Join(t.TempDir(), "nope.img"))
	if err == nil {
		t.Error("expected an error for a missing file")
	}
}
