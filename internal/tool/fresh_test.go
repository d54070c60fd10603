package tool

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeReport(t *testing.T, path string, mtime time.Time) os.FileInfo {
	t.Helper()
	if err := os.WriteFile(path, []byte(`{"results": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if !mtime.IsZero() {
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	return fi
}

func TestIsFresh_Mtime(t *testing.T) {
	started := time.Now()
	dir := t.TempDir()

	tests := []struct {
		name  string
		mtime time.Time
		want  bool
	}{
		{"written before run", started.Add(-time.Hour), false},
		{"written during run", started.Add(time.Second), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fi := writeReport(t, filepath.Join(dir, OutputFileName), tt.mtime)
			if got := isFresh(nil, fi, started); got != tt.want {
				t.Errorf("isFresh = %v, want %v (mtime %s, started %s)", got, tt.want, fi.ModTime(), started)
			}
		})
	}
}

func TestIsFresh_WitnessIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, OutputFileName)
	started := time.Now()
	fi := writeReport(t, path, started.Add(-time.Hour))

	w := watchOutput(path)
	if w == nil {
		t.Skip("fsnotify unavailable")
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if isFresh(w, fi, started) {
		t.Error("stale report accepted after a write to an unrelated file")
	}
}

func TestIsFresh_WitnessSeesReportWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, OutputFileName)

	w := watchOutput(path)
	if w == nil {
		t.Skip("fsnotify unavailable")
	}
	defer w.Close()

	// mtime is backdated so only the watcher can vouch for the write
	started := time.Now()
	fi := writeReport(t, path, started.Add(-time.Hour))
	if !isFresh(w, fi, started) {
		t.Error("report written during the run was rejected")
	}
}
