package ingest

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	want := []string{
		writeFile(t, root, "a.pdf", "pdf-one"),
		writeFile(t, root, "sub/b.jpg", "jpg-two"),
		writeFile(t, root, "c.txt", "txt-three"),
	}
	writeFile(t, root, "notes.docx", "skipped extension")
	writeFile(t, root, ".hidden/d.pdf", "hidden dir")
	writeFile(t, root, ".e.pdf", "hidden file")

	s := NewScanner(nil, true, nil)
	var got []string
	stats, err := s.ScanDirectory(root, func(path string) { got = append(got, path) })
	if err != nil {
		t.Fatalf("ScanDirectory() error = %v", err)
	}

	sort.Strings(want)
	sort.Strings(got)
	if len(got) != len(want) {
		t.Fatalf("emitted %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("emitted[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if stats.Emitted != 3 || stats.Matched != 3 {
		t.Errorf("stats = %+v, want 3 matched and emitted", stats)
	}
}

func TestScanDirectoryDeduplicatesByContent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "original.pdf", "same bytes")
	writeFile(t, root, "copy.pdf", "same bytes")

	s := NewScanner(nil, true, nil)
	var emitted int
	stats, err := s.ScanDirectory(root, func(string) { emitted++ })
	if err != nil {
		t.Fatal(err)
	}
	if emitted != 1 {
		t.Errorf("emitted %d files, want 1 (identical content)", emitted)
	}
	if stats.Deduplicated != 1 {
		t.Errorf("Deduplicated = %d, want 1", stats.Deduplicated)
	}
}

func TestScanDirectorySeenPersistsAcrossScans(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.pdf", "bytes")

	s := NewScanner(nil, true, nil)
	var emitted int
	if _, err := s.ScanDirectory(root, func(string) { emitted++ }); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ScanDirectory(root, func(string) { emitted++ }); err != nil {
		t.Fatal(err)
	}
	if emitted != 1 {
		t.Errorf("emitted %d times across scans, want 1", emitted)
	}
}

func TestScanDirectoryCustomExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.tiff", "x")
	writeFile(t, root, "b.pdf", "y")

	s := NewScanner([]string{".TIFF"}, true, nil)
	var got []string
	if _, err := s.ScanDirectory(root, func(p string) { got = append(got, p) }); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || filepath.Ext(got[0]) != ".tiff" {
		t.Errorf("emitted %v, want only the tiff", got)
	}
}

func TestScanDirectoryEmptyRoot(t *testing.T) {
	s := NewScanner(nil, true, nil)
	if _, err := s.ScanDirectory("  ", func(string) {}); err == nil {
		t.Error("want error for blank root")
	}
}
