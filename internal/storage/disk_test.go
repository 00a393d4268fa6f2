package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "notes.txt")
	tree := filepath.Join(dir, "index")
	db := filepath.Join(dir, "recall.db")
	writeFile(t, file, 5)
	writeFile(t, filepath.Join(tree, "a"), 2)
	writeFile(t, filepath.Join(tree, "nested", "b"), 1)
	writeFile(t, db, 4)
	writeFile(t, db+"-wal", 2)
	writeFile(t, db+"-shm", 3)

	tests := []struct {
		name  string
		paths []string
		want  int64
	}{
		{"file", []string{file}, 5},
		{"directory tree", []string{tree}, 3},
		{"file and tree", []string{file, tree}, 8},
		{"missing path", []string{file, filepath.Join(dir, "gone"), tree}, 8},
		{"empty path", []string{"", file}, 5},
		{"in-memory database", []string{":memory:", file}, 5},
		{"database sidecars", []string{db}, 9},
		{"nothing", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiskUsageBytes(tt.paths...)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %d bytes, want %d", got, tt.want)
			}
		})
	}
}

func TestStorageUsage(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "recall.db")
	content := filepath.Join(dir, "bleve")
	vectors := filepath.Join(dir, "vectors")
	writeFile(t, db, 10)
	writeFile(t, filepath.Join(content, "store"), 7)

	byName, total, err := StorageUsage(db, content, vectors)
	if err != nil {
		t.Fatal(err)
	}
	if total != 17 {
		t.Errorf("total = %d, want 17", total)
	}
	want := map[string]int64{"database": 10, "content_index": 7, "vector_index": 0}
	for name, n := range want {
		if byName[name] != n {
			t.Errorf("%s = %v, want %d", name, byName[name], n)
		}
	}
}
