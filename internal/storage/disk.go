package storage

import (
	"errors"
	"io/fs"
	"path/filepath"
)

// PathUsage is the on-disk footprint of one configured storage path.
type PathUsage struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Bytes int64  `json:"bytes"`
}

// DiskUsage measures each named path in order and returns the per-path sizes
// and their total. Empty, in-memory (":memory:") and missing paths measure 0.
func DiskUsage(names []string, paths []string) ([]PathUsage, int64, error) {
	out := make([]PathUsage, 0, len(paths))
	var total int64
	for i, p := range paths {
		n, err := pathSize(p)
		if err != nil {
			return nil, 0, err
		}
		name := p
		if i < len(names) {
			name = names[i]
		}
		out = append(out, PathUsage{Name: name, Path: p, Bytes: n})
		total += n
	}
	return out, total, nil
}

// DiskUsageBytes returns the combined size of paths; see DiskUsage.
func DiskUsageBytes(paths ...string) (int64, error) {
	_, total, err := DiskUsage(nil, paths)
	return total, err
}

// pathSize sizes a file or directory tree. A SQLite database also counts its
// -wal and -shm files.
func pathSize(p string) (int64, error) {
	if p == "" || p == ":memory:" {
		return 0, nil
	}
	var total int64
	if filepath.Ext(p) == ".db" {
		for _, sidecar := range []string{p + "-wal", p + "-shm"} {
			n, err := pathSize(sidecar)
			if err != nil {
				return 0, err
			}
			total += n
		}
	}
	err := filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return total, nil
	}
	if err != nil {
		return 0, err
	}
	return total, nil
}

// StorageUsage sizes the database, content index and vector index paths.
func StorageUsage(dbPath, contentPath, vectorPath string) (map[string]interface{}, int64, error) {
	parts, total, err := DiskUsage(
		[]string{"database", "content_index", "vector_index"},
		[]string{dbPath, contentPath, vectorPath},
	)
	if err != nil {
		return nil, 0, err
	}
	byName := make(map[string]interface{}, len(parts))
	for _, p := range parts {
		byName[p.Name] = p.Bytes
	}
	return byName, total, nil
}
