package vector

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hyperjump/recall/internal/models"
)

// Snapshot layout, little endian:
//
//	magic "RCLV", version u16, dimensions u32, users u32
//	per user:   user string, entries u32
//	per entry:  id string, dimensions x f32
//
// Strings are a u32 length followed by the bytes.
var snapshotMagic = [4]byte{'R', 'C', 'L', 'V'}

const snapshotVersion uint16 = 1

type snapshotHeader struct {
	Magic      [4]byte
	Version    uint16
	Dimensions uint32
	Users      uint32
}

// Save writes the index to path, creating parent directories. An empty path is a no-op.
func (m *MemoryIndex) Save(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}

	m.mu.RLock()
	err = m.encode(f)
	m.mu.RUnlock()

	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write index snapshot: %w", err)
	}
	return os.Rename(tmp, path)
}

// Load replaces the in-memory contents with the snapshot at path. A missing
// file leaves the index untouched.
func (m *MemoryIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	users, err := m.decode(bufio.NewReader(f))
	if err != nil {
		return fmt.Errorf("read index snapshot: %w", err)
	}
	m.mu.Lock()
	m.users = users
	m.mu.Unlock()
	return nil
}

// encode expects the read lock to be held.
func (m *MemoryIndex) encode(out io.Writer) error {
	w := bufio.NewWriter(out)
	hdr := snapshotHeader{
		Magic:      snapshotMagic,
		Version:    snapshotVersion,
		Dimensions: uint32(m.dimensions),
		Users:      uint32(len(m.users)),
	}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return err
	}
	for userID, part := range m.users {
		if err := putString(w, userID); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(len(part))); err != nil {
			return err
		}
		for id, vec := range part {
			if err := putString(w, string(id)); err != nil {
				return err
			}
			if err := binary.Write(w, binary.LittleEndian, vec); err != nil {
				return err
			}
		}
	}
	return w.Flush()
}

func (m *MemoryIndex) decode(r io.Reader) (map[string]map[models.ReminderID][]float32, error) {
	var hdr snapshotHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	if hdr.Magic != snapshotMagic {
		return nil, errors.New("not a vector index snapshot")
	}
	if hdr.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", hdr.Version)
	}
	if int(hdr.Dimensions) != m.dimensions {
		return nil, fmt.Errorf("dimension mismatch: file has %d, index expects %d", hdr.Dimensions, m.dimensions)
	}

	users := make(map[string]map[models.ReminderID][]float32, hdr.Users)
	for u := uint32(0); u < hdr.Users; u++ {
		userID, err := takeString(r)
		if err != nil {
			return nil, fmt.Errorf("user: %w", err)
		}
		var entries uint32
		if err := binary.Read(r, binary.LittleEndian, &entries); err != nil {
			return nil, fmt.Errorf("entry count: %w", err)
		}
		part := make(map[models.ReminderID][]float32, entries)
		for e := uint32(0); e < entries; e++ {
			id, err := takeString(r)
			if err != nil {
				return nil, fmt.Errorf("reminder id: %w", err)
			}
			vec := make([]float32, m.dimensions)
			if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
				return nil, fmt.Errorf("vector %s: %w", id, err)
			}
			part[models.ReminderID(id)] = vec
		}
		if len(part) > 0 {
			users[userID] = part
		}
	}
	return users, nil
}

func putString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func takeString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
