package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Dir returns the cache directory path.
func Dir() string {
	dir := os.Getenv("XDG_CACHE_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".cache")
	}
	return filepath.Join(dir, "castgraph")
}

// Store is an on-disk response cache. Entries are opaque byte blobs keyed by
// request key; freshness is judged by file modification time.
type Store struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// Open returns a store rooted at dir. A non-positive ttl means entries never
// expire.
func Open(dir string, ttl time.Duration) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create cache dir %s", dir)
	}
	return &Store{dir: dir, ttl: ttl, now: time.Now}, nil
}

// Get returns a fresh entry for key.
func (s *Store) Get(key string) ([]byte, bool) {
	path := s.path(key)
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if s.ttl > 0 && s.now().Sub(info.ModTime()) > s.ttl {
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put writes an entry atomically.
func (s *Store) Put(key string, data []byte) error {
	path := s.path(key)
	tmp, err := os.CreateTemp(s.dir, ".put-*")
	if err != nil {
		return errors.Wrap(err, "cache temp file")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "cache write")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "cache close")
	}
	return errors.Wrap(os.Rename(tmp.Name(), path), "cache rename")
}

// Clear removes every entry and returns how many were deleted.
func (s *Store) Clear() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Size returns the entry count and total bytes on disk.
func (s *Store) Size() (int, int64) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, 0
	}
	var count int
	var total int64
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if info, err := e.Info(); err == nil {
			count++
			total += info.Size()
		}
	}
	return count, total
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(key string) string {
	name := sanitize(key)
	if len(name) > 80 {
		sum := sha256.Sum256([]byte(key))
		name = name[:40] + "_" + hex.EncodeToString(sum[:8])
	}
	return filepath.Join(s.dir, name+".json")
}

func sanitize(s string) string {
	r := strings.NewReplacer("/", "_", ":", "_", "@", "_", "?", "_", "&", "_", "=", "_", " ", "_")
	return strings.Trim(r.Replace(s), "_")
}
