package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pkt.systems/pslog"
	"pkt.systems/tabula/schema"
)

// BookmarksFile is the name of the bookmark list inside the data directory.
const BookmarksFile = "bookmarks.json"

// ErrNotList indicates the bookmark file does not hold a JSON array.
var ErrNotList = errors.New("bookmark file is not a list")

// Store persists the bookmark list to a single JSON file.
type Store struct {
	dir string
	log pslog.Logger
}

// NewStore constructs a bookmark store in the given data directory.
func NewStore(dir string) (*Store, error) {
	return NewStoreWithLogger(dir, nil)
}

// NewStoreWithLogger constructs a bookmark store with logging.
func NewStoreWithLogger(dir string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("data directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("data_dir", dir)
	}
	return &Store{dir: dir, log: logger}, nil
}

// Path returns the bookmark file location.
func (s *Store) Path() string {
	return filepath.Join(s.dir, BookmarksFile)
}

// Load reads the bookmark list. A missing file reports ok=false with no error.
// Unreadable or malformed content is returned as an error so the caller can
// fall back to an empty list.
func (s *Store) Load() ([]schema.Bookmark, bool, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.debug("bookmarks load miss")
			return nil, false, nil
		}
		s.warn("bookmarks load failed", err)
		return nil, false, err
	}
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.warn("bookmarks load failed", err)
		return nil, false, err
	}
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "[") {
		s.warn("bookmarks load failed", ErrNotList)
		return nil, false, ErrNotList
	}
	var list []schema.Bookmark
	if err := json.Unmarshal(raw, &list); err != nil {
		err = fmt.Errorf("%w: %v", ErrNotList, err)
		s.warn("bookmarks load failed", err)
		return nil, false, err
	}
	if list == nil {
		list = []schema.Bookmark{}
	}
	s.debug("bookmarks load ok", "count", len(list))
	return list, true, nil
}

// Save rewrites the bookmark file atomically.
func (s *Store) Save(list []schema.Bookmark) error {
	if list == nil {
		list = []schema.Bookmark{}
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		s.warn("bookmarks save failed", err)
		return err
	}
	if err := writeFileAtomic(s.Path(), data); err != nil {
		s.warn("bookmarks save failed", err)
		return err
	}
	if s.log != nil {
		s.log.Trace("bookmarks save ok", "count", len(list))
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "bookmarks-*.json")
	if err != nil {
		return err
	}
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (s *Store) debug(msg string, kv ...any) {
	if s.log != nil {
		s.log.Debug(msg, kv...)
	}
}

func (s *Store) warn(msg string, err error) {
	if s.log != nil {
		s.log.Warn(msg, "path", s.Path(), "err", err)
	}
}
