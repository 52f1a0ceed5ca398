package logkv

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
	"unicode"
)

// Store is an embeddable key/value store. A Store opened with Open is
// persistent and bound to a single log file; a Store opened with
// OpenMemory holds everything in the index and never touches disk.
//
// A Store is safe for concurrent use by multiple goroutines: Get
// acquires the internal lock in shared mode, Put/Del/Compact/Close
// acquire it exclusively.
type Store struct {
	mu  sync.RWMutex
	idx index
	cfg *config

	persistent bool
	path       string
	file       *os.File // nil in memory-only mode, and while Draining

	closed bool

	stopAutoCompact chan struct{}
	autoCompactDone chan struct{}
}

// Open opens a Store bound to path, replaying any existing log to
// rebuild the index before returning. An empty or nonexistent log
// yields an empty index, not an error.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Store{
		idx:        newIndex(),
		cfg:        cfg,
		persistent: true,
		path:       path,
	}

	if err := s.openFile(); err != nil {
		return nil, fmt.Errorf("logkv: open %s: %w", path, err)
	}
	if err := s.replay(); err != nil {
		_ = s.file.Close()
		return nil, fmt.Errorf("logkv: replay %s: %w", path, err)
	}

	s.startAutoCompact()
	return s, nil
}

// OpenMemory constructs a memory-only Store. It has no log path and no
// I/O side effects; values are held directly in the index.
func OpenMemory(opts ...Option) *Store {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Store{
		idx:        newIndex(),
		cfg:        cfg,
		persistent: false,
	}
}

func (s *Store) openFile() error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	s.file = f
	return nil
}

// validateKey rejects empty keys and keys containing whitespace, since
// the log header syntax is whitespace-delimited and such a key could
// never round-trip. It also enforces the optional WithMaxKeySize
// ceiling.
func (s *Store) validateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return ErrInvalidKey
	}
	if s.cfg.maxKeySize > 0 && len(key) > s.cfg.maxKeySize {
		return fmt.Errorf("%w (%d bytes, limit %d)", ErrKeyTooLarge, len(key), s.cfg.maxKeySize)
	}
	return nil
}

func (s *Store) validateValue(value []byte) error {
	if s.cfg.maxValueSize > 0 && len(value) > s.cfg.maxValueSize {
		return fmt.Errorf("%w (%d bytes, limit %d)", ErrValueTooLarge, len(value), s.cfg.maxValueSize)
	}
	return nil
}

// Put stores value under key, replacing any prior value. It returns
// false (without modifying the index) if the key/value fail
// validation or, in persistent mode, if appending the record to the
// log fails.
func (s *Store) Put(key string, value []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if err := s.validateKey(key); err != nil {
		return false
	}
	if err := s.validateValue(value); err != nil {
		return false
	}

	if !s.persistent {
		s.idx.put(key, entry{located: false, cached: append([]byte(nil), value...)})
		return true
	}
	if s.file == nil {
		// Draining: compaction released the handle and has not (yet,
		// or ever) reopened it. Compact always holds this same
		// exclusive lock for its whole duration, so a well-behaved
		// caller never observes this; it only guards against a prior
		// Compact call having failed after releasing the handle.
		return false
	}

	offset, err := appendPut(s.file, key, value)
	if err != nil {
		return false
	}
	if s.cfg.syncWrites {
		if err := s.file.Sync(); err != nil {
			return false
		}
	}

	s.idx.put(key, entry{located: true, offset: offset, size: int64(len(value))})
	return true
}

// Get returns the value stored under key, and whether key was present.
// A present-but-empty value is reported as ("", true); an absent key,
// or a value that cannot be read back due to a mid-record corruption,
// is reported as (nil, false).
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, false
	}
	e, ok := s.idx.get(key)
	if !ok {
		return nil, false
	}

	if !e.located {
		return append([]byte(nil), e.cached...), true
	}

	if s.file == nil {
		// Draining (mid-compaction): the log handle is released, so
		// treat located reads as transiently absent rather than
		// blocking, matching the "positioned read that fails is
		// absent" contract. Compact always holds the exclusive lock,
		// so no Get can observe this state in practice.
		return nil, false
	}

	buf := make([]byte, e.size)
	n, err := preadAt(s.file, buf, e.offset)
	if err != nil || int64(n) != e.size {
		return nil, false
	}
	return buf, true
}

// Del removes key from the store and reports whether it was present
// beforehand. In persistent mode a DEL record is appended
// unconditionally, even if the key was absent, so that replay and
// compaction see uniform semantics.
func (s *Store) Del(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if err := s.validateKey(key); err != nil {
		return false
	}

	existed := s.idx.del(key)

	if s.persistent && s.file != nil {
		_ = appendDel(s.file, key)
		if s.cfg.syncWrites {
			_ = s.file.Sync()
		}
	}

	return existed
}

// Close releases any held file handles. It is safe to call more than
// once, and safe to call on a memory-only Store (a no-op).
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	file := s.file
	s.file = nil
	stop := s.stopAutoCompact
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		<-s.autoCompactDone
	}

	if file == nil {
		return nil
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("logkv: close %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) startAutoCompact() {
	if s.cfg.autoCompact <= 0 {
		return
	}
	s.stopAutoCompact = make(chan struct{})
	s.autoCompactDone = make(chan struct{})

	go func() {
		defer close(s.autoCompactDone)
		ticker := time.NewTicker(s.cfg.autoCompact)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopAutoCompact:
				return
			case <-ticker.C:
				s.Compact()
			}
		}
	}()
}

// newLineReader wraps f in a buffered reader positioned at the start
// of the file, for use by replay and compaction's post-swap rebuild.
func newLineReader(f *os.File) (*bufio.Reader, error) {
	if _, err := f.Seek(0, 0); err != nil {
		return nil, err
	}
	return bufio.NewReader(f), nil
}
