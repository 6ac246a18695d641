package snapshotcache

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
)

// Backend is the pluggable raw byte store the persistent cache sits on top
// of (spec §4.9: "Backing store is pluggable (IndexedDB, OPFS,
// filesystem)"). Missing/unavailable backends should make Get report
// (nil, false, nil) rather than erroring, so the cache degrades to a
// silent miss.
type Backend interface {
	Get(namespace, key string) ([]byte, bool, error)
	Put(namespace, key string, value []byte) error
	Delete(namespace, key string) error
	ClearNamespace(namespace string) error
}

// MemoryBackend is an in-process Backend whose data lasts as long as the
// process; the tests use it.
type MemoryBackend struct {
	mu   sync.Mutex
	data map[string]map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]map[string][]byte)}
}

func (b *MemoryBackend) Get(namespace, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ns, ok := b.data[namespace]
	if !ok {
		return nil, false, nil
	}
	v, ok := ns[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (b *MemoryBackend) Put(namespace, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data[namespace] == nil {
		b.data[namespace] = make(map[string][]byte)
	}
	b.data[namespace][key] = append([]byte(nil), value...)
	return nil
}

func (b *MemoryBackend) Delete(namespace, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ns, ok := b.data[namespace]; ok {
		delete(ns, key)
	}
	return nil
}

func (b *MemoryBackend) ClearNamespace(namespace string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if namespace == "" {
		b.data = make(map[string]map[string][]byte)
		return nil
	}
	delete(b.data, namespace)
	return nil
}

// FileBackend stores blobs as files under rootDir/<namespace>/<sanitized-key>,
// mirroring the teacher's FileCacheStore layout and filename sanitization
// (internal/core/cache_store.go).
type FileBackend struct {
	RootDir string
}

func NewFileBackend(rootDir string) *FileBackend {
	return &FileBackend{RootDir: rootDir}
}

func (b *FileBackend) path(namespace, key string) string {
	return filepath.Join(b.RootDir, sanitizeSegment(namespace), sanitizeSegment(key))
}

func sanitizeSegment(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

func (b *FileBackend) Get(namespace, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(b.path(namespace, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		// A broken backend degrades to a silent miss (spec §4.9).
		return nil, false, nil
	}
	return data, true, nil
}

func (b *FileBackend) Put(namespace, key string, value []byte) error {
	dir := filepath.Join(b.RootDir, sanitizeSegment(namespace))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(b.path(namespace, key), value, 0o644)
}

func (b *FileBackend) Delete(namespace, key string) error {
	err := os.Remove(b.path(namespace, key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (b *FileBackend) ClearNamespace(namespace string) error {
	if namespace == "" {
		return os.RemoveAll(b.RootDir)
	}
	return os.RemoveAll(filepath.Join(b.RootDir, sanitizeSegment(namespace)))
}

// nsState tracks per-namespace LRU order and content-address refcounts;
// this bookkeeping is process-local (spec §5: the persistent cache's
// ordering is a best-effort layer over a potentially dumb backend).
type nsState struct {
	order    []string // aliased/direct keys, oldest first
	sizes    map[string]int
	total    int
	refcount map[string]int // content hash -> number of aliases pointing at it
}

// Store is the persistent tier: content-addressed, namespace-quota'd,
// backed by a pluggable Backend (spec §4.9).
type Store struct {
	backend Backend

	mu sync.Mutex
	ns map[string]*nsState
}

func NewStore(backend Backend) *Store {
	return &Store{backend: backend, ns: make(map[string]*nsState)}
}

func (s *Store) stateFor(namespace string) *nsState {
	st, ok := s.ns[namespace]
	if !ok {
		st = &nsState{sizes: make(map[string]int), refcount: make(map[string]int)}
		s.ns[namespace] = st
	}
	return st
}

// Read fetches key from namespace, following a content-address alias if one
// was stored under that key.
func (s *Store) Read(namespace, key string) ([]byte, bool) {
	raw, ok, err := s.backend.Get(namespace, "alias:"+key)
	if err == nil && ok {
		hash := string(raw)
		blob, ok, err := s.backend.Get(namespace, "content:"+hash)
		if err != nil || !ok {
			return nil, false
		}
		return blob, true
	}

	raw, ok, err = s.backend.Get(namespace, key)
	if err != nil || !ok {
		return nil, false
	}
	return raw, true
}

// Write stores value under key in namespace, enforcing maxEntries/maxBytes
// for that namespace by evicting least-recently-written keys. The blob is
// always stored once per distinct SHA-256 hash and key becomes an alias to
// it (spec §4.9 "sharing storage across callers that happen to produce
// identical bytes").
func (s *Store) Write(namespace, key string, value []byte, maxEntries, maxBytes int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stateFor(namespace)
	hash := contentHash(value)

	if _, tracked := st.sizes[key]; tracked {
		if old, ok, _ := s.backend.Get(namespace, "alias:"+key); ok {
			oldHash := string(old)
			st.refcount[oldHash]--
			if st.refcount[oldHash] <= 0 {
				delete(st.refcount, oldHash)
				if oldHash != hash {
					_ = s.backend.Delete(namespace, "content:"+oldHash)
				}
			}
		}
	}

	if st.refcount[hash] == 0 {
		if err := s.backend.Put(namespace, "content:"+hash, value); err != nil {
			return err
		}
	}
	st.refcount[hash]++

	if err := s.backend.Put(namespace, "alias:"+key, []byte(hash)); err != nil {
		return err
	}

	s.touch(st, key, len(value))
	s.evict(namespace, st, maxEntries, maxBytes)
	return nil
}

func (s *Store) touch(st *nsState, key string, size int) {
	for i, k := range st.order {
		if k == key {
			st.order = append(st.order[:i], st.order[i+1:]...)
			st.total -= st.sizes[key]
			break
		}
	}
	st.order = append(st.order, key)
	st.sizes[key] = size
	st.total += size
}

func (s *Store) evict(namespace string, st *nsState, maxEntries, maxBytes int) {
	for len(st.order) > 0 && (len(st.order) > maxEntries || st.total > maxBytes) {
		oldest := st.order[0]
		st.order = st.order[1:]
		st.total -= st.sizes[oldest]
		if st.total < 0 {
			st.total = 0
		}
		delete(st.sizes, oldest)

		raw, ok, _ := s.backend.Get(namespace, "alias:"+oldest)
		_ = s.backend.Delete(namespace, "alias:"+oldest)
		if ok {
			hash := string(raw)
			st.refcount[hash]--
			if st.refcount[hash] <= 0 {
				delete(st.refcount, hash)
				_ = s.backend.Delete(namespace, "content:"+hash)
			}
		}
	}
}

// Clear removes an entire namespace's tracked entries (or everything when
// namespace is empty).
func (s *Store) Clear(namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if namespace == "" {
		s.ns = make(map[string]*nsState)
		return s.backend.ClearNamespace("")
	}
	delete(s.ns, namespace)
	return s.backend.ClearNamespace(namespace)
}

func contentHash(value []byte) string {
	sum := sha256.Sum256(value)
	return hex.EncodeToString(sum[:])
}
