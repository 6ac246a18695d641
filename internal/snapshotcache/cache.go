package snapshotcache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bootforge/bootforge/internal/vfs"
)

// Mode controls whether a bootstrap call reads, writes, both, or neither
// (spec §4.8 "Modes").
type Mode string

const (
	ModeDefault Mode = "default"
	ModeRefresh Mode = "refresh"
	ModeBypass  Mode = "bypass"
)

const (
	defaultMaxEntries    = 12
	defaultMaxBytes      = 768 * 1024 * 1024
	defaultMaxEntryBytes = 256 * 1024 * 1024
	defaultNamespace     = "project-snapshot"
)

// Limits mirrors spec §3's Cache Limits. Nil fields resolve to the package
// defaults; an explicitly-set non-positive value is honored literally and
// makes Read/Write report a miss/skip, per spec §4.8 step 2.
type Limits struct {
	MaxEntries    *int
	MaxBytes      *int
	MaxEntryBytes *int
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// Options configures one Read or Write call.
type Options struct {
	// Enabled overrides ENABLE_PROJECT_SNAPSHOT_CACHE when non-nil.
	Enabled *bool
	// Mode overrides PROJECT_SNAPSHOT_CACHE_MODE when non-empty.
	Mode Mode
	// Namespace scopes the persistent store; defaults to "project-snapshot".
	Namespace string
	Limits    Limits
	// TTL overrides the ref-derived default TTL (spec §4.8 "TTL policy"
	// "Caller override supersedes; environment override supersedes
	// default"). A value of 0 with TTLSet=false requests the default.
	TTL    time.Duration
	TTLSet bool
}

func resolveEnabled(o Options) bool {
	if o.Enabled != nil {
		return *o.Enabled
	}
	v := strings.TrimSpace(os.Getenv("ENABLE_PROJECT_SNAPSHOT_CACHE"))
	if v == "0" || strings.EqualFold(v, "false") {
		return false
	}
	return true
}

func resolveMode(o Options) Mode {
	if o.Mode != "" {
		return o.Mode
	}
	switch strings.TrimSpace(os.Getenv("PROJECT_SNAPSHOT_CACHE_MODE")) {
	case "refresh":
		return ModeRefresh
	case "bypass":
		return ModeBypass
	default:
		return ModeDefault
	}
}

func resolveTTL(o Options, ref string) time.Duration {
	if o.TTLSet {
		return o.TTL
	}
	if envTTL := strings.TrimSpace(os.Getenv("PROJECT_SNAPSHOT_CACHE_TTL_MS")); envTTL != "" {
		if ms, err := parseMillis(envTTL); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return DefaultTTL(ref)
}

var errNotNumeric = errors.New("not a number")

func parseMillis(s string) (int64, error) {
	var n int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errNotNumeric
		}
		n = n*10 + int64(r-'0')
	}
	return n, nil
}

// ReadResult is returned on a cache hit.
type ReadResult struct {
	Source string // "memory" or "persistent"
	Result json.RawMessage
}

// Cache is the two-tier Project Snapshot Cache. It is safe for concurrent
// use; per spec §5 the in-memory LRU is "module-scoped process-wide state"
// so a single Cache is normally constructed once and shared.
type Cache struct {
	mu    sync.Mutex
	mem   *memoryLRU
	store *Store
}

// New constructs a Cache over the given persistent Backend.
func New(backend Backend) *Cache {
	return &Cache{mem: newMemoryLRU(), store: NewStore(backend)}
}

// Reset clears all in-memory and persistent state. Intended for test
// teardown (spec §5).
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem.reset()
	_ = c.store.Clear("")
}

// Read implements spec §4.8's read protocol.
func (c *Cache) Read(v *vfs.VFS, repoURL, ref string, fp Fingerprint, opts Options) (ReadResult, bool) {
	mode := resolveMode(opts)
	if !resolveEnabled(opts) || mode == ModeBypass || mode == ModeRefresh {
		return ReadResult{}, false
	}

	maxEntries := intOr(opts.Limits.MaxEntries, defaultMaxEntries)
	maxBytes := intOr(opts.Limits.MaxBytes, defaultMaxBytes)
	maxEntryBytes := intOr(opts.Limits.MaxEntryBytes, defaultMaxEntryBytes)
	if maxEntries <= 0 || maxBytes <= 0 || maxEntryBytes <= 0 {
		return ReadResult{}, false
	}

	key := DeriveKey(repoURL, fp)
	ttl := resolveTTL(opts, ref)
	namespace := opts.Namespace
	if namespace == "" {
		namespace = defaultNamespace
	}

	c.mu.Lock()
	entry, ok := c.mem.get(key)
	c.mu.Unlock()
	if ok && fresh(entry.record.StoredAt, ttl) {
		if err := v.FromSnapshot(entry.record.Snapshot); err != nil {
			return ReadResult{}, false
		}
		return ReadResult{Source: "memory", Result: entry.record.Result}, true
	}

	blob, ok := c.store.Read(namespace, key)
	if !ok {
		return ReadResult{}, false
	}
	rec, err := decode(blob)
	if err != nil {
		return ReadResult{}, false
	}
	if !fresh(rec.StoredAt, ttl) {
		return ReadResult{}, false
	}

	if len(blob) <= maxEntryBytes {
		c.mu.Lock()
		c.mem.put(key, rec, len(blob), maxEntries, maxBytes)
		c.mu.Unlock()
	}

	if err := v.FromSnapshot(rec.Snapshot); err != nil {
		return ReadResult{}, false
	}
	return ReadResult{Source: "persistent", Result: rec.Result}, true
}

func fresh(storedAtMs int64, ttl time.Duration) bool {
	if ttl <= 0 {
		return true // ttl=0 means "never expires" per spec §4.8
	}
	age := time.Since(time.UnixMilli(storedAtMs))
	return age <= ttl
}

// Write implements spec §4.8's write protocol. nowMs is supplied by the
// caller (this package must not call time.Now()-derived wall-clock stamps
// internally beyond TTL freshness checks, keeping Record.StoredAt
// reproducible for tests).
func (c *Cache) Write(ctx context.Context, v *vfs.VFS, repoURL string, fp Fingerprint, resultJSON json.RawMessage, nowMs int64, opts Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mode := resolveMode(opts)
	if !resolveEnabled(opts) || mode == ModeBypass {
		return nil
	}

	maxEntries := intOr(opts.Limits.MaxEntries, defaultMaxEntries)
	maxBytes := intOr(opts.Limits.MaxBytes, defaultMaxBytes)
	maxEntryBytes := intOr(opts.Limits.MaxEntryBytes, defaultMaxEntryBytes)
	if maxEntries <= 0 || maxBytes <= 0 || maxEntryBytes <= 0 {
		return nil
	}

	rec := Record{Version: recordVersion, StoredAt: nowMs, Result: resultJSON, Snapshot: v.ToSnapshot()}
	blob, err := encode(rec)
	if err != nil {
		return err
	}
	if len(blob) == 0 || len(blob) > maxEntryBytes || len(blob) > maxBytes {
		return nil
	}

	key := DeriveKey(repoURL, fp)
	namespace := opts.Namespace
	if namespace == "" {
		namespace = defaultNamespace
	}

	c.mu.Lock()
	c.mem.put(key, rec, len(blob), maxEntries, maxBytes)
	c.mu.Unlock()

	return c.store.Write(namespace, key, blob, maxEntries, maxBytes)
}
