// Package snapshotcache implements the two-tier Project Snapshot Cache: an
// in-memory LRU fronting a pluggable, content-addressed persistent binary
// store. Grounded on the teacher's FileCacheStore
// (internal/core/cache_store.go) for the JSON-record-plus-checksum shape,
// and FileLockStore's schema-version gate (internal/core/lock_store.go) for
// the "any deviation on decode is a miss, never a hard error" discipline.
package snapshotcache

import (
	"encoding/json"
	"hash/fnv"
	"sort"
	"strings"
)

// Fingerprint is the canonical option tuple hashed into a cache key.
type Fingerprint struct {
	SourceURL                       string `json:"sourceUrl"`
	Ref                              string `json:"ref"`
	Subdir                           string `json:"subdir"`
	DestPath                         string `json:"destPath"`
	SkipInstall                      bool   `json:"skipInstall"`
	IncludeDev                       bool   `json:"includeDev"`
	IncludeOptional                  bool   `json:"includeOptional"`
	IncludeWorkspaces                bool   `json:"includeWorkspaces"`
	PreferPublishedWorkspacePackages bool   `json:"preferPublishedWorkspacePackages"`
	Transform                        bool   `json:"transform"`
	TransformProjectSources          bool   `json:"transformProjectSources"`
}

// NormalizeDefaults applies the fingerprint's documented defaults
// (includeWorkspaces, transform, transformProjectSources all default true).
func (f Fingerprint) NormalizeDefaults(includeWorkspacesSet, transformSet, transformProjectSourcesSet bool) Fingerprint {
	if !includeWorkspacesSet {
		f.IncludeWorkspaces = true
	}
	if !transformSet {
		f.Transform = true
	}
	if !transformProjectSourcesSet {
		f.TransformProjectSources = true
	}
	return f
}

// canonicalJSON marshals the fingerprint with sorted keys via a
// map round-trip, so field-declaration order never leaks into the key.
func (f Fingerprint) canonicalJSON() string {
	raw, _ := json.Marshal(f)
	var asMap map[string]json.RawMessage
	_ = json.Unmarshal(raw, &asMap)
	keys := make([]string, 0, len(asMap))
	for k := range asMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		b.Write(kb)
		b.WriteByte(':')
		b.Write(asMap[k])
	}
	b.WriteByte('}')
	return b.String()
}

// hash32 is a stable, non-cryptographic 32-bit hash (FNV-1a), matching
// spec's "hash(...) is a stable 32-bit non-cryptographic hash".
func hash32(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

// keyVersion is bumped whenever the on-disk record layout changes
// incompatibly; it is folded into every derived key so old entries become
// unreachable (and eventually evicted) rather than misread.
const keyVersion = "v1"

// DeriveKey computes the cache key for a repo URL + options fingerprint.
func DeriveKey(repoURL string, fp Fingerprint) string {
	trimmed := strings.TrimSpace(repoURL)
	urlHash := hash32(trimmed)
	optHash := hash32(fp.canonicalJSON())
	return "project-snapshot:bootstrap:" + keyVersion + ":" +
		uitoa(urlHash) + "|" + uitoa(optHash)
}

func uitoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
