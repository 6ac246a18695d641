package snapshotcache

import (
	"regexp"
	"time"
)

// PinnedTTL and MutableTTL are the default TTLs for pinned-commit and
// mutable (branch/tag/HEAD) refs respectively.
const (
	PinnedTTL  = 30 * time.Minute
	MutableTTL = 5 * time.Minute
)

var hexCommitPattern = regexp.MustCompile(`(?i)^[0-9a-f]{7,40}$`)

// MutableRef reports whether ref is NOT a pinned commit hash (7-40 hex
// chars) — branches, tags, and the literal HEAD sentinel are all mutable.
func MutableRef(ref string) bool {
	return !hexCommitPattern.MatchString(ref)
}

// DefaultTTL picks the TTL for ref per spec §4.8 "TTL policy": pinned refs
// get the long TTL, mutable refs the short one.
func DefaultTTL(ref string) time.Duration {
	if MutableRef(ref) {
		return MutableTTL
	}
	return PinnedTTL
}
