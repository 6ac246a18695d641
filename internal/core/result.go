package core

import "github.com/bootforge/bootforge/internal/pkgmanager"

// RepoSummary is the subset of identity.Identity a BootstrapResult carries;
// kept separate from identity.Identity so the persisted JSON shape stays
// stable even if Identity grows fields unrelated to the result (spec §3
// "Bootstrap Result").
type RepoSummary struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	Ref   string `json:"ref"`
}

// BootstrapResult is bootstrap's return value (spec §3, §4.10). Its JSON
// shape is exactly what snapshotcache.Record.Result stores and what
// record.go's resultShape validates on decode.
type BootstrapResult struct {
	Repo                    RepoSummary               `json:"repo"`
	RootPath                string                    `json:"rootPath"`
	ProjectPath             string                    `json:"projectPath"`
	ExtractedFiles          []string                  `json:"extractedFiles"`
	InstallResult           *pkgmanager.InstallResult `json:"installResult,omitempty"`
	TransformedProjectFiles *int                      `json:"transformedProjectFiles,omitempty"`
	Cache                   *CacheInfo                `json:"cache,omitempty"`
}

// CacheInfo reports how the Project Snapshot Cache was used for this call,
// surfaced so callers/tests can assert the "idempotence" and "mode
// semantics" properties (spec §8) without instrumenting the cache itself.
type CacheInfo struct {
	Source          string `json:"source,omitempty"` // "memory", "persistent", or "" on miss
	SnapshotWritten bool   `json:"snapshotWritten"`
	ArchiveSource   string `json:"archiveSource,omitempty"` // "archive" or "api"
	RunID           string `json:"runId"`
}
