package core

import (
	"github.com/bootforge/bootforge/internal/fetch"
	"github.com/bootforge/bootforge/internal/pkgmanager"
	"github.com/bootforge/bootforge/internal/snapshotcache"
	"github.com/bootforge/bootforge/internal/transform"
	"github.com/bootforge/bootforge/internal/vfs"
)

// PackageManagerFactory constructs a PackageManager scoped to one bootstrap
// call's VFS and project directory, mirroring the teacher's per-call
// service construction (spec §4.6: "constructed with (vfs, {cwd:
// projectPath})" rather than held as shared state across calls).
type PackageManagerFactory func(v *vfs.VFS, projectPath string) pkgmanager.PackageManager

// Options is bootstrap's polymorphic options record (spec §6, §9 "Polymorphic
// options"). Every boolean has a spec-mandated default; resolveOptions is
// the single site that applies them, matching the defaulting
// snapshotcache.Fingerprint.NormalizeDefaults applies for the cache key so
// the two never disagree (spec §9: "the two sites must agree").
type Options struct {
	DestPath string

	SkipInstall bool

	IncludeDev     bool
	IncludeOptional bool

	IncludeWorkspaces    bool
	includeWorkspacesSet bool

	PreferPublishedWorkspacePackages bool

	Transform    bool
	transformSet bool

	TransformProjectSources    bool
	transformProjectSourcesSet bool

	OnProgress func(string)

	// Transport-level concerns, injected rather than constructed inside
	// bootstrap so tests can substitute a fake Transport/clock/Rand.
	Fetcher        *fetch.Fetcher
	PackageManager PackageManagerFactory
	Transformer    transform.SourceTransformer

	Cache        *snapshotcache.Cache
	CacheOptions snapshotcache.Options
}

// SetIncludeWorkspaces records an explicit includeWorkspaces choice so
// resolveOptions (and the cache fingerprint) can tell "unset" from
// "explicitly false" apart, the same distinction identity.MutableRef-style
// booleans need across the options/fingerprint boundary.
func (o *Options) SetIncludeWorkspaces(v bool) {
	o.IncludeWorkspaces = v
	o.includeWorkspacesSet = true
}

// SetTransform records an explicit transform choice.
func (o *Options) SetTransform(v bool) {
	o.Transform = v
	o.transformSet = true
}

// SetTransformProjectSources records an explicit transformProjectSources choice.
func (o *Options) SetTransformProjectSources(v bool) {
	o.TransformProjectSources = v
	o.transformProjectSourcesSet = true
}

// resolved is Options after defaults have been applied exactly once.
type resolved struct {
	destPath                         string
	skipInstall                      bool
	includeDev                       bool
	includeOptional                  bool
	includeWorkspaces                bool
	preferPublishedWorkspacePackages bool
	transform                        bool
	transformProjectSources          bool
	onProgress                       func(string)
}

func resolveOptions(opts Options) resolved {
	r := resolved{
		destPath:                         opts.DestPath,
		skipInstall:                      opts.SkipInstall,
		includeDev:                       opts.IncludeDev,
		includeOptional:                  opts.IncludeOptional,
		includeWorkspaces:                true,
		preferPublishedWorkspacePackages: opts.PreferPublishedWorkspacePackages,
		transform:                        true,
		transformProjectSources:          true,
		onProgress:                       opts.OnProgress,
	}
	if r.destPath == "" {
		r.destPath = "/project"
	}
	if opts.includeWorkspacesSet {
		r.includeWorkspaces = opts.IncludeWorkspaces
	}
	if opts.transformSet {
		r.transform = opts.Transform
	}
	if opts.transformProjectSourcesSet {
		r.transformProjectSources = opts.TransformProjectSources
	}
	return r
}

func (r resolved) progress(line string) {
	if r.onProgress != nil {
		r.onProgress(line)
	}
}

// fingerprint builds the cache-key fingerprint for this call, delegating
// default normalization to snapshotcache so the two defaulting sites
// (here and the cache key) can never drift apart.
func (o Options) fingerprint(sourceURL, ref, subdir string) snapshotcache.Fingerprint {
	destPath := o.DestPath
	if destPath == "" {
		destPath = "/project"
	}
	fp := snapshotcache.Fingerprint{
		SourceURL:                        sourceURL,
		Ref:                              ref,
		Subdir:                           subdir,
		DestPath:                         destPath,
		SkipInstall:                      o.SkipInstall,
		IncludeDev:                       o.IncludeDev,
		IncludeOptional:                  o.IncludeOptional,
		IncludeWorkspaces:                o.IncludeWorkspaces,
		PreferPublishedWorkspacePackages: o.PreferPublishedWorkspacePackages,
		Transform:                        o.Transform,
		TransformProjectSources:          o.TransformProjectSources,
	}
	return fp.NormalizeDefaults(o.includeWorkspacesSet, o.transformSet, o.transformProjectSourcesSet)
}
