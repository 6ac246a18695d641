// Package core wires the Archive Fetcher, Tarball Extractor, Preflight
// Validator, Package Manager, Source Transformer, and Project Snapshot
// Cache into the single bootstrap entry point, following the teacher's
// VendorSyncer (internal/core/vendor_syncer.go): one coordinator owning a
// linear, progress-reporting pipeline over injected collaborator
// interfaces.
package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bootforge/bootforge/internal/fetch"
	"github.com/bootforge/bootforge/internal/identity"
	"github.com/bootforge/bootforge/internal/pkgmanager"
	"github.com/bootforge/bootforge/internal/preflight"
	"github.com/bootforge/bootforge/internal/tarball"
	"github.com/bootforge/bootforge/internal/transform"
	"github.com/bootforge/bootforge/internal/vfs"
)

// Bootstrap is the coordinator entry point (spec §4.10). The caller
// exclusively owns v for the duration of the call and afterward; bootstrap
// never retains a reference to it.
func Bootstrap(ctx context.Context, v *vfs.VFS, repoURL string, opts Options) (BootstrapResult, error) {
	r := resolveOptions(opts)
	runID := uuid.New().String()

	id, err := identity.Parse(repoURL)
	if err != nil {
		return BootstrapResult{}, err
	}

	fp := opts.fingerprint(id.SourceURL, id.Ref, id.Subdir)

	// Step 1: Cache.read.
	if opts.Cache != nil {
		if hit, ok := opts.Cache.Read(v, id.SourceURL, id.Ref, fp, opts.CacheOptions); ok {
			var result BootstrapResult
			if err := json.Unmarshal(hit.Result, &result); err == nil {
				r.progress(fmt.Sprintf("Restored project from snapshot cache (%s)", hit.Source))
				if result.Cache == nil {
					result.Cache = &CacheInfo{}
				}
				result.Cache.Source = hit.Source
				result.Cache.RunID = runID
				return result, nil
			}
		}
	}

	// Step 2: Import.
	destPath := r.destPath
	var extractedFiles []string
	archiveSource := "archive"

	if opts.Fetcher == nil {
		return BootstrapResult{}, fmt.Errorf("bootforge: core.Options.Fetcher is required")
	}

	fetchResult, err := opts.Fetcher.FetchArchive(ctx, id, r.onProgress)
	if err != nil {
		return BootstrapResult{}, &fetch.ArchiveFetchFailedError{ArchiveURL: id.ArchiveURL, Cause: err}
	}

	if fetchResult.UseAPIFallback {
		archiveSource = "api"
		written, err := opts.Fetcher.ImportViaAPI(ctx, id, v, destPath, r.onProgress)
		if err != nil {
			return BootstrapResult{}, &fetch.ArchiveFetchFailedError{ArchiveURL: id.ArchiveURL, Cause: err}
		}
		extractedFiles = written
	} else {
		written, err := tarball.Extract(bytes.NewReader(fetchResult.Archive), v, destPath, tarball.Options{
			StripComponents: 1,
			OnProgress:      r.onProgress,
		})
		if err != nil {
			return BootstrapResult{}, &fetch.ArchiveFetchFailedError{ArchiveURL: id.ArchiveURL, Cause: err}
		}
		extractedFiles = written
	}

	projectPath := destPath
	if id.Subdir != "" {
		projectPath = path.Join(destPath, id.Subdir)
		if !v.Exists(projectPath) {
			return BootstrapResult{}, &SubdirNotFoundError{Subdir: id.Subdir, Repo: id.Owner + "/" + id.Repo}
		}
	}

	result := BootstrapResult{
		Repo:           RepoSummary{Owner: id.Owner, Repo: id.Repo, Ref: id.Ref},
		RootPath:       destPath,
		ProjectPath:    projectPath,
		ExtractedFiles: extractedFiles,
	}

	// Step 3: install gate.
	manifestPath := path.Join(projectPath, "package.json")
	hasManifest := v.Exists(manifestPath)
	if !r.skipInstall && hasManifest {
		includeWorkspaces := r.includeWorkspaces
		preferPublished := r.preferPublishedWorkspacePackages

		// Step 4: Preflight(pre-install), autoFix=true.
		preReport, _ := preflight.Run(v, projectPath, preflight.Options{
			AutoFix:                          true,
			IncludeWorkspaces:                includeWorkspaces,
			PreferPublishedWorkspacePackages: preferPublished,
			OnProgress:                       r.onProgress,
		})
		// Caller-supplied overrides win; auto-fix can only flip these from
		// false to true when the caller left them at their defaults.
		if !opts.includeWorkspacesSet {
			includeWorkspaces = preReport.InstallOverrides.IncludeWorkspaces
		}
		preferPublished = preferPublished || preReport.InstallOverrides.PreferPublishedWorkspacePackages

		// Step 5: Install.
		if opts.PackageManager == nil {
			return BootstrapResult{}, &pkgmanager.InstallFailedError{Cause: fmt.Errorf("no PackageManager factory configured")}
		}
		pm := opts.PackageManager(v, projectPath)
		installResult, err := pm.InstallFromPackageJSON(ctx, pkgmanager.InstallOptions{
			IncludeDev:                       r.includeDev,
			IncludeOptional:                  r.includeOptional,
			IncludeWorkspaces:                includeWorkspaces,
			PreferPublishedWorkspacePackages: preferPublished,
			OnProgress:                       r.onProgress,
		})
		if err != nil {
			return BootstrapResult{}, &pkgmanager.InstallFailedError{Cause: err}
		}
		result.InstallResult = &installResult

		// Step 6: Preflight(post-install), report-only.
		postReport, _ := preflight.Run(v, projectPath, preflight.Options{
			AutoFix:                          false,
			IncludeWorkspaces:                includeWorkspaces,
			PreferPublishedWorkspacePackages: preferPublished,
			OnProgress:                       r.onProgress,
		})
		_ = postReport
	}

	// Step 7: Transform.
	if r.transform && r.transformProjectSources {
		count, err := applyProjectTransform(ctx, v, projectPath, opts.Transformer, r.onProgress)
		if err != nil {
			wrapped := &transform.TransformFailedError{Package: projectPath, Cause: err}
			r.progress(fmt.Sprintf("[transform] warning: %v", wrapped))
		} else {
			result.TransformedProjectFiles = &count
		}
	}

	// Step 8: Cache.write.
	cacheInfo := &CacheInfo{RunID: runID, ArchiveSource: archiveSource}
	result.Cache = cacheInfo
	if opts.Cache != nil {
		resultJSON, err := json.Marshal(result)
		if err == nil {
			if werr := opts.Cache.Write(ctx, v, id.SourceURL, fp, resultJSON, time.Now().UnixMilli(), opts.CacheOptions); werr != nil {
				r.progress(fmt.Sprintf("[cache] write failed: %v", werr))
			} else {
				cacheInfo.SnapshotWritten = true
			}
		}
	}

	return result, nil
}

// applyProjectTransform runs the configured SourceTransformer over every
// regular file under projectPath, excluding node_modules. Bootstrap sets no
// per-file Transform hook on the install, so installed package files are
// written as the PackageManager produced them and are not transformed. It
// writes transformed output back into v and returns the number of files
// processed.
func applyProjectTransform(ctx context.Context, v *vfs.VFS, projectPath string, t transform.SourceTransformer, onProgress func(string)) (int, error) {
	if t == nil {
		t = transform.PassthroughTransformer{}
	}
	if !t.IsReady() {
		if err := t.Init(ctx); err != nil {
			return 0, err
		}
	}

	prefix := strings.TrimSuffix(projectPath, "/") + "/"
	snap := v.ToSnapshot()
	var inputs []transform.FileInput
	for _, entry := range snap.Files {
		if entry.Type != vfs.EntryFile || !strings.HasPrefix(entry.Path, prefix) {
			continue
		}
		rel := strings.TrimPrefix(entry.Path, prefix)
		if strings.HasPrefix(rel, "node_modules/") || rel == "node_modules" {
			continue
		}
		inputs = append(inputs, transform.FileInput{Path: entry.Path, Content: entry.Content})
	}
	if len(inputs) == 0 {
		return 0, nil
	}

	outputs, err := t.TransformPackage(ctx, "", inputs)
	if err != nil {
		return 0, err
	}
	for _, out := range outputs {
		if err := v.WriteFile(out.Path, out.Content); err != nil {
			return 0, err
		}
		if onProgress != nil {
			onProgress(fmt.Sprintf("[transform] %s", out.Path))
		}
	}
	return len(outputs), nil
}
