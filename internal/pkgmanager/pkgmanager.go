// Package pkgmanager defines the PackageManager interface the core treats
// as an opaque black box (spec §4.6) plus a small StaticPackageManager
// reference implementation used by tests and the CLI demo. bootforge itself
// never implements a real npm-compatible resolver or registry client — that
// is explicitly out of scope (spec §1 Non-goals: "does not implement a
// package registry").
package pkgmanager

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/bootforge/bootforge/internal/vfs"
)

// ResolvedPackage is one entry of an InstallResult's Installed map.
type ResolvedPackage struct {
	Name    string
	Version string
}

// InstallResult is what a successful install produces (spec §3 "Bootstrap
// Result").
type InstallResult struct {
	Added     []string
	Installed map[string]ResolvedPackage
}

// InstallOptions mirrors spec §4.6's installFromPackageJson argument object.
type InstallOptions struct {
	IncludeDev                       bool
	IncludeOptional                  bool
	IncludeWorkspaces                bool
	PreferPublishedWorkspacePackages bool
	OnProgress                       func(string)
	// Transform, if set, is applied to every file this package manager
	// writes into node_modules — the opaque per-file rewrite hook spec §4.6
	// allows install to drive independently of the post-install transform
	// pass.
	Transform func(content []byte, filename string) []byte
}

// PackageManager is the interface the coordinator calls; its internals are
// outside the core (spec §4.6).
type PackageManager interface {
	InstallFromPackageJSON(ctx context.Context, opts InstallOptions) (InstallResult, error)
}

// InstallFailedError wraps any error a PackageManager implementation
// returns, per spec §7 ("InstallFailed — propagated... Fatal unless
// skipInstall").
type InstallFailedError struct {
	Cause error
}

func (e *InstallFailedError) Error() string {
	return fmt.Sprintf("Error: Dependency install failed\n  Context: %v\n  Fix: Check the project's package.json and retry, or pass skipInstall", e.Cause)
}

func (e *InstallFailedError) Unwrap() error { return e.Cause }

// StaticPackage is one entry of a StaticRegistry: a concrete, already
// resolved version plus the file tree to materialize under
// node_modules/<name>/.
type StaticPackage struct {
	Version string
	Files   map[string]string // relative path -> file content
}

// Registry resolves a package name + semver-ish range to a concrete
// version. StaticRegistry below is the only implementation bootforge ships;
// production hosts inject their own (a real registry client is explicitly
// out of scope).
type Registry interface {
	Resolve(name, versionRange string) (StaticPackage, bool)
}

// StaticRegistry is an in-memory Registry keyed by package name, used by
// tests and the CLI demo to make "paste URL -> runnable project" concretely
// reproducible without a network registry.
type StaticRegistry map[string]StaticPackage

// Resolve ignores versionRange and returns the single pinned version this
// fixture registry holds for name — deterministic by construction, which is
// what the idempotence and cache-hit tests in spec §8 require.
func (r StaticRegistry) Resolve(name, _ string) (StaticPackage, bool) {
	pkg, ok := r[name]
	return pkg, ok
}

// StaticPackageManager implements PackageManager by resolving the root
// manifest's dependencies against an injected Registry and writing each
// resolved package's files into node_modules.
type StaticPackageManager struct {
	VFS        *vfs.VFS
	ProjectDir string
	Registry   Registry
}

// New constructs a StaticPackageManager rooted at projectDir.
func New(v *vfs.VFS, projectDir string, registry Registry) *StaticPackageManager {
	return &StaticPackageManager{VFS: v, ProjectDir: projectDir, Registry: registry}
}

type manifest struct {
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}

// InstallFromPackageJSON reads <ProjectDir>/package.json, resolves each
// requested dependency set against Registry, and writes results into
// <ProjectDir>/node_modules/<name>/.
func (m *StaticPackageManager) InstallFromPackageJSON(ctx context.Context, opts InstallOptions) (InstallResult, error) {
	if err := ctx.Err(); err != nil {
		return InstallResult{}, err
	}

	raw, err := m.VFS.ReadFile(path.Join(m.ProjectDir, "package.json"))
	if err != nil {
		return InstallResult{}, fmt.Errorf("read package.json: %w", err)
	}
	var man manifest
	if err := json.Unmarshal(raw, &man); err != nil {
		return InstallResult{}, fmt.Errorf("parse package.json: %w", err)
	}

	wanted := map[string]string{}
	for name, rng := range man.Dependencies {
		wanted[name] = rng
	}
	if opts.IncludeDev {
		for name, rng := range man.DevDependencies {
			wanted[name] = rng
		}
	}
	if opts.IncludeOptional {
		for name, rng := range man.OptionalDependencies {
			wanted[name] = rng
		}
	}

	names := make([]string, 0, len(wanted))
	for name := range wanted {
		names = append(names, name)
	}
	sort.Strings(names)

	result := InstallResult{Installed: make(map[string]ResolvedPackage, len(names))}
	for _, name := range names {
		if opts.OnProgress != nil {
			opts.OnProgress(fmt.Sprintf("installing %s@%s", name, wanted[name]))
		}
		pkg, ok := m.Registry.Resolve(name, wanted[name])
		if !ok {
			return result, fmt.Errorf("resolve %s@%s: not found in registry", name, wanted[name])
		}

		base := path.Join(m.ProjectDir, "node_modules", name)
		filenames := make([]string, 0, len(pkg.Files))
		for rel := range pkg.Files {
			filenames = append(filenames, rel)
		}
		sort.Strings(filenames)
		for _, rel := range filenames {
			content := []byte(pkg.Files[rel])
			if opts.Transform != nil {
				content = opts.Transform(content, rel)
			}
			if err := m.VFS.WriteFile(path.Join(base, rel), content); err != nil {
				return result, fmt.Errorf("write %s: %w", rel, err)
			}
			result.Added = append(result.Added, strings.TrimPrefix(path.Join("node_modules", name, rel), "/"))
		}

		result.Installed[name] = ResolvedPackage{Name: name, Version: pkg.Version}
	}

	sort.Strings(result.Added)
	return result, nil
}
