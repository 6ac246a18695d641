// Package preflight scans an extracted project for structural hazards
// before (and after) dependency installation, producing diagnostics and
// install-override suggestions. Shaped after the teacher's ValidationService
// (internal/core/validation_service.go): a small service wrapping one
// dependency (here, the VFS) with focused check methods.
package preflight

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/bootforge/bootforge/internal/vfs"
)

// Severity classifies an Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one diagnostic produced by Run.
type Issue struct {
	Code     string
	Severity Severity
	Message  string
	Path     string
}

// InstallOverrides mirrors the subset of install options a preflight pass
// may auto-adjust (spec §4.5, §4.10 step 4).
type InstallOverrides struct {
	PreferPublishedWorkspacePackages bool
	IncludeWorkspaces                bool
}

// Report is the result of a preflight pass.
type Report struct {
	Issues           []Issue
	InstallOverrides InstallOverrides
	HasErrors        bool
}

// Options configures Run.
type Options struct {
	AutoFix                           bool
	IncludeWorkspaces                 bool
	PreferPublishedWorkspacePackages  bool
	OnProgress                        func(string)
	// KnownFrameworkPlugins maps a detected framework feature import (e.g.
	// "@vitejs/plugin-react") to whether it is present in the manifest's
	// dependencies — populated by the caller from framework-detection
	// heuristics that live outside the core (spec §1 "out of scope").
	KnownFrameworkPlugins map[string]bool
}

type packageJSON struct {
	Name            string            `json:"name"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	Workspaces      []string          `json:"workspaces"`
	Exports         json.RawMessage   `json:"exports"`
}

// Run performs the manifest checks (workspace refs, framework plugins) then
// a bounded scan of project sources for bare-specifier subpath imports, in
// that order (spec §4.5 "Ordering").
func Run(v *vfs.VFS, projectPath string, opts Options) (Report, error) {
	report := Report{InstallOverrides: InstallOverrides{
		IncludeWorkspaces:                opts.IncludeWorkspaces,
		PreferPublishedWorkspacePackages: opts.PreferPublishedWorkspacePackages,
	}}

	manifestPath := path.Join(projectPath, "package.json")
	raw, err := v.ReadFile(manifestPath)
	if err != nil {
		// No manifest at all: nothing to preflight (coordinator already
		// gates installs on manifest presence).
		return report, nil
	}

	var manifest packageJSON
	if err := json.Unmarshal(raw, &manifest); err != nil {
		appendIssue(&report, Issue{
			Code:     "preflight.manifest.invalid-json",
			Severity: SeverityError,
			Message:  fmt.Sprintf("package.json is not valid JSON: %v", err),
			Path:     manifestPath,
		}, opts.OnProgress)
		report.HasErrors = true
		return report, nil
	}

	checkWorkspaceRefs(v, projectPath, manifest, &report, opts)
	checkFrameworkPlugins(manifest, &report, opts)
	checkSubpathImports(v, projectPath, &report, opts)

	return report, nil
}

func appendIssue(r *Report, issue Issue, onProgress func(string)) {
	r.Issues = append(r.Issues, issue)
	if issue.Severity == SeverityError {
		r.HasErrors = true
	}
	if onProgress != nil {
		loc := ""
		if issue.Path != "" {
			loc = " (" + issue.Path + ")"
		}
		onProgress(fmt.Sprintf("[preflight:%s] %s%s", issue.Severity, issue.Message, loc))
	}
}

func checkWorkspaceRefs(v *vfs.VFS, projectPath string, manifest packageJSON, report *Report, opts Options) {
	usesWorkspaceProtocol := false
	for _, spec := range manifest.Dependencies {
		if strings.HasPrefix(spec, "workspace:") {
			usesWorkspaceProtocol = true
			break
		}
	}
	if !usesWorkspaceProtocol {
		for _, spec := range manifest.DevDependencies {
			if strings.HasPrefix(spec, "workspace:") {
				usesWorkspaceProtocol = true
				break
			}
		}
	}
	if !usesWorkspaceProtocol {
		return
	}

	hasWorkspaceRoot := len(manifest.Workspaces) > 0 || v.Exists(path.Join(projectPath, "pnpm-workspace.yaml"))
	if hasWorkspaceRoot {
		return
	}

	issue := Issue{
		Code:     "preflight.workspace.root-missing",
		Severity: SeverityError,
		Message:  "dependency uses the workspace: protocol but no workspace root manifest was found",
		Path:     path.Join(projectPath, "package.json"),
	}
	appendIssue(report, issue, opts.OnProgress)

	if opts.AutoFix {
		report.InstallOverrides.PreferPublishedWorkspacePackages = true
		report.InstallOverrides.IncludeWorkspaces = true
	}
}

// frameworkFeatureImports maps a dependency name whose presence implies a
// framework feature to the plugin package that feature requires.
var frameworkFeatureImports = map[string]struct {
	framework string
	feature   string
	plugin    string
}{
	"react":     {"react", "jsx", "@vitejs/plugin-react"},
	"vue":       {"vue", "sfc", "@vitejs/plugin-vue"},
	"svelte":    {"svelte", "component", "@sveltejs/vite-plugin-svelte"},
	"@vue/runtime-core": {"vue", "sfc", "@vitejs/plugin-vue"},
}

func checkFrameworkPlugins(manifest packageJSON, report *Report, opts Options) {
	for dep, rule := range frameworkFeatureImports {
		if _, ok := manifest.Dependencies[dep]; !ok {
			if _, ok := manifest.DevDependencies[dep]; !ok {
				continue
			}
		}
		if hasDependency(manifest, rule.plugin) {
			continue
		}
		if opts.KnownFrameworkPlugins != nil && opts.KnownFrameworkPlugins[rule.plugin] {
			continue
		}
		appendIssue(report, Issue{
			Code:     fmt.Sprintf("preflight.%s.%s.missing-plugin-%s", rule.framework, rule.feature, rule.plugin),
			Severity: SeverityError,
			Message:  fmt.Sprintf("%s is used but its build plugin %q is not declared", rule.framework, rule.plugin),
		}, opts.OnProgress)
	}
}

func hasDependency(manifest packageJSON, name string) bool {
	if _, ok := manifest.Dependencies[name]; ok {
		return true
	}
	_, ok := manifest.DevDependencies[name]
	return ok
}

// maxScannedSources bounds the subpath-import scan (spec §4.5 "bounded
// scan"), avoiding a full repository walk on very large projects.
const maxScannedSources = 500

func checkSubpathImports(v *vfs.VFS, projectPath string, report *Report, opts Options) {
	files := collectSourceFiles(v, projectPath, maxScannedSources)
	for _, file := range files {
		content, err := v.ReadFile(file)
		if err != nil {
			continue
		}
		for _, spec := range extractBareImports(string(content)) {
			pkgName, subpath, ok := splitSubpathImport(spec)
			if !ok {
				continue
			}
			exportsMap, found := readExportsMap(v, projectPath, pkgName)
			if !found {
				continue // package not installed yet / not in node_modules — nothing to check
			}
			if !exportsCover(exportsMap, subpath, v, projectPath, pkgName) {
				appendIssue(report, Issue{
					Code:     "preflight.exports.subpath-missing",
					Severity: SeverityWarning,
					Message:  fmt.Sprintf("%q imports %q, which is not covered by %s's exports map", file, spec, pkgName),
					Path:     file,
				}, opts.OnProgress)
			}
		}
	}
}

func collectSourceFiles(v *vfs.VFS, dir string, limit int) []string {
	var out []string
	var walk func(string)
	walk = func(d string) {
		if len(out) >= limit {
			return
		}
		entries, err := v.ReadDir(d)
		if err != nil {
			return
		}
		for _, e := range entries {
			if len(out) >= limit {
				return
			}
			name := strings.TrimSuffix(e, "/")
			full := path.Join(d, name)
			if n, err := v.Lstat(full); err == nil && n.Kind == vfs.KindDirectory {
				if name == "node_modules" || name == ".git" {
					continue
				}
				walk(full)
				continue
			}
			if strings.HasSuffix(name, ".js") || strings.HasSuffix(name, ".jsx") ||
				strings.HasSuffix(name, ".ts") || strings.HasSuffix(name, ".tsx") {
				out = append(out, full)
			}
		}
	}
	walk(dir)
	return out
}

// extractBareImports scans source text for `import ... from "spec"` and
// `require("spec")` occurrences with a minimal substring scan of the text —
// this is a structural hazard scan, not a JS parser.
func extractBareImports(src string) []string {
	var specs []string
	for _, marker := range []string{"from \"", "from '", "require(\"", "require('"} {
		idx := 0
		for {
			pos := strings.Index(src[idx:], marker)
			if pos < 0 {
				break
			}
			start := idx + pos + len(marker)
			quote := byte('"')
			if marker[len(marker)-1] == '\'' {
				quote = '\''
			}
			end := strings.IndexByte(src[start:], quote)
			if end < 0 {
				break
			}
			spec := src[start : start+end]
			if !strings.HasPrefix(spec, ".") && !strings.HasPrefix(spec, "/") {
				specs = append(specs, spec)
			}
			idx = start + end
		}
	}
	return specs
}

func splitSubpathImport(spec string) (pkg, subpath string, ok bool) {
	parts := strings.SplitN(spec, "/", 2)
	if len(parts) < 2 {
		return "", "", false
	}
	pkg = parts[0]
	rest := parts[1]
	if strings.HasPrefix(pkg, "@") {
		// Scoped package: @scope/name/subpath
		scopedParts := strings.SplitN(rest, "/", 2)
		if len(scopedParts) < 2 {
			return "", "", false
		}
		pkg = pkg + "/" + scopedParts[0]
		rest = scopedParts[1]
	}
	return pkg, "./" + rest, true
}

func readExportsMap(v *vfs.VFS, projectPath, pkgName string) (map[string]interface{}, bool) {
	manifestPath := path.Join(projectPath, "node_modules", pkgName, "package.json")
	raw, err := v.ReadFile(manifestPath)
	if err != nil {
		return nil, false
	}
	var pkg struct {
		Exports json.RawMessage `json:"exports"`
	}
	if err := json.Unmarshal(raw, &pkg); err != nil || pkg.Exports == nil {
		return nil, false
	}
	var exportsMap map[string]interface{}
	if err := json.Unmarshal(pkg.Exports, &exportsMap); err != nil {
		return nil, false
	}
	return exportsMap, true
}

func exportsCover(exportsMap map[string]interface{}, subpath string, v *vfs.VFS, projectPath, pkgName string) bool {
	if _, ok := exportsMap[subpath]; ok {
		return true
	}
	for pattern := range exportsMap {
		if !strings.Contains(pattern, "*") {
			continue
		}
		prefix := pattern[:strings.Index(pattern, "*")]
		suffix := pattern[strings.Index(pattern, "*")+1:]
		if strings.HasPrefix(subpath, prefix) && strings.HasSuffix(subpath, suffix) {
			rest := strings.TrimSuffix(strings.TrimPrefix(subpath, prefix), suffix)
			targetPattern, ok := exportsMap[pattern].(string)
			if !ok {
				continue
			}
			candidate := strings.Replace(targetPattern, "*", rest, 1)
			fullPath := path.Join(projectPath, "node_modules", pkgName, candidate)
			if v.Exists(fullPath) {
				return true
			}
		}
	}
	return false
}
