// Package main implements the bootforge CLI: paste a repository URL, get a
// runnable project tree with dependencies installed and sources
// transformed, cached for fast repeat runs.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bootforge/bootforge/cmd"
	"github.com/bootforge/bootforge/internal/cliui"
	"github.com/bootforge/bootforge/internal/core"
	"github.com/bootforge/bootforge/internal/fetch"
	"github.com/bootforge/bootforge/internal/manifest"
	"github.com/bootforge/bootforge/internal/pkgmanager"
	"github.com/bootforge/bootforge/internal/snapshotcache"
	"github.com/bootforge/bootforge/internal/transform"
	"github.com/bootforge/bootforge/internal/vfs"
	"github.com/bootforge/bootforge/internal/version"
)

func printHelp() {
	fmt.Println(cliui.Title("bootforge") + " - paste a repo URL, get a runnable project tree")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  bootforge bootstrap <repoUrl> [flags]")
	fmt.Println("  bootforge sbom <repoUrl> [--format=cyclonedx|spdx] [flags]")
	fmt.Println("  bootforge cache clear [--cache-dir=PATH] [--yes]")
	fmt.Println("  bootforge cache stat [--cache-dir=PATH]")
	fmt.Println("  bootforge completion <bash|zsh|fish|powershell>")
	fmt.Println("  bootforge --help | --version")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --dest=PATH                     destination VFS path (default /project)")
	fmt.Println("  --skip-install                  skip dependency install")
	fmt.Println("  --include-dev                   include devDependencies")
	fmt.Println("  --include-optional              include optionalDependencies")
	fmt.Println("  --no-workspaces                 do not traverse workspace packages")
	fmt.Println("  --prefer-published-workspaces   resolve workspace refs from the registry")
	fmt.Println("  --no-transform                  skip the source transformer entirely")
	fmt.Println("  --no-transform-project-sources  skip transforming repo-local sources")
	fmt.Println("  --config=PATH                    .bootforge.yml defaults, overridden by flags")
	fmt.Println("  --registry=PATH                 JSON fixture registry (name -> {version, files})")
	fmt.Println("  --cache-dir=PATH                persistent cache directory (default .bootforge-cache)")
	fmt.Println("  --cache-mode=MODE               default|refresh|bypass")
	fmt.Println("  --no-cache                      disable the project snapshot cache")
	fmt.Println("  --json                          structured JSON output")
	fmt.Println("  --quiet                         suppress non-error output")
	fmt.Println("  --yes                           auto-approve destructive prompts")
}

type commonFlags struct {
	mode         cliui.Mode
	yes          bool
	cacheDir     string
	cacheModeSet bool
	cacheMode    snapshotcache.Mode
	noCache      bool
	rest         []string
}

func parseCommonFlags(args []string) commonFlags {
	flags := commonFlags{mode: cliui.ModeNormal, cacheDir: ".bootforge-cache"}
	for _, arg := range args {
		switch {
		case arg == "--json":
			flags.mode = cliui.ModeJSON
		case arg == "--quiet" || arg == "-q":
			flags.mode = cliui.ModeQuiet
		case arg == "--yes" || arg == "-y":
			flags.yes = true
		case arg == "--no-cache":
			flags.noCache = true
		case strings.HasPrefix(arg, "--cache-dir="):
			flags.cacheDir = strings.TrimPrefix(arg, "--cache-dir=")
		case strings.HasPrefix(arg, "--cache-mode="):
			flags.cacheModeSet = true
			flags.cacheMode = snapshotcache.Mode(strings.TrimPrefix(arg, "--cache-mode="))
		default:
			flags.rest = append(flags.rest, arg)
		}
	}
	return flags
}

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(0)
	}

	command := os.Args[1]
	switch command {
	case "--help", "-h", "help":
		printHelp()
		os.Exit(0)
	case "--version":
		fmt.Printf("bootforge %s\n", version.GetFullVersion())
		os.Exit(0)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	args := os.Args[2:]
	flags := parseCommonFlags(args)
	printer := cliui.NewPrinter(flags.mode)

	switch command {
	case "bootstrap":
		runBootstrap(ctx, flags, printer)
	case "sbom":
		runSBOM(ctx, flags, printer)
	case "cache":
		runCache(flags, printer)
	case "completion":
		runCompletion(flags, printer)
	default:
		printer.Error("Unknown command", fmt.Sprintf("%q is not a bootforge command; see --help", command))
		os.Exit(1)
	}
}

// buildBootstrapOptions translates CLI flags into core.Options, shared by the
// bootstrap and sbom subcommands.
func buildBootstrapOptions(flags commonFlags, printer *cliui.Printer) (string, core.Options, error) {
	rest := flags.rest
	var repoURL string
	if len(rest) > 0 && !strings.HasPrefix(rest[0], "--") {
		repoURL = rest[0]
		rest = rest[1:]
	}
	if repoURL == "" {
		return "", core.Options{}, fmt.Errorf("missing <repoUrl> argument")
	}

	opts := core.Options{OnProgress: printer.Progress}
	var registryPath, configPath string

	for _, arg := range rest {
		if strings.HasPrefix(arg, "--config=") {
			configPath = strings.TrimPrefix(arg, "--config=")
		}
	}
	if configPath != "" {
		cfg, err := core.LoadYAMLConfig(configPath)
		if err != nil {
			return "", core.Options{}, fmt.Errorf("load config: %w", err)
		}
		cfg.ApplyTo(&opts)
	}

	for _, arg := range rest {
		switch {
		case arg == "--skip-install":
			opts.SkipInstall = true
		case arg == "--include-dev":
			opts.IncludeDev = true
		case arg == "--include-optional":
			opts.IncludeOptional = true
		case arg == "--no-workspaces":
			opts.SetIncludeWorkspaces(false)
		case arg == "--prefer-published-workspaces":
			opts.PreferPublishedWorkspacePackages = true
		case arg == "--no-transform":
			opts.SetTransform(false)
		case arg == "--no-transform-project-sources":
			opts.SetTransformProjectSources(false)
		case strings.HasPrefix(arg, "--dest="):
			opts.DestPath = strings.TrimPrefix(arg, "--dest=")
		case strings.HasPrefix(arg, "--registry="):
			registryPath = strings.TrimPrefix(arg, "--registry=")
		}
	}

	opts.Fetcher = fetch.NewFetcher(fetch.NewHTTPTransport(nil), fetch.Options{
		GitHubToken: os.Getenv("GITHUB_TOKEN"),
	})
	opts.Transformer = transform.PassthroughTransformer{}

	if registryPath != "" {
		registry, err := loadRegistry(registryPath)
		if err != nil {
			return "", core.Options{}, fmt.Errorf("load registry: %w", err)
		}
		opts.PackageManager = func(v *vfs.VFS, projectPath string) pkgmanager.PackageManager {
			return pkgmanager.New(v, projectPath, registry)
		}
	} else if !opts.SkipInstall {
		printer.Warning("No registry configured", "bootforge does not ship a package registry client; pass --registry=FILE or --skip-install")
		opts.SkipInstall = true
	}

	if !flags.noCache {
		backend := snapshotcache.NewFileBackend(flags.cacheDir)
		opts.Cache = snapshotcache.New(backend)
		if flags.cacheModeSet {
			opts.CacheOptions.Mode = flags.cacheMode
		}
	}

	return repoURL, opts, nil
}

func loadRegistry(path string) (pkgmanager.StaticRegistry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var registry pkgmanager.StaticRegistry
	if err := json.Unmarshal(raw, &registry); err != nil {
		return nil, err
	}
	return registry, nil
}

func runBootstrap(ctx context.Context, flags commonFlags, printer *cliui.Printer) {
	repoURL, opts, err := buildBootstrapOptions(flags, printer)
	if err != nil {
		printer.Error("Invalid invocation", err.Error())
		os.Exit(1)
	}

	v := vfs.New()
	result, err := core.Bootstrap(ctx, v, repoURL, opts)
	if err != nil {
		printer.Error("Bootstrap failed", err.Error())
		os.Exit(1)
	}

	summary := fmt.Sprintf("Bootstrapped %s/%s@%s into %s", result.Repo.Owner, result.Repo.Repo, result.Repo.Ref, result.ProjectPath)
	printer.Result(summary, result)
}

func runSBOM(ctx context.Context, flags commonFlags, printer *cliui.Printer) {
	format := manifest.FormatCycloneDX
	var filtered []string
	for _, arg := range flags.rest {
		if strings.HasPrefix(arg, "--format=") {
			format = manifest.Format(strings.TrimPrefix(arg, "--format="))
			continue
		}
		filtered = append(filtered, arg)
	}
	flags.rest = filtered

	repoURL, opts, err := buildBootstrapOptions(flags, printer)
	if err != nil {
		printer.Error("Invalid invocation", err.Error())
		os.Exit(1)
	}

	v := vfs.New()
	result, err := core.Bootstrap(ctx, v, repoURL, opts)
	if err != nil {
		printer.Error("Bootstrap failed", err.Error())
		os.Exit(1)
	}
	if result.InstallResult == nil {
		printer.Error("No install result", "sbom requires a successful install; pass --registry and omit --skip-install")
		os.Exit(1)
	}

	out, err := manifest.Generate(format, *result.InstallResult, manifest.BOMMetadata{
		ProjectName: result.Repo.Repo,
		SourceURL:   "https://github.com/" + result.Repo.Owner + "/" + result.Repo.Repo,
		ToolVersion: version.GetVersion(),
	})
	if err != nil {
		printer.Error("SBOM generation failed", err.Error())
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func runCache(flags commonFlags, printer *cliui.Printer) {
	sub := ""
	var rest []string
	for i, arg := range flags.rest {
		if i == 0 {
			sub = arg
			continue
		}
		rest = append(rest, arg)
	}
	flags.rest = rest

	switch sub {
	case "clear":
		if !flags.yes {
			if !cliui.IsInteractive() {
				printer.Error("Confirmation required", "pass --yes to clear the cache non-interactively")
				os.Exit(1)
			}
			if !cliui.Confirm("Clear snapshot cache?", fmt.Sprintf("This removes every entry under %s.", flags.cacheDir)) {
				printer.Result("Aborted.", nil)
				return
			}
		}
		if err := os.RemoveAll(flags.cacheDir); err != nil {
			printer.Error("Cache clear failed", err.Error())
			os.Exit(1)
		}
		printer.Success("Cache cleared")
	case "stat":
		stat := cacheStat(flags.cacheDir)
		msg := fmt.Sprintf("%s: %d files, %s", flags.cacheDir, stat.Files, humanBytes(stat.Bytes))
		printer.Result(msg, stat)
	default:
		printer.Error("Unknown cache subcommand", fmt.Sprintf("%q: expected clear|stat", sub))
		os.Exit(1)
	}
}

func runCompletion(flags commonFlags, printer *cliui.Printer) {
	shell := ""
	if len(flags.rest) > 0 {
		shell = flags.rest[0]
	}
	var script string
	switch shell {
	case "bash":
		script = cmd.GenerateBashCompletion()
	case "zsh":
		script = cmd.GenerateZshCompletion()
	case "fish":
		script = cmd.GenerateFishCompletion()
	case "powershell":
		script = cmd.GeneratePowerShellCompletion()
	default:
		printer.Error("Unknown shell", fmt.Sprintf("%q: expected bash|zsh|fish|powershell", shell))
		os.Exit(1)
	}
	fmt.Println(script)
}

// cacheStatResult mirrors the teacher's habit of reporting a small
// read-only snapshot of on-disk state rather than the store's internals.
type cacheStatResult struct {
	Files int   `json:"files"`
	Bytes int64 `json:"bytes"`
}

func cacheStat(dir string) cacheStatResult {
	var stat cacheStatResult
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		stat.Files++
		stat.Bytes += info.Size()
		return nil
	})
	return stat
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + "B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	units := "KMGTPE"
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), units[exp])
}
