package core

import (
	"os"
	"path/filepath"
	"testing"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, ".bootforge.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadYAMLConfigMissingFileIsNotAnError(t *testing.T) {
	cfg, err := LoadYAMLConfig(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.SkipInstall != nil {
		t.Fatalf("expected zero-value config, got %+v", cfg)
	}
}

func TestYAMLConfigAppliesOverFlagDefaults(t *testing.T) {
	path := writeYAML(t, "skipInstall: true\nincludeDev: true\ndestPath: /custom\n")
	cfg, err := LoadYAMLConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	opts := Options{}
	cfg.ApplyTo(&opts)
	if !opts.SkipInstall {
		t.Fatal("expected SkipInstall true from yaml")
	}
	if !opts.IncludeDev {
		t.Fatal("expected IncludeDev true from yaml")
	}
	if opts.DestPath != "/custom" {
		t.Fatalf("expected DestPath from yaml, got %q", opts.DestPath)
	}
}

func TestYAMLConfigLeavesUnsetFieldsAlone(t *testing.T) {
	path := writeYAML(t, "includeDev: true\n")
	cfg, err := LoadYAMLConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	opts := Options{SkipInstall: true}
	cfg.ApplyTo(&opts)
	if !opts.SkipInstall {
		t.Fatal("expected pre-set SkipInstall to remain true")
	}
}
