package core

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"math/rand"
	"path"
	"testing"
	"time"

	"github.com/bootforge/bootforge/internal/fetch"
	"github.com/bootforge/bootforge/internal/identity"
	"github.com/bootforge/bootforge/internal/pkgmanager"
	"github.com/bootforge/bootforge/internal/snapshotcache"
	"github.com/bootforge/bootforge/internal/vfs"
)

func buildArchive(t *testing.T, wrapperDir string, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		full := path.Join(wrapperDir, name)
		if err := tw.WriteHeader(&tar.Header{Name: full, Mode: 0644, Size: int64(len(content))}); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type fakeTransport struct {
	responses map[string][]byte
	calls     []string
}

func (f *fakeTransport) Get(_ context.Context, url string, _ map[string]string) (fetch.Response, error) {
	f.calls = append(f.calls, url)
	body, ok := f.responses[url]
	if !ok {
		return fetch.Response{}, errors.New("no script for " + url)
	}
	return fetch.Response{StatusCode: 200, Body: body}, nil
}

func testRegistry() pkgmanager.StaticRegistry {
	return pkgmanager.StaticRegistry{
		"tiny-pkg": {Version: "1.2.0", Files: map[string]string{"index.js": "module.exports = 1;\n"}},
	}
}

func testFactory(registry pkgmanager.Registry) PackageManagerFactory {
	return func(v *vfs.VFS, projectPath string) pkgmanager.PackageManager {
		return pkgmanager.New(v, projectPath, registry)
	}
}

func fastFetcher(tr fetch.Transport) *fetch.Fetcher {
	return fetch.NewFetcher(tr, fetch.Options{
		MaxAttempts: 1,
		BaseBackoff: time.Microsecond,
		Rand:        rand.New(rand.NewSource(7)),
	})
}

func TestBootstrapInstallsAndHitsCacheOnSecondCall(t *testing.T) {
	id, err := identity.Parse("https://github.com/acme/demo")
	if err != nil {
		t.Fatal(err)
	}
	archive := buildArchive(t, "demo-main", map[string]string{
		"package.json": `{"dependencies":{"tiny-pkg":"^1.0.0"}}`,
	})
	tr := &fakeTransport{responses: map[string][]byte{id.ArchiveURL: archive}}
	cache := snapshotcache.New(snapshotcache.NewMemoryBackend())
	registry := testRegistry()

	opts := Options{
		Fetcher:        fastFetcher(tr),
		PackageManager: testFactory(registry),
		Cache:          cache,
	}

	v1 := vfs.New()
	result1, err := Bootstrap(context.Background(), v1, "https://github.com/acme/demo", opts)
	if err != nil {
		t.Fatalf("first bootstrap: %v", err)
	}
	if result1.InstallResult == nil || result1.InstallResult.Installed["tiny-pkg"].Version != "1.2.0" {
		t.Fatalf("expected tiny-pkg@1.2.0 installed, got %+v", result1.InstallResult)
	}
	if !v1.Exists("/project/node_modules/tiny-pkg/index.js") {
		t.Fatal("expected node_modules/tiny-pkg/index.js to exist")
	}
	if result1.Cache == nil || !result1.Cache.SnapshotWritten {
		t.Fatalf("expected snapshot written, got %+v", result1.Cache)
	}
	callsAfterFirst := len(tr.calls)
	if callsAfterFirst == 0 {
		t.Fatal("expected at least one fetch on first call")
	}

	v2 := vfs.New()
	result2, err := Bootstrap(context.Background(), v2, "https://github.com/acme/demo", opts)
	if err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}
	if len(tr.calls) != callsAfterFirst {
		t.Fatalf("expected zero additional fetches on cache hit, got %d new calls", len(tr.calls)-callsAfterFirst)
	}
	if result2.Cache == nil || result2.Cache.Source == "" {
		t.Fatalf("expected a cache source on hit, got %+v", result2.Cache)
	}
	if !v2.Exists("/project/node_modules/tiny-pkg/index.js") {
		t.Fatal("expected rehydrated node_modules/tiny-pkg/index.js to exist")
	}
}

func TestBootstrapSkipInstallLeavesManifestOnly(t *testing.T) {
	id, err := identity.Parse("https://github.com/acme/demo")
	if err != nil {
		t.Fatal(err)
	}
	archive := buildArchive(t, "demo-main", map[string]string{
		"package.json": `{"dependencies":{"tiny-pkg":"^1.0.0"}}`,
	})
	tr := &fakeTransport{responses: map[string][]byte{id.ArchiveURL: archive}}

	opts := Options{
		SkipInstall: true,
		Fetcher:     fastFetcher(tr),
	}
	v := vfs.New()
	result, err := Bootstrap(context.Background(), v, "https://github.com/acme/demo", opts)
	if err != nil {
		t.Fatal(err)
	}
	if result.InstallResult != nil {
		t.Fatalf("expected no install result, got %+v", result.InstallResult)
	}
	if !v.Exists("/project/package.json") {
		t.Fatal("expected package.json to exist")
	}
	if v.Exists("/project/node_modules") {
		t.Fatal("expected node_modules not to exist when skipInstall is set")
	}
}

func TestBootstrapSubdirNotFoundIsFatal(t *testing.T) {
	id, err := identity.Parse("https://github.com/o/r/tree/main/examples/demo")
	if err != nil {
		t.Fatal(err)
	}
	archive := buildArchive(t, "r-main", map[string]string{
		"README.md": "hello\n",
	})
	tr := &fakeTransport{responses: map[string][]byte{id.ArchiveURL: archive}}
	opts := Options{SkipInstall: true, Fetcher: fastFetcher(tr)}

	v := vfs.New()
	_, err = Bootstrap(context.Background(), v, "https://github.com/o/r/tree/main/examples/demo", opts)
	var subdirErr *SubdirNotFoundError
	if !errors.As(err, &subdirErr) {
		t.Fatalf("expected SubdirNotFoundError, got %v", err)
	}
}

func TestBootstrapInvalidURLPropagates(t *testing.T) {
	v := vfs.New()
	_, err := Bootstrap(context.Background(), v, "ftp://example.com/thing", Options{})
	var invalidErr *identity.InvalidURLError
	if !errors.As(err, &invalidErr) {
		t.Fatalf("expected InvalidURLError, got %v", err)
	}
}

func TestBootstrapInstallFailedWhenManifestBroken(t *testing.T) {
	id, err := identity.Parse("https://github.com/acme/demo")
	if err != nil {
		t.Fatal(err)
	}
	archive := buildArchive(t, "demo-main", map[string]string{
		"package.json": `{"dependencies":{"missing-pkg":"^1.0.0"}}`,
	})
	tr := &fakeTransport{responses: map[string][]byte{id.ArchiveURL: archive}}
	opts := Options{
		Fetcher:        fastFetcher(tr),
		PackageManager: testFactory(testRegistry()),
	}
	v := vfs.New()
	_, err = Bootstrap(context.Background(), v, "https://github.com/acme/demo", opts)
	var installErr *pkgmanager.InstallFailedError
	if !errors.As(err, &installErr) {
		t.Fatalf("expected InstallFailedError, got %v", err)
	}
}
