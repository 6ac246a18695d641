package fetch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/bootforge/bootforge/internal/identity"
	"github.com/bootforge/bootforge/internal/vfs"
)

// fakeTransport is a scripted Transport double: each URL maps to a queue of
// responses/errors consumed in order, so tests can simulate "fails twice
// then succeeds" without any network I/O.
type fakeTransport struct {
	queues map[string][]scriptedCall
	calls  []string
}

type scriptedCall struct {
	resp Response
	err  error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{queues: make(map[string][]scriptedCall)}
}

func (f *fakeTransport) script(url string, calls ...scriptedCall) {
	f.queues[url] = append(f.queues[url], calls...)
}

func (f *fakeTransport) Get(_ context.Context, url string, _ map[string]string) (Response, error) {
	f.calls = append(f.calls, url)
	q := f.queues[url]
	if len(q) == 0 {
		return Response{}, fmt.Errorf("fakeTransport: no script for %s", url)
	}
	next := q[0]
	f.queues[url] = q[1:]
	return next.resp, next.err
}

func fastOptions() Options {
	return Options{
		MaxAttempts: 3,
		BaseBackoff: time.Microsecond,
		Rand:        rand.New(rand.NewSource(42)),
	}
}

func TestFetchArchiveDirectSuccess(t *testing.T) {
	id, _ := identity.Parse("https://github.com/acme/demo")
	tr := newFakeTransport()
	tr.script(id.ArchiveURL, scriptedCall{resp: Response{StatusCode: 200, Body: []byte("tarball-bytes")}})

	f := NewFetcher(tr, fastOptions())
	result, err := f.FetchArchive(context.Background(), id, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.UseAPIFallback {
		t.Fatal("did not expect API fallback")
	}
	if string(result.Archive) != "tarball-bytes" {
		t.Fatalf("got %q", result.Archive)
	}
	if len(tr.calls) != 1 {
		t.Fatalf("expected exactly one call, got %d", len(tr.calls))
	}
}

func TestFetchArchiveRetriesThenSucceeds(t *testing.T) {
	id, _ := identity.Parse("https://github.com/acme/demo")
	tr := newFakeTransport()
	tr.script(id.ArchiveURL,
		scriptedCall{err: fmt.Errorf("failed to fetch")},
		scriptedCall{err: fmt.Errorf("failed to fetch")},
		scriptedCall{resp: Response{StatusCode: 200, Body: []byte("ok")}},
	)

	var progress []string
	f := NewFetcher(tr, fastOptions())
	result, err := f.FetchArchive(context.Background(), id, func(s string) { progress = append(progress, s) })
	if err != nil {
		t.Fatal(err)
	}
	if string(result.Archive) != "ok" {
		t.Fatalf("got %q", result.Archive)
	}
	if len(progress) != 2 {
		t.Fatalf("expected 2 retry notices, got %v", progress)
	}
	for _, p := range progress {
		if contains(p, "failed to fetch") {
			t.Fatalf("expected redacted reason, got %q", p)
		}
	}
}

func TestFetchArchiveFallsBackToAPIAfterProxiesExhausted(t *testing.T) {
	id, _ := identity.Parse("https://github.com/acme/demo")
	tr := newFakeTransport()
	// Direct fetch fails every attempt; no proxies configured (server-side
	// default), so FetchArchive should signal API fallback rather than error.
	for i := 0; i < 3; i++ {
		tr.script(id.ArchiveURL, scriptedCall{err: fmt.Errorf("connection refused")})
	}

	f := NewFetcher(tr, fastOptions())
	result, err := f.FetchArchive(context.Background(), id, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !result.UseAPIFallback {
		t.Fatal("expected UseAPIFallback")
	}
}

func TestImportViaAPIWritesBlobsAndFiltersSubdir(t *testing.T) {
	id := identity.Identity{Owner: "acme", Repo: "demo", Ref: "main", Subdir: "examples/demo"}
	tr := newFakeTransport()

	treeURL := "https://api.github.com/repos/acme/demo/git/trees/main?recursive=1"
	tree := treeResponse{Tree: []treeNode{
		{Path: "examples/demo/index.js", Type: "blob"},
		{Path: "examples/other/skip.js", Type: "blob"},
		{Path: "examples/demo", Type: "tree"},
	}}
	treeJSON, _ := json.Marshal(tree)
	tr.script(treeURL, scriptedCall{resp: Response{StatusCode: 200, Body: treeJSON}})

	rawURL := rawFileURL(id, "examples/demo/index.js")
	tr.script(rawURL, scriptedCall{resp: Response{StatusCode: 200, Body: []byte("console.log('demo')")}})

	v := vfs.New()
	f := NewFetcher(tr, fastOptions())
	written, err := f.ImportViaAPI(context.Background(), id, v, "/project", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 1 || written[0] != "/project/index.js" {
		t.Fatalf("got %v", written)
	}
	content, err := v.ReadFile("/project/index.js")
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "console.log('demo')" {
		t.Fatalf("got %q", content)
	}
}

func TestImportViaAPIFallsBackToContentsEndpoint(t *testing.T) {
	id := identity.Identity{Owner: "acme", Repo: "demo", Ref: "main"}
	tr := newFakeTransport()

	treeURL := "https://api.github.com/repos/acme/demo/git/trees/main?recursive=1"
	tree := treeResponse{Tree: []treeNode{{Path: "README.md", Type: "blob"}}}
	treeJSON, _ := json.Marshal(tree)
	tr.script(treeURL, scriptedCall{resp: Response{StatusCode: 200, Body: treeJSON}})

	rawURL := rawFileURL(id, "README.md")
	tr.script(rawURL,
		scriptedCall{err: fmt.Errorf("raw host unavailable")},
		scriptedCall{err: fmt.Errorf("raw host unavailable")},
		scriptedCall{err: fmt.Errorf("raw host unavailable")},
	)

	encoded := base64.StdEncoding.EncodeToString([]byte("# Demo"))
	contentsResp, _ := json.Marshal(contentsResponse{Content: encoded, Encoding: "base64"})
	contentsURL := "https://api.github.com/repos/acme/demo/contents/README.md?ref=main"
	tr.script(contentsURL, scriptedCall{resp: Response{StatusCode: 200, Body: contentsResp}})

	v := vfs.New()
	f := NewFetcher(tr, fastOptions())
	_, err := f.ImportViaAPI(context.Background(), id, v, "/project", nil)
	if err != nil {
		t.Fatal(err)
	}
	content, err := v.ReadFile("/project/README.md")
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "# Demo" {
		t.Fatalf("got %q", content)
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (func() bool {
		for i := 0; i+len(substr) <= len(s); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	})()
}
