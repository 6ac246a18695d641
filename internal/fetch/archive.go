package fetch

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/bootforge/bootforge/internal/identity"
)

// Options configures a Fetcher.
type Options struct {
	// MaxAttempts bounds direct-fetch retries (per URL). Default 3.
	MaxAttempts int
	// BaseBackoff is the first retry delay; subsequent delays double it.
	// Default 250ms.
	BaseBackoff time.Duration
	// SameOriginProxy, ProxyOverride, and ExtraProxies feed the CORS-proxy
	// chain (see proxy.go); all are opt-in, so a pure server-side caller
	// leaves them empty and never invokes a proxy.
	SameOriginProxy string
	ProxyOverride   string
	ExtraProxies    []string
	// GitHubToken, if set, is sent as "Authorization: token <value>" on API
	// requests to raise GitHub's rate limit (mirrors the teacher's
	// GITHUB_TOKEN handling in github_client.go).
	GitHubToken string
	// Rand drives jitter; NewFetcher defaults it to a source seeded with 1.
	// Tests inject their own seeded Rand for determinism.
	Rand *rand.Rand
}

// ArchiveFetchFailedError is the fatal error raised when direct fetch, every
// proxy candidate, and (if attempted) the API fallback all fail.
type ArchiveFetchFailedError struct {
	ArchiveURL string
	Cause      error
}

func (e *ArchiveFetchFailedError) Error() string {
	return fmt.Sprintf("Error: Failed to fetch archive\n  Context: %s: %v\n  Fix: Check network connectivity and that the ref exists", e.ArchiveURL, e.Cause)
}

func (e *ArchiveFetchFailedError) Unwrap() error { return e.Cause }

// Fetcher retrieves a repository archive with the layered fallback chain
// from spec §4.2.
type Fetcher struct {
	Transport Transport
	Options   Options
}

// NewFetcher returns a Fetcher backed by the production HTTP transport.
func NewFetcher(transport Transport, opts Options) *Fetcher {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BaseBackoff <= 0 {
		opts.BaseBackoff = 250 * time.Millisecond
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(1))
	}
	return &Fetcher{Transport: transport, Options: opts}
}

// redact substitutes a user-facing, non-leaky reason for raw transport
// errors, mirroring the spec's "failed to fetch" -> "network request
// blocked" example.
func redact(err error) string {
	msg := err.Error()
	if strings.Contains(strings.ToLower(msg), "failed to fetch") {
		return "network request blocked"
	}
	return msg
}

// getWithRetry performs bounded retries with exponential backoff and jitter
// against a single URL, reporting each retry through onProgress.
func (f *Fetcher) getWithRetry(ctx context.Context, url string, headers map[string]string, onProgress func(string)) (Response, error) {
	var lastErr error
	for attempt := 0; attempt < f.Options.MaxAttempts; attempt++ {
		if attempt > 0 {
			backoff := f.Options.BaseBackoff * time.Duration(1<<uint(attempt-1))
			jitter := time.Duration(f.Options.Rand.Int63n(int64(backoff) + 1))
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(backoff/2 + jitter/2):
			}
			if onProgress != nil {
				onProgress(fmt.Sprintf("retry %d/%d for %s: %s", attempt, f.Options.MaxAttempts-1, url, redact(lastErr)))
			}
		}

		resp, err := f.Transport.Get(ctx, url, headers)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}
		lastErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return Response{}, lastErr
}

// Result is the outcome of FetchArchive.
type Result struct {
	// Archive holds the gzipped tarball bytes, valid when UseAPIFallback
	// is false.
	Archive []byte
	// UseAPIFallback signals that direct/proxy fetch exhausted every
	// candidate and the caller should fall back to ImportViaAPI.
	UseAPIFallback bool
}

// FetchArchive attempts the direct archive URL, then each proxy candidate
// in order. If every transport attempt fails, it returns a Result signaling
// API fallback rather than an error — the coordinator decides whether to
// attempt the API walk (spec §4.2 step 2→3).
func (f *Fetcher) FetchArchive(ctx context.Context, id identity.Identity, onProgress func(string)) (Result, error) {
	headers := map[string]string{"User-Agent": "bootforge"}

	if resp, err := f.getWithRetry(ctx, id.ArchiveURL, headers, onProgress); err == nil {
		return Result{Archive: resp.Body}, nil
	}

	candidates := resolveProxyCandidates(f.Options.SameOriginProxy, f.Options.ProxyOverride, f.Options.ExtraProxies)
	var lastErr error
	for _, proxy := range candidates {
		target := applyProxy(proxy, id.ArchiveURL)
		resp, err := f.getWithRetry(ctx, target, headers, onProgress)
		if err != nil {
			lastErr = err
			continue
		}
		return Result{Archive: resp.Body}, nil
	}

	if onProgress != nil {
		onProgress("all direct/proxy attempts exhausted, falling back to API tree walk")
	}
	_ = lastErr
	return Result{UseAPIFallback: true}, nil
}
