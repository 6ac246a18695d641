package fetch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/bootforge/bootforge/internal/identity"
	"github.com/bootforge/bootforge/internal/vfs"
)

// treeResponse is the git/trees API payload. A set Truncated flag is
// reported as a progress warning, not returned as an error (spec §7:
// ApiFallbackIncomplete is logged as a warning, not raised as an error).
type treeResponse struct {
	Truncated bool       `json:"truncated"`
	Tree      []treeNode `json:"tree"`
}

type treeNode struct {
	Path string `json:"path"`
	Type string `json:"type"` // "blob", "tree", "commit" (submodule)
}

type contentsResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// ImportViaAPI walks the GitHub tree API for id.Ref, then fetches each blob
// via raw.githubusercontent.com (falling back to the contents API, base64
// decoded) and writes it into v under destPath. It filters by id.Subdir
// when set, and rejects any path containing ".." the same way the tarball
// extractor does.
func (f *Fetcher) ImportViaAPI(ctx context.Context, id identity.Identity, v *vfs.VFS, destPath string, onProgress func(string)) ([]string, error) {
	treeURL := fmt.Sprintf("https://api.github.com/repos/%s/%s/git/trees/%s?recursive=1",
		id.Owner, id.Repo, url.PathEscape(id.Ref))

	headers := map[string]string{"User-Agent": "bootforge"}
	if f.Options.GitHubToken != "" {
		headers["Authorization"] = "token " + f.Options.GitHubToken
	}

	resp, err := f.getWithRetry(ctx, treeURL, headers, onProgress)
	if err != nil {
		return nil, fmt.Errorf("fetch: tree API: %w", err)
	}

	var tree treeResponse
	if err := json.Unmarshal(resp.Body, &tree); err != nil {
		return nil, fmt.Errorf("fetch: decode tree API response: %w", err)
	}
	if tree.Truncated && onProgress != nil {
		onProgress("warning: GitHub tree API response was truncated; some files may be missing")
	}

	prefix := id.Subdir
	var written []string
	for _, node := range tree.Tree {
		if node.Type != "blob" {
			continue
		}
		if prefix != "" && !strings.HasPrefix(node.Path, prefix+"/") && node.Path != prefix {
			continue
		}
		if strings.Contains(strings.Split(node.Path, "/")[0], "..") || strings.Contains(node.Path, "/../") || strings.HasSuffix(node.Path, "/..") {
			if onProgress != nil {
				onProgress(fmt.Sprintf("skip %s: path traversal rejected", node.Path))
			}
			continue
		}

		content, err := f.fetchBlob(ctx, id, node.Path, headers, onProgress)
		if err != nil {
			return written, fmt.Errorf("fetch: blob %s: %w", node.Path, err)
		}

		relPath := node.Path
		if prefix != "" {
			relPath = strings.TrimPrefix(strings.TrimPrefix(relPath, prefix), "/")
		}
		destFull := path.Join(destPath, relPath)
		if err := v.WriteFile(destFull, content); err != nil {
			return written, fmt.Errorf("fetch: write %s: %w", destFull, err)
		}
		written = append(written, vfs.Clean(destFull))
		if onProgress != nil {
			onProgress(fmt.Sprintf("fetched %s", node.Path))
		}
	}
	return written, nil
}

// fetchBlob retrieves one file's bytes: raw.githubusercontent.com first,
// falling back to the base64-encoded contents API.
func (f *Fetcher) fetchBlob(ctx context.Context, id identity.Identity, filePath string, headers map[string]string, onProgress func(string)) ([]byte, error) {
	rawURL := rawFileURL(id, filePath)
	if resp, err := f.getWithRetry(ctx, rawURL, headers, onProgress); err == nil {
		return resp.Body, nil
	}

	contentsURL := fmt.Sprintf("https://api.github.com/repos/%s/%s/contents/%s?ref=%s",
		id.Owner, id.Repo, encodePathSegments(filePath), url.QueryEscape(id.Ref))
	resp, err := f.getWithRetry(ctx, contentsURL, headers, onProgress)
	if err != nil {
		return nil, err
	}
	var decoded contentsResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, fmt.Errorf("decode contents response: %w", err)
	}
	if decoded.Encoding != "base64" {
		return []byte(decoded.Content), nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(decoded.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("decode base64 content: %w", err)
	}
	return raw, nil
}

// rawFileURL builds a raw.githubusercontent.com URL, percent-encoding each
// path segment separately (spec §6 wire formats).
func rawFileURL(id identity.Identity, filePath string) string {
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s",
		id.Owner, id.Repo, url.PathEscape(id.Ref), encodePathSegments(filePath))
}

func encodePathSegments(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
