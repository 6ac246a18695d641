// Package tarball streams a gzipped POSIX tar archive into a vfs.VFS,
// stripping a configurable number of leading path components the way
// "tar --strip-components" does for GitHub's codeload archives (which
// always wrap their contents in a single "{repo}-{ref}/" directory).
package tarball

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/bootforge/bootforge/internal/vfs"
)

// Options configures extraction.
type Options struct {
	// StripComponents is the number of leading path segments dropped from
	// every archive entry before it is joined onto DestPath.
	StripComponents int
	// OnProgress receives a human-readable line for each file written, and
	// for each rejected entry.
	OnProgress func(string)
}

// RejectedPathError describes an entry that would escape DestPath. Extract
// does not return it: such entries are skipped and reported through
// OnProgress (spec §7 — ExtractionRejectedPath is a skip, not a fatal error).
type RejectedPathError struct {
	Entry string
}

func (e *RejectedPathError) Error() string {
	return fmt.Sprintf("tarball: rejected entry %q (path traversal)", e.Entry)
}

// Extract decompresses and unpacks a gzipped tar stream into v at destPath,
// returning every absolute file path written, sorted by path.
func Extract(r io.Reader, v *vfs.VFS, destPath string, opts Options) ([]string, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("tarball: gzip: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	var written []string

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return written, fmt.Errorf("tarball: read header: %w", err)
		}

		name := stripComponents(hdr.Name, opts.StripComponents)
		if name == "" {
			continue
		}

		destFull := path.Join(destPath, name)
		if !withinDest(destPath, destFull) {
			if opts.OnProgress != nil {
				opts.OnProgress(fmt.Sprintf("skip %s: path traversal rejected", hdr.Name))
			}
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := v.MkdirAll(destFull); err != nil {
				return written, fmt.Errorf("tarball: mkdir %s: %w", destFull, err)
			}
		case tar.TypeReg, tar.TypeRegA:
			content, err := io.ReadAll(io.LimitReader(tr, hdr.Size+1))
			if err != nil {
				return written, fmt.Errorf("tarball: read %s: %w", hdr.Name, err)
			}
			if err := v.WriteFile(destFull, content); err != nil {
				return written, fmt.Errorf("tarball: write %s: %w", destFull, err)
			}
			written = append(written, vfs.Clean(destFull))
			if opts.OnProgress != nil {
				opts.OnProgress(fmt.Sprintf("extracted %s", name))
			}
		case tar.TypeSymlink:
			if err := v.Symlink(hdr.Linkname, destFull); err != nil {
				return written, fmt.Errorf("tarball: symlink %s: %w", destFull, err)
			}
		default:
			// Character/block devices, FIFOs, etc. — not file/dir/symlink,
			// skipped per spec §4.3.
			continue
		}
	}

	sort.Strings(written)
	return written, nil
}

// stripComponents drops the first n leading path segments from name,
// returning "" if nothing remains (e.g. the archive's own wrapper directory
// entry, which strips down to empty).
func stripComponents(name string, n int) string {
	name = strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "/")
	if n <= 0 {
		return name
	}
	segs := strings.Split(name, "/")
	if n >= len(segs) {
		return ""
	}
	return strings.Join(segs[n:], "/")
}

// withinDest reports whether candidate, once cleaned, still falls under
// dest — the defense against ".." path traversal required by spec §4.3 and
// §8 "Path safety".
func withinDest(dest, candidate string) bool {
	cleanDest := path.Clean(dest)
	cleanCandidate := path.Clean(candidate)
	if cleanCandidate == cleanDest {
		return true
	}
	return strings.HasPrefix(cleanCandidate, cleanDest+"/")
}
