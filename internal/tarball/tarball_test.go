package tarball

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/bootforge/bootforge/internal/vfs"
)

func buildArchive(t *testing.T, entries map[string]string, symlinks map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for name, content := range entries {
		hdr := &tar.Header{Name: name, Mode: 0644, Size: int64(len(content)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	for name, target := range symlinks {
		hdr := &tar.Header{Name: name, Typeflag: tar.TypeSymlink, Linkname: target, Mode: 0777}
		if err := tw.WriteHeader(hdr); err != nil {
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

func TestExtractStripsWrapperDirectory(t *testing.T) {
	archive := buildArchive(t, map[string]string{
		"demo-main/package.json": `{"name":"demo"}`,
		"demo-main/src/index.js": "console.log(1)",
	}, nil)

	v := vfs.New()
	written, err := Extract(bytes.NewReader(archive), v, "/project", Options{StripComponents: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 2 {
		t.Fatalf("got %v", written)
	}
	content, err := v.ReadFile("/project/package.json")
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != `{"name":"demo"}` {
		t.Fatalf("got %q", content)
	}
}

func TestExtractRejectsPathTraversal(t *testing.T) {
	archive := buildArchive(t, map[string]string{
		"demo-main/../../etc/passwd": "evil",
		"demo-main/ok.txt":           "fine",
	}, nil)

	v := vfs.New()
	var warnings []string
	written, err := Extract(bytes.NewReader(archive), v, "/project", Options{
		StripComponents: 1,
		OnProgress:      func(s string) { warnings = append(warnings, s) },
	})
	if err != nil {
		t.Fatalf("extraction should complete without raising: %v", err)
	}
	if len(written) != 1 || written[0] != "/project/ok.txt" {
		t.Fatalf("got %v", written)
	}
	if len(warnings) == 0 {
		t.Fatal("expected a progress warning for the rejected entry")
	}
}

func TestExtractSymlink(t *testing.T) {
	archive := buildArchive(t,
		map[string]string{"demo-main/target.txt": "hi"},
		map[string]string{"demo-main/link.txt": "target.txt"},
	)
	v := vfs.New()
	_, err := Extract(bytes.NewReader(archive), v, "/project", Options{StripComponents: 1})
	if err != nil {
		t.Fatal(err)
	}
	content, err := v.ReadFile("/project/link.txt")
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "hi" {
		t.Fatalf("got %q", content)
	}
}
