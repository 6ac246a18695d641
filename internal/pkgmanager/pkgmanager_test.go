package pkgmanager

import (
	"context"
	"testing"

	"github.com/bootforge/bootforge/internal/vfs"
)

func TestInstallFromPackageJSONWritesFilesAndSkipsDev(t *testing.T) {
	v := vfs.New()
	_ = v.WriteFile("/project/package.json", []byte(`{
		"name": "demo",
		"dependencies": {"tiny-pkg": "^1.0.0"},
		"devDependencies": {"tiny-test-tool": "^2.0.0"}
	}`))

	registry := StaticRegistry{
		"tiny-pkg": {
			Version: "1.2.0",
			Files: map[string]string{
				"index.js":    "module.exports = 42;",
				"package.json": `{"name":"tiny-pkg","version":"1.2.0"}`,
			},
		},
		"tiny-test-tool": {Version: "2.0.0", Files: map[string]string{"index.js": "x"}},
	}

	m := New(v, "/project", registry)
	result, err := m.InstallFromPackageJSON(context.Background(), InstallOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := result.Installed["tiny-test-tool"]; ok {
		t.Fatal("devDependency should not be installed without IncludeDev")
	}
	pkg, ok := result.Installed["tiny-pkg"]
	if !ok || pkg.Version != "1.2.0" {
		t.Fatalf("got %+v", result.Installed)
	}
	content, err := v.ReadFile("/project/node_modules/tiny-pkg/index.js")
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "module.exports = 42;" {
		t.Fatalf("got %q", content)
	}
}

func TestInstallFromPackageJSONIncludesDevWhenRequested(t *testing.T) {
	v := vfs.New()
	_ = v.WriteFile("/project/package.json", []byte(`{
		"name": "demo",
		"devDependencies": {"tiny-test-tool": "^2.0.0"}
	}`))
	registry := StaticRegistry{
		"tiny-test-tool": {Version: "2.0.0", Files: map[string]string{"index.js": "x"}},
	}

	m := New(v, "/project", registry)
	result, err := m.InstallFromPackageJSON(context.Background(), InstallOptions{IncludeDev: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := result.Installed["tiny-test-tool"]; !ok {
		t.Fatalf("expected devDependency installed, got %+v", result.Installed)
	}
}

func TestInstallFromPackageJSONAppliesTransform(t *testing.T) {
	v := vfs.New()
	_ = v.WriteFile("/project/package.json", []byte(`{
		"name": "demo",
		"dependencies": {"tiny-pkg": "^1.0.0"}
	}`))
	registry := StaticRegistry{
		"tiny-pkg": {Version: "1.0.0", Files: map[string]string{"index.js": "original"}},
	}

	m := New(v, "/project", registry)
	_, err := m.InstallFromPackageJSON(context.Background(), InstallOptions{
		Transform: func(content []byte, filename string) []byte {
			return []byte("// transformed\n" + string(content))
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	content, err := v.ReadFile("/project/node_modules/tiny-pkg/index.js")
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "// transformed\noriginal" {
		t.Fatalf("got %q", content)
	}
}

func TestInstallFromPackageJSONMissingRegistryEntryErrors(t *testing.T) {
	v := vfs.New()
	_ = v.WriteFile("/project/package.json", []byte(`{
		"name": "demo",
		"dependencies": {"ghost-pkg": "^1.0.0"}
	}`))
	m := New(v, "/project", StaticRegistry{})
	if _, err := m.InstallFromPackageJSON(context.Background(), InstallOptions{}); err == nil {
		t.Fatal("expected error for unresolvable dependency")
	}
}
