package manifest

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/bootforge/bootforge/internal/pkgmanager"
)

func sampleInstallResult() pkgmanager.InstallResult {
	return pkgmanager.InstallResult{
		Installed: map[string]pkgmanager.ResolvedPackage{
			"tiny-pkg": {Name: "tiny-pkg", Version: "1.2.0"},
		},
	}
}

func TestGenerateCycloneDXIncludesPackageURL(t *testing.T) {
	out, err := GenerateCycloneDX(sampleInstallResult(), BOMMetadata{ProjectName: "demo", ToolVersion: "0.1.0"})
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "pkg:npm/tiny-pkg@1.2.0") {
		t.Fatalf("expected PURL in output, got %s", out)
	}
}

func TestGenerateSPDXIncludesPackage(t *testing.T) {
	out, err := GenerateSPDX(sampleInstallResult(), BOMMetadata{ProjectName: "demo", ToolVersion: "0.1.0"})
	if err != nil {
		t.Fatal(err)
	}
	var doc spdxDocumentJSON
	if err := json.Unmarshal(out, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Packages) != 1 || doc.Packages[0].Name != "tiny-pkg" {
		t.Fatalf("got %+v", doc.Packages)
	}
	if len(doc.Relationships) != 1 || doc.Relationships[0].RelationshipType != "DESCRIBES" {
		t.Fatalf("got %+v", doc.Relationships)
	}
}

func TestGenerateDispatchesOnFormat(t *testing.T) {
	if _, err := Generate(FormatCycloneDX, sampleInstallResult(), BOMMetadata{}); err != nil {
		t.Fatal(err)
	}
	if _, err := Generate(FormatSPDX, sampleInstallResult(), BOMMetadata{}); err != nil {
		t.Fatal(err)
	}
	if _, err := Generate("bogus", sampleInstallResult(), BOMMetadata{}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNPMPurlString(t *testing.T) {
	p := NewNPMPurl("left-pad", "1.3.0")
	if p.String() != "pkg:npm/left-pad@1.3.0" {
		t.Fatalf("got %q", p.String())
	}
}
