package manifest

import (
	"sort"
	"strings"
	"time"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/google/uuid"

	"github.com/bootforge/bootforge/internal/pkgmanager"
)

// BOMMetadata describes the bootstrap run the SBOM documents.
type BOMMetadata struct {
	ProjectName string
	SourceURL   string
	ToolVersion string
}

// GenerateCycloneDX renders a CycloneDX 1.5 JSON SBOM of result.Installed,
// grounded on the teacher's generateCycloneDX (internal/core/sbom_generator.go),
// replacing "one component per vendored git dependency" with "one component
// per resolved npm package".
func GenerateCycloneDX(result pkgmanager.InstallResult, meta BOMMetadata) ([]byte, error) {
	bom := cdx.NewBOM()
	bom.SerialNumber = "urn:uuid:" + uuid.New().String()
	bom.Version = 1

	bom.Metadata = &cdx.Metadata{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Tools: &cdx.ToolsChoice{
			Components: &[]cdx.Component{
				{
					Type:    cdx.ComponentTypeApplication,
					Name:    "bootforge",
					Version: meta.ToolVersion,
				},
			},
		},
		Component: &cdx.Component{
			Type:    cdx.ComponentTypeApplication,
			Name:    projectNameOrDefault(meta.ProjectName),
			Version: "local",
		},
	}

	names := sortedNames(result.Installed)
	components := make([]cdx.Component, 0, len(names))
	for _, name := range names {
		pkg := result.Installed[name]
		purl := NewNPMPurl(pkg.Name, pkg.Version)
		component := cdx.Component{
			Type:       cdx.ComponentTypeLibrary,
			BOMRef:     purl.String(),
			Name:       pkg.Name,
			Version:    pkg.Version,
			PackageURL: purl.String(),
		}
		if meta.SourceURL != "" {
			component.ExternalReferences = &[]cdx.ExternalReference{
				{Type: cdx.ERTypeVCS, URL: meta.SourceURL},
			}
		}
		components = append(components, component)
	}
	bom.Components = &components

	var buf strings.Builder
	encoder := cdx.NewBOMEncoder(&buf, cdx.BOMFileFormatJSON)
	encoder.SetPretty(true)
	if err := encoder.Encode(bom); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}

func projectNameOrDefault(name string) string {
	if name == "" {
		return "unnamed-project"
	}
	return name
}

func sortedNames(installed map[string]pkgmanager.ResolvedPackage) []string {
	names := make([]string, 0, len(installed))
	for name := range installed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
