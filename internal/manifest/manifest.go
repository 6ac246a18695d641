package manifest

import "github.com/bootforge/bootforge/internal/pkgmanager"

// Format selects an SBOM wire format.
type Format string

const (
	FormatCycloneDX Format = "cyclonedx"
	FormatSPDX      Format = "spdx"
)

// Generate renders result.Installed as an SBOM in the requested format.
func Generate(format Format, result pkgmanager.InstallResult, meta BOMMetadata) ([]byte, error) {
	switch format {
	case FormatCycloneDX:
		return GenerateCycloneDX(result, meta)
	case FormatSPDX:
		return GenerateSPDX(result, meta)
	default:
		return nil, &UnknownFormatError{Format: string(format)}
	}
}

// UnknownFormatError is returned by Generate for an unrecognized format.
type UnknownFormatError struct {
	Format string
}

func (e *UnknownFormatError) Error() string {
	return "Error: Unknown SBOM format '" + e.Format + "'\n  Context: supported formats are \"cyclonedx\" and \"spdx\"\n  Fix: pass manifest.FormatCycloneDX or manifest.FormatSPDX"
}
