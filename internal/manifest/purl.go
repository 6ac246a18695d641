// Package manifest emits a Software Bill of Materials for a bootstrap run's
// resolved dependencies, in both CycloneDX and SPDX form, plus the Package
// URLs each format embeds. Grounded on the teacher's sbom_generator.go and
// purl/purl.go, adapted from "one vendored git dependency per lock entry"
// to "one resolved npm package per InstallResult entry".
package manifest

import (
	"net/url"
	"strings"
)

// PURL is a parsed/constructed Package URL (https://github.com/package-url/purl-spec).
type PURL struct {
	Type    string
	Name    string
	Version string
}

// String renders the PURL. bootforge only ever resolves npm packages (the
// spec's Non-goal rules out a real registry client, so every
// ResolvedPackage is npm-shaped), so Type is always "npm" in practice but
// kept as a field for forward compatibility with the CLI demo.
func (p PURL) String() string {
	if p.Name == "" {
		return ""
	}
	typ := p.Type
	if typ == "" {
		typ = "npm"
	}
	var b strings.Builder
	b.WriteString("pkg:")
	b.WriteString(typ)
	b.WriteByte('/')
	b.WriteString(url.PathEscape(p.Name))
	if p.Version != "" {
		b.WriteByte('@')
		b.WriteString(url.PathEscape(p.Version))
	}
	return b.String()
}

// NewNPMPurl builds the PURL for a resolved npm package.
func NewNPMPurl(name, version string) PURL {
	return PURL{Type: "npm", Name: name, Version: version}
}
