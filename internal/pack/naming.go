package pack

import "strings"

// Artifact is the final installable package produced by an assembler.
type Artifact struct {
	// Path is the location of the finished artifact.
	Path string
	// Strategy identifies the route that produced it.
	Strategy Strategy
	// Version is the product version baked into the name.
	Version string
}

// ArtifactName builds the deterministic output filename:
//
//	<product>-<version>[-debug][-<suffix>].<ext>
//
// It is a pure function of its inputs.
func ArtifactName(product, version string, debug bool, suffix, ext string) string {
	var b strings.Builder

	b.WriteString(product)
	b.WriteString("-")
	b.WriteString(version)

	if debug {
		b.WriteString("-debug")
	}

	if suffix != "" {
		b.WriteString("-")
		b.WriteString(suffix)
	}

	b.WriteString(".")
	b.WriteString(ext)

	return b.String()
}
