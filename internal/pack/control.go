package pack

import (
	"strings"

	"github.com/rustdesk/rustdesk-packager/internal/config"
)

// controlTemplate is the Debian control block with substitution points.
// The trailing blank line is required by dpkg-deb.
const controlTemplate = `Package: {product}
Version: {version}
Architecture: {arch}
Maintainer: {maintainer}
Homepage: {homepage}
Depends: {depends}
Description: {description}

`

// RenderControl renders the package control block, substituting every
// placeholder from the settings and build parameters. The result never
// retains an unsubstituted token.
func RenderControl(s *config.Settings, version, arch string) string {
	r := strings.NewReplacer(
		"{product}", s.Product,
		"{version}", version,
		"{arch}", arch,
		"{maintainer}", s.Maintainer,
		"{homepage}", s.Homepage,
		"{depends}", strings.Join(s.Depends, ", "),
		"{description}", s.Description,
	)

	return r.Replace(controlTemplate)
}
