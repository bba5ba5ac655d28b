package content

import (
	"bytes"
	_ "embed"

	"github.com/pitchside/frontoffice/internal/drama"
)

//go:embed default.yaml
var defaultCatalogYAML []byte

// DefaultCatalog returns the built-in drama catalog, used when no catalog
// directory is configured. The embedded content is validated at startup like
// any other catalog.
func DefaultCatalog() (*drama.Catalog, error) {
	return ParseCatalog(bytes.NewReader(defaultCatalogYAML))
}
