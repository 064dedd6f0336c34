// Package content holds the pluggable content sources and the mashup
// operator that composes them into a single device document. Sources are
// constructed once at registry load and shared read-only across all
// concurrent requests.
package content

import (
	"context"

	"github.com/inkframe/eink-renderer/internal/page"
)

// Source produces a document. Implementations must be safe for concurrent
// use and must not mutate their stored configuration; every call performs an
// independent fetch, there is no caching layer here.
type Source interface {
	Generate(ctx context.Context) (page.Node, error)
}

// Static is the built-in test source. It returns a fixed document and never
// fails.
type Static struct{}

// Generate implements Source.
func (Static) Generate(context.Context) (page.Node, error) {
	return page.TestScreen(), nil
}
