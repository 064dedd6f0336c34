package content

import (
	"context"
	"net/url"

	"golang.org/x/sync/errgroup"
	h "maragu.dev/gomponents/html"

	"github.com/inkframe/eink-renderer/internal/canonical"
	"github.com/inkframe/eink-renderer/internal/page"
)

// Mashup lays out one or two content sources as a single document, or passes
// a remote screen through untouched. Sources are held by reference: one
// source may back several devices' mashups.
type Mashup struct {
	remote *url.URL // pass-through screens are never composed
	left   Source
	right  Source // nil for a single full-bleed source
}

// Single shows one source full bleed.
func Single(s Source) *Mashup {
	return &Mashup{left: s}
}

// SideBySide pairs two sources in half-width columns, left then right.
func SideBySide(left, right Source) *Mashup {
	return &Mashup{left: left, right: right}
}

// PassThrough marks an externally hosted screen. The remote service renders
// its own document; image requests redirect there instead of composing.
func PassThrough(u *url.URL) *Mashup {
	return &Mashup{remote: u}
}

// Remote returns the pass-through URL when this mashup is not composed
// locally. Callers must check it before calling Generate.
func (m *Mashup) Remote() (*url.URL, bool) {
	if m.remote == nil {
		return nil, false
	}
	return m.remote, true
}

// Generate implements Source. The two children of a side-by-side layout are
// generated concurrently; the first failure wins and fails the whole
// composition.
func (m *Mashup) Generate(ctx context.Context) (page.Node, error) {
	switch {
	case m.remote != nil:
		return nil, canonical.New(canonical.FailedPrecondition,
			"Remote screens render themselves and cannot be composed.")
	case m.right == nil:
		doc, err := m.left.Generate(ctx)
		if err != nil {
			return nil, err
		}
		return h.Div(h.Class("view view--full"), doc), nil
	default:
		var left, right page.Node
		eg, ctx := errgroup.WithContext(ctx)
		eg.Go(func() error {
			var err error
			left, err = m.left.Generate(ctx)
			return err
		})
		eg.Go(func() error {
			var err error
			right, err = m.right.Generate(ctx)
			return err
		})
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		return h.Div(h.Class("mashup mashup--1Lx1R"),
			h.Div(h.Class("view view--half_vertical"), left),
			h.Div(h.Class("view view--half_vertical"), right),
		), nil
	}
}
