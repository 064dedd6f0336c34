package content

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	g "maragu.dev/gomponents"

	"github.com/inkframe/eink-renderer/internal/canonical"
	"github.com/inkframe/eink-renderer/internal/page"
)

type fakeSource struct {
	text string
	err  error
}

func (f fakeSource) Generate(context.Context) (page.Node, error) {
	if f.err != nil {
		return nil, f.err
	}
	return g.Text(f.text), nil
}

func renderNode(t *testing.T, n page.Node) string {
	t.Helper()
	var sb strings.Builder
	if err := n.Render(&sb); err != nil {
		t.Fatalf("rendering markup: %v", err)
	}
	return sb.String()
}

func TestMashupSingle(t *testing.T) {
	t.Run("wraps the document full bleed", func(t *testing.T) {
		doc, err := Single(fakeSource{text: "hello"}).Generate(context.Background())
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		html := renderNode(t, doc)
		if !strings.Contains(html, "view--full") {
			t.Errorf("missing full-bleed container: %s", html)
		}
		if !strings.Contains(html, "hello") {
			t.Errorf("missing child content: %s", html)
		}
	})

	t.Run("propagates failure unchanged", func(t *testing.T) {
		boom := canonical.New(canonical.UpstreamUnavailable, "boom")
		_, err := Single(fakeSource{err: boom}).Generate(context.Background())
		if !errors.Is(err, boom) {
			t.Errorf("got %v, want the child failure", err)
		}
	})
}

func TestMashupSideBySide(t *testing.T) {
	t.Run("concatenates left then right", func(t *testing.T) {
		m := SideBySide(fakeSource{text: "LEFT"}, fakeSource{text: "RIGHT"})
		doc, err := m.Generate(context.Background())
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		html := renderNode(t, doc)
		if !strings.Contains(html, "mashup--1Lx1R") {
			t.Errorf("missing mashup container: %s", html)
		}
		left := strings.Index(html, "LEFT")
		right := strings.Index(html, "RIGHT")
		if left == -1 || right == -1 || left > right {
			t.Errorf("children missing or misordered: %s", html)
		}
		if got := strings.Count(html, "view--half_vertical"); got != 2 {
			t.Errorf("got %d half-width containers, want 2", got)
		}
	})

	t.Run("one failing child fails the composition", func(t *testing.T) {
		boom := canonical.New(canonical.DeadlineExceeded, "too slow")
		m := SideBySide(fakeSource{text: "fine"}, fakeSource{err: boom})
		if _, err := m.Generate(context.Background()); !errors.Is(err, boom) {
			t.Errorf("got %v, want the child failure", err)
		}
	})
}

func TestMashupPassThrough(t *testing.T) {
	u, _ := url.Parse("https://screens.example.com/lobby")
	m := PassThrough(u)

	t.Run("exposes the remote url", func(t *testing.T) {
		remote, ok := m.Remote()
		if !ok {
			t.Fatal("expected a remote")
		}
		if remote.String() != u.String() {
			t.Errorf("got %q", remote)
		}
	})

	t.Run("generate fails fast", func(t *testing.T) {
		_, err := m.Generate(context.Background())
		if canonical.KindOf(err) != canonical.FailedPrecondition {
			t.Errorf("got %v, want failed precondition", err)
		}
	})

	t.Run("composed mashups have no remote", func(t *testing.T) {
		if _, ok := Single(fakeSource{}).Remote(); ok {
			t.Error("single mashup must not report a remote")
		}
	})
}
