package page

import (
	"strings"
	"testing"
	"time"

	g "maragu.dev/gomponents"
)

func render(t *testing.T, n Node) string {
	t.Helper()
	var sb strings.Builder
	if err := n.Render(&sb); err != nil {
		t.Fatalf("rendering markup: %v", err)
	}
	return sb.String()
}

func TestScreenShell(t *testing.T) {
	html := render(t, Screen(g.Text("CONTENT")))
	if !strings.HasPrefix(html, "<!doctype html>") {
		t.Errorf("missing doctype: %s", html)
	}
	for _, want := range []string{"plugins.css", "iconoir.css", `class="screen"`, "CONTENT"} {
		if !strings.Contains(html, want) {
			t.Errorf("screen shell missing %q", want)
		}
	}
}

func TestErrorPages(t *testing.T) {
	tests := []struct {
		name  string
		doc   Node
		title string
	}{
		{"not found", NotFound("gone"), "A 404 has been spotted"},
		{"bad request", BadRequest("nope"), "You tried a naughty thing"},
		{"internal", InternalError("oops"), "I'm terribly sorry, but something happened"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := render(t, tt.doc)
			if !strings.Contains(html, tt.title) {
				t.Errorf("missing title %q: %s", tt.title, html)
			}
		})
	}
}

func TestStatusBar(t *testing.T) {
	now := time.Date(2026, 1, 5, 14, 30, 45, 0, time.UTC)
	html := render(t, StatusBar(now))
	if !strings.Contains(html, "2026-01-05 14:30:45") {
		t.Errorf("status bar missing timestamp: %s", html)
	}
	if !strings.Contains(html, "iconoir-refresh") {
		t.Errorf("status bar missing refresh icon: %s", html)
	}
}
