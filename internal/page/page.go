// Package page builds the documents the browser renders. Pages are composed
// from gomponents nodes; the rest of the system treats a Node as an opaque
// renderable document.
package page

import (
	"time"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

// Node is a renderable document fragment.
type Node = g.Node

// Index wraps content in the plain site shell used for the landing and
// preview pages.
func Index(inner ...Node) Node {
	return h.Doctype(
		h.HTML(
			h.Head(
				h.TitleEl(g.Text("Inkframe")),
				h.Link(h.Rel("stylesheet"), h.Href("/assets/style.css")),
			),
			h.Body(g.Group(inner)),
		),
	)
}

// Screen wraps composed content in the device document shell. The stylesheet
// and icon font are loaded from their CDNs, which is why rendering waits a
// settle delay before capture.
func Screen(inner Node) Node {
	return h.Doctype(
		h.HTML(
			h.Head(
				h.TitleEl(g.Text("Inkframe")),
				h.Link(h.Rel("stylesheet"), h.Href("https://usetrmnl.com/css/latest/plugins.css")),
				h.Link(h.Rel("stylesheet"), h.Href("https://cdn.jsdelivr.net/gh/iconoir-icons/iconoir@main/css/iconoir.css")),
			),
			h.Body(h.Class("environment trmnl"),
				h.Div(h.Class("screen"), inner),
			),
		),
	)
}

// Error is the generic error page.
func Error(title, details string) Node {
	return Index(
		h.H1(g.Text(title)),
		h.P(g.Text(details)),
	)
}

// NotFound is the 404 page.
func NotFound(details string) Node {
	return Error("A 404 has been spotted", details)
}

// BadRequest is the 400 page.
func BadRequest(details string) Node {
	return Error("You tried a naughty thing", details)
}

// InternalError is the 500 page.
func InternalError(details string) Node {
	return Error("I'm terribly sorry, but something happened", details)
}

// TextWithIcon renders a label next to an iconoir icon.
func TextWithIcon(icon, text string) Node {
	return h.Div(h.Class("flex flex--row gap--small"),
		h.Span(h.Class("iconoir-"+icon)),
		h.Span(h.Class("label"), g.Text(text)),
	)
}

// StatusBar is the refresh-timestamp bar shown on the test screen.
func StatusBar(now time.Time) Node {
	return h.Div(h.Class("flex flex--left flex--row"),
		TextWithIcon("refresh", now.Format("2006-01-02 15:04:05")),
	)
}

// TestScreen is the fixed document of the static content source. The view
// container comes from the composition wrapping it.
func TestScreen() Node {
	return h.Div(h.Class("layout layout--col layout--stretch-x"),
		StatusBar(time.Now()),
		h.Div(h.Class("border--h-1")),
		h.Div(h.Class("stretch"),
			h.Div(h.Class("markdown"),
				h.Span(h.Class("title"), g.Text("Motivational Quote")),
				h.Div(h.Class("content content--center"),
					g.Text("“I love inside jokes. I hope to be a part of one someday.”"),
				),
				h.Span(h.Class("label label--underline"), g.Text("Michael Scott")),
			),
		),
	)
}

// EmptyScreen is shown for devices whose composition produced nothing.
func EmptyScreen() Node {
	return h.Div(h.Class("layout"),
		h.Div(h.Class("markdown"),
			h.Span(h.Class("title"), g.Text("Nothing to render")),
		),
	)
}
