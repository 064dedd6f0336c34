// Package handlers exposes the HTTP surface: composed documents, rendered
// screen images and preview pages, one route per concern.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/inkframe/eink-renderer/internal/canonical"
	"github.com/inkframe/eink-renderer/internal/device"
	"github.com/inkframe/eink-renderer/internal/notify"
	"github.com/inkframe/eink-renderer/internal/page"
	"github.com/inkframe/eink-renderer/internal/render"
	"github.com/inkframe/eink-renderer/internal/resource"
)

// Renderer drives a browser over a document URL and returns the captured
// bitmap. Satisfied by render.Instance.
type Renderer interface {
	Render(ctx context.Context, target string) (*render.Image, error)
}

// ScreenHandler handles HTTP requests for device screens
type ScreenHandler struct {
	registry *device.Registry
	renderer Renderer
	notifier *notify.Publisher // nil when AMQP is not configured
	logger   *zap.Logger
}

// NewScreenHandler creates a new screen handler
func NewScreenHandler(registry *device.Registry, renderer Renderer, notifier *notify.Publisher, logger *zap.Logger) *ScreenHandler {
	return &ScreenHandler{
		registry: registry,
		renderer: renderer,
		notifier: notifier,
		logger:   logger,
	}
}

// RegisterRoutes registers the screen routes
func (s *ScreenHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /content/{id}", s.handleContent)
	mux.HandleFunc("GET /screen/{id}", s.handleScreen)
	mux.HandleFunc("GET /preview/{id}", s.handlePreview)
}

func (s *ScreenHandler) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writeDocument(w, http.StatusOK, page.Index(
		h.H1(g.Text("Welcome to Inkframe.")),
		h.P(g.Text("Do you have an e-ink device? Point it at me.")),
		h.P(
			g.Text("Or see a "),
			h.A(h.Href("/preview/test"), g.Text("test preview")),
			g.Text("."),
		),
	))
}

func (s *ScreenHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{ //nolint:errcheck
		"status":  "healthy",
		"service": "eink-renderer",
	})
}

// deviceFromRequest resolves the device from the Access-Token header when
// present, the path otherwise. Devices identify themselves via the header;
// browsers hit the path.
func (s *ScreenHandler) deviceFromRequest(r *http.Request) (*device.Device, error) {
	id := r.Header.Get("Access-Token")
	if id == "" {
		id = r.PathValue("id")
	}
	if id == "" {
		return nil, canonical.New(canonical.InvalidArgument, "A device id is required.")
	}
	dev, ok := s.registry.Lookup(id)
	if !ok {
		return nil, canonical.New(canonical.NotFound, "The requested device does not exist.")
	}
	return dev, nil
}

// handleContent serves the composed document. Pass-through devices redirect
// to the remote service that renders its own document.
func (s *ScreenHandler) handleContent(w http.ResponseWriter, r *http.Request) {
	dev, err := s.deviceFromRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if remote, ok := dev.Screen.Remote(); ok {
		http.Redirect(w, r, remote.String(), http.StatusTemporaryRedirect)
		return
	}
	s.logger.Debug("Screen content requested", zap.String("device_id", dev.ID))

	doc, err := dev.Screen.Generate(r.Context())
	if err != nil {
		s.logger.Error("Content generation failed",
			zap.String("device_id", dev.ID),
			zap.Error(err))
		s.writeError(w, err)
		return
	}
	if doc == nil {
		doc = page.EmptyScreen()
	}
	s.writeDocument(w, http.StatusOK, page.Screen(doc))
}

// handleScreen drives the browser over the device's document and returns the
// encoded bitmap. The Accept header picks QOI over the PNG default.
func (s *ScreenHandler) handleScreen(w http.ResponseWriter, r *http.Request) {
	dev, err := s.deviceFromRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	target := dev.Content.FullyQualified()
	format := acceptedFormat(r.Header)
	s.logger.Info("Requested rendering",
		zap.String("device_id", dev.ID),
		zap.String("url", target.String()),
		zap.String("format", format.String()))

	img, err := s.renderer.Render(r.Context(), target.String())
	if err != nil {
		s.logger.Error("Rendering failed",
			zap.String("device_id", dev.ID),
			zap.Error(err))
		s.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := img.Encode(&buf, format); err != nil {
		s.logger.Error("Encoding failed", zap.String("device_id", dev.ID), zap.Error(err))
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck

	if s.notifier != nil {
		s.notifier.PublishRendered(r.Context(), notify.RenderedEvent{
			DeviceID:   dev.ID,
			Format:     format.String(),
			Bytes:      buf.Len(),
			RenderedAt: time.Now(),
		})
	}
}

// handlePreview embeds the device's screen image in a page. The image URL is
// rewritten onto the origin the caller used, so previews work through
// proxies and host aliases.
func (s *ScreenHandler) handlePreview(w http.ResponseWriter, r *http.Request) {
	dev, err := s.deviceFromRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	img, err := resource.ScreenAddress(dev.ID).RewrittenFor(scheme, r.Host)
	if err != nil {
		s.writeError(w, canonical.Wrap(canonical.InvalidArgument,
			"The request host could not be parsed.", err))
		return
	}
	s.writeDocument(w, http.StatusOK, page.Index(
		h.H1(g.Text("Preview Inkframe screen")),
		h.Img(h.Src(img.Href())),
	))
}

// acceptedFormat picks the image encoding from the Accept header.
func acceptedFormat(header http.Header) render.Format {
	for _, accepted := range strings.Split(header.Get("Accept"), ",") {
		mime, _, _ := strings.Cut(strings.TrimSpace(accepted), ";")
		if mime == "image/qoi" {
			return render.FormatQOI
		}
	}
	return render.FormatPNG
}

func (s *ScreenHandler) writeDocument(w http.ResponseWriter, status int, doc page.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := doc.Render(w); err != nil {
		s.logger.Error("Failed to write document", zap.Error(err))
	}
}

// writeError maps an error onto its one stable status and page.
func (s *ScreenHandler) writeError(w http.ResponseWriter, err error) {
	kind := canonical.KindOf(err)
	msg := canonical.MessageOf(err)
	var doc page.Node
	switch kind {
	case canonical.NotFound:
		doc = page.NotFound(msg)
	case canonical.InvalidArgument:
		doc = page.BadRequest(msg)
	case canonical.PermissionDenied:
		doc = page.Error("Nope. Can't do", msg)
	case canonical.FailedPrecondition:
		doc = page.Error("A failed precondition", msg)
	case canonical.DeadlineExceeded:
		doc = page.Error("Sooo slow", msg)
	case canonical.Misconfigured:
		doc = page.Error("Misconfigured plugin", msg)
	case canonical.UpstreamUnavailable:
		doc = page.Error("Unexpected response", msg)
	case canonical.UpstreamInvalidResponse:
		doc = page.Error("Gateway response invalid", msg)
	default:
		doc = page.InternalError(msg)
	}
	s.writeDocument(w, kind.HTTPStatus(), doc)
}
