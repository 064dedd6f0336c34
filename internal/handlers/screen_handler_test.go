package handlers

import (
	"context"
	"image"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/inkframe/eink-renderer/internal/canonical"
	"github.com/inkframe/eink-renderer/internal/device"
	"github.com/inkframe/eink-renderer/internal/render"
	"github.com/inkframe/eink-renderer/internal/resource"
)

type fakeRenderer struct {
	lastTarget string
	err        error
}

func (f *fakeRenderer) Render(_ context.Context, target string) (*render.Image, error) {
	f.lastTarget = target
	if f.err != nil {
		return nil, f.err
	}
	return render.FromImage(image.NewRGBA(image.Rect(0, 0, 4, 4))), nil
}

func testRegistry(t *testing.T, devicesYAML string) *device.Registry {
	t.Helper()
	path := ""
	if devicesYAML != "" {
		path = filepath.Join(t.TempDir(), "devices.yaml")
		if err := os.WriteFile(path, []byte(devicesYAML), 0o644); err != nil {
			t.Fatalf("writing devices file: %v", err)
		}
	}
	reg, err := device.Load(context.Background(), path, device.Deps{
		Logger:   zap.NewNop(),
		Backoff:  time.Millisecond,
		Deadline: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("loading registry: %v", err)
	}
	return reg
}

func newTestServer(t *testing.T, reg *device.Registry, renderer Renderer) *http.ServeMux {
	t.Helper()
	resource.InitSelf(8223, false)
	mux := http.NewServeMux()
	NewScreenHandler(reg, renderer, nil, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func get(mux *http.ServeMux, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestIndexAndHealth(t *testing.T) {
	mux := newTestServer(t, testRegistry(t, ""), &fakeRenderer{})

	rec := get(mux, "http://localhost:8223/", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("index status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Inkframe") {
		t.Error("index page missing the product name")
	}

	rec = get(mux, "http://localhost:8223/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "healthy") {
		t.Errorf("health body %q", rec.Body.String())
	}
}

func TestHandleContent(t *testing.T) {
	t.Run("serves the composed document", func(t *testing.T) {
		mux := newTestServer(t, testRegistry(t, ""), &fakeRenderer{})
		rec := get(mux, "http://localhost:8223/content/test", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("content type %q", ct)
		}
		if !strings.Contains(rec.Body.String(), "Motivational Quote") {
			t.Error("test screen content missing")
		}
	})

	t.Run("unknown device is a 404 page", func(t *testing.T) {
		mux := newTestServer(t, testRegistry(t, ""), &fakeRenderer{})
		rec := get(mux, "http://localhost:8223/content/ghost", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "A 404 has been spotted") {
			t.Errorf("body %q", rec.Body.String())
		}
	})

	t.Run("access token header wins over the path", func(t *testing.T) {
		mux := newTestServer(t, testRegistry(t, ""), &fakeRenderer{})
		rec := get(mux, "http://localhost:8223/content/ghost",
			http.Header{"Access-Token": {"test"}})
		if rec.Code != http.StatusOK {
			t.Errorf("status %d", rec.Code)
		}
	})

	t.Run("pass-through device redirects upstream", func(t *testing.T) {
		reg := testRegistry(t, `
devices:
  lobby:
    remote: https://screens.example.com/lobby
`)
		mux := newTestServer(t, reg, &fakeRenderer{})
		rec := get(mux, "http://localhost:8223/content/lobby", nil)
		if rec.Code != http.StatusTemporaryRedirect {
			t.Fatalf("status %d", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "https://screens.example.com/lobby" {
			t.Errorf("location %q", loc)
		}
	})
}

func TestHandleScreen(t *testing.T) {
	t.Run("renders the device document as png", func(t *testing.T) {
		renderer := &fakeRenderer{}
		mux := newTestServer(t, testRegistry(t, ""), renderer)
		rec := get(mux, "http://localhost:8223/screen/test", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d, body %q", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("content type %q", ct)
		}
		want := resource.SelfURL().JoinPath("/content/test").String()
		if renderer.lastTarget != want {
			t.Errorf("rendered %q, want %q", renderer.lastTarget, want)
		}
	})

	t.Run("accept header selects qoi", func(t *testing.T) {
		mux := newTestServer(t, testRegistry(t, ""), &fakeRenderer{})
		rec := get(mux, "http://localhost:8223/screen/test",
			http.Header{"Accept": {"image/qoi;q=0.9, image/png"}})
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "image/qoi" {
			t.Errorf("content type %q", ct)
		}
	})

	t.Run("render timeout maps to gateway timeout", func(t *testing.T) {
		renderer := &fakeRenderer{err: canonical.New(canonical.DeadlineExceeded,
			"The screen did not render in time.")}
		mux := newTestServer(t, testRegistry(t, ""), renderer)
		rec := get(mux, "http://localhost:8223/screen/test", nil)
		if rec.Code != http.StatusGatewayTimeout {
			t.Fatalf("status %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Sooo slow") {
			t.Errorf("body %q", rec.Body.String())
		}
	})

	t.Run("pass-through device renders its remote url", func(t *testing.T) {
		reg := testRegistry(t, `
devices:
  lobby:
    remote: https://screens.example.com/lobby
`)
		renderer := &fakeRenderer{}
		mux := newTestServer(t, reg, renderer)
		rec := get(mux, "http://localhost:8223/screen/lobby", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d", rec.Code)
		}
		if renderer.lastTarget != "https://screens.example.com/lobby" {
			t.Errorf("rendered %q", renderer.lastTarget)
		}
	})
}

func TestHandlePreview(t *testing.T) {
	t.Run("image url binds to the caller origin", func(t *testing.T) {
		mux := newTestServer(t, testRegistry(t, ""), &fakeRenderer{})
		rec := get(mux, "http://device.local:9000/preview/test", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "http://device.local:9000/screen/test") {
			t.Errorf("body %q", rec.Body.String())
		}
	})

	t.Run("unknown device is a 404 page", func(t *testing.T) {
		mux := newTestServer(t, testRegistry(t, ""), &fakeRenderer{})
		if rec := get(mux, "http://localhost:8223/preview/ghost", nil); rec.Code != http.StatusNotFound {
			t.Errorf("status %d", rec.Code)
		}
	})
}

func TestAcceptedFormat(t *testing.T) {
	tests := []struct {
		name   string
		accept string
		want   render.Format
	}{
		{"empty defaults to png", "", render.FormatPNG},
		{"wildcard stays png", "*/*", render.FormatPNG},
		{"qoi alone", "image/qoi", render.FormatQOI},
		{"qoi with params", "image/qoi;q=0.8", render.FormatQOI},
		{"qoi among others", "text/html, image/qoi, */*", render.FormatQOI},
		{"png preferred list", "image/png, image/webp", render.FormatPNG},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.accept != "" {
				header.Set("Accept", tt.accept)
			}
			if got := acceptedFormat(header); got != tt.want {
				t.Errorf("acceptedFormat(%q) = %v, want %v", tt.accept, got, tt.want)
			}
		})
	}
}
