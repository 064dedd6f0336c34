// Package render turns a document URL into a bitmap by screenshotting it in
// a headless browser. One browser process lives for the whole server; every
// render call gets its own isolated browsing context so concurrent renders
// never share cookies, cache or history.
package render

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/inkframe/eink-renderer/internal/canonical"
)

// Config tunes the browser process and per-render behavior.
type Config struct {
	// Width and Height fix the viewport to the physical display's size.
	Width, Height int
	// SettleDelay is how long to wait after navigation before capturing, a
	// pragmatic stand-in for a load-complete signal while external fonts and
	// icons finish loading.
	SettleDelay time.Duration
	// Timeout bounds one whole render call, navigation and capture included.
	Timeout time.Duration
	// Grayscale converts captures to single-channel brightness for
	// monochrome panels.
	Grayscale bool
}

// Instance owns the long-lived headless browser process.
type Instance struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	logger   *zap.Logger
	cfg      Config
}

// New launches the browser and starts draining its event stream. Launch
// failure surfaces as a setup error with the launcher's diagnostics attached.
func New(cfg Config, logger *zap.Logger) (*Instance, error) {
	l := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("force-device-scale-factor", "1").
		Set("font-render-hinting", "none").
		Set("allow-insecure-localhost").
		Set("window-size", fmt.Sprintf("%d,%d", cfg.Width, cfg.Height))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, canonical.Wrap(canonical.InternalRender,
			"The rendering browser failed to start.", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, canonical.Wrap(canonical.InternalRender,
			"Could not attach to the rendering browser.", err)
	}

	// The control channel blocks unless its event stream is drained; crashes
	// are worth a log line on the way through.
	go browser.EachEvent(func(e *proto.TargetTargetCrashed) {
		logger.Warn("Browser target crashed",
			zap.String("target", string(e.TargetID)),
			zap.String("status", e.Status))
	})()

	logger.Info("Render instance ready",
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Duration("settle_delay", cfg.SettleDelay))
	return &Instance{browser: browser, launcher: l, logger: logger, cfg: cfg}, nil
}

// Render navigates an isolated browsing context to target, waits the settle
// delay, captures the root element and decodes the result. The context is
// disposed on every exit path.
func (i *Instance) Render(ctx context.Context, target string) (*Image, error) {
	parsed, err := url.Parse(target)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, canonical.New(canonical.InvalidArgument,
			fmt.Sprintf("%q is not a renderable document URL.", target))
	}

	ctx, cancel := context.WithTimeout(ctx, i.cfg.Timeout)
	defer cancel()

	browser := i.browser.Context(ctx)
	incognito, err := browser.Incognito()
	if err != nil {
		return nil, classify("creating browser context", err)
	}
	defer func() {
		dispose := proto.TargetDisposeBrowserContext{BrowserContextID: incognito.BrowserContextID}
		if err := dispose.Call(i.browser); err != nil {
			i.logger.Warn("Browser context disposal failed", zap.Error(err))
		}
	}()

	screen, err := incognito.Page(proto.TargetCreateTarget{URL: target})
	if err != nil {
		return nil, classify("opening page", err)
	}

	select {
	case <-time.After(i.cfg.SettleDelay):
	case <-ctx.Done():
		return nil, classify("waiting for layout", ctx.Err())
	}

	root, err := screen.Element("html")
	if err != nil {
		return nil, classify("finding document root", err)
	}
	shot, err := root.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, classify("capturing screenshot", err)
	}

	img, err := FromPNG(shot)
	if err != nil {
		return nil, err
	}
	img = img.Sharpen()
	if i.cfg.Grayscale {
		img = img.Grayscale()
	}
	i.logger.Debug("Render completed", zap.String("url", target))
	return img, nil
}

// Close tears down the browser process.
func (i *Instance) Close() error {
	err := i.browser.Close()
	i.launcher.Cleanup()
	return err
}

// classify splits browser failures the way callers care about them:
// unreachable navigation targets, exhausted deadlines, everything else.
func classify(stage string, err error) error {
	msg := err.Error()
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return canonical.Wrap(canonical.DeadlineExceeded,
			"Rendering did not finish in time.", err)
	case strings.Contains(msg, "net::ERR_NAME_NOT_RESOLVED"),
		strings.Contains(msg, "net::ERR_CONNECTION_REFUSED"),
		strings.Contains(msg, "net::ERR_ADDRESS_UNREACHABLE"):
		return canonical.Wrap(canonical.NotFound,
			"The document to render could not be reached.", err)
	default:
		return canonical.Wrap(canonical.InternalRender,
			fmt.Sprintf("Rendering failed while %s.", stage), err)
	}
}
