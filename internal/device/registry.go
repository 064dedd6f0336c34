// Package device resolves device identifiers to the screen composition they
// display. The registry is loaded once at startup from a YAML file and is
// read-only for the rest of the process lifetime.
package device

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/inkframe/eink-renderer/internal/content"
	"github.com/inkframe/eink-renderer/internal/resource"
)

// Device binds an identifier to its screen composition and the address its
// document lives at.
type Device struct {
	ID      string
	Screen  *content.Mashup
	Content resource.Address
}

// Registry is the device lookup table.
type Registry struct {
	devices map[string]*Device
	logger  *zap.Logger
}

// Deps carries the collaborators source construction needs.
type Deps struct {
	Logger   *zap.Logger
	Geo      content.GeoCache // may be nil
	Backoff  time.Duration
	Deadline time.Duration
}

// registryFile is the on-disk YAML shape: a named-source table plus a device
// table referencing sources by name.
type registryFile struct {
	Sources map[string]sourceSpec `yaml:"sources"`
	Devices map[string]deviceSpec `yaml:"devices"`
}

type sourceSpec struct {
	Plugin    string `yaml:"plugin"`
	Token     string `yaml:"token"`
	ProjectID string `yaml:"project_id"`
	Place     string `yaml:"place"`
	Detail    string `yaml:"detail"`
}

type deviceSpec struct {
	Single string `yaml:"single"`
	Left   string `yaml:"left"`
	Right  string `yaml:"right"`
	Remote string `yaml:"remote"`
}

// Load reads the registry file and constructs every source eagerly, so a
// misconfigured device fails startup instead of failing unpredictably
// mid-render. An empty path yields just the built-in test device.
func Load(ctx context.Context, path string, deps Deps) (*Registry, error) {
	reg := &Registry{
		devices: make(map[string]*Device),
		logger:  deps.Logger,
	}
	reg.add("test", content.Single(content.Static{}))

	if path == "" {
		deps.Logger.Info("No devices file configured, serving the built-in test device only")
		return reg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading devices file: %w", err)
	}
	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing devices file: %w", err)
	}

	// Sources first: devices reference them by name, and a source may be
	// shared by several devices.
	sources := make(map[string]content.Source, len(file.Sources))
	for name, spec := range file.Sources {
		src, err := buildSource(ctx, name, spec, deps)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", name, err)
		}
		sources[name] = src
	}

	for id, spec := range file.Devices {
		mashup, err := buildMashup(spec, sources)
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", id, err)
		}
		reg.add(id, mashup)
	}

	deps.Logger.Info("Device registry loaded",
		zap.String("file", path),
		zap.Int("sources", len(sources)),
		zap.Int("devices", len(reg.devices)))
	return reg, nil
}

func buildSource(ctx context.Context, name string, spec sourceSpec, deps Deps) (content.Source, error) {
	switch spec.Plugin {
	case "static":
		return content.Static{}, nil
	case "ticktick":
		return content.NewTickTick(content.TickTickConfig{
			Token:     spec.Token,
			ProjectID: spec.ProjectID,
			Backoff:   deps.Backoff,
			Deadline:  deps.Deadline,
		}, deps.Logger.Named(name))
	case "weather":
		return content.NewWeather(ctx, content.WeatherConfig{
			Place:    spec.Place,
			Detail:   content.Detail(spec.Detail),
			Backoff:  deps.Backoff,
			Deadline: deps.Deadline,
		}, deps.Logger.Named(name), deps.Geo)
	case "":
		return nil, fmt.Errorf("missing plugin name")
	default:
		return nil, fmt.Errorf("unknown plugin %q", spec.Plugin)
	}
}

func buildMashup(spec deviceSpec, sources map[string]content.Source) (*content.Mashup, error) {
	switch {
	case spec.Remote != "":
		addr, err := resource.Parse(spec.Remote)
		if err != nil {
			return nil, fmt.Errorf("remote address: %w", err)
		}
		u, ok := addr.Remote()
		if !ok {
			return nil, fmt.Errorf("remote address %q must be absolute", spec.Remote)
		}
		return content.PassThrough(u), nil
	case spec.Single != "":
		src, ok := sources[spec.Single]
		if !ok {
			return nil, fmt.Errorf("unknown source %q", spec.Single)
		}
		return content.Single(src), nil
	case spec.Left != "" && spec.Right != "":
		left, ok := sources[spec.Left]
		if !ok {
			return nil, fmt.Errorf("unknown source %q", spec.Left)
		}
		right, ok := sources[spec.Right]
		if !ok {
			return nil, fmt.Errorf("unknown source %q", spec.Right)
		}
		return content.SideBySide(left, right), nil
	default:
		return nil, fmt.Errorf("needs a remote, a single source, or a left/right pair")
	}
}

func (r *Registry) add(id string, mashup *content.Mashup) {
	dev := &Device{ID: id, Screen: mashup}
	if remote, ok := mashup.Remote(); ok {
		addr, err := resource.Parse(remote.String())
		if err == nil {
			dev.Content = addr
		}
	} else {
		dev.Content = resource.ContentAddress(id)
	}
	r.devices[id] = dev
}

// Lookup resolves a device id. The second return is false for unknown ids.
func (r *Registry) Lookup(id string) (*Device, bool) {
	dev, ok := r.devices[id]
	return dev, ok
}

// IDs lists the registered device ids, for logging.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.devices))
	for id := range r.devices {
		ids = append(ids, id)
	}
	return ids
}
