package content

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/inkframe/eink-renderer/internal/canonical"
	"github.com/inkframe/eink-renderer/internal/fetch"
	"github.com/inkframe/eink-renderer/internal/page"
	"github.com/inkframe/eink-renderer/pkg/models"
)

// Default upstream endpoints for the weather source.
const (
	DefaultForecastURL = "https://api.open-meteo.com/v1/forecast"
	DefaultGeocodeURL  = "https://nominatim.openstreetmap.org/search"

	geocodeUserAgent = "inkframe-eink-renderer"
)

// Detail selects how much of the forecast the screen shows.
type Detail string

const (
	// DetailMinimal shows the current conditions only.
	DetailMinimal Detail = "minimal"
	// DetailFull adds the condition description and the multi-day extremes.
	DetailFull Detail = "full"
)

// GeoCache persists resolved place coordinates across restarts so registry
// load can skip the geocoding round-trip. Implementations may be absent.
type GeoCache interface {
	Lookup(ctx context.Context, place string) (lon, lat float64, ok bool)
	Store(ctx context.Context, place string, lon, lat float64)
}

// WeatherConfig configures one weather source.
type WeatherConfig struct {
	Place       string
	Detail      Detail
	ForecastURL string
	GeocodeURL  string
	Backoff     time.Duration
	Deadline    time.Duration
}

// Weather renders current conditions for a configured place. Coordinates are
// resolved once at construction; each Generate performs one forecast fetch.
type Weather struct {
	client   *http.Client
	logger   *zap.Logger
	place    string
	detail   Detail
	forecast *url.URL // forecast endpoint with coordinates baked in
	backoff  time.Duration
	deadline time.Duration
}

// NewWeather resolves the place to coordinates (through the geocode cache
// when one is available) and returns a source ready to fetch forecasts.
func NewWeather(ctx context.Context, cfg WeatherConfig, logger *zap.Logger, geo GeoCache) (*Weather, error) {
	if cfg.Place == "" {
		return nil, canonical.New(canonical.Misconfigured, "weather source needs a place name")
	}
	detail := cfg.Detail
	if detail == "" {
		detail = DetailMinimal
	}
	if detail != DetailMinimal && detail != DetailFull {
		return nil, canonical.New(canonical.Misconfigured,
			fmt.Sprintf("weather source detail must be minimal or full, got %q", detail))
	}
	forecastURL := cfg.ForecastURL
	if forecastURL == "" {
		forecastURL = DefaultForecastURL
	}
	geocodeURL := cfg.GeocodeURL
	if geocodeURL == "" {
		geocodeURL = DefaultGeocodeURL
	}

	client := &http.Client{}
	w := &Weather{
		client:   client,
		logger:   logger,
		place:    cfg.Place,
		detail:   detail,
		backoff:  cfg.Backoff,
		deadline: cfg.Deadline,
	}

	lon, lat, cached := float64(0), float64(0), false
	if geo != nil {
		lon, lat, cached = geo.Lookup(ctx, cfg.Place)
	}
	if !cached {
		var err error
		lon, lat, err = w.resolveCoordinates(ctx, geocodeURL)
		if err != nil {
			return nil, err
		}
		if geo != nil {
			geo.Store(ctx, cfg.Place, lon, lat)
		}
	}

	base, err := url.Parse(forecastURL)
	if err != nil {
		return nil, canonical.Wrap(canonical.Misconfigured, "weather forecast endpoint is not a URL", err)
	}
	q := url.Values{}
	q.Set("longitude", fmt.Sprintf("%.2f", lon))
	q.Set("latitude", fmt.Sprintf("%.2f", lat))
	base.RawQuery = q.Encode()
	w.forecast = base

	logger.Info("Weather source ready",
		zap.String("place", cfg.Place),
		zap.Float64("longitude", lon),
		zap.Float64("latitude", lat),
		zap.Bool("coords_cached", cached))
	return w, nil
}

// resolveCoordinates looks the place up via the geocoding service and takes
// the first feature's coordinates.
func (w *Weather) resolveCoordinates(ctx context.Context, geocodeURL string) (lon, lat float64, err error) {
	search, err := url.Parse(geocodeURL)
	if err != nil {
		return 0, 0, canonical.Wrap(canonical.Misconfigured, "geocode endpoint is not a URL", err)
	}
	q := url.Values{}
	q.Set("city", w.place)
	q.Set("featureType", "settlement")
	q.Set("format", "geojson")
	search.RawQuery = q.Encode()

	header := http.Header{"User-Agent": {geocodeUserAgent}}
	resp, err := fetch.Retry(ctx, func() (*models.GeoResponse, error) {
		var out models.GeoResponse
		if err := fetch.GetJSON(ctx, w.client, search.String(), header, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}, w.backoff, w.deadline)
	if err != nil {
		w.logger.Error("Geocoding failed", zap.String("place", w.place), zap.Error(err))
		return 0, 0, asCanonical(err)
	}
	if len(resp.Features) == 0 {
		return 0, 0, canonical.New(canonical.NotFound,
			fmt.Sprintf("The geocoding service knows no place called %q.", w.place))
	}
	coords := resp.Features[0].Geometry.Coordinates
	return coords[0], coords[1], nil
}

// Generate implements Source with one retry-wrapped forecast fetch.
func (w *Weather) Generate(ctx context.Context) (page.Node, error) {
	target := *w.forecast
	q := target.Query()
	q.Set("current", "temperature_2m,relative_humidity_2m,weather_code")
	q.Set("daily", "temperature_2m_min,temperature_2m_max,weather_code")
	q.Set("timezone", "auto")
	target.RawQuery = q.Encode()

	weather, err := fetch.Retry(ctx, func() (*models.Weather, error) {
		var out models.Weather
		if err := fetch.GetJSON(ctx, w.client, target.String(), nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}, w.backoff, w.deadline)
	if err != nil {
		w.logger.Error("Forecast fetch failed", zap.String("place", w.place), zap.Error(err))
		return nil, asCanonical(err)
	}

	w.logger.Debug("Forecast fetch completed",
		zap.String("place", w.place),
		zap.Float64("temperature", weather.Current.Temperature))
	if w.detail == DetailFull {
		return w.fullDocument(weather), nil
	}
	return w.minimalDocument(weather), nil
}

func (w *Weather) minimalDocument(weather *models.Weather) page.Node {
	category := weather.Current.WeatherCode.Category()
	return h.Div(h.Class("layout layout--col layout--center"),
		h.Div(weatherIcon(category, "icon--large")),
		h.Div(h.Class("flex flex--row flex--center-x flex--top"),
			measurement(formatTemperature(weather.Current.Temperature), "°C"),
			measurement(fmt.Sprintf("%d", weather.Current.Humidity), "%"),
		),
	)
}

func (w *Weather) fullDocument(weather *models.Weather) page.Node {
	category := weather.Current.WeatherCode.Category()
	// Forecast timestamps arrive in local wall time; stamp the reported
	// offset on rather than converting.
	wall := weather.Current.Time
	localTime := time.Date(wall.Year(), wall.Month(), wall.Day(),
		wall.Hour(), wall.Minute(), 0, 0, weather.Location())
	var window page.Node = g.Text("")
	if min, max, ok := weather.Daily.MinMax(); ok {
		window = h.Div(h.Class("flex flex--row flex--center-x gap--medium"),
			page.TextWithIcon("arrow-down", formatTemperature(min)+"°C"),
			page.TextWithIcon("arrow-up", formatTemperature(max)+"°C"),
		)
	}
	return h.Div(h.Class("layout layout--col layout--center"),
		h.Span(h.Class("label label--small"), g.Text(w.place)),
		h.Div(weatherIcon(category, "icon--large")),
		h.Span(h.Class("description"), g.Text(category.Description())),
		h.Div(h.Class("flex flex--row flex--center-x flex--top"),
			measurement(formatTemperature(weather.Current.Temperature), "°C"),
			measurement(fmt.Sprintf("%d", weather.Current.Humidity), "%"),
		),
		window,
		h.Span(h.Class("label label--small"),
			g.Text(localTime.Format("2006-01-02 15:04")),
		),
	)
}

func measurement(value, unit string) page.Node {
	return h.Div(h.Class("flex flex--col flex--center gap--xsmall"),
		h.Span(h.Class("title px--1"), g.Text(value)),
		h.Span(h.Class("description px--1"), g.Text(unit)),
	)
}

// formatTemperature keeps exactly one decimal place.
func formatTemperature(t float64) string {
	return fmt.Sprintf("%.1f", t)
}

// weatherIcon maps a category onto its iconoir glyph. Total over all
// categories; the unclear catch-all gets the question mark.
func weatherIcon(category models.WeatherCategory, extra string) page.Node {
	var icon string
	switch category {
	case models.CategoryClear:
		icon = "sun-light"
	case models.CategoryMostlyClear:
		icon = "partly-cloudy"
	case models.CategoryPartlyCloudy:
		icon = "partly-cloudy"
	case models.CategoryOvercast:
		icon = "cloud"
	case models.CategoryFog:
		icon = "fog"
	case models.CategoryDrizzleLight, models.CategoryDrizzleModerate, models.CategoryDrizzleDense:
		icon = "rain"
	case models.CategoryRainSlight, models.CategoryRainModerate:
		icon = "rain"
	case models.CategoryRainHeavy:
		icon = "heavy-rain"
	case models.CategoryThunderstorm:
		icon = "thunderstorm"
	default:
		icon = "question-mark"
	}
	return h.Span(h.Class("iconoir-" + icon + " " + extra))
}
