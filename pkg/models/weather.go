package models

import (
	"bytes"
	"fmt"
	"time"
)

// Weather is the Open-Meteo forecast response. The API reports times in a
// compact minute-resolution format and the location's UTC offset in seconds.
type Weather struct {
	UTCOffsetSeconds int      `json:"utc_offset_seconds"`
	Current          Forecast `json:"current"`
	Daily            Daily    `json:"daily"`
}

// Location is the fixed zone the forecast's local times are expressed in.
func (w Weather) Location() *time.Location {
	return time.FixedZone("forecast", w.UTCOffsetSeconds)
}

// Forecast is the conditions at one instant.
type Forecast struct {
	Time        MinuteTime  `json:"time"`
	Temperature float64     `json:"temperature_2m"`
	Humidity    int         `json:"relative_humidity_2m"`
	WeatherCode WeatherCode `json:"weather_code"`
}

// Daily carries the per-day forecast arrays; all slices run in parallel.
type Daily struct {
	Time           []string      `json:"time"`
	TemperatureMin []float64     `json:"temperature_2m_min"`
	TemperatureMax []float64     `json:"temperature_2m_max"`
	WeatherCode    []WeatherCode `json:"weather_code"`
}

// MinMax returns the extremes over the whole forecast window. ok is false
// when the window is empty.
func (d Daily) MinMax() (min, max float64, ok bool) {
	if len(d.TemperatureMin) == 0 || len(d.TemperatureMax) == 0 {
		return 0, 0, false
	}
	min, max = d.TemperatureMin[0], d.TemperatureMax[0]
	for _, v := range d.TemperatureMin[1:] {
		if v < min {
			min = v
		}
	}
	for _, v := range d.TemperatureMax[1:] {
		if v > max {
			max = v
		}
	}
	return min, max, true
}

// MinuteTime decodes Open-Meteo's non-standard "YYYY-MM-DDTHH:MM" timestamp.
type MinuteTime struct {
	time.Time
}

const minuteLayout = "2006-01-02T15:04"

func (t *MinuteTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	parsed, err := time.Parse(minuteLayout, string(bytes.Trim(data, `"`)))
	if err != nil {
		return fmt.Errorf("models: invalid forecast timestamp: %w", err)
	}
	t.Time = parsed
	return nil
}

// WeatherCode is the WMO interpretation code reported by Open-Meteo.
type WeatherCode int

// WeatherCategory is the descriptive bucket a weather code falls into.
type WeatherCategory int

const (
	// CategoryUnclear is the catch-all for codes the display has no icon for.
	CategoryUnclear WeatherCategory = iota
	CategoryClear
	CategoryMostlyClear
	CategoryPartlyCloudy
	CategoryOvercast
	CategoryFog
	CategoryDrizzleLight
	CategoryDrizzleModerate
	CategoryDrizzleDense
	CategoryRainSlight
	CategoryRainModerate
	CategoryRainHeavy
	CategoryThunderstorm
)

// Category maps the code into a display category. Total over all inputs:
// undocumented codes land in CategoryUnclear.
func (c WeatherCode) Category() WeatherCategory {
	switch c {
	case 0:
		return CategoryClear
	case 1:
		return CategoryMostlyClear
	case 2:
		return CategoryPartlyCloudy
	case 3:
		return CategoryOvercast
	case 45, 48:
		return CategoryFog
	case 51:
		return CategoryDrizzleLight
	case 53:
		return CategoryDrizzleModerate
	case 55:
		return CategoryDrizzleDense
	case 61:
		return CategoryRainSlight
	case 63:
		return CategoryRainModerate
	case 65:
		return CategoryRainHeavy
	case 95:
		return CategoryThunderstorm
	default:
		return CategoryUnclear
	}
}

// Description is the human-readable name of the category.
func (c WeatherCategory) Description() string {
	switch c {
	case CategoryClear:
		return "Clear"
	case CategoryMostlyClear:
		return "Mostly clear"
	case CategoryPartlyCloudy:
		return "Partly cloudy"
	case CategoryOvercast:
		return "Overcast"
	case CategoryFog:
		return "Fog"
	case CategoryDrizzleLight:
		return "Light drizzle"
	case CategoryDrizzleModerate:
		return "Drizzle"
	case CategoryDrizzleDense:
		return "Dense drizzle"
	case CategoryRainSlight:
		return "Light rain"
	case CategoryRainModerate:
		return "Rain"
	case CategoryRainHeavy:
		return "Heavy rain"
	case CategoryThunderstorm:
		return "Thunderstorm"
	default:
		return "Unclear"
	}
}
