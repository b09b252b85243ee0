// Package forecast defines the weather data model and the cached
// forecast service that feeds the comment workflow.
package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/wxcomment/wxcomment-go/config"
)

// Condition is the normalized weather condition classification.
type Condition string

const (
	Clear     Condition = "clear"
	Cloudy    Condition = "cloudy"
	ThinCloud Condition = "thin_cloud"
	Rainy     Condition = "rainy"
	HeavyRain Condition = "heavy_rain"
	Thunder   Condition = "thunder"
	Snow      Condition = "snow"
	Sleet     Condition = "sleet"
	Fog       Condition = "fog"
	Storm     Condition = "storm"
	Other     Condition = "other"
)

// Normalized collapses aliases: thin cloud reads as cloudy throughout
// the system, never as clear.
func (c Condition) Normalized() Condition {
	if c == ThinCloud {
		return Cloudy
	}
	return c
}

// IsPrecipitating reports whether the condition carries precipitation.
func (c Condition) IsPrecipitating() bool {
	switch c.Normalized() {
	case Rainy, HeavyRain, Thunder, Snow, Sleet, Storm:
		return true
	}
	return false
}

// IsRain reports whether the condition is a rain class (snow excluded).
func (c Condition) IsRain() bool {
	switch c.Normalized() {
	case Rainy, HeavyRain, Thunder, Storm:
		return true
	}
	return false
}

// ClassifyPrecip refines a condition using the measured precipitation
// rate. Values exactly at a boundary take the heavier class.
func ClassifyPrecip(c Condition, mmPerHour float64, th config.Thresholds) Condition {
	if !c.IsRain() {
		return c.Normalized()
	}
	switch {
	case mmPerHour >= th.PrecipHeavy:
		if c.Normalized() == Thunder || c.Normalized() == Storm {
			return c.Normalized()
		}
		return HeavyRain
	default:
		return c.Normalized()
	}
}

// WindDirection is one of the 16 compass points.
type WindDirection string

var compassPoints = [16]WindDirection{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// WindDirectionFromDegrees maps meteorological degrees (0 = north,
// clockwise) onto the 16-point compass.
func WindDirectionFromDegrees(deg float64) WindDirection {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	idx := int(math.Floor(deg/22.5+0.5)) % 16
	return compassPoints[idx]
}

// WeatherForecast is a single forecast sample for one location and
// datetime. Immutable after construction.
type WeatherForecast struct {
	LocationID      string        `json:"location_id"`
	DateTime        time.Time     `json:"datetime_utc"`
	Condition       Condition     `json:"condition"`
	PrecipitationMM float64       `json:"precipitation_mm"`
	TemperatureC    float64       `json:"temperature_c"`
	FeelsLikeC      float64       `json:"feels_like_c"`
	HumidityPct     float64       `json:"humidity_pct"`
	PressureHPa     float64       `json:"pressure_hpa"`
	WindSpeedMPS    float64       `json:"wind_speed_mps"`
	WindDirection   WindDirection `json:"wind_direction"`
	CloudCoverPct   float64       `json:"cloud_coverage_pct"`
	VisibilityKm    float64       `json:"visibility"`
	UVIndex         float64       `json:"uv_index"`
}

// Validate enforces the physical range invariants.
func (f WeatherForecast) Validate() error {
	if f.TemperatureC < -50 || f.TemperatureC > 60 {
		return fmt.Errorf("temperature %.1f out of range [-50,60]", f.TemperatureC)
	}
	if f.HumidityPct < 0 || f.HumidityPct > 100 {
		return fmt.Errorf("humidity %.1f out of range [0,100]", f.HumidityPct)
	}
	if f.PrecipitationMM < 0 {
		return fmt.Errorf("precipitation %.1f negative", f.PrecipitationMM)
	}
	if f.WindSpeedMPS < 0 || f.WindSpeedMPS > 200 {
		return fmt.Errorf("wind speed %.1f out of range [0,200]", f.WindSpeedMPS)
	}
	return nil
}
