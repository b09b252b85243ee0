package config

import "fmt"

// Thresholds holds the numeric weather boundaries consumed by the
// validator pipeline and the condition classifier.
//
// The validator pipeline reads thresholds only through this struct;
// literal temperature or humidity values in checker code are a bug.
type Thresholds struct {
	// Temperature boundaries, degrees Celsius.
	TempHot                float64 // "cold/chilly" forbidden at or above
	TempCold               float64 // "hot/sweltering" forbidden below
	TempHeatstrokeRequired float64 // heat-stroke vocabulary required when warning
	TempHeatstrokeAdvisory float64 // heat-stroke vocabulary accepted
	TempComfortMin         float64 // "extreme cold" forbidden at or above
	TempComfortMax         float64 // "scorching" forbidden at or below

	// Humidity boundaries, percent.
	HumidityHigh float64 // "dry air" advice forbidden at or above
	HumidityLow  float64 // "muggy"/"dehumidify" advice forbidden below

	// Precipitation boundaries, mm/h. Classification rounds up:
	// a value exactly at a boundary takes the heavier class.
	PrecipLight    float64
	PrecipModerate float64
	PrecipHeavy    float64

	// WeatherChange is the cloud-coverage delta (percent) treated as
	// an unstable sky when comparing adjacent forecast samples.
	WeatherChange float64
}

func loadThresholds() Thresholds {
	return Thresholds{
		TempHot:                envFloat("TEMP_HOT", 30),
		TempCold:               envFloat("TEMP_COLD", 12),
		TempHeatstrokeRequired: envFloat("TEMP_HEATSTROKE_REQUIRED", 35),
		TempHeatstrokeAdvisory: envFloat("TEMP_HEATSTROKE_ADVISORY", 34),
		TempComfortMin:         envFloat("TEMP_COMFORT_MIN", 10),
		TempComfortMax:         envFloat("TEMP_COMFORT_MAX", 30),
		HumidityHigh:           envFloat("HUMIDITY_HIGH", 80),
		HumidityLow:            envFloat("HUMIDITY_LOW", 30),
		PrecipLight:            envFloat("PRECIP_LIGHT", 1),
		PrecipModerate:         envFloat("PRECIP_MODERATE", 5),
		PrecipHeavy:            envFloat("PRECIP_HEAVY", 10),
		WeatherChange:          envFloat("WEATHER_CHANGE_THRESHOLD", 30),
	}
}

func (t Thresholds) validate() error {
	checks := []struct {
		ok   bool
		name string
	}{
		{t.TempCold < t.TempHot, "TEMP_COLD < TEMP_HOT"},
		{t.TempHeatstrokeAdvisory <= t.TempHeatstrokeRequired, "TEMP_HEATSTROKE_ADVISORY <= TEMP_HEATSTROKE_REQUIRED"},
		{t.TempComfortMin < t.TempComfortMax, "TEMP_COMFORT_MIN < TEMP_COMFORT_MAX"},
		{t.HumidityLow < t.HumidityHigh, "HUMIDITY_LOW < HUMIDITY_HIGH"},
		{t.HumidityLow >= 0 && t.HumidityHigh <= 100, "humidity thresholds within 0..100"},
		{t.PrecipLight < t.PrecipModerate && t.PrecipModerate < t.PrecipHeavy, "PRECIP_LIGHT < PRECIP_MODERATE < PRECIP_HEAVY"},
		{t.PrecipLight >= 0, "PRECIP_LIGHT >= 0"},
	}
	for _, c := range checks {
		if !c.ok {
			return &Error{Field: "thresholds", Cause: fmt.Errorf("requires %s", c.name)}
		}
	}
	return nil
}

// DefaultThresholds returns the built-in threshold set. Used by tests
// and by callers that do not load a full environment config.
func DefaultThresholds() Thresholds {
	return loadThresholds()
}
