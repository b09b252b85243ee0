package forecast

import (
	"testing"
	"time"

	"github.com/wxcomment/wxcomment-go/config"
)

func TestCondition_Normalized(t *testing.T) {
	if ThinCloud.Normalized() != Cloudy {
		t.Error("thin_cloud must normalize to cloudy, never clear")
	}
	if Clear.Normalized() != Clear {
		t.Error("clear should be unchanged")
	}
	if Rainy.Normalized() != Rainy {
		t.Error("rainy should be unchanged")
	}
}

func TestCondition_Classes(t *testing.T) {
	rainy := []Condition{Rainy, HeavyRain, Thunder, Storm}
	for _, c := range rainy {
		if !c.IsRain() {
			t.Errorf("%s should be a rain class", c)
		}
	}
	if Snow.IsRain() {
		t.Error("snow is not a rain class")
	}
	if !Snow.IsPrecipitating() {
		t.Error("snow precipitates")
	}
	if Cloudy.IsPrecipitating() {
		t.Error("cloudy does not precipitate")
	}
}

func TestClassifyPrecip_BoundaryRoundsUp(t *testing.T) {
	th := config.DefaultThresholds()

	tests := []struct {
		name string
		cond Condition
		mm   float64
		want Condition
	}{
		{"light rain stays rainy", Rainy, 2.0, Rainy},
		{"exactly at heavy boundary counts as heavy", Rainy, th.PrecipHeavy, HeavyRain},
		{"above heavy boundary", Rainy, th.PrecipHeavy + 5, HeavyRain},
		{"just under heavy boundary", Rainy, th.PrecipHeavy - 0.1, Rainy},
		{"thunder keeps its class", Thunder, th.PrecipHeavy + 5, Thunder},
		{"clear unaffected by precip", Clear, 50, Clear},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyPrecip(tt.cond, tt.mm, th); got != tt.want {
				t.Errorf("ClassifyPrecip(%s, %v) = %s, want %s", tt.cond, tt.mm, got, tt.want)
			}
		})
	}
}

func TestWindDirectionFromDegrees(t *testing.T) {
	tests := []struct {
		deg  float64
		want WindDirection
	}{
		{0, "N"}, {360, "N"}, {22.5, "NNE"}, {45, "NE"},
		{90, "E"}, {180, "S"}, {270, "W"}, {348.75, "NNW"},
		{359, "N"}, {-90, "W"},
	}
	for _, tt := range tests {
		if got := WindDirectionFromDegrees(tt.deg); got != tt.want {
			t.Errorf("WindDirectionFromDegrees(%v) = %s, want %s", tt.deg, got, tt.want)
		}
	}
}

func TestWeatherForecast_Validate(t *testing.T) {
	base := WeatherForecast{
		LocationID:   "130010",
		DateTime:     time.Now(),
		Condition:    Clear,
		TemperatureC: 20,
		HumidityPct:  50,
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid sample rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*WeatherForecast)
	}{
		{"temperature too low", func(f *WeatherForecast) { f.TemperatureC = -51 }},
		{"temperature too high", func(f *WeatherForecast) { f.TemperatureC = 61 }},
		{"humidity negative", func(f *WeatherForecast) { f.HumidityPct = -1 }},
		{"humidity above 100", func(f *WeatherForecast) { f.HumidityPct = 101 }},
		{"negative precipitation", func(f *WeatherForecast) { f.PrecipitationMM = -0.1 }},
		{"wind speed out of range", func(f *WeatherForecast) { f.WindSpeedMPS = 201 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := base
			tt.mutate(&f)
			if err := f.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
