package validator

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/wxcomment/wxcomment-go/config"
	"github.com/wxcomment/wxcomment-go/forecast"
)

// MaxLineLength is the per-line character budget, in runes.
const MaxLineLength = 15

// WeatherConditionChecker rejects comments that contradict the
// forecast condition.
type WeatherConditionChecker struct{}

func (c *WeatherConditionChecker) Name() string { return "weather_condition" }

func (c *WeatherConditionChecker) Check(in Input) (bool, string) {
	both := in.Weather + " " + in.Advice
	cond := in.Forecast.Condition.Normalized()

	switch {
	case cond.IsPrecipitating():
		if w, hit := containsAny(both, rainForbidden); hit {
			return false, fmt.Sprintf("forecast is %s but comment says %q", cond, w)
		}
		if cond == forecast.HeavyRain || cond == forecast.Storm {
			if w, hit := containsAny(both, heavyRainForbidden); hit {
				return false, fmt.Sprintf("heavy rain forecast but comment downplays it with %q", w)
			}
		}
		if cond.IsRain() {
			if _, hit := containsAny(in.Advice, rainAdviceRequired); !hit {
				return false, "rain forecast but advice carries no rain guidance"
			}
		}
	case cond == forecast.Clear:
		if w, hit := containsAny(both, clearForbidden); hit {
			return false, fmt.Sprintf("clear forecast but comment says %q", w)
		}
	case cond == forecast.Cloudy:
		if w, hit := containsAny(both, cloudyForbidden); hit {
			return false, fmt.Sprintf("cloudy forecast but comment says %q", w)
		}
		if in.Stable {
			if w, hit := containsAny(both, stableCloudyForbidden); hit {
				return false, fmt.Sprintf("stable cloudy forecast but comment says %q", w)
			}
		}
	}
	return true, ""
}

// TemperatureConditionChecker rejects phrasing that contradicts the
// forecast temperature. Boundaries come from config.Thresholds only.
type TemperatureConditionChecker struct {
	Thresholds config.Thresholds
}

func (c *TemperatureConditionChecker) Name() string { return "temperature_condition" }

func (c *TemperatureConditionChecker) Check(in Input) (bool, string) {
	t := in.Forecast.TemperatureC
	th := c.Thresholds
	both := in.Weather + " " + in.Advice

	if t >= th.TempHot {
		if w, hit := containsAny(both, coldVocab); hit {
			return false, fmt.Sprintf("%.0f°C forecast but comment says %q", t, w)
		}
	}
	if t < th.TempCold {
		if w, hit := containsAny(both, hotVocab); hit {
			return false, fmt.Sprintf("%.0f°C forecast but comment says %q", t, w)
		}
	}
	if t >= th.TempComfortMin && t <= th.TempComfortMax {
		if w, hit := containsAny(both, extremeVocab); hit {
			return false, fmt.Sprintf("mild %.0f°C forecast but comment says %q", t, w)
		}
	}

	// Heat-stroke vocabulary requirements escalate with temperature:
	// at the advisory boundary a warning-toned advice line must name
	// heat stroke; at the required boundary any warning phrasing in
	// either line must.
	switch {
	case t >= th.TempHeatstrokeRequired:
		_, warns := containsAny(both, warningVocab)
		_, named := containsAny(both, heatstrokeVocab)
		if warns && !named {
			return false, fmt.Sprintf("%.0f°C forecast warns without heat-stroke vocabulary", t)
		}
	case t >= th.TempHeatstrokeAdvisory:
		_, warns := containsAny(in.Advice, warningVocab)
		_, named := containsAny(in.Advice, heatstrokeVocab)
		if warns && !named {
			return false, fmt.Sprintf("%.0f°C advisory warning lacks heat-stroke vocabulary", t)
		}
	}
	return true, ""
}

// HumidityChecker rejects advice that contradicts the humidity band.
type HumidityChecker struct {
	Thresholds config.Thresholds
}

func (c *HumidityChecker) Name() string { return "humidity" }

func (c *HumidityChecker) Check(in Input) (bool, string) {
	h := in.Forecast.HumidityPct
	th := c.Thresholds
	if h >= th.HumidityHigh {
		if w, hit := containsAny(in.Advice, dryAirVocab); hit {
			return false, fmt.Sprintf("%.0f%% humidity but advice says %q", h, w)
		}
	}
	if h < th.HumidityLow {
		if w, hit := containsAny(in.Advice, humidVocab); hit {
			return false, fmt.Sprintf("%.0f%% humidity but advice says %q", h, w)
		}
	}
	return true, ""
}

// RegionalChecker rejects climate phrasing impossible for the
// location's prefecture.
type RegionalChecker struct{}

func (c *RegionalChecker) Name() string { return "regional" }

func (c *RegionalChecker) Check(in Input) (bool, string) {
	pref := in.Location.Prefecture
	both := in.Weather + " " + in.Advice
	if strings.Contains(pref, "沖縄") || strings.EqualFold(pref, "Okinawa") {
		if w, hit := containsAny(both, snowVocab); hit {
			return false, fmt.Sprintf("Okinawa comment mentions %q", w)
		}
	}
	if strings.Contains(pref, "北海道") || strings.EqualFold(pref, "Hokkaido") {
		if w, hit := containsAny(both, tropicVocab); hit {
			return false, fmt.Sprintf("Hokkaido comment mentions %q", w)
		}
	}
	return true, ""
}

// SeasonalChecker rejects pollen phrasing outside the spring pollen
// window, and on any rainy day regardless of month.
type SeasonalChecker struct{}

func (c *SeasonalChecker) Name() string { return "seasonal" }

func (c *SeasonalChecker) Check(in Input) (bool, string) {
	both := in.Weather + " " + in.Advice
	w, hasPollen := containsAny(both, pollenVocab)
	if !hasPollen {
		return true, ""
	}
	if in.Forecast.Condition.Normalized().IsPrecipitating() {
		return false, fmt.Sprintf("rainy forecast but comment mentions %q", w)
	}
	m := in.Target.Month()
	if m >= time.June || m == time.January {
		return false, fmt.Sprintf("%s comment mentions %q outside pollen season", m, w)
	}
	return true, ""
}

var winterProtectVocab = []string{"防寒", "冷え対策", "厚着", "bundle up", "wrap up warm"}

// ConsistencyChecker runs pairwise rules across the two lines.
type ConsistencyChecker struct {
	Thresholds config.Thresholds
}

func (c *ConsistencyChecker) Name() string { return "consistency" }

func (c *ConsistencyChecker) Check(in Input) (bool, string) {
	// (a) weather-reality contradiction.
	if _, sunny := containsAny(in.Weather, sunnyVocab); sunny {
		if w, hit := containsAny(in.Advice, []string{"傘", "雨具", "umbrella", "rain gear"}); hit {
			return false, fmt.Sprintf("weather line reads sunny but advice says %q", w)
		}
	}

	// (b) temperature-symptom contradiction.
	_, saysCold := containsAny(in.Weather, coldVocab)
	_, saysHot := containsAny(in.Weather, hotVocab)
	if saysCold {
		if w, hit := containsAny(in.Advice, heatstrokeVocab); hit {
			return false, fmt.Sprintf("cold weather line paired with %q advice", w)
		}
	}
	if saysHot {
		if w, hit := containsAny(in.Advice, winterProtectVocab); hit {
			return false, fmt.Sprintf("hot weather line paired with %q advice", w)
		}
	}

	// (c) tone opposition.
	_, warnsW := containsAny(in.Weather, warningVocab)
	_, warnsA := containsAny(in.Advice, warningVocab)
	_, relaxW := containsAny(in.Weather, relaxVocab)
	_, relaxA := containsAny(in.Advice, relaxVocab)
	if (warnsW && relaxA) || (warnsA && relaxW) {
		return false, "warning tone in one line, relaxed tone in the other"
	}

	// (d) umbrella redundancy.
	_, umbW := containsAny(in.Weather, umbrellaWord)
	_, umbA := containsAny(in.Advice, umbrellaWord)
	if umbW && umbA {
		return false, "both lines mention an umbrella"
	}

	// (e) time-of-day vs phrasing.
	both := in.Weather + " " + in.Advice
	hour := in.Target.Hour()
	if hour >= 5 && hour < 12 {
		if w, hit := containsAny(both, nightVocab); hit {
			return false, fmt.Sprintf("morning target but comment says %q", w)
		}
	}
	if hour >= 18 {
		if w, hit := containsAny(both, morningVocab); hit {
			return false, fmt.Sprintf("evening target but comment says %q", w)
		}
	}
	return true, ""
}

// LengthAndBannedWordChecker enforces the per-line length budget and
// the global NG-word screen. StylisticRules adds the softer style
// bans strict mode carries.
type LengthAndBannedWordChecker struct {
	StylisticRules bool
}

func (c *LengthAndBannedWordChecker) Name() string { return "length_and_banned_word" }

func (c *LengthAndBannedWordChecker) Check(in Input) (bool, string) {
	for _, line := range []struct{ label, text string }{
		{"weather", in.Weather},
		{"advice", in.Advice},
	} {
		trimmed := strings.TrimSpace(line.text)
		if trimmed == "" {
			return false, fmt.Sprintf("%s line is empty", line.label)
		}
		if n := utf8.RuneCountInString(trimmed); n > MaxLineLength {
			return false, fmt.Sprintf("%s line is %d characters, limit %d", line.label, n, MaxLineLength)
		}
		if w, hit := containsAny(trimmed, ngWords); hit {
			return false, fmt.Sprintf("%s line contains banned word %q", line.label, w)
		}
		if c.StylisticRules {
			if w, hit := containsAny(trimmed, stylisticBanned); hit {
				return false, fmt.Sprintf("%s line contains banned pattern %q", line.label, w)
			}
		}
	}
	return true, ""
}
