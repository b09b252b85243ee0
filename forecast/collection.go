package forecast

import (
	"sort"
	"time"
)

// Collection is an ordered sequence of forecast samples for one
// location, sorted ascending by datetime.
type Collection struct {
	LocationID string            `json:"location_id"`
	Samples    []WeatherForecast `json:"samples"`
}

// NewCollection builds a collection, sorting samples by datetime.
// Samples for other locations are assumed filtered by the caller.
func NewCollection(locationID string, samples []WeatherForecast) Collection {
	cp := make([]WeatherForecast, len(samples))
	copy(cp, samples)
	sort.Slice(cp, func(i, j int) bool { return cp[i].DateTime.Before(cp[j].DateTime) })
	return Collection{LocationID: locationID, Samples: cp}
}

// Len reports the number of samples.
func (c Collection) Len() int { return len(c.Samples) }

// At returns the sample nearest to t. The second return is false for
// an empty collection.
func (c Collection) At(t time.Time) (WeatherForecast, bool) {
	if len(c.Samples) == 0 {
		return WeatherForecast{}, false
	}
	best := c.Samples[0]
	bestDiff := absDuration(best.DateTime.Sub(t))
	for _, s := range c.Samples[1:] {
		d := absDuration(s.DateTime.Sub(t))
		if d < bestDiff {
			best, bestDiff = s, d
		}
	}
	return best, true
}

// Around returns every sample within ±window of t, in time order.
func (c Collection) Around(t time.Time, window time.Duration) []WeatherForecast {
	var out []WeatherForecast
	for _, s := range c.Samples {
		if absDuration(s.DateTime.Sub(t)) <= window {
			out = append(out, s)
		}
	}
	return out
}

// Timeline summarizes the forecast shape around a target time:
// the sample 12 h before, the target sample, and samples at
// +3 h, +6 h, +9 h and +12 h.
type Timeline struct {
	Past    []WeatherForecast `json:"past_forecasts"`
	Target  WeatherForecast   `json:"target"`
	Future  []WeatherForecast `json:"future_forecasts"`
}

// Timeline assembles the past/target/future view used in prompts and
// in the API metadata shape. Offsets with no sample inside a half
// sampling interval are skipped.
func (c Collection) Timeline(t time.Time) (Timeline, bool) {
	target, ok := c.At(t)
	if !ok {
		return Timeline{}, false
	}
	tl := Timeline{Target: target}
	if past, ok := c.near(t.Add(-12 * time.Hour)); ok {
		tl.Past = append(tl.Past, past)
	}
	for _, offset := range []time.Duration{3 * time.Hour, 6 * time.Hour, 9 * time.Hour, 12 * time.Hour} {
		if s, ok := c.near(t.Add(offset)); ok {
			tl.Future = append(tl.Future, s)
		}
	}
	return tl, true
}

// near finds the sample closest to t, requiring it to fall within
// 90 minutes so hourly data does not alias distant samples.
func (c Collection) near(t time.Time) (WeatherForecast, bool) {
	s, ok := c.At(t)
	if !ok {
		return WeatherForecast{}, false
	}
	if absDuration(s.DateTime.Sub(t)) > 90*time.Minute {
		return WeatherForecast{}, false
	}
	return s, true
}

// WithLocationID returns a copy of the collection relabeled for
// another location. Used by the spatial borrow path, which must
// rewrite the location_id on adopted records.
func (c Collection) WithLocationID(id string) Collection {
	out := Collection{LocationID: id, Samples: make([]WeatherForecast, len(c.Samples))}
	for i, s := range c.Samples {
		s.LocationID = id
		out.Samples[i] = s
	}
	return out
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
