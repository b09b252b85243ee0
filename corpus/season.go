// Package corpus provides the historical comment phrase store backing
// candidate selection.
package corpus

import "time"

// Season classifies the phrase files and the request target time.
type Season string

const (
	Spring      Season = "spring"
	Summer      Season = "summer"
	Autumn      Season = "autumn"
	Winter      Season = "winter"
	RainySeason Season = "rainy_season"
	Typhoon     Season = "typhoon"
)

// Seasons lists every season in file-listing order.
var Seasons = []Season{Spring, Summer, Autumn, Winter, RainySeason, Typhoon}

// jst is the zone seasons are derived in, regardless of the host zone.
var jst = time.FixedZone("JST", 9*60*60)

// SeasonOf derives the season from a target time in JST. June falls in
// the rainy season and September in the typhoon window; both take
// precedence over the plain three-month buckets.
func SeasonOf(t time.Time) Season {
	switch t.In(jst).Month() {
	case time.March, time.April, time.May:
		return Spring
	case time.June:
		return RainySeason
	case time.July, time.August:
		return Summer
	case time.September:
		return Typhoon
	case time.October, time.November:
		return Autumn
	default:
		return Winter
	}
}

// Valid reports whether s names a known season.
func (s Season) Valid() bool {
	for _, known := range Seasons {
		if s == known {
			return true
		}
	}
	return false
}
