// Package spatial provides a small in-memory nearest-neighbor index
// over registered location coordinates.
//
// The index is built once at startup and read-only thereafter, so
// lookups need no locking. A linear Haversine scan is acceptable for
// the O(10^3) points this system manages.
package spatial

import (
	"math"
	"sort"
)

const earthRadiusKm = 6371.0

// Point is a registered coordinate.
type Point struct {
	ID        string
	Latitude  float64
	Longitude float64
}

// Neighbor is a query result: a registered point and its great-circle
// distance from the query coordinate.
type Neighbor struct {
	Point
	DistanceKm float64
}

// Index answers "nearest K within R km" queries.
type Index struct {
	points []Point
}

// NewIndex builds an index over the given points.
func NewIndex(points []Point) *Index {
	cp := make([]Point, len(points))
	copy(cp, points)
	return &Index{points: cp}
}

// Len reports the number of indexed points.
func (ix *Index) Len() int { return len(ix.points) }

// Nearest returns up to k points within radiusKm of (lat, lon),
// ordered by ascending distance. A point exactly at the query
// coordinate is included with distance zero.
func (ix *Index) Nearest(lat, lon float64, k int, radiusKm float64) []Neighbor {
	if k <= 0 || radiusKm <= 0 {
		return nil
	}
	var found []Neighbor
	for _, p := range ix.points {
		d := Haversine(lat, lon, p.Latitude, p.Longitude)
		if d <= radiusKm {
			found = append(found, Neighbor{Point: p, DistanceKm: d})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].DistanceKm < found[j].DistanceKm })
	if len(found) > k {
		found = found[:k]
	}
	return found
}

// Haversine computes the great-circle distance in kilometers between
// two coordinates.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
