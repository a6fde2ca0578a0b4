package spatial

import (
	"math"

	"github.com/mmcloughlin/geohash"
)

// StoragePrecision is the geohash length persisted alongside every place (~5m cells)
const StoragePrecision = 9

const metersPerDegree = EarthRadiusMeters * math.Pi / 180

// EncodeGeohash encodes a coordinate at StoragePrecision
func EncodeGeohash(lat, lon float64) string {
	return geohash.EncodeWithPrecision(lat, lon, StoragePrecision)
}

// CellSize returns the approximate height and width in meters of a geohash cell of the
// given precision at latitude lat
func CellSize(precision uint, lat float64) (height, width float64) {
	bits := 5 * precision
	lonBits := (bits + 1) / 2
	latBits := bits / 2

	height = 180 / math.Pow(2, float64(latBits)) * metersPerDegree
	width = 360 / math.Pow(2, float64(lonBits)) * metersPerDegree * math.Cos(lat*math.Pi/180)
	return height, width
}

// CoveringPrecision returns the longest geohash precision whose cells are at least radius
// meters high and wide at latitude lat. A cell of that precision plus its 8 neighbours
// contains every point within radius of any coordinate inside the cell.
func CoveringPrecision(lat, radius float64) uint {
	for p := uint(StoragePrecision); p > 1; p-- {
		h, w := CellSize(p, lat)
		if h >= radius && w >= radius {
			return p
		}
	}
	return 1
}

// CoveringCells returns the geohash prefixes (center cell first, then neighbours) whose union
// covers the circle of radius meters around (lat, lon). It returns nil when the circle reaches a
// pole or the antimeridian, where neighbouring cells do not cover it; callers then have to scan.
func CoveringCells(lat, lon, radius float64) []string {
	if math.Abs(lat)+radius/metersPerDegree >= 90 {
		return nil
	}
	if math.Abs(lon)+radius/(metersPerDegree*math.Cos(lat*math.Pi/180)) >= 180 {
		return nil
	}

	precision := CoveringPrecision(lat, radius)
	center := geohash.EncodeWithPrecision(lat, lon, precision)

	cells := []string{center}
	seen := map[string]bool{center: true}
	for _, n := range geohash.Neighbors(center) {
		if !seen[n] {
			seen[n] = true
			cells = append(cells, n)
		}
	}
	return cells
}
