package tcc

import (
	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
)

// SyntheticGeoGrid builds a rectilinear (lat, lon) grid of the given
// shape covering [latMin,latMax] x [lonMin,lonMax], with row 0 at the
// north edge and column 0 at the west edge.
func SyntheticGeoGrid(rows, cols int, latMin, latMax, lonMin, lonMax float64) *GeoGrid {
	lat := sparse.ZerosDense(rows, cols)
	lon := sparse.ZerosDense(rows, cols)

	dLat := (latMax - latMin) / float64(rows)
	dLon := (lonMax - lonMin) / float64(cols)

	for r := 0; r < rows; r++ {
		// Row 0 is the north edge: latitude decreases as row increases.
		latVal := latMax - (float64(r)+0.5)*dLat
		for c := 0; c < cols; c++ {
			lonVal := lonMin + (float64(c)+0.5)*dLon
			lat.Set(latVal, r, c)
			lon.Set(lonVal, r, c)
		}
	}
	bounds := geom.NewBounds()
	bounds.Extend(geom.NewPoint(lonMin, latMin).Bounds())
	bounds.Extend(geom.NewPoint(lonMax, latMax).Bounds())

	return &GeoGrid{Lat: lat, Lon: lon, Synthetic: true, Bounds: bounds}
}

// DefaultSyntheticGeoGrid builds a synthetic grid over the default
// bounding region (0-30 degN, 60-100 degE).
func DefaultSyntheticGeoGrid(rows, cols int, cfg Config) *GeoGrid {
	return SyntheticGeoGrid(rows, cols, cfg.DefaultLatMin, cfg.DefaultLatMax, cfg.DefaultLonMin, cfg.DefaultLonMax)
}

// shapeMatches reports whether a and b describe grids of identical
// dimensions.
func shapeMatches(a, b *sparse.DenseArray) bool {
	if a == nil || b == nil {
		return false
	}
	if len(a.Shape) != len(b.Shape) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	return true
}
