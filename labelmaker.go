package tcc

import (
	"math"
	"sort"
)

// The DBSCAN radius and minimum sample count are read from
// Config.DBSCANEpsPixels and Config.DBSCANMinSamples so deployments
// can tune the offline label-maker the same way they tune the
// post-processor.

// LabelMaker implements the offline branch used to build training
// labels directly from brightness temperature, independent of any
// learned segmenter.
type LabelMaker struct {
	cfg Config
}

// NewLabelMaker constructs a LabelMaker bound to cfg.
func NewLabelMaker(cfg Config) *LabelMaker {
	return &LabelMaker{cfg: cfg}
}

// Label runs the threshold -> DBSCAN -> area/radius filter -> minimum
// separation pipeline and rasterises the survivors.
func (l *LabelMaker) Label(bt *BTField, grid *GeoGrid) *Mask {
	mask, _ := l.labelWithClusters(bt, grid)
	return mask
}

// labelWithClusters is the same pipeline exposing the surviving
// clusters, kept unexported since the documented contract returns only
// the Mask; useful for tests that need to assert on intermediate
// cluster state.
func (l *LabelMaker) labelWithClusters(bt *BTField, grid *GeoGrid) (*Mask, []Cluster) {
	rows, cols := bt.Data.Shape[0], bt.Data.Shape[1]

	var points []PixelCoord
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if bt.Data.Get(r, c) < l.cfg.BTThresholdK {
				points = append(points, PixelCoord{Row: r, Col: c})
			}
		}
	}

	groups := dbscan(points, l.cfg.DBSCANEpsPixels, l.cfg.DBSCANMinSamples)

	type candidate struct {
		cluster Cluster
	}
	var candidates []candidate
	for _, g := range groups {
		area := float64(len(g)) * l.cfg.PixelAreaKM2
		radius := math.Sqrt(area / math.Pi)
		if area < l.cfg.MinAreaKM2 || radius < l.cfg.MinRadiusKM {
			continue
		}
		c := extractFeatures(0, g, bt, grid, l.cfg)
		candidates = append(candidates, candidate{cluster: c})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].cluster.AreaKM2 > candidates[j].cluster.AreaKM2
	})

	var accepted []Cluster
	for _, cand := range candidates {
		c := cand.cluster
		tooClose := false
		for _, a := range accepted {
			if haversineKM(c.CentroidLat, c.CentroidLon, a.CentroidLat, a.CentroidLon) < l.cfg.MinCentroidSeparationKM {
				tooClose = true
				break
			}
		}
		if !tooClose {
			accepted = append(accepted, c)
		}
	}

	for i := range accepted {
		accepted[i].ID = i + 1
	}

	mask := NewMask(rows, cols)
	for _, c := range accepted {
		for _, px := range c.Pixels {
			mask.Set(px.Row, px.Col, 1)
		}
	}
	return mask, accepted
}
