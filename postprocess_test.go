package tcc

import (
	"math"
	"testing"

	"github.com/ctessum/sparse"
)

// buildSquareClusterScene constructs the "single square cluster" scenario:
// a size x size BTField with a block x block pixel block at blockBT
// surrounded by backgroundBT, with a synthetic geographic grid.
func buildSquareClusterScene(size, block int, blockBT, backgroundBT float64) (*BTField, *GeoGrid, *ProbMap) {
	bt := sparse.ZerosDense(size, size)
	prob := sparse.ZerosDense(size, size)
	offset := (size - block) / 2
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			inBlock := r >= offset && r < offset+block && c >= offset && c < offset+block
			if inBlock {
				bt.Set(blockBT, r, c)
				prob.Set(1, r, c)
			} else {
				bt.Set(backgroundBT, r, c)
				prob.Set(0, r, c)
			}
		}
	}
	grid := SyntheticGeoGrid(size, size, 0, 30, 60, 100)
	return &BTField{Data: bt}, grid, &ProbMap{Data: prob}
}

func TestPostProcessorSingleSquareCluster(t *testing.T) {
	bt, grid, prob := buildSquareClusterScene(512, 60, 200, 290)

	cfg := DefaultConfig()
	cfg.ProbThreshold = 0.0 // forces any nonzero probability to foreground

	pp := NewPostProcessor(cfg)
	mask, clusters := pp.Derive(prob, bt, grid)

	if len(clusters) != 1 {
		t.Fatalf("expected exactly one cluster, got %d", len(clusters))
	}
	c := clusters[0]

	if c.PixelCount != 3600 {
		t.Errorf("expected pixel_count=3600, got %d", c.PixelCount)
	}
	if c.AreaKM2 != 57600 {
		t.Errorf("expected area_km2=57600, got %v", c.AreaKM2)
	}
	if math.Abs(c.RadiusKM-135.4) > 1.0 {
		t.Errorf("expected radius ~135.4km, got %v", c.RadiusKM)
	}
	if c.Intensity != "strong" {
		t.Errorf("expected intensity 'strong' (min BT 200), got %q", c.Intensity)
	}
	if c.Classification != "Confirmed TCC" {
		t.Errorf("expected classification 'Confirmed TCC' (min BT < 220), got %q", c.Classification)
	}

	wantCentroid := float64(512) / 2
	if math.Abs(c.CentroidPixelRow-wantCentroid) > 1 || math.Abs(c.CentroidPixelCol-wantCentroid) > 1 {
		t.Errorf("expected centroid near block centre (%v,%v), got (%v,%v)", wantCentroid, wantCentroid, c.CentroidPixelRow, c.CentroidPixelCol)
	}

	maskCount := 0
	for _, v := range mask.Pixels {
		if v != 0 {
			maskCount++
		}
	}
	if maskCount != c.PixelCount {
		t.Errorf("expected mask pixel count to equal cluster pixel count, got %d vs %d", maskCount, c.PixelCount)
	}
}

func TestPostProcessorEmptyResultIsLegitimate(t *testing.T) {
	bt, grid, prob := buildSquareClusterScene(64, 0, 290, 290)
	cfg := DefaultConfig()
	pp := NewPostProcessor(cfg)
	mask, clusters := pp.Derive(prob, bt, grid)
	if len(clusters) != 0 {
		t.Errorf("expected no clusters for an all-background scene, got %d", len(clusters))
	}
	for _, v := range mask.Pixels {
		if v != 0 {
			t.Fatalf("expected an all-zero mask")
		}
	}
}

func TestPostProcessorDropsSmallComponents(t *testing.T) {
	bt, grid, prob := buildSquareClusterScene(64, 2, 200, 290) // area well under the 34800km2 floor
	cfg := DefaultConfig()
	cfg.ProbThreshold = 0.0
	pp := NewPostProcessor(cfg)
	_, clusters := pp.Derive(prob, bt, grid)
	if len(clusters) != 0 {
		t.Errorf("expected the small component to be dropped by the area filter, got %d clusters", len(clusters))
	}
}

func TestClassifyIntensityThresholds(t *testing.T) {
	cases := []struct {
		bt   float64
		want string
	}{
		{185, "extreme"},
		{195, "strong"},
		{205, "moderate"},
		{215, "weak"},
		{225, "none"},
	}
	for _, tc := range cases {
		if got := classifyIntensity(tc.bt); got != tc.want {
			t.Errorf("classifyIntensity(%v) = %q, want %q", tc.bt, got, tc.want)
		}
	}
}

func TestCloudTopHeightClampsAtAnchors(t *testing.T) {
	if h := cloudTopHeightKM(310); h != 0 {
		t.Errorf("expected 0km above the surface anchor, got %v", h)
	}
	if h := cloudTopHeightKM(180); h != 16 {
		t.Errorf("expected 16km at/below the tropopause anchor, got %v", h)
	}
	mid := cloudTopHeightKM(245) // halfway between 300 and 190
	if math.Abs(mid-8) > 0.01 {
		t.Errorf("expected ~8km at the midpoint, got %v", mid)
	}
}
