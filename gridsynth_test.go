package tcc

import "testing"

func TestSyntheticGeoGridOrientationAndBounds(t *testing.T) {
	grid := SyntheticGeoGrid(2, 2, 0, 10, 100, 110)

	if grid.Lat.Get(0, 0) <= grid.Lat.Get(1, 0) {
		t.Errorf("expected row 0 to be north of row 1")
	}
	if grid.Lon.Get(0, 0) >= grid.Lon.Get(0, 1) {
		t.Errorf("expected column 0 to be west of column 1")
	}
	if grid.Bounds == nil {
		t.Fatal("expected a populated bounding box")
	}
	if grid.Bounds.Min.X != 100 || grid.Bounds.Max.X != 110 {
		t.Errorf("expected longitude bounds [100,110], got [%v,%v]", grid.Bounds.Min.X, grid.Bounds.Max.X)
	}
	if grid.Bounds.Min.Y != 0 || grid.Bounds.Max.Y != 10 {
		t.Errorf("expected latitude bounds [0,10], got [%v,%v]", grid.Bounds.Min.Y, grid.Bounds.Max.Y)
	}
}

func TestShapeMatches(t *testing.T) {
	a := SyntheticGeoGrid(3, 4, 0, 1, 0, 1).Lat
	b := SyntheticGeoGrid(3, 4, 5, 6, 5, 6).Lat
	c := SyntheticGeoGrid(3, 5, 0, 1, 0, 1).Lat
	if !shapeMatches(a, b) {
		t.Errorf("expected identically-shaped grids to match")
	}
	if shapeMatches(a, c) {
		t.Errorf("expected differently-shaped grids not to match")
	}
	if shapeMatches(nil, b) {
		t.Errorf("expected a nil operand not to match")
	}
}
