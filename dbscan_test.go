package tcc

import "testing"

func TestDBSCANEmptyInput(t *testing.T) {
	if groups := dbscan(nil, 1.5, 5); groups != nil {
		t.Errorf("expected nil groups for empty input, got %v", groups)
	}
}

func TestDBSCANFormsDenseCluster(t *testing.T) {
	// A tight 3x3 block within eps=1.5: the centre has 8 neighbors and
	// each edge midpoint 5, so they are core points for minSamples=5;
	// the corners (3 neighbors each) join as border points, so the whole
	// block is one cluster.
	var points []PixelCoord
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			points = append(points, PixelCoord{Row: r, Col: c})
		}
	}
	groups := dbscan(points, 1.5, 5)
	if len(groups) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(groups))
	}
	if len(groups[0]) != 9 {
		t.Errorf("expected all 9 points clustered, got %d", len(groups[0]))
	}
}

func TestDBSCANTwoSparsePointsAreNoise(t *testing.T) {
	points := []PixelCoord{{Row: 0, Col: 0}, {Row: 50, Col: 50}}
	groups := dbscan(points, 1.5, 5)
	if len(groups) != 0 {
		t.Errorf("expected no clusters from two isolated points below minSamples, got %d", len(groups))
	}
}

func TestDBSCANSeparatesTwoDistantDenseBlocks(t *testing.T) {
	var points []PixelCoord
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			points = append(points, PixelCoord{Row: r, Col: c})
			points = append(points, PixelCoord{Row: r + 100, Col: c + 100})
		}
	}
	groups := dbscan(points, 1.5, 5)
	if len(groups) != 2 {
		t.Fatalf("expected 2 separate clusters, got %d", len(groups))
	}
	for _, g := range groups {
		if len(g) != 9 {
			t.Errorf("expected each cluster to contain 9 points, got %d", len(g))
		}
	}
}

func TestDBSCANBorderPointJoinsButDoesNotExpand(t *testing.T) {
	// A dense 3x3 core block plus one extra point adjacent to a single
	// corner of it: the extra point is a border point (it has a core
	// point as a neighbor) and should join the cluster even though it
	// has too few neighbors of its own to be a core point itself.
	var points []PixelCoord
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			points = append(points, PixelCoord{Row: r, Col: c})
		}
	}
	border := PixelCoord{Row: 3, Col: 2}
	points = append(points, border)

	groups := dbscan(points, 1.5, 5)
	if len(groups) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(groups))
	}
	found := false
	for _, p := range groups[0] {
		if p == border {
			found = true
		}
	}
	if !found {
		t.Errorf("expected border point to be absorbed into the cluster")
	}
	if len(groups[0]) != 10 {
		t.Errorf("expected 10 points total (9 core + 1 border), got %d", len(groups[0]))
	}
}
