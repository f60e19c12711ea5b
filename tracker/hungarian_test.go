package tracker

import "testing"

func TestHungarianAssignEmpty(t *testing.T) {
	result := hungarianAssign(nil)
	if result != nil {
		t.Errorf("expected nil for empty cost matrix, got %v", result)
	}
}

func TestHungarianAssignSingleElement(t *testing.T) {
	cost := [][]float64{{5.0}}
	result := hungarianAssign(cost)
	if len(result) != 1 || result[0] != 0 {
		t.Errorf("expected [0], got %v", result)
	}
}

func TestHungarianAssignSquareOptimal(t *testing.T) {
	// Optimal assignment: row0->col0 (1), row1->col1 (4), row2->col2 (5) = 10
	cost := [][]float64{
		{1, 2, 3},
		{4, 4, 6},
		{9, 8, 5},
	}
	result := hungarianAssign(cost)
	if len(result) != 3 {
		t.Fatalf("expected 3 assignments, got %d", len(result))
	}

	var total float64
	for i, j := range result {
		if j < 0 {
			t.Fatalf("row %d unassigned", i)
		}
		total += cost[i][j]
	}
	if total != 10 {
		t.Errorf("expected optimal total cost 10, got %v", total)
	}
}

func TestHungarianAssignRejectsForbidden(t *testing.T) {
	cost := [][]float64{
		{1, hungarianInf},
		{hungarianInf, 1},
	}
	result := hungarianAssign(cost)
	if result[0] != 0 || result[1] != 1 {
		t.Errorf("expected diagonal assignment, got %v", result)
	}
}

func TestHungarianAssignRectangular(t *testing.T) {
	cost := [][]float64{
		{1, 2, 3},
	}
	result := hungarianAssign(cost)
	if len(result) != 1 || result[0] != 0 {
		t.Errorf("expected row assigned to cheapest column, got %v", result)
	}
}
