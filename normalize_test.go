package tcc

import (
	"testing"

	"github.com/ctessum/sparse"
)

func TestNormalizeClampsToUnitRange(t *testing.T) {
	data := sparse.ZerosDense(1, 3)
	data.Set(150, 0, 0) // below min
	data.Set(250, 0, 1) // midpoint
	data.Set(400, 0, 2) // above max
	field := &BTField{Data: data}

	out := Normalize(field, 180, 320)

	if out.Get(0, 0) != 0 {
		t.Errorf("expected clamp to 0, got %v", out.Get(0, 0))
	}
	if got := out.Get(0, 1); got < 0.49 || got > 0.51 {
		t.Errorf("expected ~0.5 at midpoint, got %v", got)
	}
	if out.Get(0, 2) != 1 {
		t.Errorf("expected clamp to 1, got %v", out.Get(0, 2))
	}
}

func TestDefaultNormalizeUsesStandardBounds(t *testing.T) {
	data := sparse.ZerosDense(1, 1)
	data.Set(180, 0, 0)
	out := DefaultNormalize(&BTField{Data: data})
	if out.Get(0, 0) != 0 {
		t.Errorf("expected 0 at the 180K floor, got %v", out.Get(0, 0))
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	data := sparse.ZerosDense(1, 1)
	data.Set(250, 0, 0)
	field := &BTField{Data: data}
	Normalize(field, 180, 320)
	if field.Data.Get(0, 0) != 250 {
		t.Errorf("expected input field unchanged, got %v", field.Data.Get(0, 0))
	}
}
