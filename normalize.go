package tcc

import "github.com/ctessum/sparse"

// Normalize linearly maps a Kelvin brightness-temperature field to [0,1]
// using the given bounds, clamping values outside the range. It is a
// pure function: the input field is not mutated.
//
// Normalize is idempotent on its codomain only with bounds minK=0,
// maxK=1, under which values already inside [0,1] map to themselves.
// Re-applying the physical bounds to an already-normalized field is not
// idempotent: with the default 180K-320K bounds every value in [0,1]
// lies below minK and clamps to 0.
func Normalize(field *BTField, minK, maxK float64) *sparse.DenseArray {
	out := sparse.ZerosDense(field.Data.Shape...)
	span := maxK - minK
	for i, v := range field.Data.Elements {
		x := (v - minK) / span
		if x < 0 {
			x = 0
		} else if x > 1 {
			x = 1
		}
		out.Elements[i] = x
	}
	return out
}

// DefaultNormalize normalizes using the standard 180K-320K bounds.
func DefaultNormalize(field *BTField) *sparse.DenseArray {
	return Normalize(field, 180, 320)
}
