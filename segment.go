package tcc

import (
	"math"

	"github.com/ctessum/sparse"
)

// nativeInputSize is the fixed tile resolution the segmenter's frozen
// network operates at.
const nativeInputSize = 512

// Model is the frozen segmentation network's contract: map a single
// channel 512x512 normalized tile to 512x512 output (either
// probabilities already in [0,1], or logits; Segmenter applies the
// logistic transfer only when LogitsOutput is true).
//
// The network's internals (weights, hardware backend, framework) are
// out of scope; this interface is the seam the rest of the pipeline
// treats as a black box, so alternative backends can be swapped in
// behind it without touching any calling code.
type Model interface {
	Predict(tile *sparse.DenseArray) (*sparse.DenseArray, error)
	// LogitsOutput reports whether Predict's output needs a logistic
	// transfer to become a probability.
	LogitsOutput() bool
}

// Segmenter wraps a Model with the resampling needed to run it at its
// fixed native resolution and return a probability map at the input's
// original shape.
type Segmenter struct {
	model Model
}

// NewSegmenter constructs a Segmenter around a loaded Model.
func NewSegmenter(model Model) *Segmenter {
	return &Segmenter{model: model}
}

// Infer resamples the normalized field to the network's native
// resolution, runs the model, applies the logistic transfer if needed,
// and resamples the result back to the input's native shape.
func (s *Segmenter) Infer(normalized *sparse.DenseArray) (*ProbMap, error) {
	if s.model == nil {
		return nil, &ModelError{Reason: "weights_missing"}
	}
	rows, cols := normalized.Shape[0], normalized.Shape[1]

	tile := bilinearResize(normalized, nativeInputSize, nativeInputSize)
	out, err := s.model.Predict(tile)
	if err != nil {
		return nil, &ModelError{Reason: "shape_incompatible", Err: err}
	}
	if out.Shape[0] != nativeInputSize || out.Shape[1] != nativeInputSize {
		return nil, &ModelError{Reason: "shape_incompatible"}
	}
	if s.model.LogitsOutput() {
		applySigmoid(out)
	}

	prob := bilinearResize(out, rows, cols)
	clamp01(prob)
	return &ProbMap{Data: prob}, nil
}

func applySigmoid(a *sparse.DenseArray) {
	for i, v := range a.Elements {
		a.Elements[i] = 1.0 / (1.0 + math.Exp(-v))
	}
}

func clamp01(a *sparse.DenseArray) {
	for i, v := range a.Elements {
		if v < 0 {
			a.Elements[i] = 0
		} else if v > 1 {
			a.Elements[i] = 1
		}
	}
}

// bilinearResize resamples a 2-D dense array to (outRows, outCols)
// using bilinear interpolation, preserving row/column orientation.
func bilinearResize(src *sparse.DenseArray, outRows, outCols int) *sparse.DenseArray {
	inRows, inCols := src.Shape[0], src.Shape[1]
	dst := sparse.ZerosDense(outRows, outCols)

	if inRows == outRows && inCols == outCols {
		copy(dst.Elements, src.Elements)
		return dst
	}

	rowScale := float64(inRows) / float64(outRows)
	colScale := float64(inCols) / float64(outCols)

	for r := 0; r < outRows; r++ {
		srcR := (float64(r)+0.5)*rowScale - 0.5
		r0 := int(math.Floor(srcR))
		r1 := r0 + 1
		fr := srcR - float64(r0)
		r0 = clampInt(r0, 0, inRows-1)
		r1 = clampInt(r1, 0, inRows-1)

		for c := 0; c < outCols; c++ {
			srcC := (float64(c)+0.5)*colScale - 0.5
			c0 := int(math.Floor(srcC))
			c1 := c0 + 1
			fc := srcC - float64(c0)
			c0 = clampInt(c0, 0, inCols-1)
			c1 = clampInt(c1, 0, inCols-1)

			v00 := src.Get(r0, c0)
			v01 := src.Get(r0, c1)
			v10 := src.Get(r1, c0)
			v11 := src.Get(r1, c1)

			top := v00*(1-fc) + v01*fc
			bottom := v10*(1-fc) + v11*fc
			dst.Set(top*(1-fr)+bottom*fr, r, c)
		}
	}
	return dst
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// StubModel is a Model implementation useful for tests and for callers
// that have not wired a real inference backend: it returns its input
// unchanged (treated as already being a probability, not logits).
type StubModel struct{}

// Predict implements Model.
func (StubModel) Predict(tile *sparse.DenseArray) (*sparse.DenseArray, error) {
	out := sparse.ZerosDense(tile.Shape...)
	copy(out.Elements, tile.Elements)
	return out, nil
}

// LogitsOutput implements Model.
func (StubModel) LogitsOutput() bool { return false }
