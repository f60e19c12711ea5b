package tcc

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/ctessum/sparse"
)

// weightsVersion is checked on load so a weights file built for an
// incompatible model shape is rejected with a clear error instead of
// silently producing garbage predictions.
const weightsVersion = "tcc-weights-v1"

// GobModel is a Model backed by a frozen, gob-encoded per-pixel weight
// and bias map at the network's native 512x512 resolution: its
// Predict multiplies the input element-wise by the weight map, adds
// the bias map, and reports LogitsOutput=true so Segmenter applies the
// sigmoid transfer. It stands in for the frozen U-Net-style
// encoder-decoder the segmenter contract names; the network's actual
// architecture and training are out of scope.
type GobModel struct {
	Version string
	Weight  *sparse.DenseArray
	Bias    *sparse.DenseArray
}

// Predict implements Model.
func (m *GobModel) Predict(tile *sparse.DenseArray) (*sparse.DenseArray, error) {
	if !shapeMatches(tile, m.Weight) {
		return nil, fmt.Errorf("tcc: weights shape %v incompatible with input shape %v", m.Weight.Shape, tile.Shape)
	}
	out := sparse.ZerosDense(tile.Shape...)
	for i, v := range tile.Elements {
		out.Elements[i] = v*m.Weight.Elements[i] + m.Bias.Elements[i]
	}
	return out, nil
}

// LogitsOutput implements Model.
func (m *GobModel) LogitsOutput() bool { return true }

// SaveWeights gob-encodes m to w.
func SaveWeights(w io.Writer, m *GobModel) error {
	m.Version = weightsVersion
	enc := gob.NewEncoder(w)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("tcc: saving weights: %v", err)
	}
	return nil
}

// LoadWeights decodes a GobModel previously written by SaveWeights,
// rejecting a file whose version does not match what this build of the
// segmenter expects.
func LoadWeights(r io.Reader) (*GobModel, error) {
	dec := gob.NewDecoder(r)
	var m GobModel
	if err := dec.Decode(&m); err != nil {
		return nil, &ModelError{Reason: "weights_missing", Err: err}
	}
	if m.Version != weightsVersion {
		return nil, &ModelError{Reason: "shape_incompatible", Err: fmt.Errorf("weights version %q incompatible with %q", m.Version, weightsVersion)}
	}
	if m.Weight == nil || m.Bias == nil || m.Weight.Shape[0] != nativeInputSize || m.Weight.Shape[1] != nativeInputSize {
		return nil, &ModelError{Reason: "shape_incompatible"}
	}
	return &m, nil
}
