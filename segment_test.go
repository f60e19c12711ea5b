package tcc

import (
	"errors"
	"testing"

	"github.com/ctessum/sparse"
)

func TestSegmenterStubModelIdentityAtNativeSize(t *testing.T) {
	in := sparse.ZerosDense(nativeInputSize, nativeInputSize)
	in.Set(0.75, 10, 10)

	seg := NewSegmenter(StubModel{})
	out, err := seg.Infer(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.Data.Get(10, 10); got < 0.74 || got > 0.76 {
		t.Errorf("expected passthrough value ~0.75, got %v", got)
	}
}

func TestSegmenterResizesNonNativeInputBackToOriginalShape(t *testing.T) {
	in := sparse.ZerosDense(64, 64)
	in.Set(1, 32, 32)

	seg := NewSegmenter(StubModel{})
	out, err := seg.Infer(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Data.Shape[0] != 64 || out.Data.Shape[1] != 64 {
		t.Fatalf("expected output resized back to the 64x64 input shape, got %v", out.Data.Shape)
	}
}

func TestSegmenterNilModelReturnsModelError(t *testing.T) {
	seg := NewSegmenter(nil)
	_, err := seg.Infer(sparse.ZerosDense(8, 8))
	if err == nil {
		t.Fatal("expected an error for a nil model")
	}
	var modelErr *ModelError
	if !errors.As(err, &modelErr) {
		t.Fatalf("expected *ModelError, got %T", err)
	}
	if modelErr.Reason != "weights_missing" {
		t.Errorf("expected reason weights_missing, got %q", modelErr.Reason)
	}
}

type shapeMismatchModel struct{}

func (shapeMismatchModel) Predict(tile *sparse.DenseArray) (*sparse.DenseArray, error) {
	return sparse.ZerosDense(nativeInputSize-1, nativeInputSize), nil
}
func (shapeMismatchModel) LogitsOutput() bool { return false }

func TestSegmenterRejectsWrongShapedModelOutput(t *testing.T) {
	seg := NewSegmenter(shapeMismatchModel{})
	_, err := seg.Infer(sparse.ZerosDense(nativeInputSize, nativeInputSize))
	if err == nil {
		t.Fatal("expected an error for a malformed model output shape")
	}
	var modelErr *ModelError
	if !errors.As(err, &modelErr) {
		t.Fatalf("expected *ModelError, got %T", err)
	}
	if modelErr.Reason != "shape_incompatible" {
		t.Errorf("expected reason shape_incompatible, got %q", modelErr.Reason)
	}
}

type logitModel struct{}

func (logitModel) Predict(tile *sparse.DenseArray) (*sparse.DenseArray, error) {
	out := sparse.ZerosDense(tile.Shape...)
	// Large positive logit saturates the sigmoid near 1.
	for i := range out.Elements {
		out.Elements[i] = 10
	}
	return out, nil
}
func (logitModel) LogitsOutput() bool { return true }

func TestSegmenterAppliesSigmoidWhenLogitsOutput(t *testing.T) {
	seg := NewSegmenter(logitModel{})
	out, err := seg.Infer(sparse.ZerosDense(nativeInputSize, nativeInputSize))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.Data.Get(0, 0); got < 0.99 {
		t.Errorf("expected sigmoid(10) close to 1, got %v", got)
	}
}

func TestBilinearResizeIdentityWhenShapeUnchanged(t *testing.T) {
	src := sparse.ZerosDense(4, 4)
	src.Set(0.5, 1, 2)
	out := bilinearResize(src, 4, 4)
	if out.Get(1, 2) != 0.5 {
		t.Errorf("expected identity resize to preserve values, got %v", out.Get(1, 2))
	}
}

func TestClampInt(t *testing.T) {
	if clampInt(-5, 0, 10) != 0 {
		t.Errorf("expected clamp to lower bound")
	}
	if clampInt(20, 0, 10) != 10 {
		t.Errorf("expected clamp to upper bound")
	}
	if clampInt(5, 0, 10) != 5 {
		t.Errorf("expected value within bounds unchanged")
	}
}
