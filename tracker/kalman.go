package tracker

import "gonum.org/v1/gonum/mat"

// kalmanFilter is a constant-velocity Kalman filter over state
// (lat, lon, v_lat, v_lon) with a 2-D (lat, lon) observation, per the
// tracker's state model: the transition matrix advances position by
// one unit of velocity per frame, and the observation matrix exposes
// position only.
type kalmanFilter struct {
	x *mat.VecDense // 4x1 state
	p *mat.Dense    // 4x4 covariance

	f *mat.Dense // 4x4 transition
	h *mat.Dense // 2x4 observation
	q *mat.Dense // 4x4 process noise
	r *mat.Dense // 2x2 measurement noise
}

func newKalmanFilter(initLat, initLon, processNoise, measurementNoise float64) *kalmanFilter {
	f := mat.NewDense(4, 4, []float64{
		1, 0, 1, 0,
		0, 1, 0, 1,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
	h := mat.NewDense(2, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
	})
	q := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		q.Set(i, i, processNoise)
	}
	r := mat.NewDense(2, 2, nil)
	for i := 0; i < 2; i++ {
		r.Set(i, i, measurementNoise)
	}

	p := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		p.Set(i, i, 1.0)
	}

	x := mat.NewVecDense(4, []float64{initLat, initLon, 0, 0})

	return &kalmanFilter{x: x, p: p, f: f, h: h, q: q, r: r}
}

// predict advances the state estimate one frame, returning the
// predicted (lat, lon).
func (k *kalmanFilter) predict() (lat, lon float64) {
	var xPred mat.VecDense
	xPred.MulVec(k.f, k.x)
	k.x = &xPred

	var fp, fpft mat.Dense
	fp.Mul(k.f, k.p)
	fpft.Mul(&fp, k.f.T())
	fpft.Add(&fpft, k.q)
	k.p = &fpft

	return k.x.AtVec(0), k.x.AtVec(1)
}

// position returns the current (lat, lon) state estimate without
// advancing it.
func (k *kalmanFilter) position() (lat, lon float64) {
	return k.x.AtVec(0), k.x.AtVec(1)
}

// velocity returns the current (v_lat, v_lon) state estimate.
func (k *kalmanFilter) velocity() (vLat, vLon float64) {
	return k.x.AtVec(2), k.x.AtVec(3)
}

// clone returns an independent copy of the filter's state, used so
// PredictFuture can extrapolate repeatedly without disturbing the live
// track's estimate. Copies are built element-by-element rather than via
// a library clone helper to avoid depending on a specific gonum/mat
// minor-version API.
func (k *kalmanFilter) clone() *kalmanFilter {
	return &kalmanFilter{
		x: mat.NewVecDense(4, []float64{k.x.AtVec(0), k.x.AtVec(1), k.x.AtVec(2), k.x.AtVec(3)}),
		p: copyDense(k.p, 4, 4),
		f: copyDense(k.f, 4, 4),
		h: copyDense(k.h, 2, 4),
		q: copyDense(k.q, 4, 4),
		r: copyDense(k.r, 2, 2),
	}
}

func copyDense(src *mat.Dense, rows, cols int) *mat.Dense {
	dst := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			dst.Set(i, j, src.At(i, j))
		}
	}
	return dst
}

// correct applies the measurement update for an observed (lat, lon).
func (k *kalmanFilter) correct(obsLat, obsLon float64) {
	z := mat.NewVecDense(2, []float64{obsLat, obsLon})

	var hx mat.VecDense
	hx.MulVec(k.h, k.x)

	var y mat.VecDense
	y.SubVec(z, &hx)

	var hp, hpht mat.Dense
	hp.Mul(k.h, k.p)
	hpht.Mul(&hp, k.h.T())
	hpht.Add(&hpht, k.r)

	var s mat.Dense
	if err := s.Inverse(&hpht); err != nil {
		return
	}

	var pht, kGain mat.Dense
	pht.Mul(k.p, k.h.T())
	kGain.Mul(&pht, &s)

	var ky mat.VecDense
	ky.MulVec(&kGain, &y)

	var xNew mat.VecDense
	xNew.AddVec(k.x, &ky)
	k.x = &xNew

	identity := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		identity.Set(i, i, 1.0)
	}
	var kh, ikh, pNew mat.Dense
	kh.Mul(&kGain, k.h)
	ikh.Sub(identity, &kh)
	pNew.Mul(&ikh, k.p)
	k.p = &pNew
}
