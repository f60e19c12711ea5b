package tracker

import "testing"

func TestKalmanFilterInitialPosition(t *testing.T) {
	kf := newKalmanFilter(15.0, 80.0, 0.03, 1.0)
	lat, lon := kf.position()
	if lat != 15.0 || lon != 80.0 {
		t.Fatalf("expected initial position (15.0, 80.0), got (%v, %v)", lat, lon)
	}
	vLat, vLon := kf.velocity()
	if vLat != 0 || vLon != 0 {
		t.Fatalf("expected zero initial velocity, got (%v, %v)", vLat, vLon)
	}
}

func TestKalmanFilterPredictStationaryHoldsPosition(t *testing.T) {
	kf := newKalmanFilter(15.0, 80.0, 0.03, 1.0)
	lat, lon := kf.predict()
	if lat != 15.0 || lon != 80.0 {
		t.Fatalf("expected prediction to hold position with zero velocity, got (%v, %v)", lat, lon)
	}
}

func TestKalmanFilterCorrectMovesTowardMeasurement(t *testing.T) {
	kf := newKalmanFilter(15.0, 80.0, 0.03, 1.0)
	kf.predict()
	kf.correct(15.5, 80.5)
	lat, lon := kf.position()
	if lat <= 15.0 || lat > 15.5 {
		t.Errorf("expected corrected latitude between 15.0 and 15.5, got %v", lat)
	}
	if lon <= 80.0 || lon > 80.5 {
		t.Errorf("expected corrected longitude between 80.0 and 80.5, got %v", lon)
	}
}

func TestKalmanFilterCloneIsIndependent(t *testing.T) {
	kf := newKalmanFilter(15.0, 80.0, 0.03, 1.0)
	kf.predict()
	kf.correct(15.5, 80.5)

	clone := kf.clone()
	clone.predict()
	clone.correct(20.0, 20.0)

	lat, lon := kf.position()
	cLat, cLon := clone.position()
	if lat == cLat && lon == cLon {
		t.Errorf("expected clone mutation not to affect original")
	}
}
