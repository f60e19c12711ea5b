// Package tracker assigns frame-to-frame identity to cloud clusters
// via per-track Kalman filters and a globally optimal Hungarian
// assignment, and extrapolates tracks forward in time.
//
// The package defines its own Cluster type rather than importing the
// root detection package's Cluster, so that package can in turn depend
// on tracker without an import cycle; callers convert at the boundary.
package tracker

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Cluster is the subset of a detected cluster's features the tracker
// needs: its geographic centroid for assignment and the descriptive
// fields carried through into a TrackedObservation's history.
type Cluster struct {
	ID int

	CentroidLat float64
	CentroidLon float64

	PixelCount int
	AreaKM2    float64
	RadiusKM   float64

	MinBT  float64
	MaxBT  float64
	MeanBT float64
	StdBT  float64

	AspectRatio      float64
	OrientationDeg   float64
	Eccentricity     float64
	CloudTopHeightKM float64
	Intensity        string
	Classification   string
}

// TrackedObservation is a cluster's features plus the identity and
// bookkeeping fields the tracker attaches to it.
type TrackedObservation struct {
	Cluster

	TrackID     int
	Timestamp   string
	IsPredicted bool
	TrackLength int
}

// Prediction is a single extrapolated future state for one track.
type Prediction struct {
	TrackID      int
	Step         int
	HoursAhead   float64
	Lat, Lon     float64
	SpeedKMH     float64 // |v| * 111 km/deg: km per tracker step, not per hour
	DirectionDeg float64
	Confidence   float64

	// SpeedPercentile90 is the 90th percentile of SpeedKMH across every
	// step extrapolated for this track in the same PredictFuture call,
	// letting callers flag a step whose speed is an outlier against the
	// track's own extrapolated motion.
	SpeedPercentile90 float64
}

type track struct {
	id                int
	kf                *kalmanFilter
	framesSinceUpdate int
	observationCount  int
	history           []TrackedObservation
}

// Config holds the tracker's tunables, mirroring the root package's
// Config fields relevant to tracking so the two packages can share a
// single configuration source without an import cycle.
type Config struct {
	MaxTrackDistanceKM     float64
	TrackLostThreshold     int
	KalmanProcessNoise     float64
	KalmanMeasurementNoise float64
	PredictionIntervalH    float64
}

// Tracker holds per-track Kalman state across frames.
type Tracker struct {
	cfg    Config
	tracks map[int]*track
	nextID int
	frame  int
}

// New constructs an empty Tracker.
func New(cfg Config) *Tracker {
	return &Tracker{cfg: cfg, tracks: make(map[int]*track), nextID: 1}
}

// Reset discards all track state, as if the Tracker had just been
// constructed.
func (t *Tracker) Reset() {
	t.tracks = make(map[int]*track)
	t.nextID = 1
	t.frame = 0
}

// Update advances every track's prediction, assigns the incoming
// clusters to tracks by minimum total haversine distance, corrects
// matched tracks, starts new tracks for unmatched clusters, and evicts
// tracks that have gone too many frames without an update.
//
// Per the ordering guarantee, every track's prediction step completes
// before any track's correction step begins.
func (t *Tracker) Update(clusters []Cluster, timestamp string) []TrackedObservation {
	t.frame++

	ids := make([]int, 0, len(t.tracks))
	for id := range t.tracks {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		tr := t.tracks[id]
		tr.kf.predict()
		tr.framesSinceUpdate++
	}

	if len(clusters) == 0 {
		t.evictLost()
		return nil
	}

	cost := make([][]float64, len(clusters))
	for i, c := range clusters {
		cost[i] = make([]float64, len(ids))
		for j, id := range ids {
			lat, lon := t.tracks[id].kf.position()
			cost[i][j] = haversineKM(c.CentroidLat, c.CentroidLon, lat, lon)
		}
	}

	assignment := hungarianAssign(cost)

	matchedTrack := make(map[int]bool, len(ids))
	out := make([]TrackedObservation, len(clusters))
	assignedCluster := make([]bool, len(clusters))

	for i, j := range assignment {
		if j < 0 {
			continue
		}
		if cost[i][j] > t.cfg.MaxTrackDistanceKM {
			continue
		}
		id := ids[j]
		tr := t.tracks[id]
		tr.kf.correct(clusters[i].CentroidLat, clusters[i].CentroidLon)
		tr.framesSinceUpdate = 0
		tr.observationCount++
		obs := TrackedObservation{
			Cluster:     clusters[i],
			TrackID:     id,
			Timestamp:   timestamp,
			IsPredicted: false,
			TrackLength: tr.observationCount,
		}
		tr.history = append(tr.history, obs)
		out[i] = obs
		assignedCluster[i] = true
		matchedTrack[id] = true
	}

	for i, assigned := range assignedCluster {
		if assigned {
			continue
		}
		id := t.nextID
		t.nextID++
		kf := newKalmanFilter(clusters[i].CentroidLat, clusters[i].CentroidLon, t.cfg.KalmanProcessNoise, t.cfg.KalmanMeasurementNoise)
		tr := &track{id: id, kf: kf, observationCount: 1}
		obs := TrackedObservation{
			Cluster:     clusters[i],
			TrackID:     id,
			Timestamp:   timestamp,
			IsPredicted: false,
			TrackLength: 1,
		}
		tr.history = append(tr.history, obs)
		t.tracks[id] = tr
		out[i] = obs
	}

	t.evictLost()
	return out
}

// ActiveTrackCount returns the number of tracks currently live,
// regardless of observation count.
func (t *Tracker) ActiveTrackCount() int {
	return len(t.tracks)
}

// evictLost deletes every track whose frames-since-update has exceeded
// the configured threshold.
func (t *Tracker) evictLost() {
	for id, tr := range t.tracks {
		if tr.framesSinceUpdate > t.cfg.TrackLostThreshold {
			delete(t.tracks, id)
		}
	}
}

// PredictFuture extrapolates every track with at least two
// observations forward by steps frames, feeding its state through the
// transition matrix with no measurement update, and returns a mapping
// from track id to its ordered predictions.
func (t *Tracker) PredictFuture(steps int, intervalH float64) map[int][]Prediction {
	if intervalH <= 0 {
		intervalH = 0.5
	}
	out := make(map[int][]Prediction)
	for id, tr := range t.tracks {
		if tr.observationCount < 2 {
			continue
		}
		shadow := tr.kf.clone()
		preds := make([]Prediction, 0, steps)
		for step := 1; step <= steps; step++ {
			lat, lon := shadow.predict()
			vLat, vLon := shadow.velocity()
			speedDegPerStep := math.Hypot(vLat, vLon)
			confidence := 1 - 0.1*float64(step)
			if confidence < 0.3 {
				confidence = 0.3
			}
			preds = append(preds, Prediction{
				TrackID:      id,
				Step:         step,
				HoursAhead:   float64(step) * intervalH,
				Lat:          lat,
				Lon:          lon,
				SpeedKMH:     speedDegPerStep * 111.0,
				DirectionDeg: mod360(math.Atan2(vLon, vLat) * 180 / math.Pi),
				Confidence:   confidence,
			})
		}
		p90 := speedPercentile90(preds)
		for i := range preds {
			preds[i].SpeedPercentile90 = p90
		}
		out[id] = preds
	}
	return out
}

// speedPercentile90 returns the 90th percentile of SpeedKMH across
// preds using the track's own extrapolated steps as the sample.
func speedPercentile90(preds []Prediction) float64 {
	if len(preds) == 0 {
		return 0
	}
	speeds := make([]float64, len(preds))
	for i, p := range preds {
		speeds[i] = p.SpeedKMH
	}
	sort.Float64s(speeds)
	return stat.Quantile(0.9, stat.Empirical, speeds, nil)
}

func mod360(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

