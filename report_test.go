package tcc

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/metsat/tcctrack/tracker"
)

func obs(trackID int, ts string, area, meanBT, minBT float64) tracker.TrackedObservation {
	return tracker.TrackedObservation{
		Cluster: tracker.Cluster{
			AreaKM2: area,
			MeanBT:  meanBT,
			MinBT:   minBT,
		},
		TrackID:   trackID,
		Timestamp: ts,
	}
}

func TestBuildReportEmptyIsNoData(t *testing.T) {
	r := BuildReport(nil, nil, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if r.Status != "no_data" {
		t.Errorf("expected status no_data, got %q", r.Status)
	}
	if r.TotalTracks != 0 || r.TotalObservations != 0 {
		t.Errorf("expected zero counts for an empty report")
	}
}

func TestBuildReportGroupsByTrackAndComputesStats(t *testing.T) {
	observations := []tracker.TrackedObservation{
		obs(2, "t0", 100, 220, 210),
		obs(1, "t0", 200, 230, 225),
		obs(1, "t1", 300, 210, 205),
	}
	r := BuildReport(observations, map[string]any{"run": "test"}, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	if r.Status != "ok" {
		t.Fatalf("expected status ok, got %q", r.Status)
	}
	if r.TotalTracks != 2 {
		t.Fatalf("expected 2 tracks, got %d", r.TotalTracks)
	}
	if r.TotalObservations != 3 {
		t.Fatalf("expected 3 total observations, got %d", r.TotalObservations)
	}

	// Tracks must be ordered by ascending track id regardless of input order.
	if r.Tracks[0].TrackID != 1 || r.Tracks[1].TrackID != 2 {
		t.Fatalf("expected tracks ordered by id, got %d, %d", r.Tracks[0].TrackID, r.Tracks[1].TrackID)
	}

	track1 := r.Tracks[0]
	if track1.TotalObservations != 2 {
		t.Errorf("expected track 1 to have 2 observations, got %d", track1.TotalObservations)
	}
	if track1.MeanAreaKM2 != 250 { // (200+300)/2
		t.Errorf("expected mean area 250, got %v", track1.MeanAreaKM2)
	}
	if track1.MeanBT != 220 { // (230+210)/2
		t.Errorf("expected mean BT 220, got %v", track1.MeanBT)
	}
	if track1.MinBTOverall != 205 {
		t.Errorf("expected min BT 205, got %v", track1.MinBTOverall)
	}
	if track1.StartTimestamp != "t0" || track1.EndTimestamp != "t1" {
		t.Errorf("expected start/end timestamps t0/t1, got %q/%q", track1.StartTimestamp, track1.EndTimestamp)
	}
}

func TestWriteReportJSONRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/report.json"

	r := BuildReport([]tracker.TrackedObservation{obs(1, "t0", 100, 220, 210)}, nil, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := WriteReportJSON(r, path); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	var decoded Report
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("expected valid JSON output: %v", err)
	}
	if decoded.Status != r.Status || decoded.TotalTracks != r.TotalTracks || decoded.TotalObservations != r.TotalObservations {
		t.Errorf("expected decoded report to match the written one, got %+v", decoded)
	}
}
