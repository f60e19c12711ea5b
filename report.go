package tcc

import (
	"encoding/json"
	"math"
	"os"
	"sort"
	"time"

	"github.com/metsat/tcctrack/tracker"
)

// trackSummary is one track's grouped observations plus the summary
// statistics computed over them, the Go equivalent of the Python
// report generator's per-track dictionary.
type trackSummary struct {
	TrackID           int                          `json:"track_id"`
	Observations      []tracker.TrackedObservation `json:"observations"`
	StartTimestamp    string                       `json:"start_timestamp,omitempty"`
	EndTimestamp      string                       `json:"end_timestamp,omitempty"`
	TotalObservations int                          `json:"total_observations"`
	MeanAreaKM2       float64                      `json:"mean_area_km2"`
	MeanBT            float64                      `json:"mean_bt"`
	MinBTOverall      float64                      `json:"min_bt_overall"`
}

// Report is the top-level JSON document written to tcc_analysis.json,
// grouping tracked observations by track id. Metadata is carried into
// the document as given; it does not select the output file.
type Report struct {
	Tracks            []trackSummary `json:"tracks"`
	TotalTracks       int            `json:"total_tracks"`
	TotalObservations int            `json:"total_observations"`
	GeneratedAt       string         `json:"generated_at"`
	Metadata          map[string]any `json:"metadata,omitempty"`

	// Status distinguishes an empty trajectory set ("no_data") from a
	// populated one ("ok"), matching the originating exporter's
	// explicit "no trajectory data to export" branch.
	Status string `json:"status"`
}

// BuildReport groups observations by track id and computes the summary
// statistics the JSON report carries per track.
func BuildReport(observations []tracker.TrackedObservation, metadata map[string]any, generatedAt time.Time) Report {
	if len(observations) == 0 {
		return Report{Status: "no_data", GeneratedAt: generatedAt.UTC().Format(time.RFC3339), Metadata: metadata}
	}

	byTrack := make(map[int]*trackSummary)
	var order []int
	for _, o := range observations {
		ts, ok := byTrack[o.TrackID]
		if !ok {
			ts = &trackSummary{TrackID: o.TrackID}
			byTrack[o.TrackID] = ts
			order = append(order, o.TrackID)
		}
		ts.Observations = append(ts.Observations, o)
		ts.TotalObservations++
		if ts.StartTimestamp == "" {
			ts.StartTimestamp = o.Timestamp
		}
		ts.EndTimestamp = o.Timestamp
	}
	sort.Ints(order)

	tracks := make([]trackSummary, 0, len(order))
	for _, id := range order {
		ts := byTrack[id]
		var sumArea, sumBT, minBT float64
		var btCount int
		minBT = math.MaxFloat64
		for _, o := range ts.Observations {
			sumArea += o.AreaKM2
			if o.MeanBT != 0 {
				sumBT += o.MeanBT
				btCount++
			}
			if o.MinBT != 0 && o.MinBT < minBT {
				minBT = o.MinBT
			}
		}
		ts.MeanAreaKM2 = sumArea / float64(ts.TotalObservations)
		if btCount > 0 {
			ts.MeanBT = sumBT / float64(btCount)
		}
		if minBT == math.MaxFloat64 {
			minBT = 0
		}
		ts.MinBTOverall = minBT
		tracks = append(tracks, *ts)
	}

	return Report{
		Tracks:            tracks,
		TotalTracks:       len(tracks),
		TotalObservations: len(observations),
		GeneratedAt:       generatedAt.UTC().Format(time.RFC3339),
		Metadata:          metadata,
		Status:            "ok",
	}
}

// WriteReportJSON marshals a Report to path as indented JSON.
func WriteReportJSON(report Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return &SerialiseError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &SerialiseError{Path: path, Err: err}
	}
	return nil
}
