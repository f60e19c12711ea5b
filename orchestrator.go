package tcc

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/metsat/tcctrack/tracker"
)

// ProcessResult is the outcome of processing a single granule, per the
// process_one façade contract.
type ProcessResult struct {
	Success      bool
	ID           string
	PixelCount   int
	ClusterCount int
	TotalAreaKM2 float64
	Clusters     []Cluster
	OutputPaths  []string
	Err          error
}

// DirectoryResult is the outcome of processing every granule under a
// directory, per the process_directory façade contract.
type DirectoryResult struct {
	FilesProcessed    int
	FilesFailed       int
	TotalObservations int
	ActiveTracks      int
	ExportPaths       []string
}

// PredictResult is the outcome of the predict façade operation.
type PredictResult struct {
	Predictions  map[int][]tracker.Prediction
	ActiveTracks int
	IntervalH    float64
	TotalSteps   int
	GeneratedAt  string
}

// Pipeline wires the Ingest, Normaliser, Segmenter, Post-processor and
// Tracker stages together, holding the accumulated trajectory so the
// façade operations can serialize it on demand.
//
// Pipeline owns the only place tcc.Cluster is converted to
// tracker.Cluster, keeping the tracker package free of a dependency on
// this one.
type Pipeline struct {
	cfg        Config
	segmenter  *Segmenter
	postproc   *PostProcessor
	tracker    *tracker.Tracker
	trajectory []tracker.TrackedObservation
}

// NewPipeline constructs a Pipeline bound to cfg and model.
func NewPipeline(cfg Config, model Model) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		segmenter: NewSegmenter(model),
		postproc:  NewPostProcessor(cfg),
		tracker: tracker.New(tracker.Config{
			MaxTrackDistanceKM:     cfg.MaxTrackDistanceKM,
			TrackLostThreshold:     cfg.TrackLostThreshold,
			KalmanProcessNoise:     cfg.KalmanProcessNoise,
			KalmanMeasurementNoise: cfg.KalmanMeasurementNoise,
			PredictionIntervalH:    cfg.PredictionIntervalH,
		}),
	}
}

// ProcessOne ingests a single granule, runs it through segmentation,
// post-processing and tracking, writes its output artefacts under
// outDir, and appends its tracked observations to the pipeline's
// trajectory.
func (p *Pipeline) ProcessOne(path, outDir, id string) ProcessResult {
	bt, grid, obsTime, err := Open(path, p.cfg)
	if err != nil {
		return ProcessResult{Success: false, ID: id, Err: err}
	}
	if id == "" {
		id = filepath.Base(path)
	}

	normalized := Normalize(bt, p.cfg.NormMinK, p.cfg.NormMaxK)
	prob, err := p.segmenter.Infer(normalized)
	if err != nil {
		return ProcessResult{Success: false, ID: id, Err: err}
	}

	mask, clusters := p.postproc.Derive(prob, bt, grid)

	var totalArea float64
	for _, c := range clusters {
		totalArea += c.AreaKM2
	}

	timestamp := formatObsTimestamp(time.Now().UTC())
	if obsTime != nil {
		timestamp = formatObsTimestamp(*obsTime)
	}

	trackerClusters := make([]tracker.Cluster, len(clusters))
	for i, c := range clusters {
		trackerClusters[i] = toTrackerCluster(c)
	}
	observed := p.tracker.Update(trackerClusters, timestamp)
	p.trajectory = append(p.trajectory, observed...)

	var outputPaths []string
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return ProcessResult{Success: false, ID: id, Err: &SerialiseError{Path: outDir, Err: err}}
		}
		maskPath := filepath.Join(outDir, id+"_mask.bin")
		if err := WriteBinaryMask(mask, maskPath); err != nil {
			return ProcessResult{Success: false, ID: id, Err: err}
		}
		outputPaths = append(outputPaths, maskPath)

		pngPath := filepath.Join(outDir, id+"_mask.png")
		if err := WritePNG(mask, pngPath); err != nil {
			return ProcessResult{Success: false, ID: id, Err: err}
		}
		outputPaths = append(outputPaths, pngPath)

		ncPath := filepath.Join(outDir, id+".nc")
		ts := time.Now().UTC()
		if obsTime != nil {
			ts = *obsTime
		}
		if err := WriteNetCDF(bt, prob, mask, grid, ts, clusters, p.cfg, ncPath); err != nil {
			return ProcessResult{Success: false, ID: id, Err: err}
		}
		outputPaths = append(outputPaths, ncPath)
	}

	return ProcessResult{
		Success:      true,
		ID:           id,
		PixelCount:   bt.Rows() * bt.Cols(),
		ClusterCount: len(clusters),
		TotalAreaKM2: totalArea,
		Clusters:     clusters,
		OutputPaths:  outputPaths,
	}
}

// ProcessDirectory discovers granules recursively under dir, sorts them
// by filename (timestamp-ordered by construction), resets the tracker,
// processes each in order, and finally writes the trajectory
// serialisers' output under outDir.
func (p *Pipeline) ProcessDirectory(dir, outDir string) DirectoryResult {
	p.tracker.Reset()
	p.trajectory = nil

	var paths []string
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	sort.Strings(paths)

	var result DirectoryResult
	for _, path := range paths {
		r := p.ProcessOne(path, outDir, "")
		if r.Success {
			result.FilesProcessed++
		} else {
			result.FilesFailed++
			log.WithField("path", path).WithError(r.Err).Warn("tcc: failed to process granule")
		}
	}
	result.TotalObservations = len(p.trajectory)
	result.ActiveTracks = p.activeTrackCount()

	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err == nil {
			csvPath := filepath.Join(outDir, "trajectory.csv")
			if err := WriteTrajectoryCSV(p.trajectory, csvPath); err == nil {
				result.ExportPaths = append(result.ExportPaths, csvPath)
			}
			ncPath := filepath.Join(outDir, "trajectory.nc")
			if err := WriteTrajectoryNetCDF(p.trajectory, ncPath); err == nil {
				result.ExportPaths = append(result.ExportPaths, ncPath)
			}
		}
	}

	return result
}

// Predict extrapolates every track with enough history forward by
// steps frames.
func (p *Pipeline) Predict(steps int) PredictResult {
	preds := p.tracker.PredictFuture(steps, p.cfg.PredictionIntervalH)
	return PredictResult{
		Predictions:  preds,
		ActiveTracks: p.activeTrackCount(),
		IntervalH:    p.cfg.PredictionIntervalH,
		TotalSteps:   steps,
		GeneratedAt:  formatObsTimestamp(time.Now().UTC()),
	}
}

// Report builds and writes the tcc_analysis.json summary of the
// pipeline's accumulated trajectory under outDir.
func (p *Pipeline) Report(outDir string) (Report, error) {
	report := BuildReport(p.trajectory, nil, time.Now().UTC())
	if outDir == "" {
		return report, nil
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return report, &SerialiseError{Path: outDir, Err: err}
	}
	path := filepath.Join(outDir, "tcc_analysis.json")
	if err := WriteReportJSON(report, path); err != nil {
		return report, err
	}
	return report, nil
}

func (p *Pipeline) activeTrackCount() int {
	return p.tracker.ActiveTrackCount()
}

func toTrackerCluster(c Cluster) tracker.Cluster {
	return tracker.Cluster{
		ID:               c.ID,
		CentroidLat:      c.CentroidLat,
		CentroidLon:      c.CentroidLon,
		PixelCount:       c.PixelCount,
		AreaKM2:          c.AreaKM2,
		RadiusKM:         c.RadiusKM,
		MinBT:            c.MinBT,
		MaxBT:            c.MaxBT,
		MeanBT:           c.MeanBT,
		StdBT:            c.StdBT,
		AspectRatio:      c.AspectRatio,
		OrientationDeg:   c.OrientationDeg,
		Eccentricity:     c.Eccentricity,
		CloudTopHeightKM: c.CloudTopHeightKM,
		Intensity:        c.Intensity,
		Classification:   c.Classification,
	}
}
