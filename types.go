/*
Copyright © 2026 the tcctrack authors.
This file is part of tcctrack.

tcctrack is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

tcctrack is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.
*/

// Package tcc implements the per-frame inference and post-processing
// pipeline for Tropical Cloud Cluster (TCC) detection: ingest of a
// calibrated brightness-temperature granule, probability inference,
// morphological post-processing, geophysical feature extraction, and
// serialisation of masks, PNG renders and CF-compliant NetCDF. Frame-to-
// frame tracking lives in the sibling tracker package.
package tcc

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
)

// pixelAreaKM2 is the default native pixel footprint (4km x 4km).
const pixelAreaKM2 = 16.0

// earthRadiusKM is used by haversine distance calculations.
const earthRadiusKM = 6371.0

// BTField holds a calibrated brightness-temperature grid in Kelvin.
type BTField struct {
	Data *sparse.DenseArray // shape [rows, cols]
}

// Rows returns the number of grid rows.
func (f *BTField) Rows() int { return f.Data.Shape[0] }

// Cols returns the number of grid columns.
func (f *BTField) Cols() int { return f.Data.Shape[1] }

// GeoGrid holds parallel latitude (degrees north) and longitude (degrees
// east) grids with the same shape as the BT field they accompany.
type GeoGrid struct {
	Lat, Lon *sparse.DenseArray

	// Synthetic is true when the grid was not recovered from the granule
	// and was instead generated over the configured default bounding box.
	Synthetic bool

	// Bounds is the (lon,lat) geographic extent of the grid, used by
	// callers that need a bounding box rather than the full coordinate
	// arrays (e.g. reporting the footprint a frame covers).
	Bounds *geom.Bounds
}

// ProbMap holds the per-pixel foreground probability produced by the
// segmenter, in [0,1].
type ProbMap struct {
	Data *sparse.DenseArray
}

// Mask holds a binary (0/1) per-pixel detection mask at native
// resolution, stored one byte per pixel as the serialiser writes it.
type Mask struct {
	Rows, Cols int
	Pixels     []uint8
}

// NewMask allocates a zeroed mask of the given shape.
func NewMask(rows, cols int) *Mask {
	return &Mask{Rows: rows, Cols: cols, Pixels: make([]uint8, rows*cols)}
}

// At returns the mask value at (row, col).
func (m *Mask) At(row, col int) uint8 { return m.Pixels[row*m.Cols+col] }

// Set assigns the mask value at (row, col).
func (m *Mask) Set(row, col int, v uint8) { m.Pixels[row*m.Cols+col] = v }

// PixelCoord is a (row, col) raster coordinate.
type PixelCoord struct {
	Row, Col int
}

// Cluster is a single retained connected component together with its
// derived geophysical features, as produced by the post-processor or the
// label-maker.
type Cluster struct {
	ID int

	Pixels []PixelCoord

	CentroidPixelRow float64
	CentroidPixelCol float64
	CentroidLat      float64
	CentroidLon      float64

	PixelCount int
	AreaKM2    float64
	RadiusKM   float64

	MinBT  float64
	MaxBT  float64
	MeanBT float64
	StdBT  float64

	AspectRatio    float64
	OrientationDeg float64
	Eccentricity   float64

	CloudTopHeightKM float64
	Intensity        string
	Classification   string
}

// CentroidPoint returns the cluster's geographic centroid as a
// geom.Point (X=longitude, Y=latitude).
func (c Cluster) CentroidPoint() *geom.Point {
	return geom.NewPoint(c.CentroidLon, c.CentroidLat)
}

// ErrorKind enumerates the raised failure categories.
type ErrorKind int

const (
	// IngestErrorKind covers missing, unreadable, or structurally
	// insufficient input containers.
	IngestErrorKind ErrorKind = iota
	// ModelErrorKind covers missing or incompatible segmenter weights.
	ModelErrorKind
	// SerialiseErrorKind covers output paths that cannot be written or
	// encoders that are unavailable.
	SerialiseErrorKind
)

func (k ErrorKind) String() string {
	switch k {
	case IngestErrorKind:
		return "ingest"
	case ModelErrorKind:
		return "model"
	case SerialiseErrorKind:
		return "serialise"
	default:
		return "unknown"
	}
}

// IngestError reports a failure to open or structurally interpret an
// input granule.
type IngestError struct {
	Reason string
	Path   string
	Err    error
}

func (e *IngestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tcc: ingest %s (%s): %v", e.Reason, e.Path, e.Err)
	}
	return fmt.Sprintf("tcc: ingest %s (%s)", e.Reason, e.Path)
}

func (e *IngestError) Unwrap() error { return e.Err }

// ModelError reports a failure to load or run the segmenter.
type ModelError struct {
	Reason string
	Err    error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tcc: model %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("tcc: model %s", e.Reason)
}

func (e *ModelError) Unwrap() error { return e.Err }

// SerialiseError reports a failure to write an output artefact.
type SerialiseError struct {
	Path string
	Err  error
}

func (e *SerialiseError) Error() string {
	return fmt.Sprintf("tcc: serialise %s: %v", e.Path, e.Err)
}

func (e *SerialiseError) Unwrap() error { return e.Err }

// Config holds every tunable enumerated in the system specification.
// Zero-value Config is not meaningful; use DefaultConfig.
type Config struct {
	ProbThreshold float64 // default 0.5

	// IntersectBTMask, when true, additionally intersects the
	// thresholded probability mask with a BT < BTThresholdK mask before
	// morphological clean-up. Default false; the learned head is
	// assumed to have absorbed the physical prior.
	IntersectBTMask bool
	BTThresholdK    float64 // default 218, label path and optional intersection

	MinAreaKM2 float64 // default 34800
	PixelAreaKM2 float64 // default 16 (4km x 4km)

	MinRadiusKM              float64 // default 111, label path only
	MinCentroidSeparationKM  float64 // default 1200, label path only
	DBSCANEpsPixels          float64 // default 1.5
	DBSCANMinSamples         int     // default 5

	MaxTrackDistanceKM    float64 // default 200
	TrackLostThreshold    int     // default 3
	KalmanProcessNoise    float64 // default 0.03
	KalmanMeasurementNoise float64 // default 1.0
	PredictionIntervalH   float64 // default 0.5

	DefaultLatMin, DefaultLatMax float64 // default 0, 30
	DefaultLonMin, DefaultLonMax float64 // default 60, 100

	NormMinK, NormMaxK float64 // default 180, 320
}

// DefaultConfig returns the recommended default tuning for the
// detection and tracking pipeline.
func DefaultConfig() Config {
	return Config{
		ProbThreshold:           0.5,
		IntersectBTMask:         false,
		BTThresholdK:            218,
		MinAreaKM2:              34800,
		PixelAreaKM2:            pixelAreaKM2,
		MinRadiusKM:             111,
		MinCentroidSeparationKM: 1200,
		DBSCANEpsPixels:         1.5,
		DBSCANMinSamples:        5,
		MaxTrackDistanceKM:      200,
		TrackLostThreshold:      3,
		KalmanProcessNoise:      0.03,
		KalmanMeasurementNoise:  1.0,
		PredictionIntervalH:     0.5,
		DefaultLatMin:           0,
		DefaultLatMax:           30,
		DefaultLonMin:           60,
		DefaultLonMax:           100,
		NormMinK:                180,
		NormMaxK:                320,
	}
}
