package tcc

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
	log "github.com/sirupsen/logrus"
)

// Candidate dataset names are searched in order, probing a handful of
// plausible variable names rather than relying on a fixed schema. This
// keeps unknown-container robustness testable instead of reflective.
var (
	irCandidates  = []string{"IMG_TIR1", "TIR1", "IR", "IR1", "IR_BT", "Band4", "IMG_TIR"}
	lutCandidates = []string{"IMG_TIR1_LUT", "IR_LUT", "LUT", "TIR1_LUT", "CALIBRATION"}
	latCandidates = []string{"Latitude", "latitude", "lat", "LAT"}
	lonCandidates = []string{"Longitude", "longitude", "lon", "LON"}

	// searchGroups are the nested container paths probed in addition to
	// the root, mirroring the layout INSAT-class HDF5 granules commonly
	// use.
	searchGroups = []string{"", "/Geophysical Data", "/Calibration"}
)

// fillSentinelK is the threshold below which a BT value is treated as a
// sentinel/fill value rather than a physical observation.
const fillSentinelK = 100.0

// fillReplacementK is used when an entire field is fill.
const fillReplacementK = 250.0

// datasetSource abstracts a granule container enough for dataset
// discovery and reading so the ingest logic is testable without linking
// against libhdf5. hdf5Source (hdf5source.go) is the production
// implementation.
type datasetSource interface {
	// Datasets lists every leaf dataset path the source knows about, in
	// container order. Used for the "first 2-D numeric dataset" fallback.
	Datasets() []string
	// Shape returns the dimensions of the dataset at path, or nil if it
	// does not exist.
	Shape(path string) []int
	// ReadFloat64 reads the full dataset at path as a flat, row-major
	// float64 slice.
	ReadFloat64(path string) ([]float64, error)
}

// findDataset searches searchGroups x candidates, in order, returning
// the first path that exists in src.
func findDataset(src datasetSource, candidates []string) (string, bool) {
	for _, group := range searchGroups {
		for _, name := range candidates {
			path := group + "/" + name
			if strings.HasPrefix(path, "//") {
				path = path[1:]
			}
			if src.Shape(path) != nil {
				return path, true
			}
		}
	}
	return "", false
}

// firstNumericDataset returns the path of the first 2-D (or first slice
// of a 3-D) dataset known to src, used when no candidate name matches.
func firstNumericDataset(src datasetSource) (string, bool) {
	for _, path := range src.Datasets() {
		shape := src.Shape(path)
		if len(shape) == 2 || len(shape) == 3 {
			return path, true
		}
	}
	return "", false
}

// Open loads a calibrated brightness-temperature field, geolocation grid
// and observation timestamp from the granule at path.
//
// Failure to open the container or to find any usable IR dataset raises
// an *IngestError. All other irregularities (missing LUT, missing or
// mismatched geolocation, unparseable timestamp) are logged as warnings
// and resolved through the documented fallback.
func Open(path string, cfg Config) (*BTField, *GeoGrid, *time.Time, error) {
	src, err := openHDF5(path)
	if err != nil {
		return nil, nil, nil, &IngestError{Reason: "unreadable_container", Path: path, Err: err}
	}
	defer src.Close()

	return ingestFrom(src, path, cfg)
}

// ingestFrom contains the dataset-discovery and calibration logic,
// separated from HDF5-specific file handling so it can be exercised
// against a fake datasetSource in tests.
func ingestFrom(src datasetSource, path string, cfg Config) (*BTField, *GeoGrid, *time.Time, error) {
	irPath, ok := findDataset(src, irCandidates)
	if !ok {
		irPath, ok = firstNumericDataset(src)
		if !ok {
			return nil, nil, nil, &IngestError{Reason: "no_ir_dataset", Path: path}
		}
		log.WithField("dataset", irPath).Warn("tcc: no known IR dataset name matched; using first numeric dataset found")
	}

	shape := src.Shape(irPath)
	var rows, cols int
	var raw []float64
	switch len(shape) {
	case 2:
		rows, cols = shape[0], shape[1]
		var err error
		raw, err = src.ReadFloat64(irPath)
		if err != nil {
			return nil, nil, nil, &IngestError{Reason: "unreadable_container", Path: path, Err: err}
		}
	case 3:
		// Treat the leading dimension as a band axis and take the first
		// band/slice.
		rows, cols = shape[1], shape[2]
		full, err := src.ReadFloat64(irPath)
		if err != nil {
			return nil, nil, nil, &IngestError{Reason: "unreadable_container", Path: path, Err: err}
		}
		raw = full[:rows*cols]
	default:
		return nil, nil, nil, &IngestError{Reason: "shape_mismatch", Path: path}
	}

	calibrated, wasCalibrated := calibrate(src, raw)
	if !wasCalibrated {
		log.Warn("tcc: no calibration LUT found; using raw sensor values as uncalibrated Kelvin")
	}

	bt := sparse.ZerosDense(rows, cols)
	copy(bt.Elements, calibrated)
	replaceFillValues(bt)

	field := &BTField{Data: bt}
	grid := geoGridFrom(src, rows, cols, cfg)
	ts := parseTimestamp(path)
	if ts == nil {
		log.WithField("path", path).Warn("tcc: could not parse observation timestamp from filename")
	}

	return field, grid, ts, nil
}

// calibrate maps raw sensor counts through a LUT if one is found under
// the LUT candidate list, clipping indices to the LUT's length. If no
// LUT is found the raw values are returned unchanged and the second
// return value is false.
func calibrate(src datasetSource, raw []float64) ([]float64, bool) {
	lutPath, ok := findDataset(src, lutCandidates)
	if !ok {
		return raw, false
	}
	lut, err := src.ReadFloat64(lutPath)
	if err != nil || len(lut) == 0 {
		return raw, false
	}

	out := make([]float64, len(raw))
	maxIdx := len(lut) - 1
	for i, v := range raw {
		idx := int(v)
		if idx < 0 {
			idx = 0
		} else if idx > maxIdx {
			idx = maxIdx
		}
		out[i] = lut[idx]
	}
	return out, true
}

// replaceFillValues substitutes sentinel pixels (BT < fillSentinelK)
// with the field mean computed over non-fill pixels, or fillReplacementK
// if every pixel is fill.
func replaceFillValues(bt *sparse.DenseArray) {
	var sum float64
	var n int
	for _, v := range bt.Elements {
		if v >= fillSentinelK {
			sum += v
			n++
		}
	}
	replacement := fillReplacementK
	if n > 0 {
		replacement = sum / float64(n)
	}
	for i, v := range bt.Elements {
		if v < fillSentinelK {
			bt.Elements[i] = replacement
		}
	}
}

// geoGridFrom recovers latitude/longitude datasets matching the IR
// field's shape, falling back to a synthetic rectilinear grid over the
// configured default bounding box.
func geoGridFrom(src datasetSource, rows, cols int, cfg Config) *GeoGrid {
	latPath, latOK := findDataset(src, latCandidates)
	lonPath, lonOK := findDataset(src, lonCandidates)
	if latOK && lonOK {
		latShape := src.Shape(latPath)
		lonShape := src.Shape(lonPath)
		if len(latShape) == 2 && len(lonShape) == 2 &&
			latShape[0] == rows && latShape[1] == cols &&
			lonShape[0] == rows && lonShape[1] == cols {
			latRaw, errLat := src.ReadFloat64(latPath)
			lonRaw, errLon := src.ReadFloat64(lonPath)
			if errLat == nil && errLon == nil {
				lat := sparse.ZerosDense(rows, cols)
				lon := sparse.ZerosDense(rows, cols)
				copy(lat.Elements, latRaw)
				copy(lon.Elements, lonRaw)
				return &GeoGrid{Lat: lat, Lon: lon, Synthetic: false, Bounds: boundsOf(lat, lon)}
			}
		}
	}
	log.Warn("tcc: no usable geolocation datasets found; synthesizing rectilinear grid over default bounding box")
	return DefaultSyntheticGeoGrid(rows, cols, cfg)
}

// boundsOf computes the geographic bounding box of a recovered
// latitude/longitude grid pair.
func boundsOf(lat, lon *sparse.DenseArray) *geom.Bounds {
	b := geom.NewBounds()
	for i := range lat.Elements {
		b.Extend(geom.NewPoint(lon.Elements[i], lat.Elements[i]).Bounds())
	}
	return b
}

// parseTimestamp recovers an observation timestamp from a filename of
// the form "..._DDMonYYYY_HHMM_...". Parsing is deliberately tolerant:
// any failure returns nil rather than an error.
func parseTimestamp(path string) *time.Time {
	base := filepath.Base(path)
	fields := strings.Split(base, "_")
	if len(fields) < 3 {
		return nil
	}
	dateStr, timeStr := fields[1], fields[2]
	if len(timeStr) < 4 {
		return nil
	}
	t, err := time.Parse("02Jan2006 1504", dateStr+" "+timeStr[:4])
	if err != nil {
		return nil
	}
	return &t
}

// formatObsTimestamp renders a timestamp the way the rest of the
// pipeline expects it stringified (ISO 8601, second precision).
func formatObsTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
