package tcc

import (
	"encoding/csv"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"time"

	"github.com/ctessum/cdf"
	"github.com/metsat/tcctrack/tracker"
)

// WriteBinaryMask writes a Mask as a raw row-major byte stream, one
// byte per pixel, the simplest of the output artefacts.
func WriteBinaryMask(mask *Mask, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return &SerialiseError{Path: path, Err: err}
	}
	defer f.Close()
	if _, err := f.Write(mask.Pixels); err != nil {
		return &SerialiseError{Path: path, Err: err}
	}
	return nil
}

// WritePNG renders a Mask as a single-channel PNG, 255 for foreground
// and 0 for background.
func WritePNG(mask *Mask, path string) error {
	img := image.NewGray(image.Rect(0, 0, mask.Cols, mask.Rows))
	for r := 0; r < mask.Rows; r++ {
		for c := 0; c < mask.Cols; c++ {
			v := uint8(0)
			if mask.At(r, c) != 0 {
				v = 255
			}
			img.SetGray(c, r, color.Gray{Y: v})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return &SerialiseError{Path: path, Err: err}
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return &SerialiseError{Path: path, Err: err}
	}
	return nil
}

// WriteNetCDF writes a CF-1.8 compliant per-frame NetCDF file carrying
// the brightness-temperature field, the segmenter's probability map,
// the derived mask, and geolocation.
func WriteNetCDF(bt *BTField, prob *ProbMap, mask *Mask, grid *GeoGrid, obsTime time.Time, clusters []Cluster, cfg Config, path string) error {
	rows, cols := bt.Rows(), bt.Cols()

	h := cdf.NewHeader(
		[]string{"time", "lat", "lon"},
		[]int{1, rows, cols},
	)
	h.AddAttribute("", "Conventions", "CF-1.8")
	h.AddAttribute("", "title", "Tropical Cloud Cluster detection frame")
	h.AddAttribute("", "source", "tcctrack")
	h.AddAttribute("", "institution", "tcctrack")
	h.AddAttribute("", "history", time.Now().UTC().Format(time.RFC3339))
	h.AddAttribute("", "tcc_count", []int32{int32(len(clusters))})

	var totalArea float64
	for _, c := range clusters {
		totalArea += c.AreaKM2
	}
	h.AddAttribute("", "total_tcc_area_km2", []float64{totalArea})
	h.AddAttribute("", "min_area_threshold_km2", []float64{cfg.MinAreaKM2})
	h.AddAttribute("", "bt_threshold_K", []float64{cfg.BTThresholdK})
	if grid.Synthetic {
		h.AddAttribute("", "geolocation_available", "false")
	} else {
		h.AddAttribute("", "geolocation_available", "true")
	}

	h.AddVariable("time", []string{"time"}, []float64{0})
	h.AddAttribute("time", "units", fmt.Sprintf("seconds since %s", obsTime.UTC().Format("2006-01-02T15:04:05Z")))

	h.AddVariable("latitude", []string{"lat", "lon"}, []float32{0})
	h.AddAttribute("latitude", "units", "degrees_north")
	h.AddVariable("longitude", []string{"lat", "lon"}, []float32{0})
	h.AddAttribute("longitude", "units", "degrees_east")

	h.AddVariable("irbt", []string{"time", "lat", "lon"}, []float32{0})
	h.AddAttribute("irbt", "units", "K")

	h.AddVariable("tcc_probability", []string{"time", "lat", "lon"}, []float32{0})
	h.AddAttribute("tcc_probability", "valid_range", []float32{0, 1})

	h.AddVariable("tcc_mask", []string{"time", "lat", "lon"}, []float32{0})
	h.AddAttribute("tcc_mask", "flag_values", []int32{0, 1})
	h.AddAttribute("tcc_mask", "flag_meanings", "background TCC")

	h.Define()

	f, err := os.Create(path)
	if err != nil {
		return &SerialiseError{Path: path, Err: err}
	}
	defer f.Close()

	cf, err := cdf.Create(f, h)
	if err != nil {
		return &SerialiseError{Path: path, Err: err}
	}

	if err := writeVar(cf, "time", []float64{0}); err != nil {
		return &SerialiseError{Path: path, Err: err}
	}
	if err := writeVar(cf, "latitude", grid.Lat.Elements); err != nil {
		return &SerialiseError{Path: path, Err: err}
	}
	if err := writeVar(cf, "longitude", grid.Lon.Elements); err != nil {
		return &SerialiseError{Path: path, Err: err}
	}
	if err := writeVar(cf, "irbt", bt.Data.Elements); err != nil {
		return &SerialiseError{Path: path, Err: err}
	}
	if err := writeVar(cf, "tcc_probability", prob.Data.Elements); err != nil {
		return &SerialiseError{Path: path, Err: err}
	}
	maskFloats := make([]float64, len(mask.Pixels))
	for i, v := range mask.Pixels {
		maskFloats[i] = float64(v)
	}
	if err := writeVar(cf, "tcc_mask", maskFloats); err != nil {
		return &SerialiseError{Path: path, Err: err}
	}

	if err := cdf.UpdateNumRecs(f); err != nil {
		return &SerialiseError{Path: path, Err: err}
	}
	return nil
}

// writeVar writes a flat row-major float64 slice to variable name,
// converting to float32 as the on-disk NetCDF "classic" format
// requires.
func writeVar(f *cdf.File, name string, data []float64) error {
	data32 := make([]float32, len(data))
	for i, v := range data {
		data32[i] = float32(v)
	}
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	_, err := w.Write(data32)
	return err
}

// trajectoryTimestampWidth is the fixed-width timestamp field used by
// the trajectory NetCDF's obs dimension.
const trajectoryTimestampWidth = 32

// WriteTrajectoryNetCDF writes accumulated tracked observations as a
// single `obs`-dimensioned NetCDF file, written in insertion order.
func WriteTrajectoryNetCDF(obs []tracker.TrackedObservation, path string) error {
	n := len(obs)
	h := cdf.NewHeader([]string{"obs", "timestamp_len"}, []int{n, trajectoryTimestampWidth})
	h.AddVariable("track_id", []string{"obs"}, []int32{0})
	h.AddVariable("timestamp", []string{"obs", "timestamp_len"}, []uint8{0})
	h.AddVariable("lat", []string{"obs"}, []float64{0})
	h.AddVariable("lon", []string{"obs"}, []float64{0})
	h.AddVariable("area_km2", []string{"obs"}, []float64{0})
	h.AddVariable("radius_km", []string{"obs"}, []float64{0})
	h.AddVariable("min_bt", []string{"obs"}, []float64{0})
	h.AddVariable("mean_bt", []string{"obs"}, []float64{0})
	h.AddVariable("cloud_top_height_km", []string{"obs"}, []float64{0})
	h.AddVariable("is_predicted", []string{"obs"}, []uint8{0})
	h.Define()

	f, err := os.Create(path)
	if err != nil {
		return &SerialiseError{Path: path, Err: err}
	}
	defer f.Close()

	cf, err := cdf.Create(f, h)
	if err != nil {
		return &SerialiseError{Path: path, Err: err}
	}

	trackIDs := make([]float64, n)
	lats := make([]float64, n)
	lons := make([]float64, n)
	areas := make([]float64, n)
	radii := make([]float64, n)
	minBTs := make([]float64, n)
	meanBTs := make([]float64, n)
	cloudTops := make([]float64, n)
	predicted := make([]float64, n)
	for i, o := range obs {
		trackIDs[i] = float64(o.TrackID)
		lats[i] = o.CentroidLat
		lons[i] = o.CentroidLon
		areas[i] = o.AreaKM2
		radii[i] = o.RadiusKM
		minBTs[i] = o.MinBT
		meanBTs[i] = o.MeanBT
		cloudTops[i] = o.CloudTopHeightKM
		if o.IsPredicted {
			predicted[i] = 1
		}
	}

	writers := []struct {
		name string
		data []float64
	}{
		{"track_id", trackIDs},
		{"lat", lats},
		{"lon", lons},
		{"area_km2", areas},
		{"radius_km", radii},
		{"min_bt", minBTs},
		{"mean_bt", meanBTs},
		{"cloud_top_height_km", cloudTops},
		{"is_predicted", predicted},
	}
	for _, w := range writers {
		if err := writeVar(cf, w.name, w.data); err != nil {
			return &SerialiseError{Path: path, Err: err}
		}
	}

	timestampBytes := make([]byte, 0, n*trajectoryTimestampWidth)
	for _, o := range obs {
		timestampBytes = append(timestampBytes, fixedWidthString(o.Timestamp, trajectoryTimestampWidth)...)
	}
	end := cf.Header.Lengths("timestamp")
	start := make([]int, len(end))
	tsw := cf.Writer("timestamp", start, end)
	if _, err := tsw.Write(timestampBytes); err != nil {
		return &SerialiseError{Path: path, Err: err}
	}

	if err := cdf.UpdateNumRecs(f); err != nil {
		return &SerialiseError{Path: path, Err: err}
	}
	return nil
}

func fixedWidthString(s string, width int) []byte {
	out := make([]byte, width)
	copy(out, s)
	return out
}

// trajectoryCSVFieldOrder puts ids, timestamp and geographic position
// first; every other field follows in a fixed, stable order.
var trajectoryCSVFieldOrder = []string{
	"track_id", "timestamp", "lat", "lon",
	"area_km2", "radius_km", "min_bt", "mean_bt", "max_bt", "std_bt",
	"cloud_top_height_km", "aspect_ratio", "orientation_deg", "eccentricity",
	"intensity", "classification", "track_length", "is_predicted",
}

// WriteTrajectoryCSV writes the same record set as the trajectory
// NetCDF with a header row, columns ordered per
// trajectoryCSVFieldOrder.
func WriteTrajectoryCSV(obs []tracker.TrackedObservation, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return &SerialiseError{Path: path, Err: err}
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(trajectoryCSVFieldOrder); err != nil {
		return &SerialiseError{Path: path, Err: err}
	}

	for _, o := range obs {
		record := []string{
			fmt.Sprintf("%d", o.TrackID),
			o.Timestamp,
			fmt.Sprintf("%f", o.CentroidLat),
			fmt.Sprintf("%f", o.CentroidLon),
			fmt.Sprintf("%f", o.AreaKM2),
			fmt.Sprintf("%f", o.RadiusKM),
			fmt.Sprintf("%f", o.MinBT),
			fmt.Sprintf("%f", o.MeanBT),
			fmt.Sprintf("%f", o.MaxBT),
			fmt.Sprintf("%f", o.StdBT),
			fmt.Sprintf("%f", o.CloudTopHeightKM),
			fmt.Sprintf("%f", o.AspectRatio),
			fmt.Sprintf("%f", o.OrientationDeg),
			fmt.Sprintf("%f", o.Eccentricity),
			o.Intensity,
			o.Classification,
			fmt.Sprintf("%d", o.TrackLength),
			fmt.Sprintf("%t", o.IsPredicted),
		}
		if err := w.Write(record); err != nil {
			return &SerialiseError{Path: path, Err: err}
		}
	}
	return nil
}
