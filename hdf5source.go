package tcc

import (
	"fmt"

	"gonum.org/v1/hdf5"
)

// hdf5Source is the production datasetSource backed by
// gonum.org/v1/hdf5's cgo bindings to libhdf5.
type hdf5Source struct {
	file  *hdf5.File
	cache map[string]*hdf5.Dataset
}

func openHDF5(path string) (*hdf5Source, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, err
	}
	return &hdf5Source{file: f, cache: make(map[string]*hdf5.Dataset)}, nil
}

// Close releases the underlying file handle and any opened datasets.
func (s *hdf5Source) Close() error {
	for _, ds := range s.cache {
		ds.Close()
	}
	return s.file.Close()
}

func (s *hdf5Source) dataset(path string) (*hdf5.Dataset, bool) {
	if ds, ok := s.cache[path]; ok {
		return ds, true
	}
	ds, err := s.file.OpenDataset(path)
	if err != nil {
		return nil, false
	}
	s.cache[path] = ds
	return ds, true
}

func (s *hdf5Source) Shape(path string) []int {
	ds, ok := s.dataset(path)
	if !ok {
		return nil
	}
	space := ds.Space()
	defer space.Close()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil
	}
	shape := make([]int, len(dims))
	for i, d := range dims {
		shape[i] = int(d)
	}
	return shape
}

// ReadFloat64 reads the dataset at path in whatever integer or float
// type it is actually stored as, then widens element-wise to float64.
// Raw sensor counts and LUT indices are commonly stored as integers,
// so this cannot assume the on-disk type is float32.
func (s *hdf5Source) ReadFloat64(path string) ([]float64, error) {
	ds, ok := s.dataset(path)
	if !ok {
		return nil, fmt.Errorf("tcc: no such dataset %q", path)
	}
	shape := s.Shape(path)
	n := 1
	for _, d := range shape {
		n *= d
	}

	dtype, err := ds.Datatype()
	if err != nil {
		return nil, err
	}
	defer dtype.Close()

	switch dtype.Class() {
	case hdf5.T_INTEGER:
		switch dtype.Size() {
		case 1:
			raw := make([]int8, n)
			if err := ds.Read(&raw); err != nil {
				return nil, err
			}
			return widenInts(raw), nil
		case 2:
			raw := make([]int16, n)
			if err := ds.Read(&raw); err != nil {
				return nil, err
			}
			return widenInts(raw), nil
		case 4:
			raw := make([]int32, n)
			if err := ds.Read(&raw); err != nil {
				return nil, err
			}
			return widenInts(raw), nil
		default:
			raw := make([]int64, n)
			if err := ds.Read(&raw); err != nil {
				return nil, err
			}
			return widenInts(raw), nil
		}
	case hdf5.T_FLOAT:
		if dtype.Size() == 8 {
			raw := make([]float64, n)
			if err := ds.Read(&raw); err != nil {
				return nil, err
			}
			return raw, nil
		}
		raw := make([]float32, n)
		if err := ds.Read(&raw); err != nil {
			return nil, err
		}
		return widenFloat32s(raw), nil
	default:
		// Neither integer nor float (e.g. a string or compound type
		// slipping through the candidate/fallback search): fall back to
		// the most common on-disk encoding for numeric granule fields.
		raw := make([]float32, n)
		if err := ds.Read(&raw); err != nil {
			return nil, err
		}
		return widenFloat32s(raw), nil
	}
}

// widenInts converts any signed integer slice to float64, element-wise.
func widenInts[T int8 | int16 | int32 | int64](raw []T) []float64 {
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = float64(v)
	}
	return out
}

func widenFloat32s(raw []float32) []float64 {
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = float64(v)
	}
	return out
}

// Datasets walks the root group (and the fixed set of nested group
// paths this package knows how to probe) listing every dataset found,
// in the order libhdf5 enumerates them. Used for the "first numeric
// dataset" fallback when no candidate name matches.
func (s *hdf5Source) Datasets() []string {
	var out []string
	for _, group := range searchGroups {
		g, err := s.openGroup(group)
		if err != nil {
			continue
		}
		names, err := g.ObjectNames()
		g.Close()
		if err != nil {
			continue
		}
		for _, name := range names {
			path := group + "/" + name
			if len(path) > 1 && path[0:2] == "//" {
				path = path[1:]
			}
			if s.Shape(path) != nil {
				out = append(out, path)
			}
		}
	}
	return out
}

func (s *hdf5Source) openGroup(path string) (*hdf5.Group, error) {
	if path == "" {
		return s.file.OpenGroup("/")
	}
	return s.file.OpenGroup(path)
}
