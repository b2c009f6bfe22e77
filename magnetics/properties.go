package magnetics

import (
	"fmt"
	"os"

	"github.com/sbinet/npyio"
)

// LoadError reports an unreadable or malformed magnetic property source.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("magnetics: failed to load properties %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// DirectionCosine is one magnetization direction component: either a single
// scalar applied to every cell or a per-cell array. The three components are
// independent, so a source may override kx per cell while ky and kz stay
// scalar.
type DirectionCosine struct {
	Scalar float64
	Cells  []float64 // nil when scalar
}

// PerCell reports whether the component carries a per-cell array.
func (d DirectionCosine) PerCell() bool { return d.Cells != nil }

// At returns the component value for cell i.
func (d DirectionCosine) At(i int) float64 {
	if d.Cells != nil {
		return d.Cells[i]
	}
	return d.Scalar
}

// Properties holds one property file's per-cell susceptibility and direction
// cosines. One instance is built per input file and consumed by a single
// solve call.
type Properties struct {
	FileName       string
	NumCells       int
	Susceptibility []float64
	Kx, Ky, Kz     DirectionCosine
}

// LoadProperties reads a .npy property array, 1-D or 2-D with one row per
// cell. Column 0 is susceptibility; columns 1-3 independently override the
// kx, ky, kz direction cosines per cell, and each absent column falls back to
// the corresponding ambient unit-direction component.
func LoadProperties(path string, ambient *AmbientField) (*Properties, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	shape := r.Header.Descr.Shape
	rows, cols := 0, 1
	switch len(shape) {
	case 1:
		rows = shape[0]
	case 2:
		rows, cols = shape[0], shape[1]
	default:
		return nil, &LoadError{Path: path, Err: fmt.Errorf("expected a 1-D or 2-D property array, got shape %v", shape)}
	}
	if rows == 0 || cols == 0 {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("empty property array, shape %v", shape)}
	}

	raw := make([]float64, rows*cols)
	if err := r.Read(&raw); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	at := func(i, j int) float64 { return raw[i*cols+j] }
	if r.Header.Descr.Fortran {
		at = func(i, j int) float64 { return raw[j*rows+i] }
	}
	column := func(j int) []float64 {
		c := make([]float64, rows)
		for i := range c {
			c[i] = at(i, j)
		}
		return c
	}

	lx, ly, lz := ambient.Direction()
	p := &Properties{
		FileName:       path,
		NumCells:       rows,
		Susceptibility: column(0),
		Kx:             DirectionCosine{Scalar: lx},
		Ky:             DirectionCosine{Scalar: ly},
		Kz:             DirectionCosine{Scalar: lz},
	}
	if cols > 1 {
		p.Kx.Cells = column(1)
	}
	if cols > 2 {
		p.Ky.Cells = column(2)
	}
	if cols > 3 {
		p.Kz.Cells = column(3)
	}
	return p, nil
}
