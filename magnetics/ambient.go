package magnetics

import (
	"fmt"
	"math"
)

// AmbientField is the background magnetic field vector for the run, constant
// across all processes and all property files.
type AmbientField struct {
	Bx, By, Bz float64

	magnitude float64
}

// NewAmbientField builds the field from its three components. A
// zero-magnitude ambient field is a caller error.
func NewAmbientField(components []float64) (*AmbientField, error) {
	if len(components) != 3 {
		return nil, fmt.Errorf("magnetics: length of ambient magnetic field has to be exactly 3, passed a length of %d", len(components))
	}
	a := &AmbientField{Bx: components[0], By: components[1], Bz: components[2]}
	a.magnitude = math.Sqrt(a.Bx*a.Bx + a.By*a.By + a.Bz*a.Bz)
	if a.magnitude == 0 {
		return nil, fmt.Errorf("magnetics: ambient magnetic field magnitude must be positive")
	}
	return a, nil
}

// Magnitude returns |B|.
func (a *AmbientField) Magnitude() float64 { return a.magnitude }

// Direction returns the unit direction cosines of the field.
func (a *AmbientField) Direction() (lx, ly, lz float64) {
	return a.Bx / a.magnitude, a.By / a.magnitude, a.Bz / a.magnitude
}
