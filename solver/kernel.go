package solver

// BufferCap is the fixed row capacity of every kernel scratch buffer,
// mirroring the external kernel's static array convention. Inputs larger
// than this are rejected before packing rather than truncated.
const BufferCap = 1_000_000

// GeometryArgs carries the packed inputs common to both kernel entry points.
// Every buffer holds BufferCap rows, zero past the valid prefix; matrices
// are flat row-major.
type GeometryArgs struct {
	RhoSus []float64 // BufferCap; susceptibility scaled by |B|
	Nodes  []float64 // BufferCap*3
	Tets   []int64   // BufferCap*4; 1-based node indices, kernel convention

	NumCells  int
	ObsPoints []float64 // BufferCap*3
	NumObs    int

	// Ambient field unit direction.
	LX, LY, LZ float64

	IsMagnetic bool
	IsTensor   bool
}

// ForwardArgs is the forward kernel calling contract: per-cell direction
// cosines, no centroid or volume buffers.
type ForwardArgs struct {
	GeometryArgs
	Kx, Ky, Kz []float64 // BufferCap, per cell
}

// AdjointArgs is the adjoint kernel calling contract: scalar direction
// cosines plus per-cell centroid and volume buffers.
type AdjointArgs struct {
	GeometryArgs
	Kx, Ky, Kz float64
	Centroids  []float64 // BufferCap*3
	Volumes    []float64 // BufferCap
}

// Kernel is the external numerical solver. Implementations return an output
// buffer of at least BufferCap entries; callers read back only the valid
// prefix (cell count for adjoint, observation count for forward).
type Kernel interface {
	Forward(args *ForwardArgs) ([]float64, error)
	Adjoint(args *AdjointArgs) ([]float64, error)
}
