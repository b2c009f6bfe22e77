package solver

import (
	"fmt"

	"github.com/isciml/magsolve/magnetics"
	"github.com/isciml/magsolve/mesh"
	"github.com/isciml/magsolve/receivers"
)

// Mode selects the kernel entry point.
type Mode string

const (
	Forward Mode = "forward"
	Adjoint Mode = "adjoint"
)

// CapacityError reports an input exceeding the kernel's fixed buffer
// capacity. The legacy convention silently truncated oversized inputs; they
// are rejected here instead.
type CapacityError struct {
	What  string
	Count int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("solver: %s count %d exceeds kernel buffer capacity %d", e.What, e.Count, BufferCap)
}

// ModeError reports a solve request the kernel cannot serve.
type ModeError struct {
	Mode   Mode
	Reason string
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("solver: unsupported %s solve: %s", e.Mode, e.Reason)
}

// Solver packs mesh, property and receiver data into the kernel's fixed
// calling convention and dispatches forward or adjoint solves. It holds no
// mutable state across calls; buffers are allocated per solve and discarded
// after the valid output prefix is unpacked.
type Solver struct {
	receivers *receivers.ReceiverSet
	ambient   *magnetics.AmbientField
	kernel    Kernel
}

// New builds a Solver around the shared receiver set, ambient field and
// external kernel.
func New(rx *receivers.ReceiverSet, ambient *magnetics.AmbientField, kernel Kernel) *Solver {
	return &Solver{receivers: rx, ambient: ambient, kernel: kernel}
}

// Solve runs one kernel invocation for a single property file. Output
// ordering matches input ordering: cell order for adjoint, receiver order
// for forward.
func (s *Solver) Solve(m *mesh.Mesh, props *magnetics.Properties, mode Mode) ([]float64, error) {
	switch {
	case m.NumCells > BufferCap:
		return nil, &CapacityError{What: "cell", Count: m.NumCells}
	case m.NumVertices > BufferCap:
		return nil, &CapacityError{What: "vertex", Count: m.NumVertices}
	case s.receivers.Count() > BufferCap:
		return nil, &CapacityError{What: "observation point", Count: s.receivers.Count()}
	}
	if props.NumCells != m.NumCells {
		return nil, fmt.Errorf("solver: property file %s has %d cells, mesh has %d", props.FileName, props.NumCells, m.NumCells)
	}

	geo := s.packGeometry(m, props)

	switch mode {
	case Adjoint:
		return s.solveAdjoint(m, props, geo)
	case Forward:
		return s.solveForward(m, props, geo)
	default:
		return nil, &ModeError{Mode: mode, Reason: "unknown solver mode"}
	}
}

func (s *Solver) packGeometry(m *mesh.Mesh, props *magnetics.Properties) GeometryArgs {
	geo := GeometryArgs{
		RhoSus:     make([]float64, BufferCap),
		Nodes:      make([]float64, BufferCap*3),
		Tets:       make([]int64, BufferCap*4),
		ObsPoints:  make([]float64, BufferCap*3),
		NumCells:   m.NumCells,
		NumObs:     s.receivers.Count(),
		IsMagnetic: true,
		IsTensor:   false,
	}
	geo.LX, geo.LY, geo.LZ = s.ambient.Direction()

	bv := s.ambient.Magnitude()
	for i, sus := range props.Susceptibility {
		geo.RhoSus[i] = sus * bv
	}
	for i, v := range m.Vertices {
		copy(geo.Nodes[i*3:i*3+3], v)
	}
	for k, tet := range m.TetNodes {
		for j, n := range tet {
			geo.Tets[k*4+j] = int64(n) + 1
		}
	}
	for i := 0; i < geo.NumObs; i++ {
		for j := 0; j < 3; j++ {
			geo.ObsPoints[i*3+j] = s.receivers.Points.At(i, j)
		}
	}
	return geo
}

func (s *Solver) solveAdjoint(m *mesh.Mesh, props *magnetics.Properties, geo GeometryArgs) ([]float64, error) {
	if props.Kx.PerCell() || props.Ky.PerCell() || props.Kz.PerCell() {
		return nil, &ModeError{
			Mode:   Adjoint,
			Reason: fmt.Sprintf("expecting scalar kx, ky, kz values in %s, received per-cell arrays", props.FileName),
		}
	}
	args := &AdjointArgs{
		GeometryArgs: geo,
		Kx:           props.Kx.Scalar,
		Ky:           props.Ky.Scalar,
		Kz:           props.Kz.Scalar,
		Centroids:    make([]float64, BufferCap*3),
		Volumes:      make([]float64, BufferCap),
	}
	for k, c := range m.Centroids() {
		copy(args.Centroids[k*3:k*3+3], c)
	}
	copy(args.Volumes, m.Volumes())

	out, err := s.kernel.Adjoint(args)
	if err != nil {
		return nil, err
	}
	if len(out) < m.NumCells {
		return nil, fmt.Errorf("solver: adjoint kernel returned %d values, need %d", len(out), m.NumCells)
	}
	res := make([]float64, m.NumCells)
	copy(res, out)
	return res, nil
}

func (s *Solver) solveForward(m *mesh.Mesh, props *magnetics.Properties, geo GeometryArgs) ([]float64, error) {
	args := &ForwardArgs{
		GeometryArgs: geo,
		Kx:           make([]float64, BufferCap),
		Ky:           make([]float64, BufferCap),
		Kz:           make([]float64, BufferCap),
	}
	// Scalar direction cosines broadcast into the per-cell buffers.
	for i := 0; i < m.NumCells; i++ {
		args.Kx[i] = props.Kx.At(i)
		args.Ky[i] = props.Ky.At(i)
		args.Kz[i] = props.Kz.At(i)
	}

	out, err := s.kernel.Forward(args)
	if err != nil {
		return nil, err
	}
	if len(out) < geo.NumObs {
		return nil, fmt.Errorf("solver: forward kernel returned %d values, need %d", len(out), geo.NumObs)
	}
	res := make([]float64, geo.NumObs)
	copy(res, out)
	return res, nil
}
