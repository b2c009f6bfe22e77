// Package magkernel is a point-dipole approximation of the magnetic forward
// and adjoint kernels. Each tetrahedron is collapsed to a dipole at its
// centroid with moment proportional to scaled susceptibility times volume.
// The solver facade treats it as an opaque collaborator behind
// solver.Kernel; a higher-fidelity kernel can be swapped in without touching
// the packing layer.
package magkernel

import (
	"math"

	"github.com/isciml/magsolve/solver"
)

// cm is the magnetostatic constant mu0/(4*pi) in SI units.
const cm = 1e-7

// Dipole implements solver.Kernel.
type Dipole struct{}

func New() *Dipole { return &Dipole{} }

// Forward computes the ambient-direction anomaly component at every
// observation point. Cell centroids and volumes are derived from the packed
// nodes and 1-based connectivity, matching the forward calling contract
// which carries no geometry buffers.
func (d *Dipole) Forward(args *solver.ForwardArgs) ([]float64, error) {
	centroids, volumes := tetGeometry(args.Nodes, args.Tets, args.NumCells)
	out := make([]float64, solver.BufferCap)
	for i := 0; i < args.NumObs; i++ {
		ox := args.ObsPoints[i*3]
		oy := args.ObsPoints[i*3+1]
		oz := args.ObsPoints[i*3+2]
		var sum float64
		for k := 0; k < args.NumCells; k++ {
			sum += args.RhoSus[k] * volumes[k] * dipoleTerm(
				ox-centroids[k*3], oy-centroids[k*3+1], oz-centroids[k*3+2],
				args.Kx[k], args.Ky[k], args.Kz[k],
				args.LX, args.LY, args.LZ,
			)
		}
		out[i] = sum
	}
	return out, nil
}

// Adjoint computes the predicted field from the isotropic model and migrates
// it back onto the cells (calc-and-migrate), yielding one sensitivity value
// per cell.
func (d *Dipole) Adjoint(args *solver.AdjointArgs) ([]float64, error) {
	data := make([]float64, args.NumObs)
	for i := 0; i < args.NumObs; i++ {
		var sum float64
		for k := 0; k < args.NumCells; k++ {
			sum += args.RhoSus[k] * d.sensitivity(args, i, k)
		}
		data[i] = sum
	}

	out := make([]float64, solver.BufferCap)
	for k := 0; k < args.NumCells; k++ {
		var sum float64
		for i := 0; i < args.NumObs; i++ {
			sum += d.sensitivity(args, i, k) * data[i]
		}
		out[k] = sum
	}
	return out, nil
}

// sensitivity is the field at receiver i per unit scaled susceptibility in
// cell k.
func (d *Dipole) sensitivity(args *solver.AdjointArgs, i, k int) float64 {
	return args.Volumes[k] * dipoleTerm(
		args.ObsPoints[i*3]-args.Centroids[k*3],
		args.ObsPoints[i*3+1]-args.Centroids[k*3+1],
		args.ObsPoints[i*3+2]-args.Centroids[k*3+2],
		args.Kx, args.Ky, args.Kz,
		args.LX, args.LY, args.LZ,
	)
}

// dipoleTerm is the ambient-direction component of a unit dipole field:
// cm*(3(k.r^)(l.r^) - k.l)/|r|^3. A coincident source and receiver
// contributes nothing.
func dipoleTerm(rx, ry, rz, kx, ky, kz, lx, ly, lz float64) float64 {
	r2 := rx*rx + ry*ry + rz*rz
	if r2 == 0 {
		return 0
	}
	r := math.Sqrt(r2)
	ux, uy, uz := rx/r, ry/r, rz/r
	kr := kx*ux + ky*uy + kz*uz
	lr := lx*ux + ly*uy + lz*uz
	kl := kx*lx + ky*ly + kz*lz
	return cm * (3*kr*lr - kl) / (r2 * r)
}

// tetGeometry derives flat centroid and volume arrays from packed nodes and
// 1-based tetrahedral connectivity.
func tetGeometry(nodes []float64, tets []int64, numCells int) (centroids, volumes []float64) {
	centroids = make([]float64, numCells*3)
	volumes = make([]float64, numCells)
	for k := 0; k < numCells; k++ {
		var v [4][3]float64
		for j := 0; j < 4; j++ {
			n := int(tets[k*4+j] - 1)
			v[j][0] = nodes[n*3]
			v[j][1] = nodes[n*3+1]
			v[j][2] = nodes[n*3+2]
			centroids[k*3] += v[j][0] / 4
			centroids[k*3+1] += v[j][1] / 4
			centroids[k*3+2] += v[j][2] / 4
		}
		pv := (v[3][0]-v[0][0])*((v[1][1]-v[0][1])*(v[2][2]-v[0][2])-(v[1][2]-v[0][2])*(v[2][1]-v[0][1])) +
			(v[3][1]-v[0][1])*((v[1][2]-v[0][2])*(v[2][0]-v[0][0])-(v[1][0]-v[0][0])*(v[2][2]-v[0][2])) +
			(v[3][2]-v[0][2])*((v[1][0]-v[0][0])*(v[2][1]-v[0][1])-(v[1][1]-v[0][1])*(v[2][0]-v[0][0]))
		volumes[k] = math.Abs(pv) / 6
	}
	return centroids, volumes
}
