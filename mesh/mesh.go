package mesh

import (
	"fmt"
	"math"
)

// LoadError reports a failure to construct a Mesh from an external source.
// No partial mesh is exposed when loading fails.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("mesh: failed to load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Mesh is an immutable tetrahedral volume mesh. Derived geometry (centroids,
// volumes) is computed on demand and cached; every subsequent solve reuses it
// unchanged.
type Mesh struct {
	NumVertices int
	NumCells    int
	Vertices    [][]float64 // [NumVertices][3]
	TetNodes    [][]int     // [NumCells][4], 0-based

	centroids [][]float64
	volumes   []float64
}

// NewMesh builds a Mesh from vertex coordinates and tetrahedral connectivity.
// Connectivity is 0-based and every index must address a vertex.
func NewMesh(vertices [][]float64, tetNodes [][]int) (*Mesh, error) {
	for i, v := range vertices {
		if len(v) != 3 {
			return nil, fmt.Errorf("vertex %d: expected 3 coordinates, got %d", i, len(v))
		}
	}
	for k, tet := range tetNodes {
		if len(tet) != 4 {
			return nil, fmt.Errorf("cell %d: expected 4 nodes, got %d", k, len(tet))
		}
		for _, n := range tet {
			if n < 0 || n >= len(vertices) {
				return nil, fmt.Errorf("cell %d: node index %d out of range [0,%d)", k, n, len(vertices))
			}
		}
	}
	return &Mesh{
		NumVertices: len(vertices),
		NumCells:    len(tetNodes),
		Vertices:    vertices,
		TetNodes:    tetNodes,
	}, nil
}

// Centroids returns the per-cell centroid, the arithmetic mean of the four
// vertex positions, indexed identically to TetNodes.
func (m *Mesh) Centroids() [][]float64 {
	if m.centroids != nil {
		return m.centroids
	}
	ctr := make([][]float64, m.NumCells)
	for k, tet := range m.TetNodes {
		c := make([]float64, 3)
		for _, n := range tet {
			v := m.Vertices[n]
			c[0] += v[0]
			c[1] += v[1]
			c[2] += v[2]
		}
		c[0] /= 4
		c[1] /= 4
		c[2] /= 4
		ctr[k] = c
	}
	m.centroids = ctr
	return ctr
}

// Volumes returns the per-cell volume |(v2-v1)x(v3-v1).(v4-v1)|/6. The
// absolute value makes the result independent of node ordering handedness,
// so connectivity need not be consistently oriented.
func (m *Mesh) Volumes() []float64 {
	if m.volumes != nil {
		return m.volumes
	}
	vols := make([]float64, m.NumCells)
	for k, tet := range m.TetNodes {
		v1 := m.Vertices[tet[0]]
		v2 := m.Vertices[tet[1]]
		v3 := m.Vertices[tet[2]]
		v4 := m.Vertices[tet[3]]
		pv := (v4[0]-v1[0])*((v2[1]-v1[1])*(v3[2]-v1[2])-(v2[2]-v1[2])*(v3[1]-v1[1])) +
			(v4[1]-v1[1])*((v2[2]-v1[2])*(v3[0]-v1[0])-(v2[0]-v1[0])*(v3[2]-v1[2])) +
			(v4[2]-v1[2])*((v2[0]-v1[0])*(v3[1]-v1[1])-(v2[1]-v1[1])*(v3[0]-v1[0]))
		vols[k] = math.Abs(pv) / 6
	}
	m.volumes = vols
	return vols
}
