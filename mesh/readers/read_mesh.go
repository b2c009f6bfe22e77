package readers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/isciml/magsolve/mesh"
)

// ReadMeshFile reads a mesh file based on extension
func ReadMeshFile(filename string) (*mesh.Mesh, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".vtk":
		return ReadVTKLegacy(filename)
	default:
		return nil, &mesh.LoadError{Path: filename, Err: fmt.Errorf("unsupported mesh format: %s", ext)}
	}
}
