package readers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/isciml/magsolve/mesh"
)

const vtkTetra = 10

// maxSectionCount bounds section counts so a malformed file cannot drive an
// absurd allocation.
const maxSectionCount = 1 << 31

func checkCount(section string, n int) error {
	if n < 0 || n > maxSectionCount {
		return fmt.Errorf("%s count %d out of range", section, n)
	}
	return nil
}

// ReadVTKLegacy reads a legacy ASCII VTK file (.vtk) holding an
// UNSTRUCTURED_GRID of tetrahedra. Binary files and non-tet cell types are
// rejected.
func ReadVTKLegacy(filename string) (*mesh.Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, &mesh.LoadError{Path: filename, Err: err}
	}
	defer file.Close()

	msh, err := parseVTK(file)
	if err != nil {
		return nil, &mesh.LoadError{Path: filename, Err: err}
	}
	return msh, nil
}

func parseVTK(r io.Reader) (*mesh.Mesh, error) {
	br := bufio.NewReader(r)

	// Header: version comment, title, format, dataset type.
	for _, want := range []string{"# vtk", "", "ASCII", "DATASET UNSTRUCTURED_GRID"} {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if want != "" && !containsPrefix(line, want) {
			return nil, fmt.Errorf("expected %q header line, got %q", want, trimEOL(line))
		}
	}

	toks := newTokenScanner(br)

	var (
		vertices [][]float64
		tets     [][]int
	)
	for {
		keyword, err := toks.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch keyword {
		case "POINTS":
			n, err := toks.nextInt()
			if err != nil {
				return nil, fmt.Errorf("POINTS count: %w", err)
			}
			if err = checkCount("POINTS", n); err != nil {
				return nil, err
			}
			if _, err = toks.next(); err != nil { // data type token
				return nil, fmt.Errorf("POINTS data type: %w", err)
			}
			vertices = make([][]float64, n)
			for i := 0; i < n; i++ {
				v := make([]float64, 3)
				for j := 0; j < 3; j++ {
					if v[j], err = toks.nextFloat(); err != nil {
						return nil, fmt.Errorf("point %d: %w", i, err)
					}
				}
				vertices[i] = v
			}

		case "CELLS":
			n, err := toks.nextInt()
			if err != nil {
				return nil, fmt.Errorf("CELLS count: %w", err)
			}
			if err = checkCount("CELLS", n); err != nil {
				return nil, err
			}
			if _, err = toks.nextInt(); err != nil { // total list size
				return nil, fmt.Errorf("CELLS size: %w", err)
			}
			tets = make([][]int, n)
			for i := 0; i < n; i++ {
				npts, err := toks.nextInt()
				if err != nil {
					return nil, fmt.Errorf("cell %d: %w", i, err)
				}
				if npts != 4 {
					return nil, fmt.Errorf("cell %d: expected 4 nodes, got %d", i, npts)
				}
				tet := make([]int, 4)
				for j := 0; j < 4; j++ {
					if tet[j], err = toks.nextInt(); err != nil {
						return nil, fmt.Errorf("cell %d node %d: %w", i, j, err)
					}
				}
				tets[i] = tet
			}

		case "CELL_TYPES":
			n, err := toks.nextInt()
			if err != nil {
				return nil, fmt.Errorf("CELL_TYPES count: %w", err)
			}
			if err = checkCount("CELL_TYPES", n); err != nil {
				return nil, err
			}
			for i := 0; i < n; i++ {
				ct, err := toks.nextInt()
				if err != nil {
					return nil, fmt.Errorf("cell type %d: %w", i, err)
				}
				if ct != vtkTetra {
					return nil, fmt.Errorf("cell %d: unsupported VTK cell type %d, only tetrahedra (%d) are supported", i, ct, vtkTetra)
				}
			}

		default:
			// Trailing sections (CELL_DATA, POINT_DATA...) are not consumed.
			if vertices != nil && tets != nil {
				return mesh.NewMesh(vertices, tets)
			}
			return nil, fmt.Errorf("unexpected section %q", keyword)
		}
	}

	if vertices == nil || tets == nil {
		return nil, fmt.Errorf("missing POINTS or CELLS section")
	}
	return mesh.NewMesh(vertices, tets)
}

// tokenScanner yields whitespace-separated words; VTK sections wrap values
// over arbitrary line breaks.
type tokenScanner struct {
	s *bufio.Scanner
}

func newTokenScanner(r io.Reader) *tokenScanner {
	s := bufio.NewScanner(r)
	s.Split(bufio.ScanWords)
	return &tokenScanner{s: s}
}

func (t *tokenScanner) next() (string, error) {
	if !t.s.Scan() {
		if err := t.s.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return t.s.Text(), nil
}

func (t *tokenScanner) nextInt() (int, error) {
	tok, err := t.next()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(tok)
}

func (t *tokenScanner) nextFloat() (float64, error) {
	tok, err := t.next()
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(tok, 64)
}

func containsPrefix(line, prefix string) bool {
	for len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
		line = line[1:]
	}
	return len(line) >= len(prefix) && line[:len(prefix)] == prefix
}

func trimEOL(line string) string {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line
}
