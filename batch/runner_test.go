package batch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sbinet/npyio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/isciml/magsolve/magnetics"
	"github.com/isciml/magsolve/mesh"
	"github.com/isciml/magsolve/receivers"
	"github.com/isciml/magsolve/solver"
)

// constKernel answers every query with a fixed value; enough to follow data
// through the batch loop without any physics.
type constKernel struct {
	value float64
}

func (c *constKernel) Forward(args *solver.ForwardArgs) ([]float64, error) {
	out := make([]float64, solver.BufferCap)
	for i := 0; i < args.NumObs; i++ {
		out[i] = c.value
	}
	return out, nil
}

func (c *constKernel) Adjoint(args *solver.AdjointArgs) ([]float64, error) {
	out := make([]float64, solver.BufferCap)
	for k := 0; k < args.NumCells; k++ {
		out[k] = -c.value
	}
	return out, nil
}

func testMesh(t *testing.T) *mesh.Mesh {
	t.Helper()
	m, err := mesh.NewMesh(
		[][]float64{
			{0, 0, 0},
			{1, 0, 0},
			{0, 1, 0},
			{0, 0, 1},
			{1, 1, 1},
		},
		[][]int{
			{0, 1, 2, 3},
			{1, 2, 3, 4},
		},
	)
	require.NoError(t, err)
	return m
}

func testRunner(t *testing.T, inputDir, outputDir string, topo ProcessTopology, mode solver.Mode) *Runner {
	t.Helper()
	ambient, err := magnetics.NewAmbientField([]float64{3, 4, 0})
	require.NoError(t, err)

	rx := &receivers.ReceiverSet{Points: mat.NewDense(3, 3, []float64{
		10, 0, 0,
		0, 10, 0,
		0, 0, 10,
	})}
	return &Runner{
		Mesh:         testMesh(t),
		Solver:       solver.New(rx, ambient, &constKernel{value: 42}),
		Ambient:      ambient,
		Topology:     topo,
		Mode:         mode,
		InputFolder:  inputDir,
		OutputFolder: outputDir,
	}
}

// writePropertyFiles drops one susceptibility column per name, sized for the
// two-cell test mesh.
func writePropertyFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		f, err := os.Create(filepath.Join(dir, name))
		require.NoError(t, err)
		require.NoError(t, npyio.Write(f, []float64{0.1, 0.2}))
		require.NoError(t, f.Close())
	}
}

func readResult(t *testing.T, path string) []float64 {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var data []float64
	require.NoError(t, npyio.Read(f, &data))
	return data
}

func TestRunnerForwardSingleProcess(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "out")
	writePropertyFiles(t, inputDir, "model_000.npy", "model_001.npy", "model_002.npy")

	r := testRunner(t, inputDir, outputDir, ProcessTopology{Rank: 0, Size: 1}, solver.Forward)
	require.NoError(t, r.Run())

	// One result per input, keyed by input name with the default mode prefix.
	for _, name := range []string{"model_000.npy", "model_001.npy", "model_002.npy"} {
		got := readResult(t, filepath.Join(outputDir, "forward_"+name))
		assert.Equal(t, []float64{42, 42, 42}, got)
	}
}

func TestRunnerAdjointOutputLength(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "out")
	writePropertyFiles(t, inputDir, "model.npy")

	r := testRunner(t, inputDir, outputDir, ProcessTopology{Rank: 0, Size: 1}, solver.Adjoint)
	require.NoError(t, r.Run())

	// One value per mesh cell, prefixed with the adjoint mode name.
	got := readResult(t, filepath.Join(outputDir, "adjoint_model.npy"))
	assert.Equal(t, []float64{-42, -42}, got)
}

func TestRunnerCustomPrefix(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "out")
	writePropertyFiles(t, inputDir, "model.npy")

	r := testRunner(t, inputDir, outputDir, ProcessTopology{Rank: 0, Size: 1}, solver.Forward)
	r.OutputPrefix = "pred"
	require.NoError(t, r.Run())

	assert.FileExists(t, filepath.Join(outputDir, "pred_model.npy"))
}

// Two ranks splitting three files: rank 0 takes the first file, rank 1 the
// remaining two, with no file processed twice.
func TestRunnerPartitionedRun(t *testing.T) {
	inputDir := t.TempDir()
	writePropertyFiles(t, inputDir, "a.npy", "b.npy", "c.npy")

	out0 := filepath.Join(t.TempDir(), "out0")
	r0 := testRunner(t, inputDir, out0, ProcessTopology{Rank: 0, Size: 2}, solver.Forward)
	require.NoError(t, r0.Run())

	out1 := filepath.Join(t.TempDir(), "out1")
	r1 := testRunner(t, inputDir, out1, ProcessTopology{Rank: 1, Size: 2}, solver.Forward)
	require.NoError(t, r1.Run())

	assert.FileExists(t, filepath.Join(out0, "forward_a.npy"))
	assert.NoFileExists(t, filepath.Join(out0, "forward_b.npy"))

	assert.FileExists(t, filepath.Join(out1, "forward_b.npy"))
	assert.FileExists(t, filepath.Join(out1, "forward_c.npy"))
	assert.NoFileExists(t, filepath.Join(out1, "forward_a.npy"))
}

func TestRunnerOutputDirectoryNotEmpty(t *testing.T) {
	inputDir := t.TempDir()
	writePropertyFiles(t, inputDir, "model.npy")

	outputDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, "stale.npy"), []byte("x"), 0644))

	r := testRunner(t, inputDir, outputDir, ProcessTopology{Rank: 0, Size: 1}, solver.Forward)
	err := r.Run()
	require.Error(t, err)

	var dirErr *OutputDirectoryNotEmptyError
	require.True(t, errors.As(err, &dirErr))
	assert.Equal(t, outputDir, dirErr.Dir)
}

func TestRunnerInsufficientFiles(t *testing.T) {
	inputDir := t.TempDir()
	writePropertyFiles(t, inputDir, "model.npy")

	outputDir := filepath.Join(t.TempDir(), "out")
	r := testRunner(t, inputDir, outputDir, ProcessTopology{Rank: 0, Size: 2}, solver.Forward)

	err := r.Run()
	require.Error(t, err)

	var insErr *InsufficientFilesError
	assert.True(t, errors.As(err, &insErr))
}

func TestRunnerMissingInputFolder(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "out")
	r := testRunner(t, filepath.Join(t.TempDir(), "nope"), outputDir, ProcessTopology{Rank: 0, Size: 1}, solver.Forward)
	require.Error(t, r.Run())
}

// A corrupt property file aborts the run; files sorted after it are never
// processed.
func TestRunnerAbortsOnBadPropertyFile(t *testing.T) {
	inputDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "aaa.npy"), []byte("not numpy"), 0644))
	writePropertyFiles(t, inputDir, "bbb.npy")

	outputDir := filepath.Join(t.TempDir(), "out")
	r := testRunner(t, inputDir, outputDir, ProcessTopology{Rank: 0, Size: 1}, solver.Forward)

	err := r.Run()
	require.Error(t, err)

	var loadErr *magnetics.LoadError
	assert.True(t, errors.As(err, &loadErr))
	assert.NoFileExists(t, filepath.Join(outputDir, "forward_bbb.npy"))
}
