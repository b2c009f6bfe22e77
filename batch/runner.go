package batch

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/sbinet/npyio"

	"github.com/isciml/magsolve/magnetics"
	"github.com/isciml/magsolve/mesh"
	"github.com/isciml/magsolve/solver"
)

// OutputDirectoryNotEmptyError reports a pre-existing, non-empty output
// folder. The output directory is the only durable shared resource; a
// non-empty one at start risks mixing results from a previous run.
type OutputDirectoryNotEmptyError struct {
	Dir string
}

func (e *OutputDirectoryNotEmptyError) Error() string {
	return fmt.Sprintf("batch: output folder %s is not empty", e.Dir)
}

// Runner drives one process's share of the batch: for every assigned
// property file it loads properties, solves and persists one result keyed by
// the input file name. The first per-file failure aborts the run; outputs
// already written stay in place.
type Runner struct {
	Mesh     *mesh.Mesh
	Solver   *solver.Solver
	Ambient  *magnetics.AmbientField
	Topology ProcessTopology
	Mode     solver.Mode

	InputFolder  string
	OutputFolder string
	OutputPrefix string // defaults to the mode name when empty

	Log *log.Logger
}

// Run validates the output folder, partitions the sorted input file list and
// processes this rank's range sequentially.
func (r *Runner) Run() error {
	if err := r.prepareOutputFolder(); err != nil {
		return err
	}
	files, err := r.listInputFiles()
	if err != nil {
		return err
	}
	rng, err := PartitionFiles(len(files), r.Topology)
	if err != nil {
		return err
	}
	r.logf("start_file_index = %d, end_file_index = %d", rng.Start, rng.End)
	r.logf("processing %d files", rng.End-rng.Start)

	prefix := r.OutputPrefix
	if prefix == "" {
		prefix = string(r.Mode)
	}
	for _, file := range files[rng.Start:rng.End] {
		props, err := magnetics.LoadProperties(file, r.Ambient)
		if err != nil {
			return err
		}
		out, err := r.Solver.Solve(r.Mesh, props, r.Mode)
		if err != nil {
			return fmt.Errorf("batch: solving %s: %w", file, err)
		}
		dst := filepath.Join(r.OutputFolder, prefix+"_"+filepath.Base(file))
		if err := writeResult(dst, out); err != nil {
			return err
		}
		r.logf("%s done", filepath.Base(file))
	}
	return nil
}

func (r *Runner) prepareOutputFolder() error {
	entries, err := os.ReadDir(r.OutputFolder)
	switch {
	case err == nil:
		if len(entries) > 0 {
			return &OutputDirectoryNotEmptyError{Dir: r.OutputFolder}
		}
		return nil
	case os.IsNotExist(err):
		r.logf("output folder %s does not exist - creating", r.OutputFolder)
		return os.MkdirAll(r.OutputFolder, 0o755)
	default:
		return fmt.Errorf("batch: output folder %s: %w", r.OutputFolder, err)
	}
}

// listInputFiles returns the lexicographically sorted .npy property files.
// Sorting keeps the partition deterministic across ranks.
func (r *Runner) listInputFiles() ([]string, error) {
	if _, err := os.Stat(r.InputFolder); err != nil {
		return nil, fmt.Errorf("batch: input folder %s: %w", r.InputFolder, err)
	}
	files, err := filepath.Glob(filepath.Join(r.InputFolder, "*.npy"))
	if err != nil {
		return nil, fmt.Errorf("batch: input folder %s: %w", r.InputFolder, err)
	}
	sort.Strings(files)
	return files, nil
}

func writeResult(path string, data []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("batch: %w", err)
	}
	if err := npyio.Write(f, data); err != nil {
		f.Close()
		return fmt.Errorf("batch: writing %s: %w", path, err)
	}
	return f.Close()
}

func (r *Runner) logf(format string, args ...interface{}) {
	if r.Log != nil {
		r.Log.Printf(format, args...)
	}
}
