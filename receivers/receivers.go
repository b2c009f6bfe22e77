package receivers

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ReceiverSet holds the observation point coordinates for a run, shared
// read-only across all processes and all property files. Only the first
// three columns of the source table are used.
type ReceiverSet struct {
	Points *mat.Dense // Count x 3
}

// Load reads receiver locations from a CSV file, skipping skipHeader leading
// lines. Rows must carry at least three numeric columns; extra columns are
// ignored.
func Load(path string, skipHeader int) (*ReceiverSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("receivers: %w", err)
	}
	defer f.Close()

	rd := csv.NewReader(f)
	rd.FieldsPerRecord = -1
	records, err := rd.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("receivers: failed to parse %s: %w", path, err)
	}
	if skipHeader < 0 {
		skipHeader = 0
	}
	if skipHeader > len(records) {
		skipHeader = len(records)
	}
	records = records[skipHeader:]
	if len(records) == 0 {
		return nil, fmt.Errorf("receivers: no observation points in %s", path)
	}

	pts := mat.NewDense(len(records), 3, nil)
	for i, rec := range records {
		if len(rec) < 3 {
			return nil, fmt.Errorf("receivers: row %d of %s has %d columns, need at least 3", i+skipHeader+1, path, len(rec))
		}
		for j := 0; j < 3; j++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[j]), 64)
			if err != nil {
				return nil, fmt.Errorf("receivers: row %d column %d of %s: %w", i+skipHeader+1, j+1, path, err)
			}
			pts.Set(i, j, v)
		}
	}
	return &ReceiverSet{Points: pts}, nil
}

// Count returns the number of observation points.
func (r *ReceiverSet) Count() int {
	n, _ := r.Points.Dims()
	return n
}
