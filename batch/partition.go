package batch

import (
	"fmt"
	"os"
	"strconv"
)

// ProcessTopology identifies one process within the fixed set of
// cooperating workers launched for a batch run. It replaces ambient
// MPI-style rank/size globals with an explicit value.
type ProcessTopology struct {
	Rank int
	Size int
}

// NewProcessTopology validates rank and process count.
func NewProcessTopology(rank, size int) (ProcessTopology, error) {
	if size < 1 {
		return ProcessTopology{}, fmt.Errorf("batch: process count must be >= 1, got %d", size)
	}
	if rank < 0 || rank >= size {
		return ProcessTopology{}, fmt.Errorf("batch: rank %d out of range [0,%d)", rank, size)
	}
	return ProcessTopology{Rank: rank, Size: size}, nil
}

// TopologyFromEnv reads rank and process count from the launcher
// environment: Open MPI first, then PMI.
func TopologyFromEnv() (ProcessTopology, bool) {
	for _, keys := range [][2]string{
		{"OMPI_COMM_WORLD_RANK", "OMPI_COMM_WORLD_SIZE"},
		{"PMI_RANK", "PMI_SIZE"},
	} {
		rankStr, okRank := os.LookupEnv(keys[0])
		sizeStr, okSize := os.LookupEnv(keys[1])
		if !okRank || !okSize {
			continue
		}
		rank, err1 := strconv.Atoi(rankStr)
		size, err2 := strconv.Atoi(sizeStr)
		if err1 != nil || err2 != nil {
			continue
		}
		topo, err := NewProcessTopology(rank, size)
		if err != nil {
			continue
		}
		return topo, true
	}
	return ProcessTopology{}, false
}

// InsufficientFilesError reports more processes than input files; the run
// fails fast rather than leaving processes idle with empty ranges.
type InsufficientFilesError struct {
	Files     int
	Processes int
}

func (e *InsufficientFilesError) Error() string {
	return fmt.Sprintf("batch: number of processes (%d) > number of files (%d), please make sure that np <= total files", e.Processes, e.Files)
}

// Range is a process's contiguous half-open slice [Start,End) of the stably
// sorted file list.
type Range struct {
	Start, End int
}

// PartitionFiles computes this rank's share of totalFiles. With
// share = totalFiles/size taken real-valued, rank r covers
// [floor(r*share), floor((r+1)*share)) and the last rank runs through to
// totalFiles. Shares are contiguous, disjoint and cover [0,totalFiles)
// exactly, so ranks need no coordination beyond this computation.
func PartitionFiles(totalFiles int, topo ProcessTopology) (Range, error) {
	if topo.Size > totalFiles {
		return Range{}, &InsufficientFilesError{Files: totalFiles, Processes: topo.Size}
	}
	share := float64(totalFiles) / float64(topo.Size)
	r := Range{Start: int(float64(topo.Rank) * share)}
	if topo.Rank == topo.Size-1 {
		r.End = totalFiles
	} else {
		r.End = int(float64(topo.Rank+1) * share)
	}
	return r, nil
}
