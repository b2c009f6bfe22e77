package batch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionFilesTenOverThree(t *testing.T) {
	want := []Range{
		{Start: 0, End: 3},
		{Start: 3, End: 6},
		{Start: 6, End: 10},
	}
	for rank, w := range want {
		topo, err := NewProcessTopology(rank, 3)
		require.NoError(t, err)

		rng, err := PartitionFiles(10, topo)
		require.NoError(t, err)
		assert.Equal(t, w, rng, "rank %d", rank)
	}
}

// The per-rank ranges are contiguous, disjoint and cover [0,total) exactly for
// every admissible process count.
func TestPartitionFilesCoversExactly(t *testing.T) {
	for total := 1; total <= 25; total++ {
		for size := 1; size <= total; size++ {
			prevEnd := 0
			for rank := 0; rank < size; rank++ {
				topo := ProcessTopology{Rank: rank, Size: size}
				rng, err := PartitionFiles(total, topo)
				require.NoError(t, err, "total=%d size=%d rank=%d", total, size, rank)

				assert.Equal(t, prevEnd, rng.Start, "total=%d size=%d rank=%d", total, size, rank)
				assert.GreaterOrEqual(t, rng.End, rng.Start)
				prevEnd = rng.End
			}
			assert.Equal(t, total, prevEnd, "total=%d size=%d", total, size)
		}
	}
}

func TestPartitionFilesInsufficientFiles(t *testing.T) {
	topo := ProcessTopology{Rank: 0, Size: 4}

	_, err := PartitionFiles(3, topo)
	require.Error(t, err)

	var insErr *InsufficientFilesError
	require.True(t, errors.As(err, &insErr))
	assert.Equal(t, 3, insErr.Files)
	assert.Equal(t, 4, insErr.Processes)
	assert.Contains(t, err.Error(), "np <= total files")
}

func TestNewProcessTopology(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		topo, err := NewProcessTopology(2, 4)
		require.NoError(t, err)
		assert.Equal(t, ProcessTopology{Rank: 2, Size: 4}, topo)
	})

	t.Run("ZeroSize", func(t *testing.T) {
		_, err := NewProcessTopology(0, 0)
		require.Error(t, err)
	})

	t.Run("NegativeRank", func(t *testing.T) {
		_, err := NewProcessTopology(-1, 4)
		require.Error(t, err)
	})

	t.Run("RankBeyondSize", func(t *testing.T) {
		_, err := NewProcessTopology(4, 4)
		require.Error(t, err)
	})
}

func TestTopologyFromEnv(t *testing.T) {
	t.Run("OpenMPI", func(t *testing.T) {
		t.Setenv("OMPI_COMM_WORLD_RANK", "1")
		t.Setenv("OMPI_COMM_WORLD_SIZE", "4")

		topo, ok := TopologyFromEnv()
		require.True(t, ok)
		assert.Equal(t, ProcessTopology{Rank: 1, Size: 4}, topo)
	})

	t.Run("PMIFallback", func(t *testing.T) {
		t.Setenv("OMPI_COMM_WORLD_RANK", "garbage")
		t.Setenv("OMPI_COMM_WORLD_SIZE", "garbage")
		t.Setenv("PMI_RANK", "0")
		t.Setenv("PMI_SIZE", "2")

		topo, ok := TopologyFromEnv()
		require.True(t, ok)
		assert.Equal(t, ProcessTopology{Rank: 0, Size: 2}, topo)
	})

	t.Run("Unparseable", func(t *testing.T) {
		t.Setenv("OMPI_COMM_WORLD_RANK", "x")
		t.Setenv("OMPI_COMM_WORLD_SIZE", "y")
		t.Setenv("PMI_RANK", "")
		t.Setenv("PMI_SIZE", "")

		_, ok := TopologyFromEnv()
		assert.False(t, ok)
	})
}
