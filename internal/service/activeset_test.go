package service

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalworkshop/evalworkshop/api/internal/domain"
)

func makePool(n int) []domain.Trace {
	traces := make([]domain.Trace, n)
	for i := range traces {
		traces[i] = domain.Trace{ID: fmt.Sprintf("trace-%03d", i+1), Seq: int64(i + 1)}
	}
	return traces
}

func TestChronologicalPrefix(t *testing.T) {
	pool := makePool(10)

	ids := chronologicalPrefix(pool, 3)
	assert.Equal(t, []string{"trace-001", "trace-002", "trace-003"}, ids)

	t.Run("limit above pool size returns whole pool", func(t *testing.T) {
		ids := chronologicalPrefix(pool, 50)
		assert.Len(t, ids, 10)
		assert.Equal(t, "trace-010", ids[9])
	})

	t.Run("empty pool", func(t *testing.T) {
		assert.Empty(t, chronologicalPrefix(nil, 5))
	})
}

func TestRandomSample(t *testing.T) {
	pool := makePool(20)

	t.Run("same seed gives same sample", func(t *testing.T) {
		a := randomSample(pool, 5, rand.New(rand.NewSource(42)))
		b := randomSample(pool, 5, rand.New(rand.NewSource(42)))
		assert.Equal(t, a, b)
	})

	t.Run("sample has no duplicates and stays within the pool", func(t *testing.T) {
		ids := randomSample(pool, 8, rand.New(rand.NewSource(7)))
		require.Len(t, ids, 8)

		poolIDs := make(map[string]bool)
		for _, tr := range pool {
			poolIDs[tr.ID] = true
		}
		seen := make(map[string]bool)
		for _, id := range ids {
			assert.True(t, poolIDs[id])
			assert.False(t, seen[id], "duplicate %s", id)
			seen[id] = true
		}
	})

	t.Run("limit above pool size returns whole pool", func(t *testing.T) {
		ids := randomSample(pool, 100, rand.New(rand.NewSource(1)))
		assert.Len(t, ids, 20)
	})
}

func TestComplement(t *testing.T) {
	pool := makePool(5)

	rest := complement(pool, []string{"trace-002", "trace-004"})
	assert.Equal(t, []string{"trace-001", "trace-003", "trace-005"}, rest)

	t.Run("full active set leaves nothing", func(t *testing.T) {
		rest := complement(pool, []string{"trace-001", "trace-002", "trace-003", "trace-004", "trace-005"})
		assert.Empty(t, rest)
	})
}

func TestGrowActiveSet(t *testing.T) {
	pool := makePool(6)

	t.Run("appends complement in pool order", func(t *testing.T) {
		grown, added := growActiveSet(pool, []string{"trace-003", "trace-001"}, 2)
		assert.Equal(t, 2, added)
		assert.Equal(t, []string{"trace-003", "trace-001", "trace-002", "trace-004"}, grown)
	})

	t.Run("existing members keep their positions", func(t *testing.T) {
		active := []string{"trace-005", "trace-002"}
		grown, _ := growActiveSet(pool, active, 1)
		assert.Equal(t, active, grown[:2])
	})

	t.Run("count capped at complement size", func(t *testing.T) {
		grown, added := growActiveSet(pool, []string{"trace-001"}, 100)
		assert.Equal(t, 5, added)
		assert.Len(t, grown, 6)
	})

	t.Run("empty complement adds zero", func(t *testing.T) {
		active := []string{"trace-001", "trace-002", "trace-003", "trace-004", "trace-005", "trace-006"}
		grown, added := growActiveSet(pool, active, 3)
		assert.Equal(t, 0, added)
		assert.Equal(t, active, grown)
	})
}

func TestIsPermutation(t *testing.T) {
	assert.True(t, isPermutation([]string{"a", "b", "c"}, []string{"c", "a", "b"}))
	assert.False(t, isPermutation([]string{"a", "b"}, []string{"a", "b", "c"}))
	assert.False(t, isPermutation([]string{"a", "b", "c"}, []string{"a", "b", "b"}))
	assert.False(t, isPermutation([]string{"a", "b"}, []string{"a", "x"}))
	assert.True(t, isPermutation(nil, nil))
}
