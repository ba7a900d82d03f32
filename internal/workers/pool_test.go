package workers

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWorkerPool_DefaultsToCPUCount(t *testing.T) {
	assert.Greater(t, NewWorkerPool(0).Size(), 0)
	assert.Equal(t, 3, NewWorkerPool(3).Size())
}

func TestMap_PreservesOrder(t *testing.T) {
	pool := NewWorkerPool(4)
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	results := Map(pool, items, func(index int, item int) int {
		return item * item
	})

	assert.Len(t, results, 100)
	for i, r := range results {
		assert.Equal(t, i*i, r)
	}
}

func TestMap_ProcessesEveryItemOnce(t *testing.T) {
	pool := NewWorkerPool(8)
	var calls int64

	results := Map(pool, []string{"a", "b", "c"}, func(index int, item string) string {
		atomic.AddInt64(&calls, 1)
		return item + "!"
	})

	assert.Equal(t, []string{"a!", "b!", "c!"}, results)
	assert.Equal(t, int64(3), atomic.LoadInt64(&calls))
}

func TestMap_Empty(t *testing.T) {
	results := Map(NewWorkerPool(2), []int{}, func(int, int) int { return 0 })
	assert.Empty(t, results)
}
