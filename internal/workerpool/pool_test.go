package workerpool

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPool_RunExecutesEveryJob(t *testing.T) {
	var count int64
	jobs := make([]func(), 20)
	for i := range jobs {
		jobs[i] = func() { atomic.AddInt64(&count, 1) }
	}

	New(4).Run(jobs)
	require.EqualValues(t, 20, count)
}

func TestPool_RunNeverExceedsSize(t *testing.T) {
	var current, max int64
	jobs := make([]func(), 50)
	for i := range jobs {
		jobs[i] = func() {
			n := atomic.AddInt64(&current, 1)
			for {
				m := atomic.LoadInt64(&max)
				if n <= m || atomic.CompareAndSwapInt64(&max, m, n) {
					break
				}
			}
			atomic.AddInt64(&current, -1)
		}
	}

	New(3).Run(jobs)
	require.LessOrEqual(t, max, int64(3))
}

func TestPool_RunWithNoJobsReturnsImmediately(t *testing.T) {
	New(5).Run(nil)
}

func TestNew_ClampsSizeBelowOneToOne(t *testing.T) {
	require.Equal(t, 1, New(0).Size())
	require.Equal(t, 1, New(-3).Size())
	require.Equal(t, 5, New(5).Size())
}

func TestMap_PreservesOrderOfResults(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	results := Map(2, items, func(n int) int { return n * n })

	require.Equal(t, []int{1, 4, 9, 16, 25}, results)
}
