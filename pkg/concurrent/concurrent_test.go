package concurrent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPreservesOrder(t *testing.T) {
	in := []int{5, 4, 3, 2, 1}
	out, err := Map(context.Background(), in, 2, func(_ context.Context, v int) (int, error) {
		return v * 10, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{50, 40, 30, 20, 10}, out)
}

func TestForEachReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int32
	err := ForEach(context.Background(), []int{1, 2, 3}, 1, func(_ context.Context, v int) error {
		calls.Add(1)
		if v == 1 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.LessOrEqual(t, calls.Load(), int32(3))
}

func TestForEachRunsAll(t *testing.T) {
	var sum atomic.Int64
	err := ForEach(context.Background(), []int64{1, 2, 3, 4}, 0, func(_ context.Context, v int64) error {
		sum.Add(v)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), sum.Load())
}
