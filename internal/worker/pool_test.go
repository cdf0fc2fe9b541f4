package worker

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutePreservesOrder(t *testing.T) {
	inputs := make([]int, 50)
	for i := range inputs {
		inputs[i] = i
	}

	for _, workers := range []int{0, 1, 4, 16} {
		t.Run(strconv.Itoa(workers), func(t *testing.T) {
			p := NewPool(workers, func(_ context.Context, n int) (string, error) {
				return strconv.Itoa(n * 2), nil
			})
			tasks := p.Execute(context.Background(), inputs)
			require.Len(t, tasks, len(inputs))
			for i, task := range tasks {
				assert.True(t, task.Done)
				assert.Equal(t, i, task.Input)
				assert.Equal(t, strconv.Itoa(i*2), task.Result)
			}
		})
	}
}

func TestExecuteKeepsErrorsPerTask(t *testing.T) {
	boom := errors.New("boom")
	p := NewPool(3, func(_ context.Context, n int) (int, error) {
		if n%2 == 1 {
			return 0, boom
		}
		return n, nil
	})
	tasks := p.Execute(context.Background(), []int{0, 1, 2, 3})
	assert.NoError(t, tasks[0].Err)
	assert.ErrorIs(t, tasks[1].Err, boom)
	assert.Equal(t, 2, tasks[2].Result)
	assert.ErrorIs(t, tasks[3].Err, boom)
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	p := NewPool(1, func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		return n, nil
	})
	tasks := p.Execute(ctx, []int{1, 2, 3})
	assert.Len(t, tasks, 3)
	assert.Zero(t, calls.Load())
	assert.False(t, tasks[0].Done)
}

func TestNewPoolClampsWorkers(t *testing.T) {
	p := NewPool(-3, func(_ context.Context, n int) (int, error) { return n, nil })
	assert.Equal(t, 1, p.Workers())
}
