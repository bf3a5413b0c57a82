package threadpool

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSequentialRunsAllPartitions(t *testing.T) {
	var count int64
	p := NewSequential()
	err := p.ParallelFor(context.Background(), 100, func(i int) error {
		atomic.AddInt64(&count, 1)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(100), count)
}

func TestFixedPoolRunsAllPartitions(t *testing.T) {
	var count int64
	p := NewFixedPool(4)
	defer p.Close()
	err := p.ParallelFor(context.Background(), 1000, func(i int) error {
		atomic.AddInt64(&count, 1)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(1000), count)
}

func TestFixedPoolRecoversPanic(t *testing.T) {
	p := NewFixedPool(2)
	defer p.Close()
	err := p.ParallelFor(context.Background(), 10, func(i int) error {
		if i == 5 {
			panic("boom")
		}
		return nil
	})
	require.Error(t, err)
}

func TestCooperativeRunsAllPartitions(t *testing.T) {
	var count int64
	c := NewCooperative(4)
	defer c.Close()
	err := c.ParallelFor(context.Background(), 500, func(i int) error {
		atomic.AddInt64(&count, 1)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(500), count)
}

func TestFixedPoolPropagatesFirstError(t *testing.T) {
	p := NewFixedPool(1)
	defer p.Close()
	sentinel := context.Canceled
	err := p.ParallelFor(context.Background(), 5, func(i int) error {
		if i == 2 {
			return sentinel
		}
		return nil
	})
	require.Equal(t, sentinel, err)
}
