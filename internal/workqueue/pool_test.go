package workqueue

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type errTest string

func (e errTest) Error() string { return string(e) }

const errBoom = errTest("boom")

func TestPoolRunsAllJobs(t *testing.T) {
	p := New(context.Background(), 4, 1024)

	var n int64
	for i := 0; i < 100; i++ {
		require.NoError(t, p.Submit(1, func() error {
			atomic.AddInt64(&n, 1)
			return nil
		}))
	}
	require.NoError(t, p.Close())
	require.EqualValues(t, 100, n)
}

func TestPoolCollectsFirstError(t *testing.T) {
	p := New(context.Background(), 2, 1024)

	require.NoError(t, p.Submit(1, func() error { return errBoom }))
	require.NoError(t, p.Submit(1, func() error { return nil }))
	err := p.Close()
	require.ErrorIs(t, err, errBoom)
}

func TestPoolRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := New(ctx, 1, 1)

	block := make(chan struct{})
	require.NoError(t, p.Submit(1, func() error {
		<-block
		return nil
	}))

	cancel()
	err := p.Submit(1, func() error { return nil })
	require.Error(t, err)
	close(block)
	p.Close()
}

func TestIdealWorkerCountPositive(t *testing.T) {
	require.GreaterOrEqual(t, IdealWorkerCount(), 1)
}
