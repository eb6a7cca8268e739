package pool

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/visimlab/simrecon/model/types"
)

func TestSubmitAndWait(t *testing.T) {
	ctx := context.Background()
	service := New(WithWorkers(2))
	defer service.Shutdown()

	handle, err := service.Submit(ctx, func() error { return nil })
	assert.NoError(t, err)
	assert.NoError(t, handle.Wait(ctx))

	boom := errors.New("engine blew up")
	handle, err = service.Submit(ctx, func() error { return boom })
	assert.NoError(t, err)
	assert.ErrorIs(t, handle.Wait(ctx), boom)
}

func TestConcurrencyBound(t *testing.T) {
	ctx := context.Background()
	service := New(WithWorkers(2), WithQueueSize(8))
	defer service.Shutdown()

	var mu sync.Mutex
	active, peak := 0, 0
	task := func() error {
		mu.Lock()
		active++
		if active > peak {
			peak = active
		}
		mu.Unlock()
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
		return nil
	}

	handles := make([]types.Handle, 0, 6)
	for i := 0; i < 6; i++ {
		handle, err := service.Submit(ctx, task)
		assert.NoError(t, err)
		handles = append(handles, handle)
	}
	for _, handle := range handles {
		assert.NoError(t, handle.Wait(ctx))
	}

	mu.Lock()
	defer mu.Unlock()
	assert.EqualValues(t, 2, peak)
}

func TestWorkerRecycling(t *testing.T) {
	ctx := context.Background()
	// Every task forces a fresh worker; all tasks must still complete.
	service := New(WithWorkers(1), WithRecycleAfter(1), WithQueueSize(8))
	defer service.Shutdown()

	for i := 0; i < 5; i++ {
		handle, err := service.Submit(ctx, func() error { return nil })
		assert.NoError(t, err)
		assert.NoError(t, handle.Wait(ctx))
	}
}

func TestPanicRecovered(t *testing.T) {
	ctx := context.Background()
	service := New(WithWorkers(1))
	defer service.Shutdown()

	handle, err := service.Submit(ctx, func() error { panic("kaboom") })
	assert.NoError(t, err)
	waitErr := handle.Wait(ctx)
	assert.Error(t, waitErr)
	assert.Contains(t, waitErr.Error(), "kaboom")

	// The pool survives the panic.
	handle, err = service.Submit(ctx, func() error { return nil })
	assert.NoError(t, err)
	assert.NoError(t, handle.Wait(ctx))
}

func TestSubmitValidation(t *testing.T) {
	service := New()
	defer service.Shutdown()
	_, err := service.Submit(context.Background(), nil)
	assert.ErrorIs(t, err, types.ErrInvalid)
}

func TestSubmitRespectsContext(t *testing.T) {
	service := New(WithWorkers(1), WithQueueSize(0))
	defer service.Shutdown()

	ctx := context.Background()
	block := make(chan struct{})
	// Occupy the single worker.
	handle, err := service.Submit(ctx, func() error { <-block; return nil })
	assert.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	// The unbuffered queue has no idle worker; the context wins.
	_, err = service.Submit(cancelled, func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)

	close(block)
	assert.NoError(t, handle.Wait(ctx))
}
