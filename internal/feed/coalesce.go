package feed

import (
	"context"
	"sync"
	"time"
)

// call is one upstream fetch that any number of callers may wait on.
type call[T any] struct {
	done   chan struct{}
	result T
	err    error
}

// coalescer shares one in-flight fetch per key between concurrent callers.
// fn runs detached from any single caller so a caller giving up does not
// cancel the fetch for the others.
type coalescer[T any] struct {
	mu       sync.Mutex
	inFlight map[string]*call[T]
	timeout  time.Duration
}

func newCoalescer[T any](timeout time.Duration) *coalescer[T] {
	return &coalescer[T]{
		inFlight: make(map[string]*call[T]),
		timeout:  timeout,
	}
}

// Do returns the result of the in-flight fetch for key, starting one with fn
// if none is running. shared reports whether the caller joined an existing fetch.
func (c *coalescer[T]) Do(ctx context.Context, key string, fn func(context.Context) (T, error)) (result T, shared bool, err error) {
	c.mu.Lock()
	cl, ok := c.inFlight[key]
	if !ok {
		cl = &call[T]{done: make(chan struct{})}
		c.inFlight[key] = cl
		go c.run(key, cl, fn)
	}
	c.mu.Unlock()

	waitCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	select {
	case <-cl.done:
		return cl.result, ok, cl.err
	case <-waitCtx.Done():
		var zero T
		return zero, ok, waitCtx.Err()
	}
}

func (c *coalescer[T]) run(key string, cl *call[T], fn func(context.Context) (T, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	cl.result, cl.err = fn(ctx)

	c.mu.Lock()
	delete(c.inFlight, key)
	c.mu.Unlock()
	close(cl.done)
}
