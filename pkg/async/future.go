// Package async runs blocking calls on their own goroutine and hands the
// outcome back through a one-shot Future.
package async

import "context"

// Future holds the eventual result of a call started with Go.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go starts fn on a new goroutine. ctx is passed through to fn unchanged;
// cancelling it is the only way to abort the underlying work.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = fn(ctx)
	}()
	return f
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the result is available or ctx is done, whichever comes first.
// Abandoning a Future through ctx does not stop the running call.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
