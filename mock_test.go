package mediasoup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// MockFunc records the calls of an event handler. Handlers may run on the
// channel reader goroutine, so expectations wait up to timeout.
type MockFunc struct {
	require    *require.Assertions
	notifyChan chan []any
	results    [][]any
	timeout    time.Duration
}

func NewMockFunc(t *testing.T) *MockFunc {
	return &MockFunc{
		require:    require.New(t),
		notifyChan: make(chan []any, 100),
		timeout:    time.Second,
	}
}

func (w *MockFunc) WithTimeout(timeout time.Duration) *MockFunc {
	w.timeout = timeout
	return w
}

// Fn returns a handler taking no argument.
func (w *MockFunc) Fn() func() {
	return func() {
		w.notifyChan <- nil
	}
}

// mockFn returns a handler taking one argument.
func mockFn[T any](w *MockFunc) func(T) {
	return func(v T) {
		w.notifyChan <- []any{v}
	}
}

func (w *MockFunc) ExpectCalledWith(args ...any) {
	w.waitFor(1)

	if len(w.results) == 0 {
		w.require.FailNow("fn is not called")
		return
	}

	last := w.results[len(w.results)-1]

	if len(args) != len(last) {
		w.require.FailNow("fn is called, but the number of arguments is not the same")
		return
	}
	for i, arg := range args {
		w.require.EqualValues(arg, last[i])
	}
}

// LastArg returns the first argument of the last call.
func (w *MockFunc) LastArg() any {
	w.waitFor(1)
	w.require.NotEmpty(w.results, "fn is not called")

	last := w.results[len(w.results)-1]
	w.require.NotEmpty(last, "fn is called without arguments")
	return last[0]
}

func (w *MockFunc) ExpectCalled(msgAndArgs ...any) {
	w.waitFor(1)
	w.require.NotZero(len(w.results), msgAndArgs...)
}

func (w *MockFunc) ExpectCalledTimes(called int, msgAndArgs ...any) {
	w.waitFor(called)
	w.require.Equal(called, len(w.results), msgAndArgs...)
}

// ExpectNotCalled gives pending calls a short while to land.
func (w *MockFunc) ExpectNotCalled(msgAndArgs ...any) {
	w.drain(20 * time.Millisecond)
	w.require.Zero(len(w.results), msgAndArgs...)
}

func (w *MockFunc) CalledTimes() int {
	w.drain(0)
	return len(w.results)
}

func (w *MockFunc) Reset() {
	w.drain(0)
	w.results = nil
}

// waitFor collects calls until n were seen or the timeout expires, then
// picks up whatever else is already queued.
func (w *MockFunc) waitFor(n int) {
	timer := time.NewTimer(w.timeout)
	defer timer.Stop()

	for len(w.results) < n {
		select {
		case result := <-w.notifyChan:
			w.results = append(w.results, result)
		case <-timer.C:
			return
		}
	}
	w.drain(0)
}

func (w *MockFunc) drain(wait time.Duration) {
	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()

		for {
			select {
			case result := <-w.notifyChan:
				w.results = append(w.results, result)
			case <-timer.C:
				w.drain(0)
				return
			}
		}
	}

	for {
		select {
		case result := <-w.notifyChan:
			w.results = append(w.results, result)
		default:
			return
		}
	}
}
