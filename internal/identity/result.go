package identity

// Result carries either a value or an error. It stands in for success and
// failure callbacks: producers return one, consumers Unwrap it.
type Result[T any] struct {
	val T
	err error
}

func Ok[T any](v T) Result[T] { return Result[T]{val: v} }

func Fail[T any](err error) Result[T] { return Result[T]{err: err} }

func (r Result[T]) Ok() bool { return r.err == nil }

func (r Result[T]) Err() error { return r.err }

func (r Result[T]) Unwrap() (T, error) { return r.val, r.err }

// Async runs fn in a goroutine and delivers its Result on the returned
// channel, which is closed afterwards.
func Async[T any](fn func() (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		defer close(ch)
		v, err := fn()
		if err != nil {
			ch <- Fail[T](err)
			return
		}
		ch <- Ok(v)
	}()
	return ch
}
