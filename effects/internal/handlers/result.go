package handlers

// Result represents the outcome of a handled effect.
type Result[T any] struct {
	Value T
	Err   error
}

func ResultFrom[R any](res R, err error) Result[R] {
	return Result[R]{Value: res, Err: err}
}
