package download

import "context"

// ProgressCallback is called during download to report progress.
// total is -1 if Content-Length is unknown.
type ProgressCallback func(downloaded, total int64)

// StageCallback is called when the installer moves to a new step.
type StageCallback func(stage string)

// Callback is a type constraint for callback functions that can be stored in context.
type Callback interface {
	ProgressCallback | StageCallback
}

type callbackKey[T Callback] struct{}

// WithCallback returns a context with the given callback.
func WithCallback[T Callback](ctx context.Context, cb T) context.Context {
	return context.WithValue(ctx, callbackKey[T]{}, cb)
}

// CallbackFromContext extracts the callback from context, or the zero value.
func CallbackFromContext[T Callback](ctx context.Context) T {
	if cb, ok := ctx.Value(callbackKey[T]{}).(T); ok {
		return cb
	}
	var zero T
	return zero
}

// ProgressFromContext is shorthand for CallbackFromContext[ProgressCallback].
func ProgressFromContext(ctx context.Context) ProgressCallback {
	return CallbackFromContext[ProgressCallback](ctx)
}
