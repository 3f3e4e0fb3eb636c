// Package surface renders presence snapshots into platform-neutral specs and
// pushes them onto user-visible surfaces.
package surface

import (
	"fmt"

	"github.com/watchfire-io/nearby/internal/presence"
)

// Surface names used by the engine and the command channel.
const (
	NameNotification = "notification"
	NameOverlay      = "overlay"
)

// Surface is the capability the engine drives. Open allocates the platform
// resource, Present renders and shows a snapshot, Close releases everything
// Open allocated. Close must be idempotent.
type Surface interface {
	Name() string
	Open() error
	Present(s presence.State) error
	Close() error
}

// Result is the outcome of a render call. When Err is set, Spec holds the
// fallback value and Degraded is true.
type Result[T any] struct {
	Spec     T
	Degraded bool
	Err      error
}

// guard runs render and converts an error or panic into the fallback spec.
func guard[T any](render func() (T, error), fallback func() T) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[T]{Spec: fallback(), Degraded: true, Err: fmt.Errorf("render panic: %v", r)}
		}
	}()

	spec, err := render()
	if err != nil {
		return Result[T]{Spec: fallback(), Degraded: true, Err: err}
	}
	return Result[T]{Spec: spec}
}
