// internal/browser/session/context_utils.go
package session

import (
	"context"
	"time"
)

// CombineContext derives from primary, keeping its values (the chromedp
// target), and is also canceled when secondary is done.
func CombineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(primary)
	go func() {
		select {
		case <-secondary.Done():
			cancel()
		case <-combined.Done():
		}
	}()
	return combined, cancel
}

type valueOnlyContext struct {
	context.Context
}

func (valueOnlyContext) Deadline() (deadline time.Time, ok bool) { return }
func (valueOnlyContext) Done() <-chan struct{}                   { return nil }
func (valueOnlyContext) Err() error                              { return nil }

// Detach keeps ctx's values but drops its deadline and cancellation. The
// browser attachment is created under a detached context so it outlives the
// command that opened it.
func Detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}
