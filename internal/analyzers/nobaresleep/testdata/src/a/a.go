package a

import (
	"context"
	"time"
	clock "time"
)

func bad() {
	time.Sleep(time.Millisecond) // want "time.Sleep ignores cancellation"
}

func aliased() {
	clock.Sleep(1) // want "time.Sleep ignores cancellation"
}

func good(ctx context.Context) {
	t := time.NewTimer(time.Millisecond)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
