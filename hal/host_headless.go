//go:build !tinygo

package hal

import "context"

// RunHeadless runs the panel without a window. There is no input
// source, so this mainly serves soak runs against a serial-attached
// panel via the mirror sink. It blocks until ctx is done or run
// returns.
func RunHeadless(ctx context.Context, cfg WindowConfig, run func(HAL)) error {
	h := New().(*hostHAL)
	h.mirror = cfg.Mirror

	done := make(chan struct{})
	go func() {
		defer close(done)
		run(h)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
