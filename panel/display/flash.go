package display

import (
	"time"

	"gemini/hal"
)

// Flash blanks the selected displays, waits, restores them, and repeats
// n times. The final restore is not followed by a wait. The delay
// blocks the caller; the controller accepts that no input is processed
// during a flash sequence.
func (b *Bank) Flash(sel hal.SelectMask, n int, interval time.Duration, delay func(time.Duration)) error {
	for i := 0; i < n; i++ {
		if err := b.Blank(sel); err != nil {
			return err
		}
		delay(interval)
		if err := b.Refresh(); err != nil {
			return err
		}
		if i < n-1 {
			delay(interval)
		}
	}
	return nil
}
