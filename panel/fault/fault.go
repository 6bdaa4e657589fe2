// Package fault is the terminal recovery path for state corruption the
// firmware cannot continue past.
package fault

import (
	"time"

	"gemini/hal"
	"gemini/panel/display"
	"gemini/panel/keypad"
	"gemini/panel/segment"
)

// Delays groups the busy-wait intervals the handler applies directly,
// bypassing the debounce pipeline.
type Delays struct {
	Flash        time.Duration
	PowerPress   time.Duration
	PowerRelease time.Duration
}

// Handle renders the diagnostic screen and blocks until the operator
// powers the unit down, then forces a hardware reset. It never returns.
//
// The top row shows "E. C. <col> <row>", the raw bit positions of the
// last resolved coordinate, and the bottom row blinks " 0 F F" until
// the power button is pressed and released, each debounced by plain
// busy-waiting since the interrupt machinery can no longer be trusted.
func Handle(h hal.HAL, bank *display.Bank, leds *display.LedBank, last keypad.Coordinate, d Delays) {
	h.Keypad().SetRowIRQ(false)
	h.Power().SetIRQ(false)

	leds.WriteRaw(0)

	// The screen is placed into the cells directly and committed with
	// Refresh: a checked write would refuse the very cell whose desync
	// brought us here.
	screen := [8]display.Datum{
		{Digit: 0xE, DP: true},
		{Digit: 0xC, DP: true},
		{Digit: last.Col()},
		{Digit: last.Row()},
		{Digit: segment.Off},
		{Digit: 0x0},
		{Digit: 0xF},
		{Digit: 0xF},
	}
	for i, d := range screen {
		c := bank.Cell(i)
		c.Digit, c.DP = d.Digit, d.DP
	}
	bank.Refresh()

	if log := h.Logger(); log != nil {
		log.WriteLineString("fault: display desync, awaiting power-off")
	}

	for !h.Power().Held() {
		h.Delay(d.Flash)
		bank.Blank(display.RowVtbi.Select())
		h.Delay(d.Flash)
		bank.Refresh()
	}

	h.Delay(d.PowerPress)
	for h.Power().Held() {
	}
	h.Delay(d.PowerRelease)

	h.Reset()
	select {} // Reset never returns; make sure nothing runs if it does.
}
