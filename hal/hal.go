package hal

import "time"

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// SelectMask addresses the sink's output lines. Bits 0..7 select the
// eight display shift registers (top row 0..3, bottom row 4..7), bit 8
// selects the LED shift register. Multiple bits may be set for a
// broadcast write.
type SelectMask uint16

const (
	SelectDisp0 SelectMask = 1 << iota
	SelectDisp1
	SelectDisp2
	SelectDisp3
	SelectDisp4
	SelectDisp5
	SelectDisp6
	SelectDisp7
	SelectLEDs

	SelectTopRow   SelectMask = 0x00F
	SelectBotRow   SelectMask = 0x0F0
	SelectAllDisps SelectMask = 0x0FF
)

// NumDisplays is the number of seven-segment digits on the panel.
const NumDisplays = 8

// Sink is the shift-register transport: raise the selected lines,
// clock out one byte, drop the lines again. The sink owns nothing but
// the last byte latched per line; framing and clocking are its problem,
// not the caller's.
type Sink interface {
	Transmit(sel SelectMask, b byte) error
}

// KeypadPort exposes the raw matrix lines: one 8-bit port of column
// drivers and one 8-bit port of row senses, addressed by pin bit
// position. Which bits are live is the scanner's business (masks).
type KeypadPort interface {
	// DriveColumns drives the given column lines active and all other
	// column lines inactive.
	DriveColumns(mask byte)
	// ReadRows returns the current row line levels.
	ReadRows() byte
	// SetRowIRQ enables or disables row edge interrupts.
	SetRowIRQ(enabled bool)
	// ClearRowIRQ discards any latched row edge.
	ClearRowIRQ()
	// SetRowEdge selects the firing edge: false fires on a press
	// (inactive-to-active), true on a release.
	SetRowEdge(release bool)
}

// PowerButton is the dedicated power line, wired apart from the matrix.
type PowerButton interface {
	// Held reports the raw line level, true while the button is down.
	// This bypasses all debouncing; the fault handler polls it directly.
	Held() bool
	SetIRQ(enabled bool)
	ClearIRQ()
}

// DebounceTimer is the single shared one-shot used by the debounce
// pipeline. Arming while armed supersedes the pending expiry.
type DebounceTimer interface {
	Arm(d time.Duration)
	Disarm()
}

// ISR receives edge and expiry events. Implementations run these from
// the HAL's event context, which preempts the controller loop the way
// a hardware interrupt would; they must stay minimal and non-blocking.
// Edges on unrecognized lines are dropped by the HAL and never reach
// the ISR.
type ISR interface {
	RowEdge()
	PowerEdge()
	TimerExpired()
}

// HAL is the only contact point between the panel core and hardware.
type HAL interface {
	Logger() Logger
	Sink() Sink
	Keypad() KeypadPort
	Power() PowerButton
	// NewTimer returns the debounce one-shot; fire runs in event context.
	NewTimer(fire func()) DebounceTimer
	// Bind routes line edges to the ISR entry points.
	Bind(isr ISR)
	// Delay blocks the calling goroutine for d. The controller uses it
	// for debounce and flash waits; input is deliberately not processed
	// while blocked.
	Delay(d time.Duration)
	// Reset forces a hardware reset. It never returns.
	Reset()
}
