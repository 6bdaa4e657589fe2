// Package keypad resolves a pressed key on the matrix into a raw
// coordinate by walking the column lines and sensing the rows.
package keypad

import "errors"

import "gemini/hal"

// ErrNoKeyFound reports a scan that saw no active row on any column;
// the press is treated as noise and ignored.
var ErrNoKeyFound = errors.New("keypad: no key found")

// Coordinate identifies one physical key: the high nibble is the
// column's pin bit position, the low nibble the row's. It mirrors the
// port wiring directly, not a logical (row,column) pair; decoding is
// the keymap's job.
type Coordinate uint8

// Col and Row return the raw pin bit positions.
func (c Coordinate) Col() uint8 { return uint8(c) >> 4 }
func (c Coordinate) Row() uint8 { return uint8(c) & 0x0F }

// Scanner drives the matrix through a KeypadPort. The default wiring
// puts rows on port bits 0..3 and columns on bits 4..7.
type Scanner struct {
	port    hal.KeypadPort
	rowMask byte
	colMask byte

	pending Coordinate
	current Coordinate
}

// New returns a scanner for the given line masks.
func New(port hal.KeypadPort, rowMask, colMask byte) *Scanner {
	return &Scanner{port: port, rowMask: rowMask, colMask: colMask}
}

// Scan resolves the key currently held. Columns are driven active one
// at a time in ascending bit order (non-column bits skipped); after
// each, the rows are sensed and the first active row bit wins. Whatever
// the outcome, the columns are restored to all-active and the row
// interrupt re-enabled so the matrix can fire again. On success the row
// edge polarity is flipped so the next interrupt is the key's release.
func (s *Scanner) Scan() error {
	s.port.SetRowIRQ(false)

	err := ErrNoKeyFound
scan:
	for col := uint8(0); col < 8; col++ {
		if 1<<col&s.colMask == 0 {
			continue
		}
		s.port.DriveColumns(1 << col)
		rows := s.port.ReadRows() & s.rowMask
		if rows == 0 {
			continue
		}
		for row := uint8(0); row < 8; row++ {
			if rows&(1<<row) != 0 {
				s.pending = Coordinate(col<<4 | row)
				s.port.SetRowEdge(true)
				err = nil
				break scan
			}
		}
	}

	s.port.ClearRowIRQ()
	s.port.DriveColumns(s.colMask)
	s.port.SetRowIRQ(true)
	return err
}

// Save records the pending coordinate as the resolved key press, called
// once the release has settled. The edge polarity returns to waiting
// for a press.
func (s *Scanner) Save() Coordinate {
	s.port.SetRowIRQ(false)
	s.current = s.pending
	s.port.SetRowEdge(false)
	s.port.ClearRowIRQ()
	s.port.SetRowIRQ(true)
	return s.current
}

// Current returns the last saved coordinate; the fault handler renders
// it on the diagnostic screen.
func (s *Scanner) Current() Coordinate { return s.current }

// Disable masks the row interrupt and resets the edge polarity, used
// while the panel is powered off.
func (s *Scanner) Disable() {
	s.port.SetRowIRQ(false)
	s.port.SetRowEdge(false)
	s.port.ClearRowIRQ()
}

// Enable re-arms the row interrupt.
func (s *Scanner) Enable() {
	s.port.ClearRowIRQ()
	s.port.SetRowIRQ(true)
}
