// Package display owns the eight seven-segment cells and the LED bank
// behind the shift-register sink. Every cell tracks the pattern it last
// transmitted (committed) next to the pattern it is about to transmit
// (pending); the two are equal whenever no write is in flight, and a
// mismatch on entry to a write is a desynchronization fault.
package display

import (
	"errors"
	"fmt"

	"gemini/hal"
	"gemini/panel/segment"
)

// ErrDesync reports a cell whose committed and pending patterns
// disagreed before a write began.
var ErrDesync = errors.New("display: committed/pending pattern desync")

// Row selects one four-cell display row.
type Row uint8

const (
	RowRate Row = iota // top row, cells 0..3
	RowVtbi            // bottom row, cells 4..7
)

// Select returns the sink lines for a row.
func (r Row) Select() hal.SelectMask {
	if r == RowVtbi {
		return hal.SelectBotRow
	}
	return hal.SelectTopRow
}

func (r Row) base() int {
	if r == RowVtbi {
		return 4
	}
	return 0
}

// Datum is one cell's logical content, used for whole-row writes.
type Datum struct {
	Digit byte
	DP    bool
}

// Cell is one seven-segment digit position.
type Cell struct {
	Digit     byte
	DP        bool
	ActiveLow bool

	committed byte
	pending   byte
}

// Bank drives the eight display cells through the sink.
type Bank struct {
	sink  hal.Sink
	cells [hal.NumDisplays]Cell
}

// NewBank returns a bank with every cell showing a dash, committed and
// pending already matching so the panel can power on into its retained
// "----" rows.
func NewBank(sink hal.Sink, activeLow bool) (*Bank, error) {
	b := &Bank{sink: sink}
	for i := range b.cells {
		c := &b.cells[i]
		c.Digit = segment.Dash
		c.ActiveLow = activeLow
		p, err := segment.Encode(c.Digit, c.DP, c.ActiveLow)
		if err != nil {
			return nil, fmt.Errorf("display: init cell %d: %w", i, err)
		}
		c.pending = p
		c.committed = p
	}
	return b, nil
}

// Cell returns the cell at index i (0..7).
func (b *Bank) Cell(i int) *Cell { return &b.cells[i] }

// RowData snapshots the logical contents of a row.
func (b *Bank) RowData(r Row) [4]Datum {
	var d [4]Datum
	base := r.base()
	for i := 0; i < 4; i++ {
		c := &b.cells[base+i]
		d[i] = Datum{Digit: c.Digit, DP: c.DP}
	}
	return d
}

// WriteCell sets one cell's digit and decimal point and transmits the
// new pattern. The committed/pending invariant is checked on entry; on
// a mismatch the write is skipped and ErrDesync returned.
func (b *Bank) WriteCell(i int, digit byte, dp bool) error {
	if i < 0 || i >= len(b.cells) {
		return fmt.Errorf("display: cell %d out of range", i)
	}
	c := &b.cells[i]
	if c.committed != c.pending {
		return fmt.Errorf("cell %d: %w", i, ErrDesync)
	}
	p, err := segment.Encode(digit, dp, c.ActiveLow)
	if err != nil {
		return fmt.Errorf("display: cell %d: %w", i, err)
	}
	c.Digit = digit
	c.DP = dp
	c.pending = p
	if err := b.sink.Transmit(hal.SelectMask(1)<<uint(i), p); err != nil {
		return fmt.Errorf("display: cell %d: %w", i, err)
	}
	c.committed = c.pending
	return nil
}

// WriteRow writes all four cells of a row left to right, stopping at
// the first error.
func (b *Bank) WriteRow(r Row, data [4]Datum) error {
	base := r.base()
	for i, d := range data {
		if err := b.WriteCell(base+i, d.Digit, d.DP); err != nil {
			return err
		}
	}
	return nil
}

// Refresh re-encodes every cell from its logical digit and retransmits
// it, committing as it goes. Used to restore the panel after a blank
// (power-on, end of a flash) and after multi-cell edits.
func (b *Bank) Refresh() error {
	for i := range b.cells {
		c := &b.cells[i]
		p, err := segment.Encode(c.Digit, c.DP, c.ActiveLow)
		if err != nil {
			return fmt.Errorf("display: refresh cell %d: %w", i, err)
		}
		c.pending = p
		c.committed = p
		if err := b.sink.Transmit(hal.SelectMask(1)<<uint(i), p); err != nil {
			return fmt.Errorf("display: refresh cell %d: %w", i, err)
		}
	}
	return nil
}

// Blank darkens the selected displays with one broadcast write, without
// touching the cells' stored contents. Refresh undoes it.
func (b *Bank) Blank(sel hal.SelectMask) error {
	var off byte
	if b.cells[0].ActiveLow {
		off = 0xFF
	}
	return b.sink.Transmit(sel, off)
}

// Consistent reports whether every cell currently holds committed ==
// pending. The row editor uses this as its own consistency check.
func (b *Bank) Consistent() bool {
	for i := range b.cells {
		if b.cells[i].committed != b.cells[i].pending {
			return false
		}
	}
	return true
}
