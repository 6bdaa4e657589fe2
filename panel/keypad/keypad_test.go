package keypad

import (
	"errors"
	"testing"
)

// fakePort simulates the matrix lines: pressedCol/pressedRow are bit
// masks of the held key, raised on the rows only while its column is
// driven.
type fakePort struct {
	pressedCol byte
	pressedRow byte
	driven     byte

	irqEnabled  bool
	releaseEdge bool
	cleared     int
}

func (p *fakePort) DriveColumns(mask byte) { p.driven = mask }

func (p *fakePort) ReadRows() byte {
	if p.pressedRow != 0 && p.driven&p.pressedCol != 0 {
		return p.pressedRow
	}
	return 0
}

func (p *fakePort) SetRowIRQ(enabled bool)  { p.irqEnabled = enabled }
func (p *fakePort) ClearRowIRQ()            { p.cleared++ }
func (p *fakePort) SetRowEdge(release bool) { p.releaseEdge = release }

const (
	rowMask = 0x0F
	colMask = 0xF0
)

func TestScanFindsKey(t *testing.T) {
	p := &fakePort{pressedCol: 1 << 5, pressedRow: 1 << 1} // rate
	s := New(p, rowMask, colMask)

	if err := s.Scan(); err != nil {
		t.Fatal(err)
	}
	if got := s.Save(); got != 0x51 {
		t.Fatalf("coordinate = %#x, want 0x51", got)
	}
	if got := s.Current(); got != 0x51 {
		t.Fatalf("Current = %#x", got)
	}
}

func TestScanNoKey(t *testing.T) {
	p := &fakePort{}
	s := New(p, rowMask, colMask)
	if err := s.Scan(); !errors.Is(err, ErrNoKeyFound) {
		t.Fatalf("err = %v, want ErrNoKeyFound", err)
	}
	if !p.irqEnabled {
		t.Fatal("row interrupt left masked after a failed scan")
	}
	if p.driven != colMask {
		t.Fatalf("columns left at %#x, want all active", p.driven)
	}
	if p.releaseEdge {
		t.Fatal("edge polarity flipped on a failed scan")
	}
}

func TestScanRestoresLinesAndFlipsEdge(t *testing.T) {
	p := &fakePort{pressedCol: 1 << 7, pressedRow: 1 << 3} // volume infused
	s := New(p, rowMask, colMask)
	if err := s.Scan(); err != nil {
		t.Fatal(err)
	}
	if p.driven != colMask {
		t.Fatalf("columns left at %#x after scan", p.driven)
	}
	if !p.irqEnabled || p.cleared == 0 {
		t.Fatal("row interrupt not cleared and re-enabled")
	}
	if !p.releaseEdge {
		t.Fatal("successful scan must wait for the release edge")
	}

	s.Save()
	if p.releaseEdge {
		t.Fatal("save must return polarity to press")
	}
}

func TestScanLowestColumnWins(t *testing.T) {
	// Two keys held in the same row; the lower column is reported.
	p := &fakePort{pressedCol: 1<<4 | 1<<6, pressedRow: 1 << 2}
	s := New(p, rowMask, colMask)
	if err := s.Scan(); err != nil {
		t.Fatal(err)
	}
	if got := s.Save(); got != 0x42 {
		t.Fatalf("coordinate = %#x, want 0x42", got)
	}
}

func TestScanIgnoresRowsOutsideMask(t *testing.T) {
	p := &fakePort{pressedCol: 1 << 4, pressedRow: 1 << 6}
	s := New(p, rowMask, colMask)
	if err := s.Scan(); !errors.Is(err, ErrNoKeyFound) {
		t.Fatalf("err = %v, want ErrNoKeyFound", err)
	}
}

func TestDisableEnable(t *testing.T) {
	p := &fakePort{irqEnabled: true, releaseEdge: true}
	s := New(p, rowMask, colMask)
	s.Disable()
	if p.irqEnabled || p.releaseEdge {
		t.Fatal("disable must mask the interrupt and reset polarity")
	}
	s.Enable()
	if !p.irqEnabled {
		t.Fatal("enable must unmask the interrupt")
	}
}

func TestCoordinateNibbles(t *testing.T) {
	c := Coordinate(0x72)
	if c.Col() != 7 || c.Row() != 2 {
		t.Fatalf("Col/Row = %d/%d", c.Col(), c.Row())
	}
}
