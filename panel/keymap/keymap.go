// Package keymap turns raw matrix coordinates into logical panel keys.
package keymap

import "gemini/panel/keypad"

// Key is a logical front-panel button.
type Key uint8

const (
	KeyNone Key = iota
	KeyCCMonitor
	KeyPauseStop
	KeyRate
	KeyVtbi
	KeyStart
	KeyHundred
	KeyTen
	KeyOne
	KeyTenth
	KeyClearSilence
	KeyPCMode
	KeySecPiggyBack
	KeyVolumeInfused
)

func (k Key) String() string {
	switch k {
	case KeyCCMonitor:
		return "cc/monitor"
	case KeyPauseStop:
		return "pause/stop"
	case KeyRate:
		return "rate"
	case KeyVtbi:
		return "vtbi"
	case KeyStart:
		return "start"
	case KeyHundred:
		return "100"
	case KeyTen:
		return "10"
	case KeyOne:
		return "1"
	case KeyTenth:
		return "0.1"
	case KeyClearSilence:
		return "clear/silence"
	case KeyPCMode:
		return "p/c mode"
	case KeySecPiggyBack:
		return "sec piggy back"
	case KeyVolumeInfused:
		return "volume infused"
	}
	return "none"
}

// Table maps coordinates to keys. Coordinates not present map to
// KeyNone: "no action", distinct from a scan failure.
type Table map[keypad.Coordinate]Key

// Lookup returns the key for c, or KeyNone.
func (t Table) Lookup(c keypad.Coordinate) Key { return t[c] }

// CoordinateOf returns some coordinate bound to k, for simulators that
// need to synthesize presses. ok is false if k is unbound.
func (t Table) CoordinateOf(k Key) (keypad.Coordinate, bool) {
	for c, key := range t {
		if key == k {
			return c, true
		}
	}
	return 0, false
}

// Default returns the Gemini keypad table. Both pause/stop coordinates
// are bound: most keypads have it at (col2,row0), the arrow-key variant
// at (col0,row1) with a down arrow in the usual spot.
func Default() Table {
	return Table{
		0x40: KeyCCMonitor,
		0x60: KeyPauseStop, // standard position
		0x41: KeyPauseStop, // arrow-variant position
		0x51: KeyRate,
		0x61: KeyVtbi,
		0x71: KeyStart,
		0x42: KeyHundred,
		0x52: KeyTen,
		0x62: KeyOne,
		0x72: KeyTenth,
		0x43: KeyClearSilence,
		0x53: KeyPCMode,
		0x63: KeySecPiggyBack,
		0x73: KeyVolumeInfused,
	}
}

// ArrowVariant returns the table for keypads with up/down arrows: the
// standard pause/stop position is the down arrow there, which the panel
// ignores.
func ArrowVariant() Table {
	t := Default()
	delete(t, 0x60)
	return t
}
