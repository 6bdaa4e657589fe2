// Package segment is the codec between hex digits and seven-segment
// bit patterns. Patterns are laid out <7:0> {dp, G, F, E, D, C, B, A}
// and inverted whole for active-low (common anode) displays.
package segment

import "errors"

// Sentinel digit values accepted alongside 0x0..0xF.
const (
	Off  byte = 0x10 // all segments dark
	Dash byte = 0x11 // segment G only
)

// DP is the decimal point bit within a pattern.
const DP byte = 0x80

var (
	ErrInvalidDigit   = errors.New("segment: invalid digit")
	ErrUnknownPattern = errors.New("segment: unrecognized pattern")
)

// codeTable maps a digit (index) to its segment pattern, 0x0..0xF plus
// Off and Dash.
var codeTable = [0x12]byte{
	0x3F, 0x06, 0x5B, 0x4F, 0x66, 0x6D, 0x7D, 0x07,
	0x7F, 0x6F, 0x77, 0x7C, 0x39, 0x5E, 0x79, 0x71,
	0x00, 0x40,
}

// Encode converts a digit and decimal point state to a segment pattern.
func Encode(digit byte, dp bool, activeLow bool) (byte, error) {
	if int(digit) >= len(codeTable) {
		return 0, ErrInvalidDigit
	}
	p := codeTable[digit]
	if dp {
		p |= DP
	}
	if activeLow {
		p = ^p
	}
	return p, nil
}

// Decode recovers the digit and decimal point state from a pattern.
func Decode(pattern byte, activeLow bool) (digit byte, dp bool, err error) {
	if activeLow {
		pattern = ^pattern
	}
	code := pattern &^ DP
	for d, c := range codeTable {
		if c == code {
			return byte(d), pattern&DP != 0, nil
		}
	}
	return 0, false, ErrUnknownPattern
}

// IsDigit reports whether d is a displayable decimal digit (not a
// sentinel, not hex A..F).
func IsDigit(d byte) bool { return d <= 9 }
