// Package editor increments one decimal place of a four-cell display
// row, with carry, leading-blank suppression, and a floating decimal
// point.
//
// A row normally shows hundreds, tens, ones and tenths, with the
// decimal point on the ones cell. A row allowed to grow past 999.9
// shifts into an extended layout showing thousands, hundreds, tens and
// ones with no point; the layouts are addressed through place-to-cell
// maps rather than index arithmetic so the shift transitions cannot go
// off by one.
package editor

import (
	"errors"
	"fmt"

	"gemini/panel/display"
	"gemini/panel/segment"
)

var (
	// ErrInvalidPlace rejects an out-of-range place selector; no cell
	// is mutated.
	ErrInvalidPlace = errors.New("editor: invalid digit place")
	// ErrCritical wraps a desync detected inside the editor's own write
	// sequence; the caller must escalate to the fault handler.
	ErrCritical = errors.New("editor: critical display fault")
)

// Place is the decimal place addressed by a digit key.
type Place uint8

const (
	Hundreds Place = iota
	Tens
	Ones
	Tenths
)

// Layout distinguishes the two cell assignments of a row.
type Layout uint8

const (
	// Normal: cells are hundreds, tens, ones (with decimal point),
	// tenths.
	Normal Layout = iota
	// Extended: cells are thousands, hundreds, tens, ones; the tenths
	// cell is vacated and no point is shown.
	Extended
)

// cell indices within a row, named per layout.
const (
	nHundreds = 0
	nTens     = 1
	nOnes     = 2
	nTenths   = 3

	xThousands = 0
	xHundreds  = 1
	xTens      = 2
	xOnes      = 3
)

// LayoutOf detects a row's layout: a value of 1000 or more is being
// shown exactly when no decimal point is lit and the rightmost cell
// still holds a digit.
func LayoutOf(row [4]display.Datum) Layout {
	if !row[nOnes].DP && segment.IsDigit(row[nTenths].Digit) {
		return Extended
	}
	return Normal
}

func blank(d byte) bool { return !segment.IsDigit(d) }

// Increment applies one press of a digit-place key to row. extendable
// permits the hundreds place to roll the row into the extended layout
// (the VTBI row); a non-extendable row wraps at 999.9 instead (the rate
// row). The input is not mutated.
func Increment(row [4]display.Datum, p Place, extendable bool) ([4]display.Datum, error) {
	if p > Tenths {
		return row, ErrInvalidPlace
	}
	layout := LayoutOf(row)

	switch p {
	case Hundreds:
		incHundreds(&row, layout, extendable)
	case Tens:
		incTens(&row, layout)
	case Ones:
		incOnes(&row, layout)
	case Tenths:
		incTenths(&row, layout)
	}
	return row, nil
}

func incHundreds(row *[4]display.Datum, layout Layout, extendable bool) {
	i := nHundreds
	if layout == Extended {
		i = xHundreds
	}
	d := row[i].Digit

	if blank(d) {
		row[i].Digit = 1
		forceLowerZero(row, i)
		return
	}
	if d < 9 {
		row[i].Digit = d + 1
		forceLowerZero(row, i)
		return
	}

	// Rolling past 9.
	switch {
	case layout == Normal && !extendable:
		// Capped row: wrap back out of the hundreds entirely; a tens
		// digit of 0 goes blank with it.
		if row[nTens].Digit == 0 {
			row[nTens].Digit = segment.Off
		}
		row[nHundreds].Digit = segment.Off

	case layout == Normal:
		// Enter the extended layout: shift right, vacating the tenths.
		row[xOnes] = display.Datum{Digit: row[nOnes].Digit}
		row[xTens] = display.Datum{Digit: row[nTens].Digit}
		row[xHundreds] = display.Datum{Digit: 0}
		row[xThousands] = display.Datum{Digit: 1}

	case row[xThousands].Digit == 9:
		// Rolling past 9999: exit the extended layout, shifting left.
		if row[xTens].Digit == 0 {
			row[nTens].Digit = segment.Off
		} else {
			row[nTens].Digit = row[xTens].Digit
		}
		row[nOnes] = display.Datum{Digit: row[xOnes].Digit}
		row[nTenths].Digit = segment.Off
		row[nHundreds].Digit = segment.Off

	default:
		// Carry into the thousands.
		row[xThousands].Digit++
		row[xHundreds].Digit = 0
	}
}

// forceLowerZero shows at least 0 in the places below a freshly valued
// higher place.
func forceLowerZero(row *[4]display.Datum, hi int) {
	for i := hi + 1; i <= hi+2 && i < 4; i++ {
		if blank(row[i].Digit) {
			row[i].Digit = 0
		}
	}
}

func incTens(row *[4]display.Datum, layout Layout) {
	i := nTens
	left := nHundreds
	if layout == Extended {
		i = xTens
		left = xHundreds
	}
	d := row[i].Digit
	switch {
	case blank(d):
		row[i].Digit = 1
	case d == 9 && blank(row[left].Digit):
		row[i].Digit = segment.Off
	case d == 9:
		row[i].Digit = 0
	default:
		row[i].Digit = d + 1
	}
}

func incOnes(row *[4]display.Datum, layout Layout) {
	i := nOnes
	if layout == Extended {
		i = xOnes
	}
	d := row[i].Digit
	if blank(d) || d == 9 {
		row[i].Digit = 0
	} else {
		row[i].Digit = d + 1
	}
}

func incTenths(row *[4]display.Datum, layout Layout) {
	if layout == Extended {
		// A tenths press forces the row back to the normal layout
		// first: shift left one place, restore the point, and the
		// tenths digit starts over at 1. The thousands digit is
		// dropped.
		h, t, o := row[xHundreds].Digit, row[xTens].Digit, row[xOnes].Digit
		if h == 0 {
			row[nHundreds].Digit = segment.Off
		} else {
			row[nHundreds].Digit = h
		}
		switch {
		case t != 0:
			row[nTens].Digit = t
		case blank(row[nHundreds].Digit):
			row[nTens].Digit = segment.Off
		default:
			row[nTens].Digit = 0
		}
		row[nOnes] = display.Datum{Digit: o, DP: true}
		row[nTenths].Digit = 1
		return
	}

	d := row[nTenths].Digit
	switch {
	case blank(d):
		row[nTenths].Digit = 1
		row[nOnes].DP = true
	case d == 9:
		row[nTenths].Digit = segment.Off
		row[nOnes].DP = false
	default:
		row[nTenths].Digit = d + 1
	}
}

// Apply increments place p of the given bank row and rewrites every
// cell of the row, since a carry can change several cells at once. A
// committed/pending mismatch found during the write sequence is the
// editor's own consistency check failing and comes back wrapped in
// ErrCritical.
func Apply(bank *display.Bank, row display.Row, p Place, extendable bool) error {
	next, err := Increment(bank.RowData(row), p, extendable)
	if err != nil {
		return err
	}
	if err := bank.WriteRow(row, next); err != nil {
		if errors.Is(err, display.ErrDesync) {
			return fmt.Errorf("%w: %v", ErrCritical, err)
		}
		return err
	}
	return nil
}
