package editor

import (
	"errors"
	"testing"

	"gemini/hal"
	"gemini/panel/display"
	"gemini/panel/segment"
)

const off = segment.Off

// row builds a four-cell row; dp marks the cell carrying the decimal
// point, -1 for none.
func row(a, b, c, d byte, dp int) [4]display.Datum {
	r := [4]display.Datum{{Digit: a}, {Digit: b}, {Digit: c}, {Digit: d}}
	if dp >= 0 {
		r[dp].DP = true
	}
	return r
}

func TestLayoutOf(t *testing.T) {
	if LayoutOf(row(off, off, 2, off, 2)) != Normal {
		t.Fatal("2.0 detected as extended")
	}
	if LayoutOf(row(1, 0, 0, 2, -1)) != Extended {
		t.Fatal("1002 detected as normal")
	}
	if LayoutOf(row(off, off, 0, 1, 2)) != Normal {
		t.Fatal("0.1 detected as extended")
	}
	d := segment.Dash
	if LayoutOf(row(d, d, d, d, -1)) != Normal {
		t.Fatal("retained dash row detected as extended")
	}
}

func TestIncrementScenarios(t *testing.T) {
	cases := []struct {
		name       string
		in         [4]display.Datum
		place      Place
		extendable bool
		want       [4]display.Datum
	}{
		{
			name:  "first tenth lights the point",
			in:    row(off, off, 2, off, -1),
			place: Tenths,
			want:  row(off, off, 2, 1, 2),
		},
		{
			name:  "tenths wrap clears the point",
			in:    row(off, off, 2, 9, 2),
			place: Tenths,
			want:  row(off, off, 2, off, -1),
		},
		{
			name:  "tenths press collapses the extended layout",
			in:    row(1, 0, 0, 0, -1),
			place: Tenths,
			want:  row(off, off, 0, 1, 2),
		},
		{
			name:  "capped hundreds wrap blanks the leading zeros",
			in:    row(9, 0, 2, 3, 2),
			place: Hundreds,
			want:  row(off, off, 2, 3, 2),
		},
		{
			name:       "extendable hundreds roll enters the extended layout",
			in:         row(9, 0, 2, 3, 2),
			place:      Hundreds,
			extendable: true,
			want:       row(1, 0, 0, 2, -1),
		},
		{
			name:       "extended roll past 9999 exits the layout",
			in:         row(9, 9, 2, 3, -1),
			place:      Hundreds,
			extendable: true,
			want:       row(off, 2, 3, off, -1),
		},
		{
			name:       "extended hundreds carry into thousands",
			in:         row(1, 9, 5, 5, -1),
			place:      Hundreds,
			extendable: true,
			want:       row(2, 0, 5, 5, -1),
		},
		{
			name:  "hundreds from blank forces the lower zeros",
			in:    row(off, off, off, off, -1),
			place: Hundreds,
			want:  row(1, 0, 0, off, -1),
		},
		{
			name:  "simple hundreds step keeps lower digits",
			in:    row(2, 4, 7, off, -1),
			place: Hundreds,
			want:  row(3, 4, 7, off, -1),
		},
		{
			name:  "tens from blank",
			in:    row(off, off, 5, off, -1),
			place: Tens,
			want:  row(off, 1, 5, off, -1),
		},
		{
			name:  "tens wrap goes blank without a hundreds digit",
			in:    row(off, 9, 5, off, -1),
			place: Tens,
			want:  row(off, off, 5, off, -1),
		},
		{
			name:  "tens wrap keeps a zero under a hundreds digit",
			in:    row(1, 9, 5, off, -1),
			place: Tens,
			want:  row(1, 0, 5, off, -1),
		},
		{
			name:  "ones wrap",
			in:    row(off, off, 9, off, -1),
			place: Ones,
			want:  row(off, off, 0, off, -1),
		},
		{
			name:  "ones from dash row",
			in:    row(segment.Dash, segment.Dash, segment.Dash, segment.Dash, -1),
			place: Ones,
			want: [4]display.Datum{
				{Digit: segment.Dash}, {Digit: segment.Dash}, {Digit: 0}, {Digit: segment.Dash},
			},
		},
		{
			name:       "extended ones targets the rightmost cell",
			in:         row(1, 0, 0, 2, -1),
			place:      Ones,
			extendable: true,
			want:       row(1, 0, 0, 3, -1),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Increment(tc.in, tc.place, tc.extendable)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIncrementDoesNotMutateInput(t *testing.T) {
	in := row(9, 0, 2, 3, 2)
	copyIn := in
	if _, err := Increment(in, Hundreds, true); err != nil {
		t.Fatal(err)
	}
	if in != copyIn {
		t.Fatal("input row mutated")
	}
}

func TestIncrementInvalidPlace(t *testing.T) {
	in := row(off, off, 2, off, -1)
	got, err := Increment(in, Place(4), false)
	if !errors.Is(err, ErrInvalidPlace) {
		t.Fatalf("err = %v, want ErrInvalidPlace", err)
	}
	if got != in {
		t.Fatal("row changed on a rejected place")
	}
}

// Ten tenths presses cycle 0.1 .. 0.9 and back to blank.
func TestTenthsFullCycle(t *testing.T) {
	r := row(off, off, 0, off, -1)
	for i := 1; i <= 9; i++ {
		var err error
		r, err = Increment(r, Tenths, false)
		if err != nil {
			t.Fatal(err)
		}
		if r[3].Digit != byte(i) || !r[2].DP {
			t.Fatalf("step %d: row %v", i, r)
		}
	}
	r, err := Increment(r, Tenths, false)
	if err != nil {
		t.Fatal(err)
	}
	if r[3].Digit != off || r[2].DP {
		t.Fatalf("wrap: row %v", r)
	}
}

type nullSink struct{}

func (nullSink) Transmit(sel hal.SelectMask, b byte) error { return nil }

func TestApplyWritesRow(t *testing.T) {
	bank, err := display.NewBank(nullSink{}, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := bank.WriteRow(display.RowVtbi, row(9, 0, 2, 3, 2)); err != nil {
		t.Fatal(err)
	}
	if err := Apply(bank, display.RowVtbi, Hundreds, true); err != nil {
		t.Fatal(err)
	}
	if got := bank.RowData(display.RowVtbi); got != row(1, 0, 0, 2, -1) {
		t.Fatalf("bank row = %v", got)
	}
}

type flakySink struct{ err error }

func (s *flakySink) Transmit(sel hal.SelectMask, b byte) error { return s.err }

func TestApplyEscalatesDesync(t *testing.T) {
	sink := &flakySink{}
	bank, err := display.NewBank(sink, false)
	if err != nil {
		t.Fatal(err)
	}

	// A failed transmit leaves cell 0 desynchronized.
	sink.err = errors.New("wire broke")
	if err := bank.WriteCell(0, 1, false); err == nil {
		t.Fatal("transmit failure not reported")
	}
	sink.err = nil

	err = Apply(bank, display.RowRate, Ones, false)
	if !errors.Is(err, ErrCritical) {
		t.Fatalf("err = %v, want ErrCritical", err)
	}
}

func TestApplyInvalidPlaceLeavesBank(t *testing.T) {
	bank, _ := display.NewBank(nullSink{}, false)
	before := bank.RowData(display.RowRate)
	if err := Apply(bank, display.RowRate, Place(9), false); !errors.Is(err, ErrInvalidPlace) {
		t.Fatalf("err = %v", err)
	}
	if bank.RowData(display.RowRate) != before {
		t.Fatal("bank mutated on rejected place")
	}
}
