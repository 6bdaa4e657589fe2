package keymap

import (
	"testing"

	"gemini/panel/keypad"
)

func TestDefaultTable(t *testing.T) {
	tab := Default()
	cases := []struct {
		coord keypad.Coordinate
		want  Key
	}{
		{0x40, KeyCCMonitor},
		{0x60, KeyPauseStop},
		{0x41, KeyPauseStop},
		{0x51, KeyRate},
		{0x61, KeyVtbi},
		{0x71, KeyStart},
		{0x42, KeyHundred},
		{0x52, KeyTen},
		{0x62, KeyOne},
		{0x72, KeyTenth},
		{0x43, KeyClearSilence},
		{0x53, KeyPCMode},
		{0x63, KeySecPiggyBack},
		{0x73, KeyVolumeInfused},
	}
	for _, tc := range cases {
		if got := tab.Lookup(tc.coord); got != tc.want {
			t.Fatalf("Lookup(%#x) = %v, want %v", tc.coord, got, tc.want)
		}
	}
}

func TestLookupUnbound(t *testing.T) {
	if got := Default().Lookup(0x44); got != KeyNone {
		t.Fatalf("unbound coordinate mapped to %v", got)
	}
}

func TestArrowVariantDropsDownArrow(t *testing.T) {
	tab := ArrowVariant()
	if got := tab.Lookup(0x60); got != KeyNone {
		t.Fatalf("down arrow position mapped to %v", got)
	}
	if got := tab.Lookup(0x41); got != KeyPauseStop {
		t.Fatalf("arrow pause/stop position mapped to %v", got)
	}
}

func TestCoordinateOf(t *testing.T) {
	tab := ArrowVariant()
	c, ok := tab.CoordinateOf(KeyPauseStop)
	if !ok || c != 0x41 {
		t.Fatalf("CoordinateOf(pause/stop) = %#x, %v", c, ok)
	}
	if _, ok := tab.CoordinateOf(Key(99)); ok {
		t.Fatal("unbound key resolved")
	}
}
