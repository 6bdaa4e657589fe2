//go:build !tinygo

package hal

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"gemini/internal/buildinfo"
)

// WindowConfig controls the desktop panel window.
type WindowConfig struct {
	// ActiveLow inverts sink bytes before rendering, matching a
	// common-anode panel build.
	ActiveLow bool
	// Mirror, when set, receives a copy of every sink write.
	Mirror Sink
}

// RunWindow opens a desktop window that renders the panel's displays
// and LEDs from the sink and maps the keyboard onto the matrix. The
// run function receives the HAL and is started on its own goroutine;
// RunWindow blocks until the window closes.
func RunWindow(cfg WindowConfig, run func(HAL)) error {
	h := New().(*hostHAL)
	h.mirror = cfg.Mirror
	go run(h)

	g := &hostGame{h: h, activeLow: cfg.ActiveLow}
	ebiten.SetWindowTitle("Gemini IV panel (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(windowW*2, windowH*2)
	ebiten.SetTPS(60)
	return ebiten.RunGame(g)
}

const (
	windowW = 440
	windowH = 300
)

// matrixKey maps a keyboard key to its column and row line masks.
type matrixKey struct {
	key ebiten.Key
	col byte
	row byte
}

// The masks mirror the panel wiring: columns on port bits 4..7, rows
// on bits 0..3.
var matrixKeys = []matrixKey{
	{ebiten.KeyC, 1 << 4, 1 << 0}, // CC / monitor
	{ebiten.KeyP, 1 << 6, 1 << 0}, // pause / stop
	{ebiten.KeyR, 1 << 5, 1 << 1}, // rate
	{ebiten.KeyV, 1 << 6, 1 << 1}, // vtbi
	{ebiten.KeyS, 1 << 7, 1 << 1}, // start
	{ebiten.Key1, 1 << 4, 1 << 2}, // hundred
	{ebiten.Key2, 1 << 5, 1 << 2}, // ten
	{ebiten.Key3, 1 << 6, 1 << 2}, // one
	{ebiten.Key4, 1 << 7, 1 << 2}, // tenth
	{ebiten.KeyX, 1 << 4, 1 << 3}, // clear
	{ebiten.KeyM, 1 << 5, 1 << 3}, // pc / mode
	{ebiten.KeyB, 1 << 6, 1 << 3}, // sec / piggyback
	{ebiten.KeyI, 1 << 7, 1 << 3}, // volume infused
}

var ledLabels = [8]string{"CTL", "PMP", "CC", "BLK", "MON", "BAT", "SEC", "PWR"}

type hostGame struct {
	h         *hostHAL
	activeLow bool
}

func (g *hostGame) Update() error {
	for _, mk := range matrixKeys {
		if inpututil.IsKeyJustPressed(mk.key) {
			g.h.kp.press(mk.col, mk.row)
		}
		if inpututil.IsKeyJustReleased(mk.key) {
			g.h.kp.release(mk.col, mk.row)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.h.pwr.press()
	}
	if inpututil.IsKeyJustReleased(ebiten.KeySpace) {
		g.h.pwr.release()
	}
	return nil
}

var (
	colBG    = color.RGBA{0x20, 0x20, 0x24, 0xFF}
	colSegOn = color.RGBA{0xFF, 0x30, 0x30, 0xFF}
	colSegNo = color.RGBA{0x38, 0x28, 0x28, 0xFF}
	colLedOn = color.RGBA{0x40, 0xFF, 0x40, 0xFF}
	colLedNo = color.RGBA{0x28, 0x38, 0x28, 0xFF}
)

func (g *hostGame) Draw(screen *ebiten.Image) {
	screen.Fill(colBG)

	disps, leds := g.h.sink.snapshot()
	if g.activeLow {
		for i := range disps {
			disps[i] = ^disps[i]
		}
	}

	// Top row: rate. Bottom row: vtbi.
	for i := 0; i < NumDisplays; i++ {
		x := float32(30 + (i%4)*56)
		y := float32(30)
		if i >= 4 {
			y = 120
		}
		drawDigit(screen, x, y, disps[i])
	}
	ebitenutil.DebugPrintAt(screen, "RATE", 260, 55)
	ebitenutil.DebugPrintAt(screen, "VTBI", 260, 145)

	for i := 0; i < 8; i++ {
		x := float32(30 + i*50)
		on := leds&(1<<i) != 0
		c := colLedNo
		if on {
			c = colLedOn
		}
		vector.DrawFilledCircle(screen, x+8, 228, 8, c, false)
		ebitenutil.DebugPrintAt(screen, ledLabels[i], int(x)-2, 240)
	}

	ebitenutil.DebugPrintAt(screen, "keys: R V S P X M B I C 1-4  power: space", 30, 270)
}

// drawDigit renders one seven-segment pattern: bits 0..6 are segments
// a..g, bit 7 the decimal point.
func drawDigit(dst *ebiten.Image, x, y float32, pattern byte) {
	const (
		w  = 30 // horizontal segment length
		l  = 28 // vertical segment length
		th = 6  // segment thickness
	)
	segColor := func(bit uint) color.RGBA {
		if pattern&(1<<bit) != 0 {
			return colSegOn
		}
		return colSegNo
	}
	vector.DrawFilledRect(dst, x+th, y, w, th, segColor(0), false)            // a
	vector.DrawFilledRect(dst, x+th+w, y+th, th, l, segColor(1), false)       // b
	vector.DrawFilledRect(dst, x+th+w, y+2*th+l, th, l, segColor(2), false)   // c
	vector.DrawFilledRect(dst, x+th, y+2*(th+l), w, th, segColor(3), false)   // d
	vector.DrawFilledRect(dst, x, y+2*th+l, th, l, segColor(4), false)        // e
	vector.DrawFilledRect(dst, x, y+th, th, l, segColor(5), false)            // f
	vector.DrawFilledRect(dst, x+th, y+th+l, w, th, segColor(6), false)       // g
	vector.DrawFilledRect(dst, x+2*th+w, y+2*(th+l), th, th, segColor(7), false) // dp
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return windowW, windowH
}
