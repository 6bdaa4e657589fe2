package panel

import (
	"strings"
	"testing"
	"time"

	"gemini/hal"
	"gemini/panel/display"
	"gemini/panel/segment"
	"gemini/panel/ui"
)

// fakeHAL drives the controller entirely from the test: edges are
// delivered by calling the ISR methods directly and the debounce timer
// fires on demand.
type fakeHAL struct {
	log   *fakeLogger
	sink  *fakeSink
	kp    *fakePort
	pwr   *fakePower
	timer *fakeTimer
	isr   hal.ISR
}

func newFakeHAL() *fakeHAL {
	return &fakeHAL{
		log:   &fakeLogger{},
		sink:  &fakeSink{},
		kp:    &fakePort{},
		pwr:   &fakePower{},
		timer: &fakeTimer{},
	}
}

func (h *fakeHAL) Logger() hal.Logger     { return h.log }
func (h *fakeHAL) Sink() hal.Sink         { return h.sink }
func (h *fakeHAL) Keypad() hal.KeypadPort { return h.kp }
func (h *fakeHAL) Power() hal.PowerButton { return h.pwr }

func (h *fakeHAL) NewTimer(fire func()) hal.DebounceTimer {
	h.timer.fire = fire
	return h.timer
}

func (h *fakeHAL) Bind(isr hal.ISR)      { h.isr = isr }
func (h *fakeHAL) Delay(d time.Duration) {}

func (h *fakeHAL) Reset() { panic("hal reset") }

type fakeLogger struct {
	lines []string
}

func (l *fakeLogger) WriteLineString(s string) { l.lines = append(l.lines, s) }
func (l *fakeLogger) WriteLineBytes(b []byte)  { l.lines = append(l.lines, string(b)) }

func (l *fakeLogger) contains(sub string) bool {
	for _, s := range l.lines {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

type fakeSink struct {
	writes []sinkWrite
	err    error
}

type sinkWrite struct {
	sel hal.SelectMask
	b   byte
}

func (s *fakeSink) Transmit(sel hal.SelectMask, b byte) error {
	if s.err != nil {
		return s.err
	}
	s.writes = append(s.writes, sinkWrite{sel, b})
	return nil
}

func (s *fakeSink) last() sinkWrite { return s.writes[len(s.writes)-1] }

type fakePort struct {
	pressedCol byte
	pressedRow byte
	driven     byte

	irqEnabled  bool
	releaseEdge bool
}

func (p *fakePort) DriveColumns(mask byte) { p.driven = mask }

func (p *fakePort) ReadRows() byte {
	if p.pressedRow != 0 && p.driven&p.pressedCol != 0 {
		return p.pressedRow
	}
	return 0
}

func (p *fakePort) SetRowIRQ(enabled bool)  { p.irqEnabled = enabled }
func (p *fakePort) ClearRowIRQ()            {}
func (p *fakePort) SetRowEdge(release bool) { p.releaseEdge = release }

type fakePower struct {
	holdCount  int // Held() reports true this many more times
	irqEnabled bool
}

func (p *fakePower) Held() bool {
	if p.holdCount > 0 {
		p.holdCount--
		return true
	}
	return false
}

func (p *fakePower) SetIRQ(enabled bool) { p.irqEnabled = enabled }
func (p *fakePower) ClearIRQ()           {}

type fakeTimer struct {
	armed    bool
	duration time.Duration
	fire     func()
}

func (t *fakeTimer) Arm(d time.Duration) { t.armed = true; t.duration = d }
func (t *fakeTimer) Disarm()             { t.armed = false }

func newController(t *testing.T) (*Controller, *fakeHAL) {
	t.Helper()
	h := newFakeHAL()
	c, err := New(h, Config{})
	if err != nil {
		t.Fatal(err)
	}
	return c, h
}

// powerOn delivers a debounced power button press.
func powerOn(t *testing.T, c *Controller) {
	t.Helper()
	c.PowerEdge()
	c.Step()
}

// tap delivers a full debounced press/release cycle of the key at the
// given matrix lines.
func tap(t *testing.T, c *Controller, h *fakeHAL, col, row byte) {
	t.Helper()
	h.kp.pressedCol, h.kp.pressedRow = col, row
	c.RowEdge()
	if !h.timer.armed {
		t.Fatal("press edge did not arm the debounce timer")
	}
	h.timer.fire()
	c.Step() // resolves the coordinate

	h.kp.pressedCol, h.kp.pressedRow = 0, 0
	c.RowEdge()
	h.timer.fire()
	c.Step() // dispatches the key
}

func TestBootState(t *testing.T) {
	c, h := newController(t)
	if got := c.Machine().State(); got != ui.PoweredOff {
		t.Fatalf("boot state = %v", got)
	}
	if !h.log.contains("ready (off)") {
		t.Fatalf("ready line missing: %v", h.log.lines)
	}
	if !h.pwr.irqEnabled {
		t.Fatal("power interrupt not armed")
	}
	if h.kp.irqEnabled {
		t.Fatal("matrix interrupt armed while off")
	}
	// The only output so far: displays dark, plug lamp lit.
	if w := h.sink.last(); w.sel != hal.SelectLEDs || w.b != byte(display.LedPlugPower) {
		t.Fatalf("last boot write = %#x to %#x", w.b, w.sel)
	}
}

func TestPowerOnRestoresPanel(t *testing.T) {
	c, h := newController(t)
	powerOn(t, c)
	if got := c.Machine().State(); got != ui.Home {
		t.Fatalf("state = %v, want home", got)
	}
	if !h.kp.irqEnabled {
		t.Fatal("matrix interrupt not armed after power-on")
	}
	if !h.pwr.irqEnabled {
		t.Fatal("power interrupt not re-armed")
	}
	// Retained boot rows come back as dashes.
	if got := c.Bank().Cell(0).Digit; got != segment.Dash {
		t.Fatalf("cell 0 = %#x, want dash", got)
	}
}

func TestKeyTapEntersEdit(t *testing.T) {
	c, h := newController(t)
	powerOn(t, c)

	tap(t, c, h, 1<<5, 1<<1) // rate
	if got := c.Machine().State(); got != ui.EditingRate {
		t.Fatalf("state = %v, want rate-edit", got)
	}
	if h.timer.duration != 58*time.Millisecond {
		t.Fatalf("release debounce = %v", h.timer.duration)
	}

	tap(t, c, h, 1<<5, 1<<2) // ten
	got := c.Bank().RowData(display.RowRate)
	want := [4]display.Datum{
		{Digit: segment.Off}, {Digit: 1}, {Digit: 0}, {Digit: segment.Off},
	}
	if got != want {
		t.Fatalf("rate row = %v, want %v", got, want)
	}
}

func TestNoiseScanDropsPress(t *testing.T) {
	c, h := newController(t)
	powerOn(t, c)

	// Edge fires but no key is held by scan time.
	c.RowEdge()
	h.timer.fire()
	c.Step()

	if h.timer.armed {
		t.Fatal("timer left armed after a dropped press")
	}
	// The signal is fully idle: another step does nothing.
	before := c.Machine().State()
	c.Step()
	if c.Machine().State() != before {
		t.Fatal("dropped press acted later")
	}
}

func TestUnknownCoordinateIgnored(t *testing.T) {
	c, h := newController(t)
	powerOn(t, c)
	tap(t, c, h, 1<<5, 1<<0) // unbound position (col5,row0)
	if got := c.Machine().State(); got != ui.Home {
		t.Fatalf("state = %v after unbound key", got)
	}
}

func TestUndefinedTransitionDropped(t *testing.T) {
	c, h := newController(t)
	powerOn(t, c)
	tap(t, c, h, 1<<6, 1<<2) // one-key at home: not in the table
	if got := c.Machine().State(); got != ui.Home {
		t.Fatalf("state = %v", got)
	}
	if h.log.contains("undefined") {
		t.Fatalf("undefined transition logged: %v", h.log.lines)
	}
}

func TestPowerOffDropsEditState(t *testing.T) {
	c, h := newController(t)
	powerOn(t, c)
	tap(t, c, h, 1<<6, 1<<1) // vtbi

	c.PowerEdge()
	if h.kp.irqEnabled {
		t.Fatal("matrix interrupt still armed after a power edge")
	}
	c.Step()
	if got := c.Machine().State(); got != ui.PoweredOff {
		t.Fatalf("state = %v", got)
	}
	if w := h.sink.last(); w.sel != hal.SelectLEDs || w.b != byte(display.LedPlugPower) {
		t.Fatalf("powered-off LED write = %#x", w.b)
	}

	// The edit mode is gone after the next power-on; the value stays.
	powerOn(t, c)
	if got := c.Machine().State(); got != ui.Home {
		t.Fatalf("state = %v, want home", got)
	}
}

func TestCriticalFaultResets(t *testing.T) {
	c, h := newController(t)
	powerOn(t, c)
	tap(t, c, h, 1<<5, 1<<1) // rate edit

	// Break the hundreds cell: its pattern changes, the transmit
	// fails, and committed/pending stay apart.
	h.sink.err = errTransmit
	tap(t, c, h, 1<<4, 1<<2) // hundred-key; the write fails quietly
	h.sink.err = nil
	if !h.log.contains("transmit failed") {
		t.Fatalf("write failure not logged: %v", h.log.lines)
	}

	// The next edit write finds the desync and escalates. The fault
	// handler blocks until the power button cycles, then resets.
	h.pwr.holdCount = 3
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("fault handler did not reset")
		}
		got := c.Bank().RowData(display.RowRate)
		want := [4]display.Datum{
			{Digit: 0xE, DP: true},
			{Digit: 0xC, DP: true},
			{Digit: 6}, // column bit of the last resolved key
			{Digit: 2}, // row bit
		}
		if got != want {
			t.Fatalf("fault screen = %v, want %v", got, want)
		}
	}()
	tap(t, c, h, 1<<6, 1<<2)
}

var errTransmit = &transmitError{}

type transmitError struct{}

func (*transmitError) Error() string { return "transmit failed" }
