//go:build !tinygo

package hal

import (
	"fmt"
	"os"
	"sync"
	"time"
)

type hostHAL struct {
	logger *hostLogger
	sink   *hostSink
	mirror Sink
	kp     *hostKeypad
	pwr    *hostPower
	isr    ISR
}

// New returns a host HAL implementation backed by the virtual panel.
func New() HAL {
	logger := &hostLogger{w: os.Stdout}
	h := &hostHAL{
		logger: logger,
		sink:   &hostSink{},
		kp:     &hostKeypad{},
		pwr:    &hostPower{},
	}
	h.kp.h = h
	h.pwr.h = h
	return h
}

func (h *hostHAL) Logger() Logger { return h.logger }

func (h *hostHAL) Sink() Sink {
	if h.mirror != nil {
		return teeSink{h.sink, h.mirror}
	}
	return h.sink
}

// teeSink mirrors every write to a second sink, typically the serial
// bridge of a hardware-attached panel.
type teeSink struct {
	a, b Sink
}

func (t teeSink) Transmit(sel SelectMask, b byte) error {
	if err := t.a.Transmit(sel, b); err != nil {
		return err
	}
	return t.b.Transmit(sel, b)
}
func (h *hostHAL) Keypad() KeypadPort { return h.kp }
func (h *hostHAL) Power() PowerButton { return h.pwr }

func (h *hostHAL) NewTimer(fire func()) DebounceTimer {
	return &hostTimer{fire: fire}
}

func (h *hostHAL) Bind(isr ISR) { h.isr = isr }

func (h *hostHAL) Delay(d time.Duration) { time.Sleep(d) }

// Reset exits the process; on hardware this would be a watchdog reset.
func (h *hostHAL) Reset() {
	h.logger.WriteLineString("hal: reset")
	os.Exit(1)
}

type hostLogger struct {
	mu sync.Mutex
	w  *os.File
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

// hostSink latches the last byte written to each select line so the
// window can render the panel state.
type hostSink struct {
	mu    sync.Mutex
	disps [NumDisplays]byte
	leds  byte
}

func (s *hostSink) Transmit(sel SelectMask, b byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < NumDisplays; i++ {
		if sel&(1<<i) != 0 {
			s.disps[i] = b
		}
	}
	if sel&SelectLEDs != 0 {
		s.leds = b
	}
	return nil
}

func (s *hostSink) snapshot() ([NumDisplays]byte, byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disps, s.leds
}

// hostKeypad models the matrix: at most one key is down at a time,
// identified by its column and row line masks. A row edge latches, and
// fires the ISR when unmasked, like a real interrupt flag register.
type hostKeypad struct {
	mu          sync.Mutex
	h           *hostHAL
	pressedCol  byte
	pressedRow  byte
	driven      byte
	irqEnabled  bool
	releaseEdge bool
	latched     bool
}

func (k *hostKeypad) DriveColumns(mask byte) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.driven = mask
}

func (k *hostKeypad) ReadRows() byte {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.pressedRow != 0 && k.driven&k.pressedCol != 0 {
		return k.pressedRow
	}
	return 0
}

func (k *hostKeypad) SetRowIRQ(enabled bool) {
	k.mu.Lock()
	fire := enabled && !k.irqEnabled && k.latched
	k.irqEnabled = enabled
	isr := k.h.isr
	k.mu.Unlock()
	if fire && isr != nil {
		isr.RowEdge()
	}
}

func (k *hostKeypad) ClearRowIRQ() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.latched = false
}

func (k *hostKeypad) SetRowEdge(release bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.releaseEdge = release
}

// press and release are driven by the window's key mapping.
func (k *hostKeypad) press(col, row byte) {
	k.mu.Lock()
	if k.pressedRow != 0 {
		k.mu.Unlock()
		return
	}
	k.pressedCol, k.pressedRow = col, row
	fire := k.edgeLocked(false)
	k.mu.Unlock()
	if fire != nil {
		fire.RowEdge()
	}
}

func (k *hostKeypad) release(col, row byte) {
	k.mu.Lock()
	if k.pressedCol != col || k.pressedRow != row {
		k.mu.Unlock()
		return
	}
	k.pressedCol, k.pressedRow = 0, 0
	fire := k.edgeLocked(true)
	k.mu.Unlock()
	if fire != nil {
		fire.RowEdge()
	}
}

func (k *hostKeypad) edgeLocked(release bool) ISR {
	if release != k.releaseEdge {
		return nil
	}
	k.latched = true
	if !k.irqEnabled {
		return nil
	}
	return k.h.isr
}

// hostPower is the dedicated power line. The edge fires on press only.
type hostPower struct {
	mu         sync.Mutex
	h          *hostHAL
	held       bool
	irqEnabled bool
	latched    bool
}

func (p *hostPower) Held() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.held
}

func (p *hostPower) SetIRQ(enabled bool) {
	p.mu.Lock()
	fire := enabled && !p.irqEnabled && p.latched
	p.irqEnabled = enabled
	isr := p.h.isr
	p.mu.Unlock()
	if fire && isr != nil {
		isr.PowerEdge()
	}
}

func (p *hostPower) ClearIRQ() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latched = false
}

func (p *hostPower) press() {
	p.mu.Lock()
	p.held = true
	p.latched = true
	fire := p.irqEnabled
	isr := p.h.isr
	p.mu.Unlock()
	if fire && isr != nil {
		isr.PowerEdge()
	}
}

func (p *hostPower) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.held = false
}

// hostTimer is a one-shot on the runtime timer wheel. Arming while
// armed supersedes the pending expiry.
type hostTimer struct {
	mu   sync.Mutex
	t    *time.Timer
	fire func()
}

func (t *hostTimer) Arm(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.t != nil {
		t.t.Stop()
	}
	t.t = time.AfterFunc(d, t.fire)
}

func (t *hostTimer) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
}
