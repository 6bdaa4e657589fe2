// Package panel ties the debounce pipeline, matrix scanner, state
// machine and displays into the single sequential controller loop.
// "Concurrency" here is the HAL's event context preempting this loop
// the way hardware interrupts preempt firmware: the two-bit rendezvous
// flags in the debounce pipeline and the pending coordinate are the
// only state both sides touch.
package panel

import (
	"errors"
	"time"

	"gemini/hal"
	"gemini/panel/debounce"
	"gemini/panel/display"
	"gemini/panel/editor"
	"gemini/panel/fault"
	"gemini/panel/keymap"
	"gemini/panel/keypad"
	"gemini/panel/ui"
)

// Delays collects every blocking interval the controller uses. Zero
// values are replaced by DefaultDelays.
type Delays struct {
	KeyPress     time.Duration // matrix press debounce
	KeyRelease   time.Duration // matrix release debounce
	PowerPress   time.Duration // power button press debounce (busy wait)
	PowerRelease time.Duration // power button release debounce (busy wait)
	Flash        time.Duration // display flash interval
	Startup      time.Duration // settle time before subsystem init
	Idle         time.Duration // loop pacing between polls
}

// DefaultDelays matches the panel hardware: 300/700 cycles of the
// 12kHz debounce clock for the matrix, 1e5/3e5 cycles of the 1MHz
// master clock for the power button, 262k for a flash.
func DefaultDelays() Delays {
	return Delays{
		KeyPress:     25 * time.Millisecond,
		KeyRelease:   58 * time.Millisecond,
		PowerPress:   100 * time.Millisecond,
		PowerRelease: 300 * time.Millisecond,
		Flash:        262 * time.Millisecond,
		Startup:      1048 * time.Millisecond,
		Idle:         time.Millisecond,
	}
}

func (d *Delays) fill() {
	def := DefaultDelays()
	if d.KeyPress <= 0 {
		d.KeyPress = def.KeyPress
	}
	if d.KeyRelease <= 0 {
		d.KeyRelease = def.KeyRelease
	}
	if d.PowerPress <= 0 {
		d.PowerPress = def.PowerPress
	}
	if d.PowerRelease <= 0 {
		d.PowerRelease = def.PowerRelease
	}
	if d.Flash <= 0 {
		d.Flash = def.Flash
	}
	if d.Startup <= 0 {
		d.Startup = def.Startup
	}
	if d.Idle <= 0 {
		d.Idle = def.Idle
	}
}

// Config parameterizes a controller.
type Config struct {
	ActiveLow bool
	Keymap    keymap.Table
	Delays    Delays
}

// Controller is the panel firmware core.
type Controller struct {
	h      hal.HAL
	log    hal.Logger
	pipe   *debounce.Pipeline
	scan   *keypad.Scanner
	keymap keymap.Table
	bank   *display.Bank
	leds   *display.LedBank
	m      *ui.Machine
	delays Delays
}

// Row and column line masks of the matrix port (rows on bits 0..3,
// columns on bits 4..7, matching the keymap's coordinates).
const (
	rowMask = 0x0F
	colMask = 0xF0
)

// New wires a controller to the HAL. The panel comes up powered off
// with both rows retained as dashes, displays dark and only the plug
// lamp lit, ready for the power button.
func New(h hal.HAL, cfg Config) (*Controller, error) {
	cfg.Delays.fill()
	if cfg.Keymap == nil {
		cfg.Keymap = keymap.Default()
	}

	// Settle before touching the subsystems, as the hardware did to
	// ride out AC power transients.
	h.Delay(cfg.Delays.Startup)

	bank, err := display.NewBank(h.Sink(), cfg.ActiveLow)
	if err != nil {
		return nil, err
	}
	leds := display.NewLedBank(h.Sink())
	scan := keypad.New(h.Keypad(), rowMask, colMask)
	pipe := debounce.New(h.NewTimer, cfg.Delays.KeyPress, cfg.Delays.KeyRelease)

	c := &Controller{
		h:      h,
		log:    h.Logger(),
		pipe:   pipe,
		scan:   scan,
		keymap: cfg.Keymap,
		bank:   bank,
		leds:   leds,
		delays: cfg.Delays,
	}
	c.m = ui.New(bank, leds, scan, h.Delay, cfg.Delays.Flash)

	h.Bind(c)

	// Boot into the off state: outputs dark, plug lamp lit, matrix
	// quiet, power button armed. The power signal seeds as "off" with
	// no pending transition; the first press toggles it on.
	pipe.Seed(debounce.SigPower, true)
	if err := c.m.PowerOff(); err != nil {
		return nil, err
	}
	scan.Disable()
	h.Power().ClearIRQ()
	h.Power().SetIRQ(true)

	if c.log != nil {
		c.log.WriteLineString("panel: ready (off)")
	}
	return c, nil
}

// RowEdge is the matrix line ISR: mask the line and hand the edge to
// the debounce timer. Runs in event context.
func (c *Controller) RowEdge() {
	c.h.Keypad().SetRowIRQ(false)
	c.h.Keypad().ClearRowIRQ()
	c.pipe.KeyEdge()
}

// PowerEdge is the power line ISR: silence the keypad, toggle the
// logical power state, and mask the line until the main loop has
// debounced the press. Runs in event context.
func (c *Controller) PowerEdge() {
	c.pipe.StopTimer()
	c.pipe.Drop(debounce.SigKey)
	c.scan.Disable()

	c.pipe.PowerEdge()
	c.h.Power().SetIRQ(false)
	c.h.Power().ClearIRQ()
}

// TimerExpired is the debounce timer ISR. Runs in event context.
func (c *Controller) TimerExpired() { c.pipe.TimerExpired() }

// Run loops forever.
func (c *Controller) Run() {
	for {
		c.Step()
		c.h.Delay(c.delays.Idle)
	}
}

// Step is one main-loop iteration: poll for a settled key transition,
// then for a power transition.
func (c *Controller) Step() {
	if c.pipe.Pending(debounce.SigKey) {
		c.stepKey()
	}
	if c.pipe.Pending(debounce.SigPower) {
		c.stepPower()
	}
}

func (c *Controller) stepKey() {
	if c.pipe.Active(debounce.SigKey) {
		// Key is down: resolve the coordinate now, while the contact
		// is still closed.
		if err := c.scan.Scan(); err != nil {
			// Noise; forget the whole press so nothing fires later.
			c.pipe.Drop(debounce.SigKey)
			return
		}
		// Leave current and previous diverged-by-release: the release
		// can settle during this very handling and still be seen.
		c.pipe.MarkHandledPress(debounce.SigKey)
		return
	}

	// Release settled: commit the coordinate and act on it.
	coord := c.scan.Save()
	key := c.keymap.Lookup(coord)
	if key != keymap.KeyNone {
		if err := c.m.HandleKey(key); err != nil {
			if errors.Is(err, editor.ErrCritical) {
				fault.Handle(c.h, c.bank, c.leds, coord, fault.Delays{
					Flash:        c.delays.Flash,
					PowerPress:   c.delays.PowerPress,
					PowerRelease: c.delays.PowerRelease,
				})
			}
			// Everything else is best effort; undefined transitions
			// are dropped and skipped writes only logged.
			if c.log != nil && !errors.Is(err, ui.ErrUndefinedTransition) {
				c.log.WriteLineString("panel: " + err.Error())
			}
		}
	}

	// Clear only the previous bit: a press that settled during a
	// blocking flash above stays pending for the next iteration.
	c.pipe.ClearPrev(debounce.SigKey)

	// Latch any LED changes the dispatch accumulated, once per press.
	if err := c.leds.Commit(); err != nil && c.log != nil {
		c.log.WriteLineString("panel: led commit: " + err.Error())
	}
}

func (c *Controller) stepPower() {
	// Debounce the press, wait out the hold, debounce the release. The
	// loop blocks deliberately; the power button is the only input
	// that matters right now.
	c.h.Delay(c.delays.PowerPress)
	for c.h.Power().Held() {
	}
	c.h.Delay(c.delays.PowerRelease)

	var err error
	if c.pipe.Active(debounce.SigPower) {
		err = c.m.PowerOff()
		c.scan.Disable()
		c.pipe.Drop(debounce.SigKey)
	} else {
		err = c.m.PowerOn()
		c.scan.Enable()
	}
	if err != nil && c.log != nil {
		c.log.WriteLineString("panel: power: " + err.Error())
	}

	c.pipe.Sync(debounce.SigPower)
	c.h.Power().ClearIRQ()
	c.h.Power().SetIRQ(true)
}

// Machine exposes the UI state for simulators and tests.
func (c *Controller) Machine() *ui.Machine { return c.m }

// Bank exposes the display bank for simulators and tests.
func (c *Controller) Bank() *display.Bank { return c.bank }
