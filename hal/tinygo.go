//go:build tinygo

package hal

import (
	"machine"
	"time"

	"tinygo.org/x/drivers"
)

// Pico wiring. Columns sit on port bits 4..7, rows on bits 0..3 of
// the matrix masks.
var (
	colPins = [4]machine.Pin{machine.GP6, machine.GP7, machine.GP8, machine.GP9}
	rowPins = [4]machine.Pin{machine.GP10, machine.GP11, machine.GP12, machine.GP13}
	pwrPin  = machine.GP14
	latch   = machine.GP5
)

type tinyGoHAL struct {
	logger *uartLogger
	sink   *spiSink
	kp     *tinyGoKeypad
	pwr    *tinyGoPower
	isr    ISR
}

// New returns a Pico (RP2040) HAL implementation.
//
// UART: UART0 on GP0 (TX) / GP1 (RX), 115200 8N1.
// SPI: SPI0 on GP2 (SCK) / GP3 (SDO), register latch on GP5.
func New() HAL {
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})

	machine.SPI0.Configure(machine.SPIConfig{
		SCK:       machine.GP2,
		SDO:       machine.GP3,
		Frequency: 1_000_000,
	})
	latch.Configure(machine.PinConfig{Mode: machine.PinOutput})
	latch.Low()

	h := &tinyGoHAL{
		logger: &uartLogger{uart: uart},
		sink:   &spiSink{bus: machine.SPI0},
	}

	kp := &tinyGoKeypad{h: h}
	for _, p := range colPins {
		p.Configure(machine.PinConfig{Mode: machine.PinOutput})
		p.Low()
	}
	for _, p := range rowPins {
		p.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
		p.SetInterrupt(machine.PinToggle, kp.rowEdge)
	}
	h.kp = kp

	pwrPin.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	pwr := &tinyGoPower{h: h}
	pwrPin.SetInterrupt(machine.PinRising, pwr.edge)
	h.pwr = pwr

	return h
}

func (h *tinyGoHAL) Logger() Logger     { return h.logger }
func (h *tinyGoHAL) Sink() Sink         { return h.sink }
func (h *tinyGoHAL) Keypad() KeypadPort { return h.kp }
func (h *tinyGoHAL) Power() PowerButton { return h.pwr }

func (h *tinyGoHAL) NewTimer(fire func()) DebounceTimer {
	return &tinyGoTimer{fire: fire}
}

func (h *tinyGoHAL) Bind(isr ISR) { h.isr = isr }

func (h *tinyGoHAL) Delay(d time.Duration) { time.Sleep(d) }

// Reset starves the watchdog until the chip resets.
func (h *tinyGoHAL) Reset() {
	h.logger.WriteLineString("hal: reset")
	machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 1})
	machine.Watchdog.Start()
	for {
	}
}

type uartLogger struct {
	uart *machine.UART
}

func (l *uartLogger) WriteLineString(s string) {
	l.uart.Write([]byte(s))
	l.uart.Write([]byte{'\r', '\n'})
}

func (l *uartLogger) WriteLineBytes(b []byte) {
	l.uart.Write(b)
	l.uart.Write([]byte{'\r', '\n'})
}

// spiSink shifts the select mask and data byte into the register
// chain, then pulses the latch to commit.
type spiSink struct {
	bus drivers.SPI
}

func (s *spiSink) Transmit(sel SelectMask, b byte) error {
	w := [3]byte{byte(sel >> 8), byte(sel), b}
	if err := s.bus.Tx(w[:], nil); err != nil {
		return err
	}
	latch.High()
	latch.Low()
	return nil
}

// tinyGoKeypad layers the enabled/latched flags over pin interrupts.
// Pin interrupts register once at boot; masking is software state so
// the edge polarity can flip without reprogramming the pad.
type tinyGoKeypad struct {
	h           *tinyGoHAL
	irqEnabled  bool
	releaseEdge bool
	latched     bool
}

func (k *tinyGoKeypad) DriveColumns(mask byte) {
	for i, p := range colPins {
		if mask&(1<<(4+i)) != 0 {
			p.High()
		} else {
			p.Low()
		}
	}
}

func (k *tinyGoKeypad) ReadRows() byte {
	var b byte
	for i, p := range rowPins {
		if p.Get() {
			b |= 1 << i
		}
	}
	return b
}

func (k *tinyGoKeypad) SetRowIRQ(enabled bool) {
	fire := enabled && !k.irqEnabled && k.latched
	k.irqEnabled = enabled
	if fire && k.h.isr != nil {
		k.h.isr.RowEdge()
	}
}

func (k *tinyGoKeypad) ClearRowIRQ() { k.latched = false }

func (k *tinyGoKeypad) SetRowEdge(release bool) { k.releaseEdge = release }

func (k *tinyGoKeypad) rowEdge(p machine.Pin) {
	release := !p.Get()
	if release != k.releaseEdge {
		return
	}
	k.latched = true
	if k.irqEnabled && k.h.isr != nil {
		k.h.isr.RowEdge()
	}
}

type tinyGoPower struct {
	h          *tinyGoHAL
	irqEnabled bool
	latched    bool
}

func (p *tinyGoPower) Held() bool { return pwrPin.Get() }

func (p *tinyGoPower) SetIRQ(enabled bool) {
	fire := enabled && !p.irqEnabled && p.latched
	p.irqEnabled = enabled
	if fire && p.h.isr != nil {
		p.h.isr.PowerEdge()
	}
}

func (p *tinyGoPower) ClearIRQ() { p.latched = false }

func (p *tinyGoPower) edge(machine.Pin) {
	p.latched = true
	if p.irqEnabled && p.h.isr != nil {
		p.h.isr.PowerEdge()
	}
}

type tinyGoTimer struct {
	t    *time.Timer
	fire func()
}

func (t *tinyGoTimer) Arm(d time.Duration) {
	if t.t != nil {
		t.t.Stop()
	}
	t.t = time.AfterFunc(d, t.fire)
}

func (t *tinyGoTimer) Disarm() {
	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
}
