//go:build linux && !tinygo

package hal

import (
	"fmt"
	"os"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// PeriphConfig names the SPI port and GPIO lines of a Linux-attached
// panel. Empty fields take the Raspberry Pi defaults.
type PeriphConfig struct {
	SPIPort  string
	LatchPin string
	// ColumnPins and RowPins are ordered by matrix index: columns map
	// to port bits 4..7, rows to bits 0..3.
	ColumnPins [4]string
	RowPins    [4]string
	PowerPin   string
}

func (c *PeriphConfig) fill() {
	if c.SPIPort == "" {
		c.SPIPort = "/dev/spidev0.0"
	}
	if c.LatchPin == "" {
		c.LatchPin = "GPIO25"
	}
	defCols := [4]string{"GPIO5", "GPIO6", "GPIO13", "GPIO19"}
	defRows := [4]string{"GPIO12", "GPIO16", "GPIO20", "GPIO21"}
	for i := range c.ColumnPins {
		if c.ColumnPins[i] == "" {
			c.ColumnPins[i] = defCols[i]
		}
		if c.RowPins[i] == "" {
			c.RowPins[i] = defRows[i]
		}
	}
	if c.PowerPin == "" {
		c.PowerPin = "GPIO26"
	}
}

type periphHAL struct {
	logger *hostLogger
	sink   *periphSink
	kp     *periphKeypad
	pwr    *periphPower
	isr    ISR
}

// NewPeriph opens the panel hardware through periph.io. It blocks
// until every line is claimed.
func NewPeriph(cfg PeriphConfig) (HAL, error) {
	cfg.fill()
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph: host init: %w", err)
	}

	port, err := spireg.Open(cfg.SPIPort)
	if err != nil {
		return nil, fmt.Errorf("periph: spi %s: %w", cfg.SPIPort, err)
	}
	conn, err := port.Connect(physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("periph: spi connect: %w", err)
	}
	latch := gpioreg.ByName(cfg.LatchPin)
	if latch == nil {
		return nil, fmt.Errorf("periph: latch pin %s not found", cfg.LatchPin)
	}
	if err := latch.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("periph: latch pin: %w", err)
	}

	h := &periphHAL{
		logger: &hostLogger{w: os.Stdout},
		sink:   &periphSink{conn: conn, latch: latch},
	}

	kp := &periphKeypad{h: h}
	for i, name := range cfg.ColumnPins {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("periph: column pin %s not found", name)
		}
		if err := p.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("periph: column pin %s: %w", name, err)
		}
		kp.cols[i] = p
	}
	for i, name := range cfg.RowPins {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("periph: row pin %s not found", name)
		}
		if err := p.In(gpio.PullDown, gpio.BothEdges); err != nil {
			return nil, fmt.Errorf("periph: row pin %s: %w", name, err)
		}
		kp.rows[i] = p
	}
	h.kp = kp

	pp := gpioreg.ByName(cfg.PowerPin)
	if pp == nil {
		return nil, fmt.Errorf("periph: power pin %s not found", cfg.PowerPin)
	}
	if err := pp.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		return nil, fmt.Errorf("periph: power pin %s: %w", cfg.PowerPin, err)
	}
	h.pwr = &periphPower{h: h, pin: pp}

	for i := range kp.rows {
		go kp.watch(i)
	}
	go h.pwr.watch()
	return h, nil
}

func (h *periphHAL) Logger() Logger     { return h.logger }
func (h *periphHAL) Sink() Sink         { return h.sink }
func (h *periphHAL) Keypad() KeypadPort { return h.kp }
func (h *periphHAL) Power() PowerButton { return h.pwr }

func (h *periphHAL) NewTimer(fire func()) DebounceTimer {
	return &hostTimer{fire: fire}
}

func (h *periphHAL) Bind(isr ISR) { h.isr = isr }

func (h *periphHAL) Delay(d time.Duration) { time.Sleep(d) }

// Reset exits so the supervisor restarts the panel process.
func (h *periphHAL) Reset() {
	h.logger.WriteLineString("hal: reset")
	os.Exit(1)
}

// periphSink shifts the select mask and data byte out over SPI, then
// pulses the latch line to commit the chain.
type periphSink struct {
	conn  spi.Conn
	latch gpio.PinIO
}

func (s *periphSink) Transmit(sel SelectMask, b byte) error {
	w := [3]byte{byte(sel >> 8), byte(sel), b}
	if err := s.conn.Tx(w[:], nil); err != nil {
		return fmt.Errorf("periph: spi tx: %w", err)
	}
	if err := s.latch.Out(gpio.High); err != nil {
		return fmt.Errorf("periph: latch: %w", err)
	}
	return s.latch.Out(gpio.Low)
}

type periphKeypad struct {
	h    *periphHAL
	cols [4]gpio.PinIO
	rows [4]gpio.PinIO

	mu          sync.Mutex
	irqEnabled  bool
	releaseEdge bool
	latched     bool
}

func (k *periphKeypad) DriveColumns(mask byte) {
	for i, p := range k.cols {
		lvl := gpio.Low
		if mask&(1<<(4+i)) != 0 {
			lvl = gpio.High
		}
		p.Out(lvl)
	}
}

func (k *periphKeypad) ReadRows() byte {
	var b byte
	for i, p := range k.rows {
		if p.Read() == gpio.High {
			b |= 1 << i
		}
	}
	return b
}

func (k *periphKeypad) SetRowIRQ(enabled bool) {
	k.mu.Lock()
	fire := enabled && !k.irqEnabled && k.latched
	k.irqEnabled = enabled
	isr := k.h.isr
	k.mu.Unlock()
	if fire && isr != nil {
		isr.RowEdge()
	}
}

func (k *periphKeypad) ClearRowIRQ() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.latched = false
}

func (k *periphKeypad) SetRowEdge(release bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.releaseEdge = release
}

// watch turns pin edges into row ISR calls, filtered by the selected
// polarity. The level after the edge decides press versus release.
func (k *periphKeypad) watch(i int) {
	p := k.rows[i]
	for {
		if !p.WaitForEdge(-1) {
			continue
		}
		release := p.Read() == gpio.Low
		k.mu.Lock()
		if release != k.releaseEdge {
			k.mu.Unlock()
			continue
		}
		k.latched = true
		fire := k.irqEnabled
		isr := k.h.isr
		k.mu.Unlock()
		if fire && isr != nil {
			isr.RowEdge()
		}
	}
}

type periphPower struct {
	h   *periphHAL
	pin gpio.PinIO

	mu         sync.Mutex
	irqEnabled bool
	latched    bool
}

func (p *periphPower) Held() bool { return p.pin.Read() == gpio.High }

func (p *periphPower) SetIRQ(enabled bool) {
	p.mu.Lock()
	fire := enabled && !p.irqEnabled && p.latched
	p.irqEnabled = enabled
	isr := p.h.isr
	p.mu.Unlock()
	if fire && isr != nil {
		isr.PowerEdge()
	}
}

func (p *periphPower) ClearIRQ() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latched = false
}

func (p *periphPower) watch() {
	for {
		if !p.pin.WaitForEdge(-1) {
			continue
		}
		p.mu.Lock()
		p.latched = true
		fire := p.irqEnabled
		isr := p.h.isr
		p.mu.Unlock()
		if fire && isr != nil {
			isr.PowerEdge()
		}
	}
}
