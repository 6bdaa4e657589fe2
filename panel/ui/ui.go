// Package ui is the hierarchical pump interface state machine. It
// interprets logical keys against the current state and mutates the
// display rows and LED bank; the transition table is the only legal
// transition function, and any (state, key) pair outside it is rejected
// rather than silently ignored.
package ui

import (
	"errors"
	"fmt"
	"time"

	"gemini/hal"
	"gemini/panel/display"
	"gemini/panel/editor"
	"gemini/panel/keymap"
	"gemini/panel/segment"
)

// ErrUndefinedTransition rejects a (state, key) pair the table does not
// define.
var ErrUndefinedTransition = errors.New("ui: undefined transition")

// State is the interface's operating mode. Exactly one is current.
type State uint8

const (
	PoweredOff State = iota
	Home
	EditingRate
	EditingVtbi
	Active
)

func (s State) String() string {
	switch s {
	case PoweredOff:
		return "off"
	case Home:
		return "home"
	case EditingRate:
		return "rate-edit"
	case EditingVtbi:
		return "vtbi-edit"
	case Active:
		return "active"
	}
	return "?"
}

// Scanlock lets the machine hold off matrix interrupts while an
// edit-entry flash is blocking.
type Scanlock interface {
	Disable()
	Enable()
}

// Machine drives the interface.
type Machine struct {
	state State

	bank *display.Bank
	leds *display.LedBank
	scan Scanlock

	delay         func(time.Duration)
	flashInterval time.Duration

	rateSet bool // rate row holds a user value, not the pristine default
	vtbiSet bool
}

// New returns a machine in the PoweredOff state.
func New(bank *display.Bank, leds *display.LedBank, scan Scanlock, delay func(time.Duration), flashInterval time.Duration) *Machine {
	return &Machine{
		state:         PoweredOff,
		bank:          bank,
		leds:          leds,
		scan:          scan,
		delay:         delay,
		flashInterval: flashInterval,
	}
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// defaultRow is the pattern a row resets to on first edit entry and on
// clear-while-editing: blank blank 0 blank.
func defaultRow() [4]display.Datum {
	return [4]display.Datum{
		{Digit: segment.Off},
		{Digit: segment.Off},
		{Digit: 0},
		{Digit: segment.Off},
	}
}

func dashRow() [4]display.Datum {
	d := [4]display.Datum{}
	for i := range d {
		d[i].Digit = segment.Dash
	}
	return d
}

func (m *Machine) flash(row display.Row, n int) error {
	return m.bank.Flash(row.Select(), n, m.flashInterval, m.delay)
}

func (m *Machine) flashBoth(n int) error {
	return m.bank.Flash(hal.SelectAllDisps, n, m.flashInterval, m.delay)
}

// HandleKey dispatches one settled key press. Non-critical errors are
// returned for the caller to drop (display updates are best effort);
// editor.ErrCritical must be escalated to the fault handler.
func (m *Machine) HandleKey(k keymap.Key) error {
	if m.state == PoweredOff {
		// Scanning is disabled while off; a key that somehow arrives
		// anyway is outside the table.
		return fmt.Errorf("%w: %s in %s", ErrUndefinedTransition, k, m.state)
	}

	// Indicator keys are orthogonal to the table: accepted in every
	// state except Active.
	switch k {
	case keymap.KeyCCMonitor, keymap.KeyPCMode, keymap.KeySecPiggyBack, keymap.KeyVolumeInfused:
		if m.state == Active {
			return fmt.Errorf("%w: %s in %s", ErrUndefinedTransition, k, m.state)
		}
		m.handleIndicator(k)
		return nil
	}

	switch m.state {
	case Home:
		return m.handleHome(k)
	case EditingRate:
		return m.handleEditing(k, display.RowRate)
	case EditingVtbi:
		return m.handleEditing(k, display.RowVtbi)
	case Active:
		return m.handleActive(k)
	}
	return fmt.Errorf("%w: %s in %s", ErrUndefinedTransition, k, m.state)
}

func (m *Machine) handleHome(k keymap.Key) error {
	switch k {
	case keymap.KeyRate:
		return m.enterEdit(display.RowRate)
	case keymap.KeyVtbi:
		return m.enterEdit(display.RowVtbi)
	case keymap.KeyStart:
		return m.start()
	case keymap.KeyClearSilence:
		return m.clearAll()
	}
	return fmt.Errorf("%w: %s in %s", ErrUndefinedTransition, k, m.state)
}

func (m *Machine) handleEditing(k keymap.Key, row display.Row) error {
	switch k {
	case keymap.KeyRate:
		if row == display.RowRate {
			return m.exitEdit(row)
		}
		return m.enterEdit(display.RowRate)
	case keymap.KeyVtbi:
		if row == display.RowVtbi {
			return m.exitEdit(row)
		}
		return m.enterEdit(display.RowVtbi)
	case keymap.KeyPauseStop:
		return m.pauseStop()
	case keymap.KeyStart:
		return m.start()
	case keymap.KeyClearSilence:
		// Reset only the active row to its default pattern.
		return m.bank.WriteRow(row, defaultRow())
	case keymap.KeyHundred:
		return m.increment(row, editor.Hundreds)
	case keymap.KeyTen:
		return m.increment(row, editor.Tens)
	case keymap.KeyOne:
		return m.increment(row, editor.Ones)
	case keymap.KeyTenth:
		return m.increment(row, editor.Tenths)
	}
	return fmt.Errorf("%w: %s in %s", ErrUndefinedTransition, k, m.state)
}

func (m *Machine) handleActive(k keymap.Key) error {
	switch k {
	case keymap.KeyPauseStop:
		return m.pauseStop()
	case keymap.KeyStart:
		// Idempotent re-confirmation.
		return m.start()
	}
	return fmt.Errorf("%w: %s in %s", ErrUndefinedTransition, k, m.state)
}

// enterEdit moves to the row's editing state, initializing the row to
// the default pattern if it holds no user value, and flashes it twice.
// The matrix is held off until the flash completes.
func (m *Machine) enterEdit(row display.Row) error {
	m.scan.Disable()
	defer m.scan.Enable()

	if row == display.RowRate {
		m.state = EditingRate
		if !m.rateSet {
			if err := m.bank.WriteRow(row, defaultRow()); err != nil {
				return err
			}
			m.rateSet = true
		}
	} else {
		m.state = EditingVtbi
		if !m.vtbiSet {
			if err := m.bank.WriteRow(row, defaultRow()); err != nil {
				return err
			}
			m.vtbiSet = true
		}
	}
	return m.flash(row, 2)
}

// exitEdit returns to Home from the row's editing state, flashing the
// row once.
func (m *Machine) exitEdit(row display.Row) error {
	m.scan.Disable()
	defer m.scan.Enable()

	m.state = Home
	return m.flash(row, 1)
}

// pauseStop ends any edit or active infusion and flashes both rows
// once.
func (m *Machine) pauseStop() error {
	m.state = Home
	return m.flashBoth(1)
}

// start locks the interface into the active infusion state and flashes
// both rows twice.
func (m *Machine) start() error {
	m.state = Active
	return m.flashBoth(2)
}

// clearAll resets both rows to dashes, forgets the user-value flags,
// and marks the LED bank for its power-on default group.
func (m *Machine) clearAll() error {
	if err := m.bank.WriteRow(display.RowRate, dashRow()); err != nil {
		return err
	}
	if err := m.bank.WriteRow(display.RowVtbi, dashRow()); err != nil {
		return err
	}
	m.rateSet = false
	m.vtbiSet = false
	m.leds.ResetDefault()
	return nil
}

func (m *Machine) increment(row display.Row, p editor.Place) error {
	// Only the VTBI row may grow past 999.9.
	return editor.Apply(m.bank, row, p, row == display.RowVtbi)
}

// PowerOff blanks the panel, retaining row and LED state in memory, and
// leaves only the plug-power lamp lit. Edit and active modes do not
// survive a power cycle.
func (m *Machine) PowerOff() error {
	m.state = PoweredOff
	if err := m.bank.Blank(hal.SelectAllDisps); err != nil {
		return err
	}
	return m.leds.WriteRaw(display.LedPlugPower)
}

// PowerOn restores the retained rows and LED bank and returns to Home.
func (m *Machine) PowerOn() error {
	m.state = Home
	if err := m.bank.Refresh(); err != nil {
		return err
	}
	return m.leds.Restore()
}
