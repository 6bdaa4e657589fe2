package display

import "gemini/hal"

// Led masks one indicator lamp in the LED shift register.
type Led byte

const (
	LedController Led = 1 << iota
	LedPump
	LedCC
	LedBlankButton
	LedMonitor
	LedSecPiggyBack
	LedBattPower
	LedPlugPower
)

// LedDefault is the group lit on power-on and after a full clear.
const LedDefault = LedPump | LedCC | LedPlugPower

// LedBank tracks the LED shift register. Mutations accumulate in next;
// Commit transmits only when next differs from the last byte actually
// latched, so repeated dispatches do not flicker the register.
type LedBank struct {
	sink hal.Sink
	curr Led
	next Led
}

// NewLedBank returns a bank whose retained state is the power-on
// default. Nothing is transmitted until Commit or WriteRaw.
func NewLedBank(sink hal.Sink) *LedBank {
	return &LedBank{sink: sink, curr: LedDefault, next: LedDefault}
}

// Lit reports whether every lamp in mask is currently lit.
func (l *LedBank) Lit(mask Led) bool { return l.curr&mask == mask }

// LitCount returns how many of the lamps in mask are lit.
func (l *LedBank) LitCount(mask Led) int {
	n := 0
	for bit := Led(1); bit != 0; bit <<= 1 {
		if mask&bit != 0 && l.curr&bit != 0 {
			n++
		}
	}
	return n
}

func (l *LedBank) Set(mask Led)    { l.next |= mask }
func (l *LedBank) Clear(mask Led)  { l.next &^= mask }
func (l *LedBank) Toggle(mask Led) { l.next ^= mask }

// ResetDefault marks the bank to return to the power-on group.
func (l *LedBank) ResetDefault() { l.next = LedDefault }

// Commit transmits the pending state if it changed.
func (l *LedBank) Commit() error {
	if l.next == l.curr {
		return nil
	}
	if err := l.sink.Transmit(hal.SelectLEDs, byte(l.next)); err != nil {
		return err
	}
	l.curr = l.next
	return nil
}

// WriteRaw latches b into the register without touching the retained
// state; used while powered off (plug lamp only) and by the fault
// handler (all dark). Restore undoes it.
func (l *LedBank) WriteRaw(b Led) error {
	return l.sink.Transmit(hal.SelectLEDs, byte(b))
}

// Restore retransmits the retained state.
func (l *LedBank) Restore() error {
	return l.sink.Transmit(hal.SelectLEDs, byte(l.curr))
}
