// Package debounce decouples edge interrupts from the controller loop.
//
// Each tracked signal has a "current" and a "previous" bit packed into
// one atomic word. Event contexts set current (the key bit via the
// shared one-shot timer, the power bit directly); the controller
// observes a settled transition exactly when the two bits differ and is
// the only writer that brings them back together. All accesses go
// through sync/atomic, whose operations are sequentially consistent, so
// no further locking is needed for these single-bit hand-offs.
package debounce

import (
	"sync/atomic"
	"time"

	"gemini/hal"
)

// Signal identifies one debounced input.
type Signal uint8

const (
	SigKey Signal = iota
	SigPower
)

// Bit layout within the state word: current bits in the low byte,
// previous bits shifted up by prevShift.
const prevShift = 8

func currBit(s Signal) uint32 { return 1 << uint(s) }
func prevBit(s Signal) uint32 { return 1 << (uint(s) + prevShift) }

// Pipeline is the two-bit rendezvous between event context and the
// controller loop.
type Pipeline struct {
	state atomic.Uint32
	timer hal.DebounceTimer

	pressDelay   time.Duration
	releaseDelay time.Duration
}

// New builds a pipeline around the HAL's one-shot timer. newTimer is
// hal.HAL.NewTimer; the expiry callback is the pipeline's own.
func New(newTimer func(fire func()) hal.DebounceTimer, press, release time.Duration) *Pipeline {
	p := &Pipeline{pressDelay: press, releaseDelay: release}
	p.timer = newTimer(p.TimerExpired)
	return p
}

// KeyEdge handles a row line edge: arm the timer with the press delay
// if the key signal was idle, the release delay if it was active. The
// caller has already masked the row interrupt.
func (p *Pipeline) KeyEdge() {
	if p.state.Load()&currBit(SigKey) != 0 {
		p.timer.Arm(p.releaseDelay)
	} else {
		p.timer.Arm(p.pressDelay)
	}
}

// PowerEdge toggles the power signal unconditionally; the line level
// is never verified, so a spurious double edge cancels itself.
func (p *Pipeline) PowerEdge() {
	for {
		old := p.state.Load()
		if p.state.CompareAndSwap(old, old^currBit(SigPower)) {
			return
		}
	}
}

// TimerExpired registers the settled key transition: previous is first
// synchronized to current, then current toggles, and the timer disarms.
func (p *Pipeline) TimerExpired() {
	for {
		old := p.state.Load()
		next := old
		if old&currBit(SigKey) != 0 {
			next |= prevBit(SigKey)
		} else {
			next &^= prevBit(SigKey)
		}
		next ^= currBit(SigKey)
		if p.state.CompareAndSwap(old, next) {
			break
		}
	}
	p.timer.Disarm()
}

// Pending reports whether a settled transition awaits the controller
// (current XOR previous).
func (p *Pipeline) Pending(s Signal) bool {
	st := p.state.Load()
	return (st&currBit(s) != 0) != (st&prevBit(s) != 0)
}

// Active reports the signal's current bit (key held, power logically
// toggled off).
func (p *Pipeline) Active(s Signal) bool {
	return p.state.Load()&currBit(s) != 0
}

// Sync forces previous to match current, acknowledging the transition.
func (p *Pipeline) Sync(s Signal) {
	for {
		old := p.state.Load()
		next := old
		if old&currBit(s) != 0 {
			next |= prevBit(s)
		} else {
			next &^= prevBit(s)
		}
		if next == old || p.state.CompareAndSwap(old, next) {
			return
		}
	}
}

// MarkHandledPress sets only the previous bit. The release edge then
// re-diverges the pair, so the release is still observed even if it
// lands while the press is being handled.
func (p *Pipeline) MarkHandledPress(s Signal) {
	for {
		old := p.state.Load()
		next := old | prevBit(s)
		if next == old || p.state.CompareAndSwap(old, next) {
			return
		}
	}
}

// ClearPrev clears only the previous bit. Used at the end of release
// handling: a fresh press latched during a blocking flash keeps its
// current bit set and therefore stays pending instead of being dropped.
func (p *Pipeline) ClearPrev(s Signal) {
	for {
		old := p.state.Load()
		next := old &^ prevBit(s)
		if next == old || p.state.CompareAndSwap(old, next) {
			return
		}
	}
}

// Drop clears both bits of a signal, discarding any transition. Used
// for invalid presses and when the keypad is disabled.
func (p *Pipeline) Drop(s Signal) {
	for {
		old := p.state.Load()
		next := old &^ (currBit(s) | prevBit(s))
		if next == old || p.state.CompareAndSwap(old, next) {
			return
		}
	}
}

// Seed forces both bits of a signal to v with no pending transition,
// establishing the boot state before interrupts are live.
func (p *Pipeline) Seed(s Signal, v bool) {
	for {
		old := p.state.Load()
		next := old &^ (currBit(s) | prevBit(s))
		if v {
			next |= currBit(s) | prevBit(s)
		}
		if next == old || p.state.CompareAndSwap(old, next) {
			return
		}
	}
}

// StopTimer disarms the shared timer, abandoning any in-flight
// debounce.
func (p *Pipeline) StopTimer() { p.timer.Disarm() }
