package ui

import (
	"gemini/panel/display"
	"gemini/panel/keymap"
)

// Indicator lamp groups. Each exclusive group cycles through its
// members and then all-dark; if a group is ever found with anything
// other than exactly one lamp lit, the press forces the canonical
// member on and the rest off, and normal cycling resumes from there.
var (
	ccGroup    = []display.Led{display.LedCC, display.LedBlankButton, display.LedMonitor}
	modeGroup  = []display.Led{display.LedController, display.LedPump}
	powerGroup = []display.Led{display.LedBattPower, display.LedPlugPower}
)

func (m *Machine) handleIndicator(k keymap.Key) {
	switch k {
	case keymap.KeyCCMonitor:
		m.cycleGroup(ccGroup)
	case keymap.KeyPCMode:
		m.cycleGroup(modeGroup)
	case keymap.KeyVolumeInfused:
		m.cycleGroup(powerGroup)
	case keymap.KeySecPiggyBack:
		m.leds.Toggle(display.LedSecPiggyBack)
	}
}

// cycleGroup advances an exclusive lamp group one step. group[0] is the
// canonical member used for self-correction.
func (m *Machine) cycleGroup(group []display.Led) {
	var mask display.Led
	for _, led := range group {
		mask |= led
	}

	if m.leds.LitCount(mask) != 1 {
		m.leds.Clear(mask)
		m.leds.Set(group[0])
		return
	}

	for i, led := range group {
		if !m.leds.Lit(led) {
			continue
		}
		m.leds.Clear(led)
		if i+1 < len(group) {
			m.leds.Set(group[i+1])
		}
		// Last member cycles to all-dark; the next press comes back
		// around through self-correction.
		return
	}
}
