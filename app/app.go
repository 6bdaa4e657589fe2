// Package app assembles a panel controller from configuration and a
// HAL and runs it.
package app

import (
	"time"

	"gemini/hal"
	"gemini/internal/config"
	"gemini/panel"
	"gemini/panel/keymap"
)

// Run builds the controller on h and services it forever. A
// constructor failure is logged and Run returns without servicing.
func Run(h hal.HAL, cfg *config.Config) {
	c, err := panel.New(h, PanelConfig(cfg))
	if err != nil {
		h.Logger().WriteLineString("panel: " + err.Error())
		return
	}
	c.Run()
}

// PanelConfig translates file configuration into controller
// parameters.
func PanelConfig(cfg *config.Config) panel.Config {
	p := cfg.Panel
	km := keymap.Default()
	if p.Variant == "arrows" {
		km = keymap.ArrowVariant()
	}
	return panel.Config{
		ActiveLow: p.ActiveLow,
		Keymap:    km,
		Delays: panel.Delays{
			KeyPress:     ms(p.Delays.KeyPressMs),
			KeyRelease:   ms(p.Delays.KeyReleaseMs),
			PowerPress:   ms(p.Delays.PowerPressMs),
			PowerRelease: ms(p.Delays.PowerReleaseMs),
			Flash:        ms(p.Delays.FlashMs),
			Startup:      ms(p.Delays.StartupMs),
		},
	}
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }
