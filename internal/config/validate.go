package config

import "fmt"

// Validate checks configuration correctness. It is declarative only and
// MUST NOT mutate the configuration; Normalize has already run.
func Validate(cfg *Config) error {
	p := &cfg.Panel

	switch p.Variant {
	case "standard", "arrows":
	default:
		return fmt.Errorf("config: unknown keypad variant %q", p.Variant)
	}

	d := p.Delays
	for _, f := range []struct {
		name string
		ms   int
	}{
		{"key_press_ms", d.KeyPressMs},
		{"key_release_ms", d.KeyReleaseMs},
		{"power_press_ms", d.PowerPressMs},
		{"power_release_ms", d.PowerReleaseMs},
		{"flash_ms", d.FlashMs},
		{"startup_ms", d.StartupMs},
	} {
		if f.ms < 0 {
			return fmt.Errorf("config: %s must not be negative", f.name)
		}
	}

	// The press debounce must not outlast the release debounce or a
	// quick tap can settle out of order.
	if d.KeyPressMs > d.KeyReleaseMs {
		return fmt.Errorf("config: key_press_ms (%d) must not exceed key_release_ms (%d)",
			d.KeyPressMs, d.KeyReleaseMs)
	}

	if s := p.Serial; s.Address != "" {
		if s.BaudRate <= 0 {
			return fmt.Errorf("config: serial baud_rate must be positive")
		}
		if s.TimeoutMs <= 0 {
			return fmt.Errorf("config: serial timeout_ms must be positive")
		}
	}
	return nil
}
