package config

// Default timing, matching the firmware's clock-cycle constants.
const (
	defaultKeyPressMs     = 25
	defaultKeyReleaseMs   = 58
	defaultPowerPressMs   = 100
	defaultPowerReleaseMs = 300
	defaultFlashMs        = 262
	defaultStartupMs      = 1048

	defaultBaudRate  = 115200
	defaultTimeoutMs = 1000
)

// Normalize fills unset fields with defaults. It runs before Validate
// and is the only place configuration is mutated.
func Normalize(cfg *Config) {
	p := &cfg.Panel

	if p.Variant == "" {
		p.Variant = "standard"
	}

	d := &p.Delays
	if d.KeyPressMs == 0 {
		d.KeyPressMs = defaultKeyPressMs
	}
	if d.KeyReleaseMs == 0 {
		d.KeyReleaseMs = defaultKeyReleaseMs
	}
	if d.PowerPressMs == 0 {
		d.PowerPressMs = defaultPowerPressMs
	}
	if d.PowerReleaseMs == 0 {
		d.PowerReleaseMs = defaultPowerReleaseMs
	}
	if d.FlashMs == 0 {
		d.FlashMs = defaultFlashMs
	}
	if d.StartupMs == 0 {
		d.StartupMs = defaultStartupMs
	}

	s := &p.Serial
	if s.Address != "" {
		if s.BaudRate == 0 {
			s.BaudRate = defaultBaudRate
		}
		if s.TimeoutMs == 0 {
			s.TimeoutMs = defaultTimeoutMs
		}
	}
}
