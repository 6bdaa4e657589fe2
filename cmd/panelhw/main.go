//go:build linux

// Command panelhw runs the panel against real hardware on a Linux
// SBC through periph.io.
package main

import (
	"flag"
	"fmt"
	"os"

	"gemini/app"
	"gemini/hal"
	"gemini/internal/config"
)

func main() {
	var cfgPath string
	var pcfg hal.PeriphConfig
	flag.StringVar(&cfgPath, "config", "", "Path to yaml config (empty = defaults).")
	flag.StringVar(&pcfg.SPIPort, "spi", "", "SPI port (default /dev/spidev0.0).")
	flag.StringVar(&pcfg.LatchPin, "latch", "", "Register latch pin (default GPIO25).")
	flag.StringVar(&pcfg.PowerPin, "power", "", "Power button pin (default GPIO26).")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	h, err := hal.NewPeriph(pcfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	app.Run(h, cfg)
}
