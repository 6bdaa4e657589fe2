//go:build !tinygo

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"gemini/app"
	"gemini/hal"
	"gemini/internal/config"
)

func main() {
	var cfgPath string
	var headless bool
	flag.StringVar(&cfgPath, "config", "", "Path to yaml config (empty = defaults).")
	flag.BoolVar(&headless, "headless", false, "Run without a window.")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	wcfg := hal.WindowConfig{ActiveLow: cfg.Panel.ActiveLow}
	if s := cfg.Panel.Serial; s.Address != "" {
		sink, closer, err := hal.NewSerialSink(s.Address, s.BaudRate,
			time.Duration(s.TimeoutMs)*time.Millisecond)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer closer.Close()
		wcfg.Mirror = sink
	}

	run := func(h hal.HAL) {
		app.Run(h, cfg)
	}

	if headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := hal.RunHeadless(ctx, wcfg, run); err != nil && err != context.Canceled {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	if err := hal.RunWindow(wcfg, run); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
