//go:build tinygo

package main

import (
	"gemini/app"
	"gemini/hal"
	"gemini/internal/config"
)

func main() {
	cfg, _ := config.Load("")
	app.Run(hal.New(), cfg)
}
