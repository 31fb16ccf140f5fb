package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/TheCacophonyProject/go-utils/logging"
	"github.com/joho/godotenv"
	console "github.com/p3t3r50n-cz/picovina/internal/pi-battery-console"
	engine "github.com/p3t3r50n-cz/picovina/internal/pi-battery-engine"
	monitor "github.com/p3t3r50n-cz/picovina/internal/pi-battery-monitor"
	sampler "github.com/p3t3r50n-cz/picovina/internal/pi-battery-sampler"
)

// Environment overrides for the services, e.g. PI_BATTERY_CONFIG or DEBUG.
const envFile = "/etc/default/pi-battery"

var log *logging.Logger

func main() {
	err := runMain()
	if err != nil {
		log.Fatal(err)
	}
}

var version = "<not set>"

func runMain() error {
	log = logging.NewLogger("info")
	if len(os.Args) < 2 {
		log.Info("Usage: pi-battery <engine|sampler|monitor|console> [args]")
		return fmt.Errorf("no subcommand given")
	}

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("Failed to load %s: %v", envFile, err)
	}

	subcommand := os.Args[1]
	args := os.Args[2:]

	var err error
	switch subcommand {
	case "engine":
		err = engine.Run(args, version)
	case "sampler":
		err = sampler.Run(args, version)
	case "monitor":
		err = monitor.Run(args, version)
	case "console":
		err = console.Run(args, version)
	default:
		err = fmt.Errorf("unknown subcommand: %s", subcommand)
	}

	return err
}
