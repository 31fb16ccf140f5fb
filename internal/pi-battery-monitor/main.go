/*
pi-battery - Virtual battery for single-board computers.
Copyright (C) 2025, The pi-battery Authors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package monitor

import (
	"errors"
	"fmt"
	"os"

	"github.com/TheCacophonyProject/go-utils/logging"
	"github.com/alexflint/go-arg"
	"github.com/godbus/dbus/v5"
	"github.com/p3t3r50n-cz/picovina/battery"
)

type Args struct {
	Once bool `arg:"--once" help:"Print the current state of both supplies and exit."`
	logging.LogArgs
}

var (
	log     = logging.NewLogger("info")
	version = "<not set>"
)

func procArgs(input []string) (Args, error) {
	var args Args

	parser, err := arg.NewParser(arg.Config{}, &args)
	if err != nil {
		return Args{}, err
	}
	err = parser.Parse(input)
	if errors.Is(err, arg.ErrHelp) {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if errors.Is(err, arg.ErrVersion) {
		fmt.Println(version)
		os.Exit(0)
	}
	return args, err
}

func Run(inputArgs []string, ver string) error {
	version = ver
	args, err := procArgs(inputArgs)
	if err != nil {
		return fmt.Errorf("failed to parse args: %v", err)
	}

	log = logging.NewLogger(args.LogLevel)

	var signals chan *dbus.Signal
	if !args.Once {
		// Subscribe first so no change between the initial read and the
		// first signal is lost.
		signals, err = subscribe()
		if err != nil {
			return err
		}
	}

	for _, supply := range []battery.Supply{battery.Battery, battery.AC} {
		if err := report(os.Stdout, supply); err != nil {
			return err
		}
		fmt.Println()
	}
	if args.Once {
		return nil
	}

	log.Info("Listening for battery changes")
	watch(os.Stdout, signals)
	return errors.New("signal channel closed")
}
