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

package engine

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/TheCacophonyProject/go-utils/logging"
	"github.com/alexflint/go-arg"
)

type Args struct {
	StatusInterval int `arg:"--status-interval" help:"Log the battery state every this many seconds, 0 to disable"`
	logging.LogArgs
}

var (
	log     = logging.NewLogger("info")
	version = "<not set>"
)

var defaultArgs = Args{
	StatusInterval: 600,
}

func procArgs(input []string) (Args, error) {
	args := defaultArgs

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

	log.Infof("Running version: %s", version)

	engine, err := startService()
	if err != nil {
		return err
	}
	log.Printf("Serving %s on %s", dbusName, dbusPath)

	if args.StatusInterval <= 0 {
		select {}
	}
	for {
		time.Sleep(time.Duration(args.StatusInterval) * time.Second)
		s := engine.Snapshot()
		log.Infof("Battery: %s, %d%% (%s), %d uV, %d uA, AC online: %t",
			s.Status, s.Capacity, s.CapacityLevel, s.VoltageNow, s.CurrentNow, s.ACPresent)
	}
}
