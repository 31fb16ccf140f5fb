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

package sampler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	goconfig "github.com/TheCacophonyProject/go-config"
	"github.com/TheCacophonyProject/go-utils/logging"
	"github.com/alexflint/go-arg"
	"github.com/p3t3r50n-cz/picovina/batteryclient"
	"github.com/p3t3r50n-cz/picovina/ina219"
	"github.com/p3t3r50n-cz/picovina/telemetry"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

var (
	version = "<not set>"
	log     = logging.NewLogger("info")
)

type Args struct {
	ConfigFile string `arg:"--config-file,env:PI_BATTERY_CONFIG" help:"Sampler configuration file (TOML)."`
	Debug      bool   `arg:"--debug,env:DEBUG" help:"Log a dump of every sample."`
	Once       bool   `arg:"--once" help:"Take a single sample, submit it and exit."`
	ConfigDir  string `arg:"-c,--config-dir" help:"Device configuration folder."`
	logging.LogArgs
}

var defaultArgs = Args{
	ConfigFile: DefaultConfigFile,
	ConfigDir:  goconfig.DefaultConfigDir,
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

	if args.Debug {
		args.LogLevel = "debug"
	}
	log = logging.NewLogger(args.LogLevel)

	log.Printf("Running version: %s", version)

	conf, err := loadConfig(args)
	if err != nil {
		return err
	}
	log.Debugf("Config: %+v", conf)

	if !args.Once {
		go func() {
			if err := checkConfigChanges(conf, args); err != nil {
				log.Error("Config watch stopped: ", err)
			}
		}()
	}

	log.Debug("Initializing host")
	if _, err := host.Init(); err != nil {
		return err
	}
	bus, err := i2creg.Open(conf.INA219.Bus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus %q: %w", conf.INA219.Bus, err)
	}
	defer bus.Close()

	cal, err := telemetry.NewCalibrator(
		telemetry.FileStore{Path: conf.Calibration.File}, conf.Pack(), conf.CalibrationInterval())
	if err != nil {
		log.Warnf("Failed to load calibration, starting from design capacity: %v", err)
	}
	log.Infof("Learned full charge: %d uAh", cal.LearnedFull())

	s := newSampler(
		ina219.New(bus, conf.INA219.Address),
		batteryclient.Client{},
		telemetry.NewEstimator(conf.Telemetry(), cal),
		conf,
	)
	s.configureSensor()

	if args.Once {
		est, err := s.cycle()
		if err != nil {
			return err
		}
		log.Printf("Submitted:\n%s", est.Batch().Encode())
		return nil
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	s.run(ctx)
	return nil
}
