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

package console

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/TheCacophonyProject/go-utils/logging"
	"github.com/alexflint/go-arg"
	"github.com/chzyer/readline"
)

type Args struct {
	History string `arg:"--history" help:"History file, empty for the user cache directory."`
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

func historyFile() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		cacheDir = filepath.Join(home, ".cache")
	}
	dir := filepath.Join(cacheDir, "pi-battery")
	_ = os.MkdirAll(dir, 0750)
	return filepath.Join(dir, "console_history")
}

func Run(inputArgs []string, ver string) error {
	version = ver
	args, err := procArgs(inputArgs)
	if err != nil {
		return fmt.Errorf("failed to parse args: %v", err)
	}

	log = logging.NewLogger(args.LogLevel)

	if args.History == "" {
		args.History = historyFile()
	}
	log.Debugf("History file: %s", args.History)
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "battery> ",
		HistoryFile: args.History,
	})
	if err != nil {
		return fmt.Errorf("readline init failed: %w", err)
	}
	defer rl.Close()

	fmt.Println("Enter key=value lines, an empty line sends the batch (type 'help' for commands)")
	s := newSession(busClient{}, os.Stdout)
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			return nil
		}
		if err != nil {
			// EOF sends what is left, like a final empty line.
			s.handle("")
			return nil
		}
		s.handle(line)
	}
}
