package main

import (
	"flag"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Options are the simulator's command-line settings. Environment variables
// provide the defaults and flags override them.
type Options struct {
	ConfigDir string `env:"HANDPOSE_CONFIG_DIR" envDefault:"."`
	Frames    uint64 `env:"HANDPOSE_FRAMES"`
	Mode      string `env:"HANDPOSE_DRIVER_MODE"`
	LogLevel  string `env:"HANDPOSE_LOG_LEVEL"`
}

// ParseOptions loads environment defaults and then parses flags.
func ParseOptions(fs *flag.FlagSet, args []string) (Options, error) {
	var opts Options
	if err := env.Parse(&opts); err != nil {
		return Options{}, fmt.Errorf("parse env: %w", err)
	}

	fs.StringVar(&opts.ConfigDir, "config", opts.ConfigDir, "Directory containing "+configFileHint)
	fs.Uint64Var(&opts.Frames, "frames", opts.Frames, "Frames to simulate, overrides scheduler.frames")
	fs.StringVar(&opts.Mode, "mode", opts.Mode, "Driver mode (squeeze, grip, custom), overrides driver.mode")
	fs.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "Log level, overrides logLevel")

	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}
	return opts, nil
}
