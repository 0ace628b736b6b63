package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/odvcencio/rapidgui/pkg/config"
	"github.com/odvcencio/rapidgui/pkg/logging"
)

// errHelp reports that usage was printed on request.
var errHelp = errors.New("help requested")

type cliOptions struct {
	configPath string
	backend    string
	listen     string
	relay      string
	logLevel   string
	screenshot string
	watch      bool
	version    bool
	document   string
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("rapidgui", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: rapidgui [flags] <document>")
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.configPath, "config", "", "config file (default ~/.rapidgui/config.yaml then ./.rapidgui/config.yaml)")
	fs.StringVar(&opts.backend, "backend", "", "window backend: auto, tcell, raylib or raster")
	fs.StringVar(&opts.listen, "listen", "", "serve the inspect API on this address")
	fs.StringVar(&opts.relay, "relay", "", `relay signals to a NATS URL, or "memory"`)
	fs.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	fs.StringVar(&opts.screenshot, "screenshot", "", "render one frame to this PNG file and exit")
	fs.BoolVar(&opts.watch, "watch", false, "rebuild the window when the document changes")
	fs.BoolVar(&opts.version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, errHelp
		}
		return opts, withExitCode(err, exitUsage)
	}
	if opts.version {
		return opts, nil
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return opts, withExitCode(errors.New("expected exactly one document"), exitUsage)
	}
	opts.document = fs.Arg(0)
	return opts, nil
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts cliOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFromPath(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if opts.backend != "" {
		cfg.Backend = opts.backend
	}
	if opts.screenshot != "" {
		cfg.Backend = config.BackendRaster
	}
	if opts.listen != "" {
		cfg.Inspect.Listen = opts.listen
	}
	if opts.relay != "" {
		cfg.Relay.URL = opts.relay
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the process logger. The terminal backend owns stderr, so
// without a log file its logs are dropped.
func newLogger(cfg *config.Config, backendName string, stderr io.Writer) (*logging.Logger, func(), error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := logging.Options{Level: level, Format: logging.Format(cfg.Log.Format), Component: "cli"}

	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		return logging.New(f, opts), func() { f.Close() }, nil
	}
	if backendName == config.BackendTcell {
		return logging.Discard(), func() {}, nil
	}
	return logging.New(stderr, opts), func() {}, nil
}
