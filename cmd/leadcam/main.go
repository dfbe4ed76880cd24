// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command leadcam runs the lead-capture pipeline against a simulated device:
// it records one take, exports it and optionally keeps serving the
// temporary-reference endpoint.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	xglog "github.com/ManuGH/leadcam/internal/log"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

// options are the parsed command-line flags.
type options struct {
	configPath  string
	showVersion bool
	duration    time.Duration
	serve       bool
	lead        bool
	parent      string
	child       string
	age         string
	address     string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("leadcam", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "path to config file (YAML)")
	fs.BoolVar(&o.showVersion, "version", false, "print version and exit")
	fs.DurationVar(&o.duration, "duration", 3*time.Second, "length of the simulated take")
	fs.BoolVar(&o.serve, "serve", false, "keep serving references until interrupted")
	fs.BoolVar(&o.lead, "lead", false, "also export the plain-text lead summary")
	fs.StringVar(&o.parent, "parent", "", "parent name for the lead form")
	fs.StringVar(&o.child, "child", "", "child name for the lead form")
	fs.StringVar(&o.age, "age", "", "child age for the lead form")
	fs.StringVar(&o.address, "address", "", "street address attached to the share text")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.duration <= 0 {
		return o, errors.New("-duration must be positive")
	}
	o.configPath = strings.TrimSpace(o.configPath)
	return o, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}
	if opts.showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// Configure logger with safe defaults until config is loaded
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "leadcam",
		Version: version,
	})
	logger := xglog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "leadcam.failed").Msg("leadcam exited with error")
		stop()
		os.Exit(1)
	}
}
