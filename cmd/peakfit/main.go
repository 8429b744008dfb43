// Command peakfit fits peak profiles to images and spectra.
//
// Usage:
//
//	peakfit <command> [flags] [file]
//
// Input images are CSV files with one image row per line; spectra are CSV
// files with a y column or x,y columns. Empty image cells are masked.
//
// Examples:
//
//	peakfit profiles
//	peakfit synth image --params 0,1,32,32,4,6,30 --noise 0.01 > star.csv
//	peakfit fit2d star.csv
//	peakfit fit1d --profile lorentzian -o json line.csv
//	peakfit multi --npeak 2 --auto-width 4 lines.csv
//	LOG_LEVEL=debug peakfit beam --max-p 1 --max-l 1 beam.csv
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cwbudde/algo-peakfit/cmd/peakfit/commands"
)

// Version is set via ldflags during build.
var Version = "dev"

func main() {
	setupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx, Version); err != nil {
		log.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}

func setupLogging() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
