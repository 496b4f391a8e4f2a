// Command tubesat runs the tube saturation engine on WAV files or live
// to the sound device, and reports the harmonic content of its curves.
//
// Usage:
//
//	tubesat [flags] <command> [args]
//
// Examples:
//
//	tubesat render --pentode-drive 80 vocals.wav drums.wav
//	tubesat play --loop --saturation --sat-amount 40 loop.wav
//	tubesat curves --drive 70
//	tubesat preset --air 30 > warm.json
//	tubesat --preset warm.json render mix.wav
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
)

var version = "0.1.0"

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Render RenderCmd `cmd:"" help:"Process WAV files offline."`
	Play   PlayCmd   `cmd:"" help:"Play a WAV file through the engine with live controls."`
	Curves CurvesCmd `cmd:"" help:"Print harmonic analysis of every transfer curve."`
	Preset PresetCmd `cmd:"" help:"Print the effective parameters as a JSON preset."`

	Version kong.VersionFlag `short:"V" help:"Show version information."`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var cli CLI

	kctx := kong.Parse(&cli,
		kong.Name("tubesat"),
		kong.Description("Tube saturation engine: two tube stages, a parallel saturation branch and an air shelf."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	)

	cli.ctx = ctx
	cli.logger = newLogger(cli.Verbose)

	if err := kctx.Run(&cli.Globals); err != nil {
		cli.logger.Error("command failed", "cmd", kctx.Command(), "err", err)
		stop()
		os.Exit(1)
	}
}

func newLogger(verbose bool) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "tubesat",
		ReportTimestamp: true,
	})

	if verbose {
		logger.SetLevel(log.DebugLevel)
	}

	return logger
}
