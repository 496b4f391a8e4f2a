package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/cwbudde/algo-tube/engine"
	"github.com/cwbudde/algo-tube/internal/audio"
	"github.com/cwbudde/algo-tube/internal/ui"
)

// PlayCmd plays a file through the engine to the default device.
type PlayCmd struct {
	File   string        `arg:"" type:"existingfile" help:"Input WAV file."`
	Loop   bool          `help:"Repeat the file until stopped."`
	Record string        `type:"path" help:"Bind the record key to this output WAV file."`
	Buffer time.Duration `default:"0" help:"Device buffer length (0 = platform default)."`
	Plain  bool          `help:"Log meter readings instead of running the control UI."`
}

// Run plays until the file ends, the user quits or the process is
// interrupted.
func (p *PlayCmd) Run(g *Globals) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}

	ctx := g.context()

	src, err := audio.NewFileSource(p.File, audio.WithLoop(p.Loop))
	if err != nil {
		return err
	}

	f := src.Format()

	eng, err := engine.New(g.engineOptions(cfg, float64(f.SampleRate), f.Channels)...)
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.Attach(ctx, src); err != nil {
		return err
	}

	player, err := audio.NewPlayer(ctx, eng, f.SampleRate, f.Channels, audio.WithDeviceBuffer(p.Buffer))
	if err != nil {
		return err
	}
	defer player.Close()

	player.Start()

	if p.Plain || !term.IsTerminal(int(os.Stdout.Fd())) {
		err = p.runPlain(ctx, g, eng, player)
	} else {
		err = p.runUI(ctx, eng, player)
	}

	if err != nil {
		return err
	}

	if eng.Capturing() {
		if _, err := p.toggleCapture(ctx, eng); err != nil {
			return err
		}
	}

	return eng.Detach()
}

func (p *PlayCmd) runUI(ctx context.Context, eng *engine.Engine, player *audio.Player) error {
	opts := []ui.Option{
		ui.WithTitle("tubesat · " + p.File),
		ui.WithDone(player.Done()),
	}

	if p.Record != "" {
		opts = append(opts, ui.WithCapture(func() (string, error) {
			return p.toggleCapture(ctx, eng)
		}))
	}

	prog := tea.NewProgram(ui.NewModel(eng, opts...), tea.WithContext(ctx))
	if _, err := prog.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("ui: %w", err)
	}

	return player.Err()
}

func (p *PlayCmd) runPlain(ctx context.Context, g *Globals, eng *engine.Engine, player *audio.Player) error {
	if p.Record != "" {
		if _, err := p.toggleCapture(ctx, eng); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-player.Done():
			return player.Err()
		case <-ticker.C:
			in, out := eng.InputLevel(), eng.OutputLevel()
			g.log().Info("levels", "in", fmt.Sprintf("%.1f", in), "out", fmt.Sprintf("%.1f", out))
		}
	}
}

// toggleCapture starts a capture, or stops the running one and writes it
// to the record path.
func (p *PlayCmd) toggleCapture(ctx context.Context, eng *engine.Engine) (string, error) {
	if !eng.Capturing() {
		if _, err := eng.StartCapture(ctx); err != nil {
			return "", err
		}

		return "recording to " + p.Record, nil
	}

	rec, err := eng.StopCapture()
	if err != nil {
		return "", err
	}

	if err := writeRecording(p.Record, rec); err != nil {
		return "", err
	}

	status := fmt.Sprintf("saved %s (%s)", p.Record, rec.Duration().Round(time.Millisecond))
	if rec.Dropped > 0 {
		status += fmt.Sprintf(", %d frames dropped", rec.Dropped)
	}

	return status, nil
}
