package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	vecmath "github.com/cwbudde/algo-vecmath"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-tube/dsp/capture"
	"github.com/cwbudde/algo-tube/dsp/core"
	"github.com/cwbudde/algo-tube/engine"
	"github.com/cwbudde/algo-tube/internal/audio"
)

const renderBlock = 1024

// RenderCmd processes WAV files offline.
type RenderCmd struct {
	Files  []string `arg:"" type:"existingfile" help:"Input WAV files."`
	OutDir string   `short:"o" type:"path" help:"Output directory (default: next to the input)."`
	Suffix string   `default:"-tube" help:"Appended to the output file name."`
	Jobs   int      `short:"j" default:"0" help:"Files processed in parallel (0 = number of CPUs)."`
	Align  bool     `help:"Delay the dry path to match the tube stages."`
}

// Run renders every file with its own engine.
func (r *RenderCmd) Run(g *Globals) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}

	grp, ctx := errgroup.WithContext(g.context())

	jobs := r.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	grp.SetLimit(jobs)

	for _, in := range r.Files {
		out := r.outputPath(in)

		grp.Go(func() error {
			res, err := renderFile(ctx, g, cfg, in, out, r.Align)
			if err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}

			g.log().Info("rendered", "in", in, "out", out,
				"duration", res.Duration.Round(time.Millisecond), "peak", fmt.Sprintf("%.1f dBFS", core.LinearToDB(res.Peak)))

			return nil
		})
	}

	return grp.Wait()
}

func (r *RenderCmd) outputPath(in string) string {
	dir := filepath.Dir(in)
	if r.OutDir != "" {
		dir = r.OutDir
	}

	base := filepath.Base(in)
	ext := filepath.Ext(base)

	return filepath.Join(dir, strings.TrimSuffix(base, ext)+r.Suffix+".wav")
}

type renderResult struct {
	Duration time.Duration
	Peak     float64
}

// renderFile streams in through a fresh engine and writes the output with
// the stage latency removed, so output frame i lines up with input frame i.
func renderFile(ctx context.Context, g *Globals, cfg engine.Config, in, out string, align bool) (renderResult, error) {
	src, err := audio.NewFileSource(in, audio.WithChunkFrames(renderBlock))
	if err != nil {
		return renderResult{}, err
	}

	f := src.Format()
	opts := append(g.engineOptions(cfg, float64(f.SampleRate), f.Channels),
		engine.WithMaxBlockSize(renderBlock),
		engine.WithMeterInterval(0),
		engine.WithDryAlignment(align),
		engine.WithLogger(g.log().With("file", filepath.Base(in))),
	)

	eng, err := engine.New(opts...)
	if err != nil {
		return renderResult{}, err
	}
	defer eng.Close()

	if err := eng.Attach(ctx, src); err != nil {
		return renderResult{}, err
	}

	rec := &capture.Recording{
		SampleRate: f.SampleRate,
		Channels:   f.Channels,
		Samples:    make([]float64, 0, (src.Frames()+eng.Latency())*f.Channels),
	}

	block := core.NewPlanar(f.Channels, renderBlock)

	for {
		if err := ctx.Err(); err != nil {
			_ = eng.Detach()
			return renderResult{}, err
		}

		n, err := eng.Pull(block)
		appendInterleaved(rec, block, n)

		if errors.Is(err, io.EOF) || n == 0 {
			break
		}
	}

	if err := eng.Detach(); err != nil {
		return renderResult{}, err
	}

	// Flush the samples still inside the stages.
	latency := eng.Latency()
	tail := core.NewPlanar(f.Channels, latency)
	eng.Process(tail, core.NewPlanar(f.Channels, latency))
	appendInterleaved(rec, tail, latency)

	rec.Samples = rec.Samples[latency*f.Channels:]

	peak := 0.0
	for c := range rec.Channels {
		peak = max(peak, vecmath.MaxAbs(rec.Channel(c)))
	}

	if err := writeRecording(out, rec); err != nil {
		return renderResult{}, err
	}

	return renderResult{Duration: rec.Duration(), Peak: peak}, nil
}

func appendInterleaved(rec *capture.Recording, block [][]float64, frames int) {
	for i := range frames {
		for c := range block {
			rec.Samples = append(rec.Samples, block[c][i])
		}
	}
}

func writeRecording(path string, rec *capture.Recording) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := rec.WriteWAV(f); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}
