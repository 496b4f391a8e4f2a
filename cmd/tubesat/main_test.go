package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/cwbudde/algo-tube/dsp/capture"
	"github.com/cwbudde/algo-tube/dsp/effects/tube"
	"github.com/cwbudde/algo-tube/engine"
	"github.com/cwbudde/algo-tube/internal/audio"
	"github.com/cwbudde/algo-tube/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func testGlobals() *Globals {
	return &Globals{
		Oversampling: 4,
		ctx:          context.Background(),
		logger:       log.New(io.Discard),
	}
}

func writeWAV(t *testing.T, dir, name string, sampleRate int, data []float64) string {
	t.Helper()

	path := filepath.Join(dir, name)
	rec := &capture.Recording{SampleRate: sampleRate, Channels: 1, Samples: data}

	if err := writeRecording(path, rec); err != nil {
		t.Fatalf("writeRecording() error = %v", err)
	}

	return path
}

func readWAV(t *testing.T, path string) []float64 {
	t.Helper()

	src, err := audio.NewFileSource(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := src.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	block := testutil.Zeros(src.Format().Channels, src.Frames())

	n, err := src.ReadBlock(block)
	if err != nil && !errors.Is(err, io.EOF) {
		t.Fatal(err)
	}

	return block[0][:n]
}

func TestConfigOverrides(t *testing.T) {
	g := testGlobals()
	g.Air = ptr(30.0)
	g.PentodeTube = ptr("12ax7")
	g.Saturation = ptr("on")
	g.SatFrequency = ptr("High")
	g.Calibration = ptr("bright")

	cfg, err := g.config()
	if err != nil {
		t.Fatalf("config() error = %v", err)
	}

	want := engine.DefaultConfig()
	want.Mix.Air = 30
	want.Pentode.Tube = tube.Tube12AX7
	want.Saturation.Enabled = true
	want.Saturation.Frequency = engine.FrequencyHigh
	want.Mix.Calibration = engine.CalibrationBright

	if cfg != want {
		t.Fatalf("config = %+v\nwant %+v", cfg, want)
	}
}

func TestConfigRejectsBadFlags(t *testing.T) {
	tests := []struct {
		name string
		set  func(g *Globals)
		want error
	}{
		{"unknown tube", func(g *Globals) { g.TriodeTube = ptr("EL34") }, tube.ErrUnknownName},
		{"tube not fitted", func(g *Globals) { g.PentodeTube = ptr("12AT7") }, engine.ErrConfiguration},
		{"drive range", func(g *Globals) { g.TriodeDrive = ptr(150.0) }, engine.ErrConfiguration},
		{"bad switch", func(g *Globals) { g.Saturation = ptr("maybe") }, engine.ErrUnknownName},
		{"bad variant", func(g *Globals) { g.SatVariant = ptr("gentle") }, tube.ErrUnknownName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := testGlobals()
			tt.set(g)

			if _, err := g.config(); !errors.Is(err, tt.want) {
				t.Fatalf("config() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPresetRoundTrip(t *testing.T) {
	g := testGlobals()
	g.Mix = ptr(40.0)
	g.SatVariant = ptr("aggressive")

	var buf bytes.Buffer
	if err := (&PresetCmd{out: &buf}).Run(g); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "preset.json")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}

	loaded := testGlobals()
	loaded.Preset = path
	loaded.Output = ptr(90.0)

	cfg, err := loaded.config()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Mix.Mix != 40 || cfg.Saturation.Variant != tube.VariantAggressive || cfg.Mix.OutputGain != 90 {
		t.Fatalf("loaded config = %+v", cfg)
	}
}

func TestKongParsesParameterFlags(t *testing.T) {
	var cli CLI

	parser, err := kong.New(&cli, kong.Name("tubesat"), kong.Exit(func(int) { t.Fatal("parser exited") }))
	if err != nil {
		t.Fatal(err)
	}

	kctx, err := parser.Parse([]string{"--air", "20", "--pentode-tube", "ECC83", "preset"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if kctx.Command() != "preset" {
		t.Fatalf("command = %q", kctx.Command())
	}

	if cli.Air == nil || *cli.Air != 20 || cli.PentodeTube == nil || *cli.PentodeTube != "ECC83" {
		t.Fatalf("flags not parsed: air=%v tube=%v", cli.Air, cli.PentodeTube)
	}

	if cli.Mix != nil || cli.Oversampling != 4 {
		t.Fatalf("unset flags: mix=%v oversampling=%d", cli.Mix, cli.Oversampling)
	}
}

func TestOutputPath(t *testing.T) {
	r := RenderCmd{Suffix: "-tube"}
	if got := r.outputPath(filepath.Join("a", "b", "take.1.wav")); got != filepath.Join("a", "b", "take.1-tube.wav") {
		t.Fatalf("outputPath = %q", got)
	}

	r.OutDir = "out"
	if got := r.outputPath("mix.wav"); got != filepath.Join("out", "mix-tube.wav") {
		t.Fatalf("outputPath = %q", got)
	}
}

func TestRenderRemovesLatency(t *testing.T) {
	dir := t.TempDir()
	in := testutil.DeterministicSine(300, 48000, 0.3, 2000)
	inPath := writeWAV(t, dir, "in.wav", 48000, in)
	outPath := filepath.Join(dir, "out.wav")

	cfg := engine.DefaultConfig()
	cfg.Mix.Mix = 0
	cfg.Mix.OutputGain = 100

	res, err := renderFile(context.Background(), testGlobals(), cfg, inPath, outPath, true)
	if err != nil {
		t.Fatalf("renderFile() error = %v", err)
	}

	out := readWAV(t, outPath)
	testutil.RequireSliceNearlyEqual(t, out, readWAV(t, inPath), 1e-4)

	if math.Abs(res.Peak-0.3) > 1e-3 {
		t.Fatalf("peak = %v, want about 0.3", res.Peak)
	}
}

func TestAliasFlagsChangeRender(t *testing.T) {
	dir := t.TempDir()
	inPath := writeWAV(t, dir, "in.wav", 48000, testutil.DeterministicNoise(3, 0.8, 4096))

	cfg := engine.DefaultConfig()
	cfg.Pentode.Drive = 90

	plain := testGlobals()
	if got := len(plain.engineOptions(cfg, 48000, 1)); got != 5 {
		t.Fatalf("engineOptions() without alias flags = %d options, want 5", got)
	}

	tuned := testGlobals()
	tuned.AliasBeta = ptr(8.0)
	tuned.AliasCutoff = ptr(0.7)

	if got := len(tuned.aliasFilter()); got != 2 {
		t.Fatalf("aliasFilter() = %d options, want 2", got)
	}

	plainPath := filepath.Join(dir, "plain.wav")
	if _, err := renderFile(context.Background(), plain, cfg, inPath, plainPath, false); err != nil {
		t.Fatalf("renderFile() error = %v", err)
	}

	tunedPath := filepath.Join(dir, "tuned.wav")
	if _, err := renderFile(context.Background(), tuned, cfg, inPath, tunedPath, false); err != nil {
		t.Fatalf("renderFile() error = %v", err)
	}

	if testutil.MaxAbsDiff(readWAV(t, tunedPath), readWAV(t, plainPath)) == 0 {
		t.Fatal("alias flags did not change the rendered output")
	}
}

func TestRenderCmdProcessesEveryFile(t *testing.T) {
	dir := t.TempDir()
	outDir := t.TempDir()

	files := []string{
		writeWAV(t, dir, "a.wav", 48000, testutil.DeterministicSine(100, 48000, 0.5, 1500)),
		writeWAV(t, dir, "b.wav", 44100, testutil.DeterministicNoise(4, 0.2, 700)),
	}

	cmd := RenderCmd{Files: files, OutDir: outDir, Suffix: "-out", Jobs: 2}
	if err := cmd.Run(testGlobals()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for name, frames := range map[string]int{"a-out.wav": 1500, "b-out.wav": 700} {
		out := readWAV(t, filepath.Join(outDir, name))
		if len(out) != frames {
			t.Fatalf("%s has %d frames, want %d", name, len(out), frames)
		}

		testutil.RequireBounded(t, out, 1)
	}
}

func TestRenderReportsMissingInput(t *testing.T) {
	cmd := RenderCmd{Files: []string{filepath.Join(t.TempDir(), "nope.wav")}, Suffix: "-x"}
	if err := cmd.Run(testGlobals()); err == nil {
		t.Fatal("expected error for missing input")
	}
}

func TestCurvesAnalysis(t *testing.T) {
	c := CurvesCmd{Drive: 50, Freq: 1000, Amplitude: 0.5, FFT: 4096, Rate: 48000}

	rows, err := c.analyze(4)
	if err != nil {
		t.Fatalf("analyze() error = %v", err)
	}

	if len(rows) != 8 {
		t.Fatalf("rows = %d, want 8", len(rows))
	}

	for _, r := range rows {
		if r.Result.THD <= 0 || math.IsNaN(r.Staged.THD) {
			t.Fatalf("%s: THD = %v staged %v", r.Name, r.Result.THD, r.Staged.THD)
		}
	}

	out := renderCurveTable(rows)
	for _, name := range []string{"pentode 6U8A", "pentode 12AX7", "triode 12AT7", "saturation aggressive"} {
		if !strings.Contains(out, name) {
			t.Fatalf("table lacks %q:\n%s", name, out)
		}
	}

	if strings.Contains(out, "triode 12AX7") {
		t.Fatal("table lists a tube the triode does not accept")
	}

	if _, err := (&CurvesCmd{FFT: 1000, Rate: 48000, Freq: 1000}).analyze(4); err == nil {
		t.Fatal("expected error for non power-of-two FFT")
	}
}
