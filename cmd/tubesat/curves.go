package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/cwbudde/algo-tube/dsp/effects/tube"
	"github.com/cwbudde/algo-tube/measure/thd"
)

// CurvesCmd prints the harmonic signature of every transfer curve.
type CurvesCmd struct {
	Drive     float64 `default:"50" help:"Drive used to build the curves (0-100)."`
	Freq      float64 `default:"1000" help:"Test tone frequency in Hz."`
	Amplitude float64 `default:"0.5" help:"Test tone peak amplitude."`
	FFT       int     `default:"8192" help:"Analysis length (power of two)."`
	Rate      float64 `default:"48000" help:"Sample rate in Hz."`
}

type curveRow struct {
	Name   string
	Result thd.Result
	// Staged is the same curve measured through an oversampled stage.
	Staged thd.Result
}

// Run analyses every curve and prints a table.
func (c *CurvesCmd) Run(g *Globals) error {
	rows, err := c.analyze(g.Oversampling)
	if err != nil {
		return err
	}

	fmt.Println(renderCurveTable(rows))

	return nil
}

func (c *CurvesCmd) analyze(oversampling int) ([]curveRow, error) {
	calc, err := thd.NewCalculator(thd.Config{
		SampleRate:      c.Rate,
		FFTSize:         c.FFT,
		FundamentalFreq: c.Freq,
		Amplitude:       c.Amplitude,
	})
	if err != nil {
		return nil, err
	}

	type entry struct {
		name  string
		build func() (*tube.Curve, error)
	}

	var entries []entry

	for _, k := range []tube.StageKind{tube.Pentode, tube.Triode} {
		for _, t := range []tube.TubeType{tube.Tube6U8A, tube.Tube12AX7, tube.Tube12AT7, tube.TubeECC83} {
			if !k.Supports(t) {
				continue
			}

			entries = append(entries, entry{
				name:  fmt.Sprintf("%s %s", k, t),
				build: func() (*tube.Curve, error) { return tube.Build(k, c.Drive, t) },
			})
		}
	}

	for _, v := range []tube.Variant{tube.VariantStandard, tube.VariantAggressive} {
		entries = append(entries, entry{
			name:  "saturation " + v.String(),
			build: func() (*tube.Curve, error) { return tube.BuildSaturation(c.Drive, v) },
		})
	}

	rows := make([]curveRow, 0, len(entries))

	for _, e := range entries {
		curve, err := e.build()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.name, err)
		}

		res, err := calc.AnalyzeShaper(curve)
		if err != nil {
			return nil, err
		}

		stage, err := tube.NewStage(tube.WithStageOversampling(oversampling))
		if err != nil {
			return nil, err
		}

		staged, err := calc.AnalyzeProcessor(func(dst, src []float64) {
			stage.ProcessBlock(dst, src, curve)
		})
		if err != nil {
			return nil, err
		}

		rows = append(rows, curveRow{Name: e.name, Result: res, Staged: staged})
	}

	return rows, nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E8A33D")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	nameStyle   = cellStyle.Bold(true)
)

func renderCurveTable(rows []curveRow) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))).
		Headers("curve", "THD", "even", "odd", "H2", "H3", "alias (base)", "alias (staged)").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return nameStyle
			default:
				return cellStyle
			}
		})

	for _, r := range rows {
		t.Row(
			r.Name,
			percent(r.Result.THD),
			percent(r.Result.EvenHD),
			percent(r.Result.OddHD),
			harmonic(r.Result, 0),
			harmonic(r.Result, 1),
			decibels(r.Result.Noise_dB),
			decibels(r.Staged.Noise_dB),
		)
	}

	return t.String()
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", 100*v)
}

func harmonic(r thd.Result, i int) string {
	if i >= len(r.Harmonics) {
		return "-"
	}

	return percent(r.Harmonics[i])
}

func decibels(db float64) string {
	return fmt.Sprintf("%.1f dB", db)
}
