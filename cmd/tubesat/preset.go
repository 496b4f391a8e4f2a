package main

import (
	"io"
	"os"

	"github.com/cwbudde/algo-tube/engine"
)

// PresetCmd prints the effective parameters so they can be saved and
// passed back with --preset.
type PresetCmd struct {
	out io.Writer
}

// Run writes the preset to stdout.
func (p *PresetCmd) Run(g *Globals) error {
	cfg, err := g.config()
	if err != nil {
		return err
	}

	w := p.out
	if w == nil {
		w = os.Stdout
	}

	return engine.EncodeConfig(w, cfg)
}
