package engine

import (
	"fmt"

	vecmath "github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-tube/dsp/delay"
	"github.com/cwbudde/algo-tube/dsp/effects/tube"
	"github.com/cwbudde/algo-tube/dsp/filter/biquad"
	"github.com/cwbudde/algo-tube/dsp/oversample"
)

// channelState is the persistent memory of one channel: oversampler
// histories, biquad delay lines and alignment delays. It survives State
// swaps.
type channelState struct {
	pentode *tube.Stage
	triode  *tube.Stage
	sat     *tube.Stage

	satFilter   *biquad.Section
	calibration *biquad.Section
	air         *biquad.Section

	satDelay *delay.Line
	dryDelay *delay.Line

	// satFreq is the frequency mode the branch filter memory belongs to.
	satFreq FrequencyMode

	wet []float64
	dry []float64
}

func newChannelState(st *State, oversampling, maxBlock int, alignDry bool, filter []oversample.Option) (*channelState, error) {
	opts := []tube.StageOption{tube.WithStageOversampling(oversampling), tube.WithStageFilter(filter...)}

	stages := make([]*tube.Stage, 3)
	for i := range stages {
		s, err := tube.NewStage(opts...)
		if err != nil {
			return nil, configError("oversampling", oversampling, err)
		}

		stages[i] = s
	}

	ch := &channelState{
		pentode:     stages[0],
		triode:      stages[1],
		sat:         stages[2],
		satFilter:   biquad.NewSection(st.SatFilter),
		calibration: biquad.NewSection(st.Calibration),
		air:         biquad.NewSection(st.Air),
		satFreq:     st.Config.Saturation.Frequency,
		wet:         make([]float64, maxBlock),
	}

	// The branch runs one stage against the two in series.
	var err error

	ch.satDelay, err = delay.New(ch.triode.Latency())
	if err != nil {
		return nil, fmt.Errorf("engine: saturation alignment: %w", err)
	}

	if alignDry {
		ch.dryDelay, err = delay.New(ch.seriesLatency())
		if err != nil {
			return nil, fmt.Errorf("engine: dry alignment: %w", err)
		}

		ch.dry = make([]float64, maxBlock)
	}

	return ch, nil
}

// reset silences every stage, filter and delay of the channel.
func (ch *channelState) reset() {
	ch.pentode.Reset()
	ch.triode.Reset()
	ch.sat.Reset()
	ch.satFilter.Reset()
	ch.calibration.Reset()
	ch.air.Reset()
	ch.satDelay.Reset()

	if ch.dryDelay != nil {
		ch.dryDelay.Reset()
	}
}

// seriesLatency is the delay of the processed path in samples.
func (ch *channelState) seriesLatency() int {
	return ch.pentode.Latency() + ch.triode.Latency()
}

// nodeFunc renders one node for one channel. dst has the block length and
// in holds the port buffers.
type nodeFunc func(st *State, ch *channelState, dst []float64, in [maxPorts][]float64)

var nodeFuncs = [numNodeKinds]nodeFunc{
	nodeDensity:     processDensity,
	nodePentode:     processPentode,
	nodeTriode:      processTriode,
	nodeSatShaper:   processSatShaper,
	nodeSatFilter:   processSatFilter,
	nodeSatGain:     processSatGain,
	nodeJoin:        processJoin,
	nodeCalibration: processCalibration,
	nodeAir:         processAir,
	nodeMix:         processMix,
}

func processDensity(st *State, _ *channelState, dst []float64, in [maxPorts][]float64) {
	vecmath.ScaleBlock(dst, in[0], st.DensityGain)
}

func processPentode(st *State, ch *channelState, dst []float64, in [maxPorts][]float64) {
	ch.pentode.ProcessBlock(dst, in[0], st.Pentode)
}

func processTriode(st *State, ch *channelState, dst []float64, in [maxPorts][]float64) {
	ch.triode.ProcessBlock(dst, in[0], st.Triode)
}

// processSatShaper keeps running while the branch is disabled so that
// re-enabling starts from settled filter memory.
func processSatShaper(st *State, ch *channelState, dst []float64, in [maxPorts][]float64) {
	ch.sat.ProcessBlock(dst, in[0], st.Saturation)
}

func processSatFilter(st *State, ch *channelState, dst []float64, in [maxPorts][]float64) {
	if mode := st.Config.Saturation.Frequency; mode != ch.satFreq {
		ch.satFilter.Reset()
		ch.satFreq = mode
	}

	ch.satFilter.SetCoefficients(st.SatFilter)
	ch.satFilter.Process(dst, in[0])
}

func processSatGain(st *State, ch *channelState, dst []float64, in [maxPorts][]float64) {
	ch.satDelay.ProcessBlock(dst, in[0])
	vecmath.ScaleBlockInPlace(dst, st.SatGain)
}

func processJoin(st *State, _ *channelState, dst []float64, in [maxPorts][]float64) {
	if !st.SatEnabled {
		copy(dst, in[0])
		return
	}

	vecmath.AddBlock(dst, in[0], in[1])
}

func processCalibration(st *State, ch *channelState, dst []float64, in [maxPorts][]float64) {
	ch.calibration.SetCoefficients(st.Calibration)
	ch.calibration.Process(dst, in[0])
}

func processAir(st *State, ch *channelState, dst []float64, in [maxPorts][]float64) {
	ch.air.SetCoefficients(st.Air)
	ch.air.Process(dst, in[0])
}

// processMix computes (dry*(1-mix) + wet*mix) * output with the gains
// folded in State.
func processMix(st *State, ch *channelState, dst []float64, in [maxPorts][]float64) {
	dry, wet := in[0], in[1]
	n := len(dst)

	if ch.dryDelay != nil {
		ch.dryDelay.ProcessBlock(ch.dry[:n], dry)
		dry = ch.dry[:n]
	}

	scaled := ch.wet[:n]
	vecmath.ScaleBlock(scaled, wet, st.WetGain)
	vecmath.ScaleBlock(dst, dry, st.DryGain)
	vecmath.AddBlockInPlace(dst, scaled)
}
