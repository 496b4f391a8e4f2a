package engine

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-tube/dsp/core"
)

// nodeKind identifies a processing node. The graph topology is fixed; the
// kind doubles as the node ID during compilation.
type nodeKind uint8

const (
	nodeInput nodeKind = iota
	nodeDensity
	nodePentode
	nodeTriode
	nodeSatShaper
	nodeSatFilter
	nodeSatGain
	nodeJoin
	nodeCalibration
	nodeAir
	nodeMix

	numNodeKinds
)

var nodeKindNames = [numNodeKinds]string{
	"input", "density", "pentode", "triode", "sat-shaper", "sat-filter",
	"sat-gain", "join", "calibration", "air", "mix",
}

func (k nodeKind) String() string {
	if k >= numNodeKinds {
		return fmt.Sprintf("node(%d)", int(k))
	}

	return nodeKindNames[k]
}

// maxPorts is the largest fan-in of any node.
const maxPorts = 2

// edge connects the output of From to input port Port of To.
type edge struct {
	From nodeKind
	To   nodeKind
	Port int
}

// topology is the signal flow: density feeds the series stages and the
// saturation branch, both meet at the join, and the mixer blends the
// processed signal with the raw input on port 0.
var topology = []edge{
	{From: nodeInput, To: nodeDensity},
	{From: nodeDensity, To: nodePentode},
	{From: nodePentode, To: nodeTriode},
	{From: nodeDensity, To: nodeSatShaper},
	{From: nodeSatShaper, To: nodeSatFilter},
	{From: nodeSatFilter, To: nodeSatGain},
	{From: nodeTriode, To: nodeJoin},
	{From: nodeSatGain, To: nodeJoin, Port: 1},
	{From: nodeJoin, To: nodeCalibration},
	{From: nodeCalibration, To: nodeAir},
	{From: nodeInput, To: nodeMix},
	{From: nodeAir, To: nodeMix, Port: 1},
}

// node is one arena slot. inputs hold arena indices per port, -1 when the
// port is unused. out holds one buffer per channel; the input node's
// buffers are views of the caller's block.
type node struct {
	kind   nodeKind
	ports  int
	inputs [maxPorts]int
	out    [][]float64
}

// graph is the compiled arena in topological order.
type graph struct {
	nodes  []node
	index  [numNodeKinds]int
	output int
}

var errGraphCycle = errors.New("engine: graph contains a cycle")

// compileGraph orders the nodes with Kahn's algorithm and allocates every
// buffer the audio path needs.
func compileGraph(edges []edge, channels, maxBlock int) (*graph, error) {
	var (
		indegree [numNodeKinds]int
		outgoing [numNodeKinds][]edge
		incoming [numNodeKinds][]edge
	)

	for _, e := range edges {
		if e.From >= numNodeKinds || e.To >= numNodeKinds || e.From == e.To {
			return nil, fmt.Errorf("engine: invalid edge %s -> %s", e.From, e.To)
		}

		if e.Port < 0 || e.Port >= maxPorts {
			return nil, fmt.Errorf("engine: invalid port %d on %s", e.Port, e.To)
		}

		outgoing[e.From] = append(outgoing[e.From], e)
		incoming[e.To] = append(incoming[e.To], e)
		indegree[e.To]++
	}

	queue := make([]nodeKind, 0, numNodeKinds)

	for k := range numNodeKinds {
		if indegree[k] == 0 {
			queue = append(queue, k)
		}
	}

	order := make([]nodeKind, 0, numNodeKinds)
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]

		order = append(order, k)
		for _, e := range outgoing[k] {
			indegree[e.To]--
			if indegree[e.To] == 0 {
				queue = append(queue, e.To)
			}
		}
	}

	if len(order) != int(numNodeKinds) {
		return nil, errGraphCycle
	}

	g := &graph{nodes: make([]node, len(order))}
	for i, k := range order {
		g.index[k] = i
	}

	for i, k := range order {
		n := &g.nodes[i]
		n.kind = k
		n.inputs = [maxPorts]int{-1, -1}

		for _, e := range incoming[k] {
			if n.inputs[e.Port] != -1 {
				return nil, fmt.Errorf("engine: port %d of %s connected twice", e.Port, k)
			}

			n.inputs[e.Port] = g.index[e.From]
			n.ports = max(n.ports, e.Port+1)
		}

		for p := range n.ports {
			if n.inputs[p] == -1 {
				return nil, fmt.Errorf("engine: port %d of %s is not connected", p, k)
			}
		}

		if k == nodeInput {
			n.out = make([][]float64, channels)
		} else {
			n.out = core.NewPlanar(channels, maxBlock)
		}
	}

	sinks := 0

	for _, k := range order {
		if len(outgoing[k]) == 0 {
			g.output = g.index[k]
			sinks++
		}
	}

	if sinks != 1 {
		return nil, fmt.Errorf("engine: graph needs exactly one output, has %d", sinks)
	}

	return g, nil
}

// setInput points the input node at one block of the caller's data.
func (g *graph) setInput(c int, block []float64) {
	g.nodes[g.index[nodeInput]].out[c] = block
}

// release drops references to caller memory held by the input node.
func (g *graph) release() {
	clear(g.nodes[g.index[nodeInput]].out)
}

// processChannel runs every node of channel c over frames samples and
// returns the output node's buffer.
func (g *graph) processChannel(st *State, ch *channelState, c, frames int) []float64 {
	var in [maxPorts][]float64

	for i := range g.nodes {
		n := &g.nodes[i]
		if n.kind == nodeInput {
			continue
		}

		for p := range n.ports {
			in[p] = g.nodes[n.inputs[p]].out[c][:frames]
		}

		nodeFuncs[n.kind](st, ch, n.out[c][:frames], in)
	}

	return g.nodes[g.output].out[c][:frames]
}
