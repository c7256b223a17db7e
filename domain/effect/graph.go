package effect

import (
	"fmt"
	"math"

	"voicefx-media/domain/audio"
)

// NodeKind identifies the role of a node in the chain
type NodeKind int

const (
	NodeSource NodeKind = iota
	NodeRateShift
	NodePitchShift
	NodeSink
)

func (k NodeKind) String() string {
	switch k {
	case NodeSource:
		return "source"
	case NodeRateShift:
		return "rate-shift"
	case NodePitchShift:
		return "pitch-shift"
	case NodeSink:
		return "sink"
	default:
		return fmt.Sprintf("node(%d)", int(k))
	}
}

// Node is one stage of the effect chain with its declared formats
type Node struct {
	Kind   NodeKind
	Input  audio.Format
	Output audio.Format
}

// Graph is the fixed source -> rateShift -> pitchShift -> sink chain.
// It only describes topology and parameters; it never moves samples.
type Graph struct {
	params Parameters
	nodes  []Node
}

// NewGraph builds the chain for params with every node using format
func NewGraph(params Parameters, format audio.Format) (*Graph, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("graph format: %w", err)
	}

	kinds := []NodeKind{NodeSource, NodeRateShift, NodePitchShift, NodeSink}
	nodes := make([]Node, len(kinds))
	for i, kind := range kinds {
		nodes[i] = Node{Kind: kind, Input: format, Output: format}
	}

	return &Graph{params: params.Clamped(), nodes: nodes}, nil
}

// Parameters returns the clamped parameters of the chain
func (g *Graph) Parameters() Parameters {
	return g.params
}

// Nodes returns a copy of the chain in pull order
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// SetNodeFormat overrides the formats of one node. Used when an adapter needs a
// different intermediate format; Validate catches any resulting mismatch.
func (g *Graph) SetNodeFormat(kind NodeKind, input, output audio.Format) {
	for i := range g.nodes {
		if g.nodes[i].Kind == kind {
			g.nodes[i].Input = input
			g.nodes[i].Output = output
		}
	}
}

// InputFormat is the format the source node expects
func (g *Graph) InputFormat() audio.Format {
	return g.nodes[0].Input
}

// OutputFormat is the format the sink node produces
func (g *Graph) OutputFormat() audio.Format {
	return g.nodes[len(g.nodes)-1].Output
}

// Validate fails fast when any connection joins two different formats
func (g *Graph) Validate() error {
	for i := 0; i < len(g.nodes)-1; i++ {
		from, to := g.nodes[i], g.nodes[i+1]
		if !from.Output.Equal(to.Input) {
			return fmt.Errorf("%w: %s outputs %s but %s expects %s",
				ErrFormatMismatch, from.Kind, from.Output, to.Kind, to.Input)
		}
	}
	return nil
}

// Accepts checks that a stream of the given format can feed the source node
func (g *Graph) Accepts(format audio.Format) error {
	if !g.InputFormat().Equal(format) {
		return fmt.Errorf("%w: input is %s but source expects %s", ErrFormatMismatch, format, g.InputFormat())
	}
	return nil
}

// OutputFrames returns how many frames the sink yields once inputFrames source
// frames have been consumed. Only the rate shift changes duration.
func (g *Graph) OutputFrames(inputFrames int64) int64 {
	if inputFrames <= 0 {
		return 0
	}
	return int64(math.Round(float64(inputFrames) / g.params.Rate))
}
