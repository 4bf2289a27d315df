package tree

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"dendra/internal/model"
	"dendra/internal/node"
)

// GoalSelector draws the goal for one propagation pass.
type GoalSelector func() model.Goal

// Hooks are optional observation callbacks. The tree hands events to them
// instead of formatting or printing anything itself; a nil hook is skipped.
type Hooks struct {
	OnNode   func(node.Observation)
	OnGrowth func(node.Growth)
	OnEpoch  func(model.EpochReport)
}

type Config struct {
	Seed         int64
	Activation   string
	GoalSelector GoalSelector
	Hooks        Hooks
}

// Tree owns the sparse node arena and drives one full top-down/bottom-up pass
// per epoch. Evaluation is strictly single-threaded and depth-first: a pass
// runs to completion before control returns, and the arena is mutated in
// place mid-traversal. Not safe for concurrent use.
type Tree struct {
	cfg      Config
	rng      *rand.Rand
	activate node.ActivationFunc
	selector GoalSelector
	nodes    map[model.Coordinate]*node.SignalNode
}

var defaultGoals = []model.Goal{model.GoalStability, model.GoalChaos, model.GoalInversion}

func New(cfg Config) (*Tree, error) {
	activationName := cfg.Activation
	if activationName == "" {
		activationName = node.DefaultActivation
	}
	activate, err := node.GetActivation(activationName)
	if err != nil {
		return nil, fmt.Errorf("resolve activation %s: %w", activationName, err)
	}

	t := &Tree{
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		activate: activate,
		nodes:    make(map[model.Coordinate]*node.SignalNode),
	}
	t.selector = cfg.GoalSelector
	if t.selector == nil {
		t.selector = func() model.Goal {
			return defaultGoals[t.rng.Intn(len(defaultGoals))]
		}
	}
	return t, nil
}

// RunEpochs drives epochs sequential propagation passes from the root with an
// initial signal of 1.0, drawing a fresh goal per pass. Tree state (weights,
// history, moods, arena contents) persists and accumulates across epochs and
// across calls. The context is only consulted between passes; a started pass
// always completes.
func (t *Tree) RunEpochs(ctx context.Context, epochs, depthLimit int) ([]model.EpochReport, error) {
	if epochs <= 0 {
		return nil, fmt.Errorf("epoch count must be > 0, got %d", epochs)
	}
	if depthLimit < 0 {
		return nil, fmt.Errorf("depth limit must be >= 0, got %d", depthLimit)
	}

	root := t.Materialize(model.Coordinate{})
	reports := make([]model.EpochReport, 0, epochs)
	for epoch := 0; epoch < epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		goal := t.selector()
		output := root.Propagate(1.0, depthLimit, t, goal)
		report := model.EpochReport{
			Epoch:    epoch,
			Goal:     goal,
			Output:   output,
			RootMood: root.Mood(),
		}
		reports = append(reports, report)
		if t.cfg.Hooks.OnEpoch != nil {
			t.cfg.Hooks.OnEpoch(report)
		}
	}
	return reports, nil
}

// Materialize returns the node at coord, creating it on first visit. Nodes
// are never removed: the arena only grows.
func (t *Tree) Materialize(coord model.Coordinate) *node.SignalNode {
	if n, ok := t.nodes[coord]; ok {
		return n
	}
	n := node.New(coord, t.activate, t.rng)
	t.nodes[coord] = n
	return n
}

// Node looks a coordinate up without materializing it.
func (t *Tree) Node(coord model.Coordinate) (*node.SignalNode, bool) {
	n, ok := t.nodes[coord]
	return n, ok
}

func (t *Tree) NodeCount() int {
	return len(t.nodes)
}

func (t *Tree) Rand() *rand.Rand {
	return t.rng
}

func (t *Tree) ObserveNode(obs node.Observation) {
	if t.cfg.Hooks.OnNode != nil {
		t.cfg.Hooks.OnNode(obs)
	}
}

func (t *Tree) ObserveGrowth(growth node.Growth) {
	if t.cfg.Hooks.OnGrowth != nil {
		t.cfg.Hooks.OnGrowth(growth)
	}
}

// Snapshot captures every node in deterministic coordinate order.
func (t *Tree) Snapshot(runID string) model.TreeSnapshot {
	coords := make([]model.Coordinate, 0, len(t.nodes))
	for coord := range t.nodes {
		coords = append(coords, coord)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].Depth != coords[j].Depth {
			return coords[i].Depth < coords[j].Depth
		}
		return coords[i].Index < coords[j].Index
	})

	records := make([]model.NodeRecord, 0, len(coords))
	for _, coord := range coords {
		records = append(records, t.nodes[coord].Record())
	}
	return model.TreeSnapshot{RunID: runID, Nodes: records}
}
