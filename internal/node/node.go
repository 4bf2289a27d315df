package node

import (
	"math/rand"

	"dendra/internal/model"
)

const (
	initialWeightSlots  = 3
	defaultLearningRate = 0.05

	weightLow  = 0.5
	weightHigh = 1.5

	leafNoiseSpread = 0.05

	// moodWindow bounds how much history the mood classifier reads.
	moodWindow = 5
)

// Observation is emitted after every node-level propagate call, leaf or
// interior. Weights is nil for leaf visits.
type Observation struct {
	Coordinate model.Coordinate
	Goal       model.Goal
	Output     float64
	Mood       model.Mood
	Weights    []float64
}

// Growth is emitted when an elated interior node opens a new child slot.
type Growth struct {
	Parent model.Coordinate
	Child  model.Coordinate
}

// Arena is the tree-owned node table threaded through recursion. Nodes never
// hold references to siblings or children, only coordinates; every lookup and
// insert goes through the arena so ownership stays with the orchestrator.
type Arena interface {
	Materialize(coord model.Coordinate) *SignalNode
	Rand() *rand.Rand
	ObserveNode(obs Observation)
	ObserveGrowth(growth Growth)
}

// SignalNode is one adaptive unit in the propagation tree. It owns a small
// append-only weight vector (one entry per child slot), a bounded view of its
// recent outcomes, and a mood derived from them.
type SignalNode struct {
	coord        model.Coordinate
	weights      []float64
	learningRate float64
	history      []model.Outcome
	mood         model.Mood
	activate     ActivationFunc
}

// New creates a node at coord with three weight slots drawn uniformly from
// [0.5, 1.5). Nodes start curious.
func New(coord model.Coordinate, activate ActivationFunc, rng *rand.Rand) *SignalNode {
	weights := make([]float64, initialWeightSlots)
	for i := range weights {
		weights[i] = sampleWeight(rng)
	}
	return &SignalNode{
		coord:        coord,
		weights:      weights,
		learningRate: defaultLearningRate,
		mood:         model.MoodCurious,
		activate:     activate,
	}
}

func (n *SignalNode) Coordinate() model.Coordinate {
	return n.coord
}

func (n *SignalNode) Mood() model.Mood {
	return n.mood
}

// Weights returns a copy of the weight vector. Its length is the node's
// branching factor for the next pass that visits it.
func (n *SignalNode) Weights() []float64 {
	return append([]float64(nil), n.weights...)
}

func (n *SignalNode) History() []model.Outcome {
	return append([]model.Outcome(nil), n.history...)
}

// Record converts the node into its persistable form.
func (n *SignalNode) Record() model.NodeRecord {
	return model.NodeRecord{
		Coordinate: n.coord,
		Weights:    n.Weights(),
		Mood:       n.mood,
		History:    n.History(),
	}
}

// Learn nudges every weight toward the goal's target by the same scalar step
// and appends the outcome to history. There is no per-weight credit
// assignment. An unrecognized goal is not an error: it learns toward a
// neutral 0.5 target.
func (n *SignalNode) Learn(output float64, goal model.Goal, rng *rand.Rand) {
	target := targetFor(goal, rng)
	step := n.learningRate * (target - output)
	for i := range n.weights {
		n.weights[i] += step
	}
	n.history = append(n.history, model.Outcome{Output: output, Goal: goal})
}

// targetFor maps a goal to the value learning aims at. The chaos target is
// re-sampled on every call: the goalpost moves.
func targetFor(goal model.Goal, rng *rand.Rand) float64 {
	switch goal {
	case model.GoalStability:
		return 1.0
	case model.GoalInversion:
		return 0.0
	case model.GoalChaos:
		return 0.4 + rng.Float64()*0.2
	default:
		return 0.5
	}
}

// UpdateMood reclassifies the node from its last <= 5 outcomes. The
// thresholds and the count-to-mood mapping are fixed.
func (n *SignalNode) UpdateMood() {
	recent := n.history
	if len(recent) > moodWindow {
		recent = recent[len(recent)-moodWindow:]
	}
	successes := 0
	for _, outcome := range recent {
		if successful(outcome) {
			successes++
		}
	}
	switch {
	case successes >= 4:
		n.mood = model.MoodElated
	case successes == 3:
		n.mood = model.MoodCalm
	case successes == 2:
		n.mood = model.MoodCurious
	default:
		n.mood = model.MoodFrustrated
	}
}

func successful(outcome model.Outcome) bool {
	switch outcome.Goal {
	case model.GoalStability:
		return outcome.Output > 0.9
	case model.GoalChaos:
		return outcome.Output > 0.4 && outcome.Output < 0.6
	case model.GoalInversion:
		return outcome.Output < 0.1
	default:
		return false
	}
}

// Propagate pushes a signal through this node's subtree and returns the
// node's output. At or past the depth limit the node acts as a leaf: it
// squashes the incoming signal plus a small uniform noise term. Otherwise it
// scales the signal by each weight, recurses into the lazily materialized
// children, and squashes the mean of their outputs. Either way the node then
// learns from its own output and refreshes its mood.
//
// An elated interior node with headroom below the depth limit grows one new
// weight slot per pass; the matching child is materialized immediately so the
// new slot is already discoverable in the arena.
func (n *SignalNode) Propagate(signal float64, depthLimit int, arena Arena, goal model.Goal) float64 {
	if n.coord.Depth >= depthLimit {
		noise := -leafNoiseSpread + arena.Rand().Float64()*2*leafNoiseSpread
		output := n.activate(signal + noise)
		n.Learn(output, goal, arena.Rand())
		n.UpdateMood()
		arena.ObserveNode(Observation{
			Coordinate: n.coord,
			Goal:       goal,
			Output:     output,
			Mood:       n.mood,
		})
		return output
	}

	sum := 0.0
	children := len(n.weights)
	for i := 0; i < children; i++ {
		child := arena.Materialize(model.Coordinate{Depth: n.coord.Depth + 1, Index: i})
		sum += child.Propagate(signal*n.weights[i], depthLimit, arena, goal)
	}
	output := n.activate(sum / float64(children))
	n.Learn(output, goal, arena.Rand())
	n.UpdateMood()
	arena.ObserveNode(Observation{
		Coordinate: n.coord,
		Goal:       goal,
		Output:     output,
		Mood:       n.mood,
		Weights:    n.Weights(),
	})

	if n.mood == model.MoodElated && n.coord.Depth < depthLimit-1 {
		n.weights = append(n.weights, sampleWeight(arena.Rand()))
		childCoord := model.Coordinate{Depth: n.coord.Depth + 1, Index: len(n.weights) - 1}
		arena.Materialize(childCoord)
		arena.ObserveGrowth(Growth{Parent: n.coord, Child: childCoord})
	}

	return output
}

func sampleWeight(rng *rand.Rand) float64 {
	return weightLow + rng.Float64()*(weightHigh-weightLow)
}
