package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Goal selects which target value a node's learning step aims for. Values
// outside the three known goals are tolerated: learning falls back to a
// neutral target instead of failing.
type Goal string

const (
	GoalStability Goal = "stability"
	GoalChaos     Goal = "chaos"
	GoalInversion Goal = "inversion"
)

// Mood is the discrete behavioral state a node derives from its recent
// success rate. It gates structural growth.
type Mood string

const (
	MoodElated     Mood = "elated"
	MoodCalm       Mood = "calm"
	MoodCurious    Mood = "curious"
	MoodFrustrated Mood = "frustrated"
)

// Coordinate identifies a node's position in the tree: how deep it sits and
// which child slot it occupies. Assigned at creation, immutable.
type Coordinate struct {
	Depth int `json:"depth"`
	Index int `json:"index"`
}

// Outcome is one recorded learning step: the output a node produced and the
// goal it was judged against.
type Outcome struct {
	Output float64 `json:"output"`
	Goal   Goal    `json:"goal"`
}

type NodeRecord struct {
	Coordinate Coordinate `json:"coordinate"`
	Weights    []float64  `json:"weights"`
	Mood       Mood       `json:"mood"`
	History    []Outcome  `json:"history"`
}

type TreeSnapshot struct {
	VersionedRecord
	RunID string       `json:"run_id"`
	Nodes []NodeRecord `json:"nodes"`
}

type EpochReport struct {
	Epoch    int     `json:"epoch"`
	Goal     Goal    `json:"goal"`
	Output   float64 `json:"output"`
	RootMood Mood    `json:"root_mood"`
}

type RunRecord struct {
	VersionedRecord
	ID         string `json:"id"`
	Epochs     int    `json:"epochs"`
	DepthLimit int    `json:"depth_limit"`
	Seed       int64  `json:"seed"`
	NodeCount  int    `json:"node_count"`
}
