package stats

import (
	"fmt"
	"math"

	"dendra/internal/model"
)

// RunReport condenses a completed run into the numbers the CLI summary
// command prints: how the epoch outputs behaved, which goals were drawn, and
// how the final tree's moods are distributed.
type RunReport struct {
	RunID         string             `json:"run_id"`
	Epochs        int                `json:"epochs"`
	NodeCount     int                `json:"node_count"`
	MaxDepth      int                `json:"max_depth"`
	MeanOutput    float64            `json:"mean_output"`
	StdOutput     float64            `json:"std_output"`
	FinalRootMood model.Mood         `json:"final_root_mood"`
	GoalCounts    map[model.Goal]int `json:"goal_counts"`
	MoodCounts    map[model.Mood]int `json:"mood_counts"`
}

func BuildRunReport(run model.RunRecord, history []model.EpochReport, snapshot model.TreeSnapshot) (RunReport, error) {
	if run.ID == "" {
		return RunReport{}, fmt.Errorf("run id is required")
	}
	if len(history) == 0 {
		return RunReport{}, fmt.Errorf("epoch history is empty for run %s", run.ID)
	}

	outputs := make([]float64, 0, len(history))
	goalCounts := make(map[model.Goal]int)
	for _, report := range history {
		outputs = append(outputs, report.Output)
		goalCounts[report.Goal]++
	}
	mean, err := Avg(outputs)
	if err != nil {
		return RunReport{}, err
	}
	std, err := Std(outputs)
	if err != nil {
		return RunReport{}, err
	}

	moodCounts := make(map[model.Mood]int)
	maxDepth := 0
	for _, record := range snapshot.Nodes {
		moodCounts[record.Mood]++
		if record.Coordinate.Depth > maxDepth {
			maxDepth = record.Coordinate.Depth
		}
	}

	return RunReport{
		RunID:         run.ID,
		Epochs:        len(history),
		NodeCount:     len(snapshot.Nodes),
		MaxDepth:      maxDepth,
		MeanOutput:    mean,
		StdOutput:     std,
		FinalRootMood: history[len(history)-1].RootMood,
		GoalCounts:    goalCounts,
		MoodCounts:    moodCounts,
	}, nil
}

// Avg returns the arithmetic mean of values.
func Avg(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("values must not be empty")
	}
	sum := 0.0
	for _, value := range values {
		sum += value
	}
	return sum / float64(len(values)), nil
}

// Std returns population standard deviation.
func Std(values []float64) (float64, error) {
	mean, err := Avg(values)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for _, value := range values {
		diff := mean - value
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(values))), nil
}
