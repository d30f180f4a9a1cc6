// api/schemas/record.go
package schemas

import "time"

// TimestampLayout is the wall-clock format used for sample timestamps in
// tabular sinks.
const TimestampLayout = "2006-01-02 15:04:05"

// Record is a single tracked training sample: the prompt and screenshot the
// model saw, what it answered, and how the reward pipeline scored it.
// Image fields hold encoded PNG bytes; JSON marshalling renders them as
// base64 strings, which is also how tabular sinks store them.
type Record struct {
	SampleID           string    `json:"sample_id"`
	Timestamp          time.Time `json:"timestamp"`
	Prompt             string    `json:"prompt"`
	ImagePath          string    `json:"image_path,omitempty"`
	Image              []byte    `json:"image,omitempty"`
	AnnotatedImage     []byte    `json:"annotated_image,omitempty"`
	ModelResponse      string    `json:"model_response,omitempty"`
	GroundTruth        string    `json:"ground_truth,omitempty"`
	LowLevelReasoning  string    `json:"low_level_action_evaluation_reasoning,omitempty"`
	LowLevelScore      *float64  `json:"low_level_action_evaluation_score,omitempty"`
	HighLevelReasoning string    `json:"high_level_action_evaluation_reasoning,omitempty"`
	HighLevelScore     *float64  `json:"high_level_action_evaluation_score,omitempty"`
	FormatScore        *float64  `json:"custom_format_reward_score,omitempty"`
}

// RecordColumns returns the canonical column order shared by every tabular
// sink (CSV file, dashboard table, SQL inserts). Sinks must not reorder
// these; downstream tooling matches columns by position.
func RecordColumns() []string {
	return []string{
		"sample_id",
		"timestamp",
		"prompt",
		"image_path",
		"image",
		"annotated_image",
		"model_response",
		"ground_truth",
		"low_level_action_evaluation_reasoning",
		"low_level_action_evaluation_score",
		"high_level_action_evaluation_reasoning",
		"high_level_action_evaluation_score",
		"custom_format_reward_score",
	}
}

// Float64 returns a pointer to v. Score fields are pointers so that "not
// evaluated" stays distinguishable from a genuine zero rating.
func Float64(v float64) *float64 { return &v }
