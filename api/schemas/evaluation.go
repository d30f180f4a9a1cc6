package schemas

// ActionEvaluation is the structured verdict produced by the reward judge.
// FinalRating is 0 or 1 for low-level evaluations and 0, 0.5 or 1 for
// high-level evaluations; the neutral fallback after repeated API failures
// is rating 0 with a fixed diagnostic reasoning string.
type ActionEvaluation struct {
	Reasoning   string  `json:"reasoning"`
	FinalRating float64 `json:"final_rating"`
}
