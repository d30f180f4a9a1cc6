// internal/report/stats.go
package report

import (
	"time"

	"github.com/xkilldash9x/reticle/api/schemas"
	"github.com/xkilldash9x/reticle/internal/judge"
)

// scoreBucketLabels name the histogram bins. Ratings live in [0, 1], so
// the final bin holds exact ones.
var scoreBucketLabels = [5]string{
	"[0.00, 0.25)",
	"[0.25, 0.50)",
	"[0.50, 0.75)",
	"[0.75, 1.00)",
	"[1.00]",
}

// ScoreStats summarizes one score column across a run. Scored counts only
// the rows where the column was present; unevaluated rows don't dilute the
// mean.
type ScoreStats struct {
	Scored    int
	Mean      float64
	Min       float64
	Max       float64
	Histogram [5]int
}

func (s *ScoreStats) observe(v float64) {
	if s.Scored == 0 {
		s.Min, s.Max = v, v
	} else {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	// Mean holds the running sum until finalize divides it.
	s.Mean += v
	s.Scored++
	s.Histogram[bucketFor(v)]++
}

func (s *ScoreStats) finalize() {
	if s.Scored > 0 {
		s.Mean /= float64(s.Scored)
	}
}

func bucketFor(v float64) int {
	switch {
	case v < 0.25:
		return 0
	case v < 0.5:
		return 1
	case v < 0.75:
		return 2
	case v < 1:
		return 3
	default:
		return 4
	}
}

// RunStats aggregates a whole tracking run.
type RunStats struct {
	Samples            int
	First              time.Time
	Last               time.Time
	Annotated          int
	EvaluationFailures int
	LowLevel           ScoreStats
	HighLevel          ScoreStats
	Format             ScoreStats
}

// Compute walks the records once and fills every aggregate. Rows whose
// evaluation reasoning is the judge's neutral fallback count as failures.
func Compute(records []schemas.Record) RunStats {
	var stats RunStats
	stats.Samples = len(records)

	for _, rec := range records {
		if stats.First.IsZero() || rec.Timestamp.Before(stats.First) {
			stats.First = rec.Timestamp
		}
		if rec.Timestamp.After(stats.Last) {
			stats.Last = rec.Timestamp
		}
		if len(rec.AnnotatedImage) > 0 {
			stats.Annotated++
		}
		if rec.LowLevelReasoning == judge.NeutralReasoning || rec.HighLevelReasoning == judge.NeutralReasoning {
			stats.EvaluationFailures++
		}
		if rec.LowLevelScore != nil {
			stats.LowLevel.observe(*rec.LowLevelScore)
		}
		if rec.HighLevelScore != nil {
			stats.HighLevel.observe(*rec.HighLevelScore)
		}
		if rec.FormatScore != nil {
			stats.Format.observe(*rec.FormatScore)
		}
	}

	stats.LowLevel.finalize()
	stats.HighLevel.finalize()
	stats.Format.finalize()
	return stats
}
