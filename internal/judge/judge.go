// internal/judge/judge.go

// Package judge scores agent actions with a multimodal reward model. Each
// sample gets up to two evaluations: a binary low-level check (does the
// concrete pyautogui call execute the stated high-level action?) and a
// graded high-level check (is the high-level action plausible and optimal
// progress toward the goal?). Both return a structured reasoning string and
// a numeric rating, falling back to a neutral zero rating when the model
// cannot be reached or keeps answering garbage.
package judge

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/reticle/api/schemas"
	"github.com/xkilldash9x/reticle/internal/config"
)

// NeutralReasoning is the diagnostic reasoning attached to the fallback
// evaluation after all attempts fail.
const NeutralReasoning = "Error during evaluation"

// Sample carries the inputs of a single evaluation: what the agent was
// asked to do, what it produced, and the screenshot it was looking at.
// ScreenshotPNG should hold the annotated screenshot for low-level
// evaluations and the raw one for high-level evaluations.
type Sample struct {
	Goal            string
	HighLevelAction string
	LowLevelAction  string
	PreviousActions string
	ScreenshotPNG   []byte
}

// Judge evaluates samples against a multimodal LLM, pacing requests through
// a shared rate limiter.
type Judge struct {
	client  schemas.LLMClient
	cfg     config.JudgeConfig
	logger  *zap.Logger
	limiter *rate.Limiter
}

// New constructs a Judge on top of an LLM client.
func New(client schemas.LLMClient, cfg config.JudgeConfig, logger *zap.Logger) *Judge {
	if logger == nil {
		logger = zap.NewNop()
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &Judge{
		client:  client,
		cfg:     cfg,
		logger:  logger.Named("judge"),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// NeutralEvaluation is the verdict recorded when evaluation itself failed.
// Rating zero keeps broken samples from being rewarded.
func NeutralEvaluation() schemas.ActionEvaluation {
	return schemas.ActionEvaluation{Reasoning: NeutralReasoning, FinalRating: 0}
}

// EvaluateLowLevel scores whether the sample's low-level action executes its
// high-level action. Ratings are 0 or 1.
func (j *Judge) EvaluateLowLevel(ctx context.Context, sample Sample) schemas.ActionEvaluation {
	return j.evaluate(ctx, "low_level", lowLevelSystemPrompt, buildLowLevelInput(sample), sample.ScreenshotPNG)
}

// EvaluateHighLevel scores the plausibility and optimality of the sample's
// high-level action. Ratings are 0, 0.5 or 1.
func (j *Judge) EvaluateHighLevel(ctx context.Context, sample Sample) schemas.ActionEvaluation {
	return j.evaluate(ctx, "high_level", highLevelSystemPrompt, buildHighLevelInput(sample), sample.ScreenshotPNG)
}

// evaluate runs the attempt loop for one evaluation. It never returns an
// error: a sample that cannot be evaluated gets the neutral verdict so the
// surrounding pipeline keeps moving.
func (j *Judge) evaluate(ctx context.Context, kind, systemPrompt, input string, screenshot []byte) schemas.ActionEvaluation {
	req := schemas.GenerationRequest{
		SystemPrompt: strings.TrimSpace(systemPrompt) + "\n\n" + input,
		UserPrompt:   input,
		Options: schemas.GenerationOptions{
			Temperature:     j.cfg.Temperature,
			ForceJSONFormat: true,
			MaxTokens:       j.cfg.MaxTokens,
		},
	}
	if len(screenshot) > 0 {
		req.ImagesPNG = [][]byte{screenshot}
	}

	attempts := j.cfg.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := j.limiter.Wait(ctx); err != nil {
			j.logger.Warn("Evaluation aborted while rate limited",
				zap.String("evaluation", kind),
				zap.Error(err),
			)
			return NeutralEvaluation()
		}

		raw, err := j.client.Generate(ctx, req)
		if err == nil {
			eval, parseErr := decodeEvaluation(raw)
			if parseErr == nil {
				j.logger.Debug("Evaluation complete",
					zap.String("evaluation", kind),
					zap.Float64("final_rating", eval.FinalRating),
				)
				return *eval
			}
			err = parseErr
		}

		j.logger.Warn("Evaluation attempt failed",
			zap.String("evaluation", kind),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Error(err),
		)
	}

	j.logger.Error("All evaluation attempts failed, returning neutral rating",
		zap.String("evaluation", kind),
	)
	return NeutralEvaluation()
}
