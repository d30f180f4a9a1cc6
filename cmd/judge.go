// File: cmd/judge.go
package cmd

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reticle/api/schemas"
	"github.com/xkilldash9x/reticle/internal/annotate"
	"github.com/xkilldash9x/reticle/internal/judge"
	"github.com/xkilldash9x/reticle/internal/llmclient"
)

// judgeVerdict is the JSON the command prints: one evaluation per action
// level that was supplied.
type judgeVerdict struct {
	HighLevel *schemas.ActionEvaluation `json:"high_level,omitempty"`
	LowLevel  *schemas.ActionEvaluation `json:"low_level,omitempty"`
}

// newJudgeCmd creates and configures the `judge` command.
func newJudgeCmd(app *appState) *cobra.Command {
	var (
		imagePath string
		pageURL   string
		goal      string
		highLevel string
		lowLevel  string
		previous  string
		outPath   string
	)

	judgeCmd := &cobra.Command{
		Use:   "judge",
		Short: "Score a sample's actions with the configured LLM judge",
		Long: `Judge annotates the low-level action onto the screenshot, sends the
sample to the configured multimodal LLM, and prints the structured
evaluations as JSON. High-level actions are rated 0, 0.5 or 1; low-level
actions 0 or 1. Repeated API failures yield the neutral fallback rating.`,
		// Bind the override flags into the loaded viper state so they take
		// precedence over the config file and environment. PreRunE runs
		// after the root PersistentPreRunE, so app.v is populated here.
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.v.BindPFlag("judge.provider", cmd.Flags().Lookup("provider")); err != nil {
				return err
			}
			return app.v.BindPFlag("judge.model", cmd.Flags().Lookup("model"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := app.resolveConfig()
			if err != nil {
				return err
			}
			logger := app.logger

			if highLevel == "" && lowLevel == "" {
				return fmt.Errorf("at least one of --high-level or --low-level is required")
			}

			raw, err := loadScreenshot(ctx, cfg.Capture(), logger, imagePath, pageURL)
			if err != nil {
				return err
			}

			// The judge sees the screenshot with the low-level action drawn
			// on it, matching what the prompt describes as red annotations.
			screenshot := raw
			if lowLevel != "" {
				img, err := decodePNG(raw)
				if err != nil {
					return err
				}
				annotated, res := annotate.New(logger).Annotate(img, lowLevel)
				if !res.OK {
					logger.Warn("Annotation faults on judge input", zap.Int("faults", len(res.Faults)))
				}
				if screenshot, err = encodePNG(annotated); err != nil {
					return err
				}
				if outPath != "" {
					if err := os.WriteFile(outPath, screenshot, 0o644); err != nil {
						return fmt.Errorf("failed to write annotated image: %w", err)
					}
				}
			}

			client, err := llmclient.NewClient(cfg.Judge(), logger)
			if err != nil {
				return err
			}
			defer client.Close()

			j := judge.New(client, cfg.Judge(), logger)
			sample := judge.Sample{
				Goal:            goal,
				HighLevelAction: highLevel,
				LowLevelAction:  lowLevel,
				PreviousActions: previous,
				ScreenshotPNG:   screenshot,
			}

			var verdict judgeVerdict
			if highLevel != "" {
				ev := j.EvaluateHighLevel(ctx, sample)
				verdict.HighLevel = &ev
			}
			if lowLevel != "" {
				ev := j.EvaluateLowLevel(ctx, sample)
				verdict.LowLevel = &ev
			}

			out, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(verdict, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal verdict: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	judgeCmd.Flags().StringVar(&imagePath, "image", "", "path to the screenshot PNG")
	judgeCmd.Flags().StringVar(&pageURL, "url", "", "URL to capture instead of --image")
	judgeCmd.Flags().StringVar(&goal, "goal", "", "the task the agent is pursuing (required)")
	judgeCmd.Flags().StringVar(&highLevel, "high-level", "", "generated high-level action")
	judgeCmd.Flags().StringVar(&lowLevel, "low-level", "", "generated low-level pyautogui action")
	judgeCmd.Flags().StringVar(&previous, "previous", "", "previous actions, for context")
	judgeCmd.Flags().StringVarP(&outPath, "out", "o", "", "optional path for the annotated PNG")
	judgeCmd.Flags().String("provider", "", "judge provider override (openai, gemini, anthropic)")
	judgeCmd.Flags().String("model", "", "judge model override")

	judgeCmd.MarkFlagsMutuallyExclusive("image", "url")
	judgeCmd.MarkFlagsOneRequired("image", "url")
	_ = judgeCmd.MarkFlagRequired("goal")

	return judgeCmd
}
