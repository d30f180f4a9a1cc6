// File: cmd/annotate.go
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reticle/internal/annotate"
)

// newAnnotateCmd creates and configures the `annotate` command.
func newAnnotateCmd(app *appState) *cobra.Command {
	var (
		imagePath   string
		pageURL     string
		actions     string
		actionsFile string
		outPath     string
	)

	annotateCmd := &cobra.Command{
		Use:   "annotate",
		Short: "Render an action trace onto a screenshot",
		Long: `Annotate parses a pyautogui-style action trace and draws its clicks,
moves and scrolls onto the screenshot, writing the result as a PNG. The
screenshot comes from --image, or from a headless capture of --url.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := app.resolveConfig()
			if err != nil {
				return err
			}
			logger := app.logger

			trace, err := resolveActions(actions, actionsFile)
			if err != nil {
				return err
			}

			raw, err := loadScreenshot(ctx, cfg.Capture(), logger, imagePath, pageURL)
			if err != nil {
				return err
			}

			img, err := decodePNG(raw)
			if err != nil {
				return err
			}

			annotated, result := annotate.New(logger).Annotate(img, trace)

			out, err := encodePNG(annotated)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, out, 0o644); err != nil {
				return fmt.Errorf("failed to write annotated image: %w", err)
			}

			logger.Info("Annotation complete",
				zap.String("out", outPath),
				zap.Int("drawn", result.Drawn),
				zap.Bool("ok", result.OK),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "annotated %d action(s) -> %s (ok=%t)\n",
				result.Drawn, outPath, result.OK)

			if !result.OK {
				for _, fault := range result.Faults {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", fault)
				}
				return fmt.Errorf("annotation completed with %d fault(s)", len(result.Faults))
			}
			return nil
		},
	}

	annotateCmd.Flags().StringVar(&imagePath, "image", "", "path to the screenshot PNG")
	annotateCmd.Flags().StringVar(&pageURL, "url", "", "URL to capture instead of --image")
	annotateCmd.Flags().StringVar(&actions, "actions", "", "action trace (newline separated)")
	annotateCmd.Flags().StringVar(&actionsFile, "actions-file", "", "file containing the action trace")
	annotateCmd.Flags().StringVarP(&outPath, "out", "o", "annotated.png", "output PNG path")

	annotateCmd.MarkFlagsMutuallyExclusive("image", "url")
	annotateCmd.MarkFlagsOneRequired("image", "url")
	annotateCmd.MarkFlagsMutuallyExclusive("actions", "actions-file")
	annotateCmd.MarkFlagsOneRequired("actions", "actions-file")

	return annotateCmd
}
