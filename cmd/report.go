// File: cmd/report.go
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/reticle/internal/report"
)

// newReportCmd creates and configures the `report` command.
func newReportCmd(app *appState) *cobra.Command {
	var (
		runDir  string
		csvPath string
		outPath string
	)

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Render an HTML summary for a tracking run",
		Long: `Report reads the CSV a tracking run wrote, aggregates sample counts,
score means and distributions, and renders a self-contained HTML page.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.resolveConfig()
			if err != nil {
				return err
			}

			src := csvPath
			if src == "" {
				src = filepath.Join(runDir, cfg.Tracking().CSV.FileName)
			}
			dst := outPath
			if dst == "" {
				dst = filepath.Join(filepath.Dir(src), "report.html")
			}

			if err := report.New(app.logger).Generate(src, dst); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", dst)
			return nil
		},
	}

	reportCmd.Flags().StringVar(&runDir, "run-dir", "", "tracking run directory")
	reportCmd.Flags().StringVar(&csvPath, "csv", "", "tracking CSV path (overrides --run-dir)")
	reportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output HTML path (default: report.html beside the CSV)")

	reportCmd.MarkFlagsMutuallyExclusive("run-dir", "csv")
	reportCmd.MarkFlagsOneRequired("run-dir", "csv")

	return reportCmd
}
