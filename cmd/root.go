// File: cmd/root.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reticle/internal/config"
	"github.com/xkilldash9x/reticle/internal/observability"
)

// appState carries what subcommands need after the root PersistentPreRunE:
// the viper instance (subcommands bind flags into it and re-unmarshal so
// flag overrides win) and the logger.
type appState struct {
	cfgFile string
	v       *viper.Viper
	logger  *zap.Logger
}

// resolveConfig unmarshals the current viper state into a validated Config.
// Call it from RunE, after the subcommand's flag bindings have been applied.
func (a *appState) resolveConfig() (*config.Config, error) {
	return config.NewConfigFromViper(a.v)
}

// initialize loads configuration and sets up the global logger. It runs
// before every subcommand.
func (a *appState) initialize(_ *cobra.Command, _ []string) error {
	v := viper.New()
	config.SetDefaults(v)

	if a.cfgFile != "" {
		v.SetConfigFile(a.cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName("reticle")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("RETICLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file found; defaults and environment apply.
	}
	a.v = v

	cfg, err := config.NewConfigFromViper(v)
	if err != nil {
		// Fall back to a console logger so the failure itself gets logged.
		observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "reticle"})
		return err
	}

	observability.InitializeLogger(cfg.Logger())
	a.logger = observability.GetLogger()
	a.logger.Debug("Starting reticle", zap.String("version", Version))
	return nil
}

// NewRootCommand assembles the CLI. Each call builds a fresh command tree
// so flag state never leaks between runs.
func NewRootCommand() *cobra.Command {
	app := &appState{}

	rootCmd := &cobra.Command{
		Use:   "reticle",
		Short: "Reticle annotates GUI-agent actions and judges them with multimodal LLMs.",
		Long: `Reticle is a reward-pipeline toolkit for GUI agents: it renders pyautogui
action traces onto screenshots, scores low- and high-level actions with a
multimodal LLM judge, and streams the results to tracking sinks (CSV,
dashboard, Postgres, ClickHouse).`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.initialize,
	}

	rootCmd.PersistentFlags().StringVarP(&app.cfgFile, "config", "c", "",
		"config file (default ./reticle.yaml, then $HOME/reticle.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(
		newAnnotateCmd(app),
		newJudgeCmd(app),
		newTrackCmd(app),
		newReportCmd(app),
	)
	return rootCmd
}

// Execute runs the CLI under the signal-aware context from main.
func Execute(ctx context.Context) error {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("Command execution failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return err
	}
	return nil
}
