package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/reflect-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "reflect-cli",
	Short: "Qualitative analysis pipeline for student reflections",
	Long:  "Extracts keywords, sentiment, and analytic memos from student reflections and clusters them into themes via two-pass LLM analysis, with a full audit trail.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
