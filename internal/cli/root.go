package cli

import (
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "promptshield",
	Short: "PromptShield - prompt risk filter and experiment tracker hooks for AI coding agents",
	Long: `PromptShield is invoked by an AI developer tool as a hook. It screens
submitted prompts against fixed risk patterns (credentials, scanning, SQL and
shell injection, destructive operations, sensitive information requests),
keeps an append-only audit log, and records reproducibility metadata for
file edits made during ML experiments.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config YAML (default: ./.claude/promptshield.yaml or ~/.promptshield/promptshield.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Diagnostic log level: debug, info, warn, error (overrides config)")
}

func Execute() error {
	return rootCmd.Execute()
}
