package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/gzhole/promptshield/internal/experiment"
	"github.com/spf13/cobra"
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "PostToolUse hook: record experiment metadata for file edits",
	Long: `Reads a PostToolUse hook payload from stdin and writes one experiment
record (git state, file hashes, environment, ML heuristics) to the
experiments directory. Always exits 0; errors are reported on stdout.

Setup:
  promptshield setup claude-code`,
	RunE: trackCommand,
}

func init() {
	rootCmd.AddCommand(trackCmd)
}

func trackCommand(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fail := func(err error) error {
		fmt.Fprintf(out, "❌ Experiment tracking error: %v\n", err)
		return nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fail(err)
	}

	rt, err := loadRuntime()
	if err != nil {
		return fail(err)
	}
	defer rt.close()

	if rt.cfg.Bypass {
		return nil
	}

	in, err := experiment.ParseInput(data)
	if err != nil {
		return fail(err)
	}

	wd, err := os.Getwd()
	if err != nil {
		return fail(err)
	}

	tracker := experiment.NewTracker(rt.cfg.Experiments.Dir, wd, rt.log)
	rec, path, err := tracker.Track(cmd.Context(), in)
	if err != nil {
		return fail(err)
	}

	writeTrackReport(out, rec, path, os.Getenv)
	return nil
}

// writeTrackReport prints the human notices followed by the summary JSON.
func writeTrackReport(out io.Writer, rec *experiment.Record, path string, getenv func(string) string) {
	if rec.IsMLSession {
		if project := getenv("WANDB_PROJECT"); project != "" {
			fmt.Fprintf(out, "📊 Experiment metadata ready for W&B project %s: %s\n", project, path)
		}
		if uri := getenv("MLFLOW_TRACKING_URI"); uri != "" {
			fmt.Fprintf(out, "📈 Experiment metadata ready for MLflow at %s: %s\n", uri, path)
		}
		fmt.Fprintln(out, "🧪 ML experiment session detected - metadata tracked")
	}
	if rec.GitInfo != nil && rec.GitInfo.HasUncommittedChanges {
		fmt.Fprintln(out, "⚠️  Uncommitted changes detected - consider committing for reproducibility")
	}
	writeJSON(out, experiment.Summarize(rec))
}
