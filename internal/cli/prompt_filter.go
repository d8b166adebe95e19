package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gzhole/promptshield/internal/hook"
	"github.com/spf13/cobra"
)

var promptFilterCmd = &cobra.Command{
	Use:   "prompt-filter",
	Short: "UserPromptSubmit hook: screen a prompt and allow or block it",
	Long: `Reads a hook JSON payload ({"prompt": "..."}) from stdin, classifies the
prompt against the risk and compliance patterns, appends one record to the
audit log, and answers the host tool:

  risk detected      JSON {"error", "blocked": true, "risks"} on stdout, exit 2
  compliance topic   JSON {"warning", "compliance_note"} on stdout, exit 0
  nothing detected   no output, exit 0

Any internal error fails open: a diagnostic is printed and the exit status
is 0.

Setup:
  promptshield setup claude-code`,
	RunE: promptFilterCommand,
}

func init() {
	rootCmd.AddCommand(promptFilterCmd)
}

func promptFilterCommand(cmd *cobra.Command, args []string) error {
	if code := runPromptFilter(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout()); code != hook.ExitAllow {
		os.Exit(code)
	}
	return nil
}

// runPromptFilter handles one invocation and returns the exit status. Every
// invocation that is not bypassed leaves exactly one audit record, including
// the ones that fail open before a prompt could be read.
func runPromptFilter(ctx context.Context, stdin io.Reader, stdout io.Writer) int {
	data, readErr := io.ReadAll(stdin)

	rt, cfgErr := loadRuntime()
	if cfgErr != nil {
		rt = defaultRuntime()
	}
	// Resources are released before the caller may call os.Exit.
	defer rt.close()

	if cfgErr == nil && rt.cfg.Bypass {
		rt.log.Debug().Msg("bypass enabled, prompt not classified")
		return hook.ExitAllow
	}

	filter := hook.NewFilter(rt.engine(), rt.auditSink(ctx), rt.log)

	var out hook.Outcome
	switch {
	case cfgErr != nil:
		out = filter.FailOpen(ctx, cfgErr)
	case readErr != nil:
		out = filter.FailOpen(ctx, fmt.Errorf("failed to read stdin: %w", readErr))
	default:
		out = filter.Run(ctx, data)
	}

	if out.Response != nil {
		writeJSON(stdout, out.Response)
	}
	return out.ExitCode
}
