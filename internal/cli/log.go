package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gzhole/promptshield/internal/audit"
	"github.com/gzhole/promptshield/internal/config"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
	"golang.org/x/term"
)

var (
	logFilterAction string
	logFilterRisk   string
	logLast         int
	logSummary      bool
	logJSON         bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View and filter the audit log",
	Long: `View the PromptShield audit log with filtering and summary options.

Examples:
  promptshield log                           # Show all entries
  promptshield log --last 20                 # Show last 20 entries
  promptshield log --action BLOCKED          # Show only blocked prompts
  promptshield log --risk SQL_INJECTION      # Show entries with a given risk
  promptshield log --summary                 # Show summary stats
  promptshield log --json                    # Raw records`,
	RunE: logCommand,
}

func init() {
	logCmd.Flags().StringVar(&logFilterAction, "action", "", "Filter by action (ALLOWED, BLOCKED)")
	logCmd.Flags().StringVar(&logFilterRisk, "risk", "", "Filter by detected risk category")
	logCmd.Flags().IntVar(&logLast, "last", 0, "Show last N entries")
	logCmd.Flags().BoolVar(&logSummary, "summary", false, "Show summary statistics")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "Print records as JSON")
	rootCmd.AddCommand(logCmd)
}

func logCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	records, err := audit.ReadRecords(cfg.AuditPath())
	if err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No audit log entries found.")
		return nil
	}

	filtered := filterRecords(records, logFilterAction, logFilterRisk)
	if logLast > 0 && logLast < len(filtered) {
		filtered = filtered[len(filtered)-logLast:]
	}

	tty := isTerminal(out)
	switch {
	case logSummary:
		printSummary(out, records)
	case logJSON:
		printRecordsJSON(out, filtered, tty)
	default:
		printRecords(out, filtered, tty)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func filterRecords(records []audit.Record, action, risk string) []audit.Record {
	if action == "" && risk == "" {
		return records
	}

	var filtered []audit.Record
	for _, r := range records {
		if action != "" && !strings.EqualFold(r.Action, action) {
			continue
		}
		if risk != "" && !containsFold(r.DetectedRisks, risk) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func printRecords(w io.Writer, records []audit.Record, icons bool) {
	for _, r := range records {
		marker := r.Action
		if icons {
			marker = actionIcon(r.Action)
		}
		fmt.Fprintf(w, "%s %s  %d chars\n", marker, formatTimestamp(r.Timestamp), r.PromptLength)
		if len(r.DetectedRisks) > 0 {
			fmt.Fprintf(w, "     Risks: %s\n", strings.Join(r.DetectedRisks, ", "))
		}
		if len(r.ComplianceViolations) > 0 {
			fmt.Fprintf(w, "     Compliance: %s\n", strings.Join(r.ComplianceViolations, ", "))
		}
	}
}

func printRecordsJSON(w io.Writer, records []audit.Record, color bool) {
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			continue
		}
		if color {
			data = pretty.Color(pretty.Pretty(data), nil)
		}
		fmt.Fprintln(w, strings.TrimRight(string(data), "\n"))
	}
}

func printSummary(w io.Writer, records []audit.Record) {
	actions := map[string]int{}
	risks := map[string]int{}
	compliance := 0
	for _, r := range records {
		actions[r.Action]++
		for _, risk := range r.DetectedRisks {
			risks[risk]++
		}
		if len(r.ComplianceViolations) > 0 {
			compliance++
		}
	}

	fmt.Fprintln(w, "═══════════════════════════════════════════")
	fmt.Fprintln(w, "  PromptShield Audit Summary")
	fmt.Fprintln(w, "═══════════════════════════════════════════")
	fmt.Fprintf(w, "  Total prompts:   %d\n", len(records))
	fmt.Fprintf(w, "  ALLOWED:         %d\n", actions["ALLOWED"])
	fmt.Fprintf(w, "  BLOCKED:         %d\n", actions["BLOCKED"])
	fmt.Fprintf(w, "  Compliance hits: %d\n", compliance)
	fmt.Fprintln(w, "═══════════════════════════════════════════")
	fmt.Fprintf(w, "  First entry:     %s\n", formatTimestamp(records[0].Timestamp))
	fmt.Fprintf(w, "  Last entry:      %s\n", formatTimestamp(records[len(records)-1].Timestamp))

	if len(risks) > 0 {
		names := make([]string, 0, len(risks))
		for name := range risks {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			if risks[names[i]] != risks[names[j]] {
				return risks[names[i]] > risks[names[j]]
			}
			return names[i] < names[j]
		})

		fmt.Fprintln(w)
		fmt.Fprintln(w, "  Risks detected:")
		for _, name := range names {
			fmt.Fprintf(w, "    %-24s %d\n", name, risks[name])
		}
	}
	fmt.Fprintln(w)
}

func actionIcon(action string) string {
	switch action {
	case "BLOCKED":
		return "\xf0\x9f\x9b\x91" // stop sign
	case "ALLOWED":
		return "\xe2\x9c\x85" // check mark
	default:
		return "\xe2\x9d\x93"
	}
}

func formatTimestamp(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
