package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Set up PromptShield for your environment",
	Long: `Set up PromptShield hook integration.

  promptshield setup claude-code             # install hooks in ./.claude/settings.json
  promptshield setup claude-code --global    # install hooks in ~/.claude/settings.json
  promptshield setup claude-code --disable   # remove hooks`,
}

var setupClaudeCodeCmd = &cobra.Command{
	Use:   "claude-code",
	Short: "Install the UserPromptSubmit and PostToolUse hooks for Claude Code",
	Long: `Install or remove the PromptShield hooks in a Claude Code settings file:

  UserPromptSubmit                     -> promptshield prompt-filter
  PostToolUse (Write|Edit|MultiEdit)   -> promptshield track

Other hooks in the file are left untouched.`,
	RunE: setupClaudeCodeCommand,
}

var (
	disableFlag bool
	globalFlag  bool
)

func init() {
	setupClaudeCodeCmd.Flags().BoolVar(&disableFlag, "disable", false, "Remove PromptShield hooks")
	setupClaudeCodeCmd.Flags().BoolVar(&globalFlag, "global", false, "Use ~/.claude/settings.json instead of the project settings")
	setupCmd.AddCommand(setupClaudeCodeCmd)
	rootCmd.AddCommand(setupCmd)
}

const (
	promptFilterCommandLine = "promptshield prompt-filter"
	trackCommandLine        = "promptshield track"
	trackMatcher            = "Write|Edit|MultiEdit"
)

// claudeHook pairs a hook event with the entry PromptShield owns under it.
type claudeHook struct {
	event   string
	matcher string
	command string
}

var claudeHooks = []claudeHook{
	{event: "UserPromptSubmit", command: promptFilterCommandLine},
	{event: "PostToolUse", matcher: trackMatcher, command: trackCommandLine},
}

func (h claudeHook) entry() map[string]interface{} {
	entry := map[string]interface{}{
		"hooks": []interface{}{
			map[string]interface{}{
				"type":    "command",
				"command": h.command,
			},
		},
	}
	if h.matcher != "" {
		entry["matcher"] = h.matcher
	}
	return entry
}

func claudeSettingsPath(global bool) (string, error) {
	if !global {
		return filepath.Join(".claude", "settings.json"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".claude", "settings.json"), nil
}

func setupClaudeCodeCommand(cmd *cobra.Command, args []string) error {
	path, err := claudeSettingsPath(globalFlag)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if disableFlag {
		return disableClaudeCodeHooks(out, path)
	}
	return enableClaudeCodeHooks(out, path)
}

func enableClaudeCodeHooks(out io.Writer, path string) error {
	settings, err := readClaudeSettings(path)
	if err != nil {
		return err
	}

	added := installClaudeHooks(settings)
	if added == 0 {
		fmt.Fprintf(out, "✅ PromptShield hooks already configured: %s\n", path)
		return nil
	}

	if err := writeClaudeSettings(path, settings); err != nil {
		return err
	}

	fmt.Fprintf(out, "✅ PromptShield hooks installed: %s\n", path)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "How it works:")
	fmt.Fprintln(out, "  1. Every submitted prompt is piped to `promptshield prompt-filter`")
	fmt.Fprintln(out, "  2. Prompts matching a risk pattern are blocked before the model sees them")
	fmt.Fprintln(out, "  3. File edits are recorded by `promptshield track` for reproducibility")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Test it with: promptshield scan")
	fmt.Fprintln(out, "To disable:  promptshield setup claude-code --disable")
	return nil
}

func disableClaudeCodeHooks(out io.Writer, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(out, "ℹ  No settings file at %s, nothing to disable.\n", path)
		return nil
	}

	settings, err := readClaudeSettings(path)
	if err != nil {
		return err
	}

	if removeClaudeHooks(settings) == 0 {
		fmt.Fprintln(out, "ℹ  PromptShield hooks not found, nothing to disable.")
		return nil
	}

	if err := writeClaudeSettings(path, settings); err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ PromptShield hooks removed: %s\n", path)
	fmt.Fprintln(out, "Re-enable anytime with: promptshield setup claude-code")
	return nil
}

// installClaudeHooks adds every missing PromptShield entry and returns how
// many were added.
func installClaudeHooks(settings map[string]interface{}) int {
	hooks := getOrCreateMap(settings, "hooks")
	added := 0
	for _, h := range claudeHooks {
		entries := getSlice(hooks, h.event)
		if containsHookCommand(entries, h.command) {
			continue
		}
		hooks[h.event] = append(entries, h.entry())
		added++
	}
	return added
}

// removeClaudeHooks deletes every PromptShield entry, dropping events and the
// hooks map when they become empty. It returns how many entries were removed.
func removeClaudeHooks(settings map[string]interface{}) int {
	hooks, ok := settings["hooks"].(map[string]interface{})
	if !ok {
		return 0
	}

	removed := 0
	for _, h := range claudeHooks {
		entries := getSlice(hooks, h.event)
		var kept []interface{}
		for _, entry := range entries {
			if isPromptShieldEntry(entry) {
				removed++
				continue
			}
			kept = append(kept, entry)
		}
		if len(kept) == 0 {
			delete(hooks, h.event)
		} else {
			hooks[h.event] = kept
		}
	}

	if len(hooks) == 0 {
		delete(settings, "hooks")
	}
	return removed
}

func containsHookCommand(entries []interface{}, command string) bool {
	for _, entry := range entries {
		for _, c := range hookCommands(entry) {
			if c == command {
				return true
			}
		}
	}
	return false
}

func isPromptShieldEntry(entry interface{}) bool {
	for _, c := range hookCommands(entry) {
		if strings.HasPrefix(c, "promptshield ") {
			return true
		}
	}
	return false
}

func hookCommands(entry interface{}) []string {
	m, ok := entry.(map[string]interface{})
	if !ok {
		return nil
	}
	var commands []string
	subHooks, _ := m["hooks"].([]interface{})
	for _, h := range subHooks {
		if hm, ok := h.(map[string]interface{}); ok {
			if c, ok := hm["command"].(string); ok {
				commands = append(commands, c)
			}
		}
	}
	return commands
}

func readClaudeSettings(path string) (map[string]interface{}, error) {
	settings := make(map[string]interface{})
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &settings); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	// A literal null decodes to a nil map.
	if settings == nil {
		settings = make(map[string]interface{})
	}
	if err := checkHooksShape(settings); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return settings, nil
}

// checkHooksShape rejects settings whose hooks section we would otherwise
// overwrite: hooks must be an object and the events we manage arrays.
func checkHooksShape(settings map[string]interface{}) error {
	raw, ok := settings["hooks"]
	if !ok || raw == nil {
		return nil
	}
	hooks, ok := raw.(map[string]interface{})
	if !ok {
		return fmt.Errorf("\"hooks\" is not an object")
	}
	for _, h := range claudeHooks {
		entries, ok := hooks[h.event]
		if !ok || entries == nil {
			continue
		}
		if _, ok := entries.([]interface{}); !ok {
			return fmt.Errorf("\"hooks.%s\" is not an array", h.event)
		}
	}
	return nil
}

func writeClaudeSettings(path string, settings map[string]interface{}) error {
	out, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, append(out, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func getOrCreateMap(parent map[string]interface{}, key string) map[string]interface{} {
	if v, ok := parent[key].(map[string]interface{}); ok {
		return v
	}
	m := make(map[string]interface{})
	parent[key] = m
	return m
}

func getSlice(parent map[string]interface{}, key string) []interface{} {
	if v, ok := parent[key].([]interface{}); ok {
		return v
	}
	return nil
}
