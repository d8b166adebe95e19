package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gzhole/promptshield/internal/config"
	"github.com/gzhole/promptshield/internal/policy"
	"github.com/spf13/cobra"
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Manage pattern packs",
	Long: `Manage PromptShield pattern packs.

A pack is a YAML file of extra risk patterns, each tagged with one of the
built-in risk categories. Packs live in the packs directory (packs.dir,
default ~/.promptshield/packs) and are appended to the built-in patterns at
start-up. A file whose name starts with an underscore is disabled.

  name: internal-hosts
  description: Block prompts that mention internal infrastructure
  version: "1.0"
  rules:
    - category: NETWORK_SCANNING
      regex: 'masscan|zmap'

Examples:
  promptshield pack list
  promptshield pack enable internal-hosts
  promptshield pack disable internal-hosts
  promptshield pack show internal-hosts`,
}

var packListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed pattern packs",
	RunE:  packList,
}

var packEnableCmd = &cobra.Command{
	Use:   "enable <pack-name>",
	Short: "Enable a disabled pattern pack",
	Args:  cobra.ExactArgs(1),
	RunE:  packEnable,
}

var packDisableCmd = &cobra.Command{
	Use:   "disable <pack-name>",
	Short: "Disable a pattern pack (prefix with underscore)",
	Args:  cobra.ExactArgs(1),
	RunE:  packDisable,
}

var packShowCmd = &cobra.Command{
	Use:   "show <pack-name>",
	Short: "Show the contents of a pattern pack",
	Args:  cobra.ExactArgs(1),
	RunE:  packShow,
}

func init() {
	packCmd.AddCommand(packListCmd)
	packCmd.AddCommand(packEnableCmd)
	packCmd.AddCommand(packDisableCmd)
	packCmd.AddCommand(packShowCmd)
	rootCmd.AddCommand(packCmd)
}

func packsDir() (string, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(cfg.Packs.Dir, 0700); err != nil {
		return "", err
	}
	return cfg.Packs.Dir, nil
}

func packList(cmd *cobra.Command, args []string) error {
	dir, err := packsDir()
	if err != nil {
		return err
	}
	return listPacks(cmd.OutOrStdout(), dir)
}

func listPacks(out io.Writer, dir string) error {
	// Broken packs are reported per line below, not as a command failure.
	_, infos, err := policy.LoadPacks(dir, policy.DefaultPolicy())
	if err != nil && len(infos) == 0 {
		return fmt.Errorf("failed to load packs: %w", err)
	}

	if len(infos) == 0 {
		fmt.Fprintln(out, "No pattern packs installed.")
		fmt.Fprintf(out, "\nTo install packs, copy YAML files to: %s\n", dir)
		return nil
	}

	fmt.Fprintln(out, "Installed Pattern Packs:")
	fmt.Fprintln(out, strings.Repeat("─", 60))
	for _, info := range infos {
		status := "\xe2\x9c\x85" // check mark
		if !info.Enabled {
			status = "\xe2\x9d\x8c" // cross mark
		}
		fmt.Fprintf(out, "  %s  %-25s %s\n", status, info.Name, info.Description)
		if info.Err != nil {
			fmt.Fprintf(out, "       invalid, skipped: %v\n", info.Err)
			continue
		}
		if info.Version != "" {
			fmt.Fprintf(out, "       v%s by %s  (%d rules)\n", info.Version, info.Author, info.RuleCount)
		} else {
			fmt.Fprintf(out, "       %d rules\n", info.RuleCount)
		}
	}
	fmt.Fprintln(out, strings.Repeat("─", 60))
	fmt.Fprintf(out, "\nPacks directory: %s\n", dir)
	return nil
}

func packEnable(cmd *cobra.Command, args []string) error {
	dir, err := packsDir()
	if err != nil {
		return err
	}
	return setPackEnabled(cmd.OutOrStdout(), dir, args[0], true)
}

func packDisable(cmd *cobra.Command, args []string) error {
	dir, err := packsDir()
	if err != nil {
		return err
	}
	return setPackEnabled(cmd.OutOrStdout(), dir, args[0], false)
}

// packExts are the extensions LoadPacks accepts, in lookup order.
var packExts = []string{".yaml", ".yml"}

// findPack locates name in dir under either extension, enabled or
// disabled.
func findPack(dir, name string) (path string, enabled bool, err error) {
	for _, ext := range packExts {
		if p := filepath.Join(dir, name+ext); fileExists(p) {
			return p, true, nil
		}
		if p := filepath.Join(dir, "_"+name+ext); fileExists(p) {
			return p, false, nil
		}
	}
	return "", false, fmt.Errorf("pack '%s' not found in %s", name, dir)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// setPackEnabled renames a pack between name.ext and _name.ext, keeping its
// extension.
func setPackEnabled(out io.Writer, dir, name string, enable bool) error {
	path, enabled, err := findPack(dir, name)
	if err != nil {
		return err
	}

	state := "enabled"
	if !enable {
		state = "disabled"
	}
	if enabled == enable {
		fmt.Fprintf(out, "Pack '%s' is already %s.\n", name, state)
		return nil
	}

	target := filepath.Join(dir, name+filepath.Ext(path))
	icon := "\xe2\x9c\x85"
	if !enable {
		target = filepath.Join(dir, "_"+name+filepath.Ext(path))
		icon = "\xe2\x9d\x8c"
	}
	if err := os.Rename(path, target); err != nil {
		return fmt.Errorf("failed to rename pack: %w", err)
	}
	fmt.Fprintf(out, "%s Pack '%s' %s.\n", icon, name, state)
	return nil
}

func packShow(cmd *cobra.Command, args []string) error {
	dir, err := packsDir()
	if err != nil {
		return err
	}
	return showPack(cmd.OutOrStdout(), dir, args[0])
}

func showPack(out io.Writer, dir, name string) error {
	path, _, err := findPack(dir, name)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, string(data))
	return nil
}
