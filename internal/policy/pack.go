package policy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pack is a YAML file of extra risk patterns. Packs can only add patterns to
// the existing risk categories; the compliance table is fixed.
type Pack struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	PackVersion string `yaml:"version"`
	Author      string `yaml:"author"`
	Rules       []Rule `yaml:"rules"`
}

// PackInfo is a summary of a pack for listing.
type PackInfo struct {
	Name        string
	Description string
	Version     string
	Author      string
	Enabled     bool
	Path        string
	RuleCount   int
	Err         error
}

// LoadPacks reads all .yaml/.yml files from packsDir and appends the rules
// of every enabled, valid pack after the base rules. Files whose base name
// starts with an underscore are disabled. A pack that fails to parse or
// validate is skipped; its error is reported in its PackInfo and in the
// joined error returned alongside the merged policy.
func LoadPacks(packsDir string, base *Policy) (*Policy, []PackInfo, error) {
	var infos []PackInfo

	entries, err := os.ReadDir(packsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil, nil
		}
		return base, nil, err
	}

	result := clonePolicy(base)
	var errs []error

	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}

		path := filepath.Join(packsDir, entry.Name())
		baseName := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		enabled := !strings.HasPrefix(baseName, "_")

		pack, err := loadPack(path)
		if err != nil {
			infos = append(infos, PackInfo{
				Name:    baseName,
				Enabled: enabled,
				Path:    path,
				Err:     err,
			})
			if enabled {
				errs = append(errs, err)
			}
			continue
		}

		info := PackInfo{
			Name:        pack.Name,
			Description: pack.Description,
			Version:     pack.PackVersion,
			Author:      pack.Author,
			Enabled:     enabled,
			Path:        path,
			RuleCount:   len(pack.Rules),
		}
		if info.Name == "" {
			info.Name = baseName
		}
		infos = append(infos, info)

		if enabled {
			result.Risk = append(result.Risk, pack.Rules...)
		}
	}

	return result, infos, errors.Join(errs...)
}

func loadPack(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("failed to parse pack %s: %w", path, err)
	}

	for i := range pack.Rules {
		cat, ok := ParseRiskCategory(string(pack.Rules[i].Category))
		if !ok {
			return nil, fmt.Errorf("pack %s: rule %d: unknown category %q", path, i, pack.Rules[i].Category)
		}
		pack.Rules[i].Category = cat
		if _, err := compileRule(pack.Rules[i].Regex); err != nil {
			return nil, fmt.Errorf("pack %s: rule %d: %w", path, i, err)
		}
	}

	return &pack, nil
}

func clonePolicy(p *Policy) *Policy {
	clone := &Policy{
		Risk:       make([]Rule, len(p.Risk)),
		Compliance: make([]ComplianceRule, len(p.Compliance)),
	}
	copy(clone.Risk, p.Risk)
	copy(clone.Compliance, p.Compliance)
	return clone
}

func isYAMLFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
