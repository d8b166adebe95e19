package experiment

import (
	"context"
	"os/exec"
	"strings"

	"github.com/gzhole/promptshield/internal/redact"
)

// GitInfo is the repository state at the time of an edit.
type GitInfo struct {
	Commit                string `json:"commit"`
	Branch                string `json:"branch"`
	HasUncommittedChanges bool   `json:"has_uncommitted_changes"`
	Status                string `json:"status"`
}

// CommandRunner runs an external command in dir and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	return string(out), err
}

// CollectGitInfo returns nil when dir is not inside a git work tree or git
// is unavailable.
func CollectGitInfo(ctx context.Context, runner CommandRunner, dir string) *GitInfo {
	commit, err := runner.Run(ctx, dir, "git", "rev-parse", "HEAD")
	if err != nil {
		return nil
	}
	branch, err := runner.Run(ctx, dir, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return nil
	}
	status, err := runner.Run(ctx, dir, "git", "status", "--porcelain")
	if err != nil {
		return nil
	}

	status = strings.TrimSpace(status)
	return &GitInfo{
		Commit:                strings.TrimSpace(commit),
		Branch:                strings.TrimSpace(branch),
		HasUncommittedChanges: status != "",
		Status:                redact.Redact(status),
	}
}
