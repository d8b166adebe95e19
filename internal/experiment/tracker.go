// Package experiment records reproducibility metadata for file edits made
// by an agent: git state, content hashes and a guess at whether the edit
// belongs to an ML training session.
package experiment

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tidwall/pretty"
)

const gpuProbePath = "/usr/bin/nvidia-smi"

type Environment struct {
	PythonVersion *string `json:"python_version"`
	GoVersion     string  `json:"go_version"`
	GPUAvailable  bool    `json:"gpu_available"`
	CondaEnv      *string `json:"conda_env"`
	VirtualEnv    *string `json:"virtual_env"`
}

// Record is written once per tracked edit.
type Record struct {
	ID            string             `json:"id"`
	Timestamp     string             `json:"timestamp"`
	SessionID     string             `json:"session_id"`
	GitInfo       *GitInfo           `json:"git_info"`
	ModifiedFiles []string           `json:"modified_files"`
	MLFiles       []string           `json:"ml_files"`
	Environment   Environment        `json:"environment"`
	FileHashes    map[string]*string `json:"file_hashes"`
	ConfigFiles   []string           `json:"config_files,omitempty"`
	ConfigHashes  map[string]*string `json:"config_hashes,omitempty"`
	IsMLSession   bool               `json:"is_ml_session"`
}

// Summary is printed to the host tool after tracking.
type Summary struct {
	ExperimentTracked bool    `json:"experiment_tracked"`
	MLSessionDetected bool    `json:"ml_session_detected"`
	FilesTracked      int     `json:"files_tracked"`
	MLFilesCount      int     `json:"ml_files_count"`
	GitCommit         *string `json:"git_commit"`
}

// Tracker writes experiment records under Dir.
type Tracker struct {
	Dir     string
	WorkDir string
	Runner  CommandRunner
	Getenv  func(string) (string, bool)
	Now     func() time.Time
	Log     zerolog.Logger
}

// NewTracker returns a tracker using the real environment.
func NewTracker(dir, workDir string, logger zerolog.Logger) *Tracker {
	return &Tracker{
		Dir:     dir,
		WorkDir: workDir,
		Runner:  ExecRunner{},
		Getenv:  os.LookupEnv,
		Now:     time.Now,
		Log:     logger,
	}
}

// Track builds a record for in, writes it and returns it with its path.
func (t *Tracker) Track(ctx context.Context, in Input) (*Record, string, error) {
	if err := os.MkdirAll(t.Dir, 0755); err != nil {
		return nil, "", fmt.Errorf("create experiments dir: %w", err)
	}

	now := t.Now()
	files := in.Files
	if files == nil {
		files = []string{}
	}
	resolved := make([]string, len(files))
	for i, f := range files {
		resolved[i] = t.resolve(f)
	}

	rec := &Record{
		ID:            uuid.NewString(),
		Timestamp:     now.Format(time.RFC3339Nano),
		SessionID:     t.sessionID(in),
		GitInfo:       CollectGitInfo(ctx, t.Runner, t.WorkDir),
		ModifiedFiles: files,
		MLFiles:       DetectMLFiles(files),
		Environment:   t.environment(ctx),
		FileHashes:    map[string]*string{},
		IsMLSession:   IsMLSession(resolved),
	}

	for i, f := range files {
		if _, err := os.Stat(resolved[i]); err == nil {
			rec.FileHashes[f] = hashOrNil(resolved[i])
		}
	}

	if configs := FindConfigFiles(t.WorkDir); len(configs) > 0 {
		rec.ConfigFiles = configs
		rec.ConfigHashes = make(map[string]*string, len(configs))
		for _, c := range configs {
			rec.ConfigHashes[c] = hashOrNil(t.resolve(c))
		}
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, "", err
	}
	// The id suffix keeps two edits within the same second apart.
	name := fmt.Sprintf("experiment_%s_%s.json", now.Format("20060102_150405"), rec.ID[:8])
	path := filepath.Join(t.Dir, name)
	if err := os.WriteFile(path, pretty.Pretty(data), 0644); err != nil {
		return nil, "", fmt.Errorf("write experiment record: %w", err)
	}

	t.Log.Debug().Str("path", path).Str("id", rec.ID).Int("files", len(files)).Msg("experiment recorded")
	return rec, path, nil
}

// Summarize condenses a record for the hook response.
func Summarize(rec *Record) Summary {
	s := Summary{
		ExperimentTracked: true,
		MLSessionDetected: rec.IsMLSession,
		FilesTracked:      len(rec.ModifiedFiles),
		MLFilesCount:      len(rec.MLFiles),
	}
	if rec.GitInfo != nil {
		commit := rec.GitInfo.Commit
		if len(commit) > 8 {
			commit = commit[:8]
		}
		s.GitCommit = &commit
	}
	return s
}

func (t *Tracker) resolve(path string) string {
	if filepath.IsAbs(path) || t.WorkDir == "" {
		return path
	}
	return filepath.Join(t.WorkDir, path)
}

func (t *Tracker) sessionID(in Input) string {
	if id, ok := t.Getenv("CLAUDE_SESSION_ID"); ok && id != "" {
		return id
	}
	if in.SessionID != "" {
		return in.SessionID
	}
	return "unknown"
}

func (t *Tracker) environment(ctx context.Context) Environment {
	env := Environment{
		PythonVersion: t.pythonVersion(ctx),
		GoVersion:     runtime.Version(),
		CondaEnv:      t.lookup("CONDA_DEFAULT_ENV"),
		VirtualEnv:    t.lookup("VIRTUAL_ENV"),
	}
	if _, err := os.Stat(gpuProbePath); err == nil {
		env.GPUAvailable = true
	}
	return env
}

func (t *Tracker) lookup(key string) *string {
	if v, ok := t.Getenv(key); ok {
		return &v
	}
	return nil
}

// pythonVersion asks python, then python3. It is nil when neither runs.
func (t *Tracker) pythonVersion(ctx context.Context) *string {
	for _, name := range []string{"python", "python3"} {
		out, err := t.Runner.Run(ctx, t.WorkDir, name, "--version")
		if err != nil {
			continue
		}
		if v := strings.TrimSpace(out); v != "" {
			return &v
		}
	}
	return nil
}
