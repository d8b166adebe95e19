package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/gzhole/promptshield/internal/audit"
	"github.com/gzhole/promptshield/internal/config"
	"github.com/gzhole/promptshield/internal/logging"
	"github.com/gzhole/promptshield/internal/policy"
	"github.com/rs/zerolog"
)

// runtimeEnv is the per-process wiring shared by the commands: config,
// diagnostic logger and the resources that must be closed before exit.
type runtimeEnv struct {
	cfg     *config.Config
	log     zerolog.Logger
	closers []io.Closer
}

func loadRuntime() (*runtimeEnv, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	return newRuntime(cfg), nil
}

// defaultRuntime wires the built-in configuration. Hooks use it when the
// configured one cannot be loaded.
func defaultRuntime() *runtimeEnv {
	return newRuntime(config.Default())
}

func newRuntime(cfg *config.Config) *runtimeEnv {
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, closer, logErr := logging.New(level, os.Stderr, cfg.FilterLogPath())

	rt := &runtimeEnv{cfg: cfg, log: logger, closers: []io.Closer{closer}}
	if logErr != nil {
		logger.Warn().Err(logErr).Msg("diagnostic log file unavailable, logging to stderr only")
	}
	return rt
}

// engine compiles the built-in tables plus any enabled packs. Broken packs
// are skipped with a warning; the built-in tables are always available.
func (rt *runtimeEnv) engine() *policy.Engine {
	pol, _, err := policy.LoadPacks(rt.cfg.Packs.Dir, policy.DefaultPolicy())
	if err != nil {
		rt.log.Warn().Err(err).Str("dir", rt.cfg.Packs.Dir).Msg("pattern packs skipped")
	}

	engine, err := policy.NewEngine(pol)
	if err != nil {
		rt.log.Warn().Err(err).Msg("pack rules rejected, using built-in patterns only")
		return policy.MustDefaultEngine()
	}
	return engine
}

// auditSink opens the configured sinks. Sinks that cannot be opened are
// reported and left out; nil means nothing will be audited.
func (rt *runtimeEnv) auditSink(ctx context.Context) audit.Sink {
	var sinks []audit.Sink

	file, err := audit.NewFileSink(rt.cfg.AuditPath(), rt.cfg.Audit.MaxBytes)
	if err != nil {
		rt.log.Error().Err(err).Str("path", rt.cfg.AuditPath()).Msg("audit log unavailable")
	} else {
		sinks = append(sinks, file)
	}

	if r := rt.cfg.Audit.Redis; r.Addr != "" {
		redisSink, err := audit.DialRedis(ctx, audit.RedisOptions{
			Addr:     r.Addr,
			Password: r.Password,
			DB:       r.DB,
			Stream:   r.Stream,
			MaxLen:   r.MaxLen,
			Timeout:  r.Timeout,
		})
		if err != nil {
			rt.log.Error().Err(err).Msg("redis audit stream unavailable")
		} else {
			sinks = append(sinks, redisSink)
		}
	}

	var sink audit.Sink
	switch len(sinks) {
	case 0:
		return nil
	case 1:
		sink = sinks[0]
	default:
		sink = audit.NewMultiSink(sinks...)
	}
	rt.closers = append(rt.closers, sink)
	return sink
}

// close releases resources in reverse order of acquisition.
func (rt *runtimeEnv) close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].Close(); err != nil {
			fmt.Fprintf(os.Stderr, "[PromptShield] warning: close failed: %v\n", err)
		}
	}
	rt.closers = nil
}

func writeJSON(w io.Writer, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[PromptShield] warning: encode response: %v\n", err)
		return
	}
	fmt.Fprintln(w, string(data))
}
