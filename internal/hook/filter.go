package hook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gzhole/promptshield/internal/audit"
	"github.com/gzhole/promptshield/internal/policy"
	"github.com/gzhole/promptshield/internal/redact"
	"github.com/gzhole/promptshield/internal/unicode"
	"github.com/rs/zerolog"
)

// Outcome is everything the caller needs to answer the host tool.
type Outcome struct {
	Result   policy.Result
	Response interface{} // nil when nothing should be printed
	ExitCode int
	// Err is set when the filter failed open.
	Err error
}

// Filter runs the detect, log, decide pipeline for one prompt at a time.
// It is safe for concurrent use when its sink is.
type Filter struct {
	engine *policy.Engine
	sink   audit.Sink
	log    zerolog.Logger
	now    func() time.Time
}

// NewFilter builds a filter. sink may be nil, in which case nothing is
// audited.
func NewFilter(engine *policy.Engine, sink audit.Sink, logger zerolog.Logger) *Filter {
	return &Filter{
		engine: engine,
		sink:   sink,
		log:    logger,
		now:    time.Now,
	}
}

// Run handles a raw hook payload. It never fails: any internal fault,
// including a panic, degrades to an allow outcome carrying the error.
func (f *Filter) Run(ctx context.Context, payload []byte) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = f.FailOpen(ctx, fmt.Errorf("internal error: %v", r))
		}
	}()

	in, err := ParsePromptInput(payload)
	if err != nil {
		return f.FailOpen(ctx, err)
	}
	return f.Evaluate(ctx, in.Prompt)
}

// Evaluate classifies prompt, records it and builds the response.
func (f *Filter) Evaluate(ctx context.Context, prompt string) Outcome {
	result := f.engine.Classify(prompt)

	for _, risk := range result.Risks {
		if risk == policy.RiskSensitiveInfoRequest {
			f.log.Warn().Str("risk", string(risk)).Msg("Sensitive information request detected")
			continue
		}
		ev := f.log.Warn().Str("risk", string(risk))
		if risk == policy.RiskCredentialExposure {
			ev = ev.Strs("secret_kinds", redact.Matches(prompt))
		}
		ev.Msg("Security risk detected")
	}
	if hidden := unicode.Scan(prompt); len(hidden) > 0 {
		f.log.Warn().Strs("kinds", unicode.Kinds(hidden)).Int("count", len(hidden)).Msg("Prompt contains hidden characters")
	}
	if len(result.Compliance) > 0 {
		f.log.Info().Strs("compliance", result.ComplianceNames()).Msg("Data privacy context detected - ensuring compliance")
	}

	f.record(ctx, audit.NewRecord(f.now(), prompt, result))

	out := Outcome{Result: result, ExitCode: ExitAllow}
	switch {
	case result.Blocked():
		out.Response = newBlockResponse(result.RiskNames())
		out.ExitCode = ExitBlock
	case len(result.Compliance) > 0:
		out.Response = newAdvisoryResponse(result.ComplianceNames())
		f.log.Info().Msg("Prompt allowed with compliance advisory")
	default:
		f.log.Info().Msg("Prompt validated - no security risks detected")
	}
	return out
}

// FailOpen allows the prompt and surfaces err. No prompt text was
// classified, so the audit record carries a zero length.
func (f *Filter) FailOpen(ctx context.Context, err error) Outcome {
	msg := redact.Redact(err.Error())
	f.log.Error().Str("error", msg).Bool("malformed_input", errors.Is(err, ErrMalformedInput)).Msg("Security filter error")

	result := policy.Result{
		Risks:      []policy.RiskCategory{},
		Compliance: []policy.ComplianceCategory{},
		Decision:   policy.DecisionAllow,
	}
	f.record(ctx, audit.NewRecord(f.now(), "", result))

	return Outcome{
		Result:   result,
		Response: FailOpenResponse(errors.New(msg)),
		ExitCode: ExitAllow,
		Err:      err,
	}
}

// record is best effort: a sink failure is logged and never changes the
// decision.
func (f *Filter) record(ctx context.Context, rec audit.Record) {
	if f.sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			f.log.Error().Interface("panic", r).Msg("audit log write failed")
		}
	}()
	if err := f.sink.Write(ctx, rec); err != nil {
		f.log.Error().Err(err).Msg("audit log write failed")
	}
}
