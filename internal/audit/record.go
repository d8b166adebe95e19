// Package audit writes one append-only record per classified prompt.
package audit

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/gzhole/promptshield/internal/policy"
)

// Record is a single audit log line. The prompt text itself is never
// recorded, only its length in characters.
type Record struct {
	Timestamp            string   `json:"timestamp"`
	PromptLength         int      `json:"prompt_length"`
	DetectedRisks        []string `json:"detected_risks"`
	ComplianceViolations []string `json:"compliance_violations"`
	Action               string   `json:"action"`
}

// NewRecord builds the audit record for one classification.
func NewRecord(now time.Time, prompt string, result policy.Result) Record {
	return Record{
		Timestamp:            now.Format(time.RFC3339Nano),
		PromptLength:         utf8.RuneCountInString(prompt),
		DetectedRisks:        result.RiskNames(),
		ComplianceViolations: result.ComplianceNames(),
		Action:               result.Decision.Action(),
	}
}

// Sink receives audit records. Implementations must be safe for concurrent
// use and must never reorder or rewrite records already written.
type Sink interface {
	Write(ctx context.Context, rec Record) error
	Close() error
}
