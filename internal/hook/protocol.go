// Package hook implements the prompt-submission hook contract: parse the
// payload, classify, audit, and answer with a response body and an exit
// status.
package hook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Exit statuses understood by the host tool. Anything other than ExitBlock
// lets the prompt through.
const (
	ExitAllow = 0
	ExitBlock = 2
)

const complianceNote = "Ensure all responses comply with relevant regulations"

// ErrMalformedInput wraps every payload parse failure.
var ErrMalformedInput = errors.New("malformed hook input")

// PromptInput is the UserPromptSubmit payload. Only Prompt is required by the
// classifier; a missing prompt is treated as empty, a null or non-string one
// as malformed.
type PromptInput struct {
	SessionID      string `json:"session_id,omitempty"`
	TranscriptPath string `json:"transcript_path,omitempty"`
	Cwd            string `json:"cwd,omitempty"`
	HookEventName  string `json:"hook_event_name,omitempty"`
	Prompt         string `json:"prompt"`
}

// BlockResponse is printed when the prompt is blocked.
type BlockResponse struct {
	Error   string   `json:"error"`
	Blocked bool     `json:"blocked"`
	Risks   []string `json:"risks"`
}

// AdvisoryResponse is printed when the prompt is allowed but touched a
// compliance topic.
type AdvisoryResponse struct {
	Warning        string `json:"warning"`
	ComplianceNote string `json:"compliance_note"`
}

// ErrorResponse is printed on the fail-open path.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ParsePromptInput decodes a payload. The payload must be a JSON object.
func ParsePromptInput(data []byte) (PromptInput, error) {
	var in PromptInput

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return in, fmt.Errorf("%w: empty payload", ErrMalformedInput)
	}
	if trimmed[0] != '{' {
		return in, fmt.Errorf("%w: payload is not a JSON object", ErrMalformedInput)
	}

	// The outer Prompt shadows the embedded one so a null prompt can be told
	// apart from a missing one.
	var wire struct {
		PromptInput
		Prompt json.RawMessage `json:"prompt"`
	}
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return in, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	in = wire.PromptInput

	if len(wire.Prompt) == 0 {
		return in, nil
	}
	if bytes.Equal(wire.Prompt, []byte("null")) {
		return in, fmt.Errorf("%w: prompt is null", ErrMalformedInput)
	}
	if err := json.Unmarshal(wire.Prompt, &in.Prompt); err != nil {
		return in, fmt.Errorf("%w: prompt must be a string", ErrMalformedInput)
	}
	return in, nil
}

func newBlockResponse(risks []string) BlockResponse {
	return BlockResponse{
		Error:   "🚫 Security policy violation detected: " + strings.Join(risks, ", "),
		Blocked: true,
		Risks:   risks,
	}
}

func newAdvisoryResponse(compliance []string) AdvisoryResponse {
	return AdvisoryResponse{
		Warning:        "⚠️  Compliance context detected: " + strings.Join(compliance, ", "),
		ComplianceNote: complianceNote,
	}
}

// FailOpenResponse is the diagnostic printed when the filter could not
// classify the prompt.
func FailOpenResponse(err error) ErrorResponse {
	return ErrorResponse{Error: "Security filter error: " + err.Error()}
}
