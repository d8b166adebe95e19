package experiment

import (
	"fmt"

	"github.com/valyala/fastjson"
)

// editTools are the tools whose tool_input.file_path names an edited file.
var editTools = map[string]bool{
	"Write":     true,
	"Edit":      true,
	"MultiEdit": true,
}

// Input is the part of a PostToolUse payload the tracker needs.
type Input struct {
	Files     []string
	SessionID string
	ToolName  string
}

// ParseInput extracts edited files from a hook payload. It accepts the
// top-level "file_path" and "files" shapes as well as the Claude Code
// tool_input form.
func ParseInput(data []byte) (Input, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return Input{}, fmt.Errorf("parse hook input: %w", err)
	}
	if v.Type() != fastjson.TypeObject {
		return Input{}, fmt.Errorf("parse hook input: expected object, got %s", v.Type())
	}

	in := Input{
		SessionID: string(v.GetStringBytes("session_id")),
		ToolName:  string(v.GetStringBytes("tool_name")),
	}
	if in.ToolName == "" {
		in.ToolName = string(v.GetStringBytes("tool"))
	}

	switch {
	case v.Exists("file_path"):
		in.Files = []string{string(v.GetStringBytes("file_path"))}
	case v.Exists("files"):
		for _, f := range v.GetArray("files") {
			if b, err := f.StringBytes(); err == nil {
				in.Files = append(in.Files, string(b))
			}
		}
	case editTools[in.ToolName]:
		if path := v.GetStringBytes("tool_input", "file_path"); len(path) > 0 {
			in.Files = []string{string(path)}
		}
	}

	return in, nil
}
