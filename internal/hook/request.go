// Package hook implements the external request/response contract of one
// enforcement invocation: read a structured payload from stdin, run the
// coordinator, and translate the verdict into an exit-code-distinct
// outcome, failing open on every internal error.
package hook

import (
	"encoding/json"
	"fmt"
)

// Kind is the normalized action category of a hook request.
type Kind string

const (
	KindPrompt  Kind = "prompt"
	KindTool    Kind = "tool"
	KindSkill   Kind = "skill"
	KindUnknown Kind = "unknown"
)

// Request is the single typed shape the rest of the system sees. The
// several field spellings agent runtimes use for the same concept are
// resolved here, in one place, and nowhere else.
type Request struct {
	Kind      Kind
	SessionID string
	Prompt    string
	ToolName  string
	Content   string
	FilePath  string
	SkillName string
}

// rawInput accepts the union of field names observed across agent
// runtimes. Claude Code sends hook_event_name/session_id/tool_input;
// older payloads use event/sessionId and flatter tool fields.
type rawInput struct {
	HookEventName string `json:"hook_event_name"`
	Event         string `json:"event"`

	SessionID    string `json:"session_id"`
	SessionIDAlt string `json:"sessionId"`

	Prompt     string `json:"prompt"`
	UserPrompt string `json:"user_prompt"`

	ToolName  string       `json:"tool_name"`
	ToolInput rawToolInput `json:"tool_input"`

	// Flat aliases some runtimes send instead of a tool_input object.
	Command  string `json:"command"`
	FilePath string `json:"file_path"`
}

type rawToolInput struct {
	Command   string `json:"command"`
	Content   string `json:"content"`
	NewString string `json:"new_string"`
	FilePath  string `json:"file_path"`
	Path      string `json:"path"`
	SkillName string `json:"skill_name"`
	Skill     string `json:"skill"`
}

// Normalize parses a hook payload into a Request. Unrecognized event names
// yield KindUnknown, which the adapter passes through untouched.
func Normalize(data []byte) (*Request, error) {
	var raw rawInput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("malformed hook payload: %w", err)
	}

	req := &Request{
		SessionID: firstOf(raw.SessionID, raw.SessionIDAlt),
		ToolName:  raw.ToolName,
	}

	switch firstOf(raw.HookEventName, raw.Event) {
	case "UserPromptSubmit", "user_prompt_submit":
		req.Kind = KindPrompt
		req.Prompt = firstOf(raw.Prompt, raw.UserPrompt)

	case "PreToolUse", "pre_tool_use":
		if name := firstOf(raw.ToolInput.SkillName, raw.ToolInput.Skill); name != "" || raw.ToolName == "Skill" {
			req.Kind = KindSkill
			req.SkillName = firstOf(name, raw.ToolInput.Command)
			return req, nil
		}
		req.Kind = KindTool
		req.Content = firstOf(raw.ToolInput.Content, raw.ToolInput.NewString, raw.ToolInput.Command, raw.Command)
		req.FilePath = firstOf(raw.ToolInput.FilePath, raw.ToolInput.Path, raw.FilePath)

	default:
		req.Kind = KindUnknown
	}

	return req, nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
