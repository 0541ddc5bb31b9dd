package output

import (
	"qgispluginci/internal/checks"
	"qgispluginci/internal/validate"
)

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line), including:
// - run.started
// - rule.result
// - tool.result
// - run.finished
//
// JSON mode remains an aggregate of the result values.
type Event struct {
	Type     string           `json:"type"`
	Result   *validate.Result `json:"result,omitempty"`
	Tool     *checks.Result   `json:"tool,omitempty"`
	Rules    int              `json:"rules,omitempty"`
	Tools    int              `json:"tools,omitempty"`
	ExitCode int              `json:"exit_code,omitempty"`
}

// RunStarted announces a run over a number of rules and/or tools.
func RunStarted(rules, tools int) Event {
	return Event{Type: "run.started", Rules: rules, Tools: tools}
}

// RunFinished carries the final exit code.
func RunFinished(exitCode int) Event {
	return Event{Type: "run.finished", ExitCode: exitCode}
}

// eventFromValue normalizes sink inputs to an Event for streaming formats.
func eventFromValue(v any) (Event, bool) {
	switch t := v.(type) {
	case Event:
		return t, true
	case validate.Result:
		return Event{Type: "rule.result", Result: &t}, true
	case checks.Result:
		return Event{Type: "tool.result", Tool: &t}, true
	default:
		return Event{}, false
	}
}

// isResult reports whether v is a result (not a lifecycle event).
func isResult(v any) bool {
	switch v.(type) {
	case validate.Result, checks.Result:
		return true
	default:
		return false
	}
}
