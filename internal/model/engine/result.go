package engine

import "github.com/restin-labs/insight-chat/internal/model/chat"

// FailureCause classifies why a turn against the engine failed.
type FailureCause string

const (
	CauseNone              FailureCause = ""
	CauseEngineUnavailable FailureCause = "engine-unavailable"
	CauseMalformedOutput   FailureCause = "malformed-output"
	CauseTimeout           FailureCause = "timeout"
	CauseInternal          FailureCause = "internal"
)

// TurnResult is the bridge's normalized outcome for one turn. On success
// Message holds the engine's answer text; on failure it holds a fixed
// user-facing message and Cause is set.
type TurnResult struct {
	OK             bool
	Message        string
	Intent         string
	ToolResults    []ToolResult
	DataContext    *chat.DataContext
	SessionContext map[string]any
	Method         string
	ReasoningTrace any
	Iterations     int
	Cause          FailureCause
}

// Failure builds a failed turn result with a fixed user-facing message.
func Failure(cause FailureCause, userMessage string) TurnResult {
	return TurnResult{Message: userMessage, Intent: "error", Cause: cause}
}

// ToolsUsed lists the names of tools the engine reported invoking.
func (r TurnResult) ToolsUsed() []string {
	if len(r.ToolResults) == 0 {
		return nil
	}
	tools := make([]string, 0, len(r.ToolResults))
	for _, tr := range r.ToolResults {
		tools = append(tools, tr.Tool)
	}
	return tools
}

// HasChartData reports whether any tool produced chart data for the client.
func (r TurnResult) HasChartData() bool {
	for _, tr := range r.ToolResults {
		if tr.Tool == "generate_chart_data" {
			return true
		}
	}
	return false
}
