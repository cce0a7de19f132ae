package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"os/exec"
	"strings"
	"time"

	model "github.com/restin-labs/insight-chat/internal/model/engine"
)

// DefaultTimeout bounds one engine invocation.
const DefaultTimeout = 60 * time.Second

// Fixed user-facing texts for bridge failures. These are conversational
// replies, never raw diagnostics.
const (
	msgUnavailable = "I'm sorry, I'm experiencing technical difficulties right now. Please try again in a moment."
	msgBackendDown = "I'm unable to connect to the backend server. Please ensure the inventory API is running and try again."
	msgMalformed   = "I encountered an error processing your request. Please ensure the backend API is running and try again."
	msgTimeout     = "The analysis is taking longer than expected. Please try again."
)

// commandRunner executes the engine process (allows faking in tests).
type commandRunner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	return cmd.Output()
}

// Config describes how to reach the analytics engine process.
type Config struct {
	Python  string
	Script  string
	Timeout time.Duration
}

// Bridge invokes the external analytics engine once per turn: one JSON
// request over stdin, one JSON payload back on stdout. All failure modes
// fold into the returned TurnResult; Invoke never returns an error.
type Bridge struct {
	cfg    Config
	runner commandRunner
}

// New creates a bridge for the configured engine command.
func New(cfg Config) *Bridge {
	if cfg.Python == "" {
		cfg.Python = "python3"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Bridge{cfg: cfg, runner: execRunner{}}
}

// SetCommandRunner injects a fake engine process; tests only.
func (b *Bridge) SetCommandRunner(runner commandRunner) {
	b.runner = runner
}

// Invoke runs one turn against the engine.
func (b *Bridge) Invoke(ctx context.Context, req model.TurnRequest) model.TurnResult {
	payload, err := json.Marshal(model.WireRequest(req))
	if err != nil {
		log.Printf("[engine] failed to encode request for session=%s: %v", req.SessionID, err)
		return model.Failure(model.CauseInternal, msgUnavailable)
	}

	runCtx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	output, err := b.runner.Run(runCtx, payload, b.cfg.Python, b.cfg.Script)
	if err != nil {
		return b.failureFor(runCtx, req.SessionID, err)
	}

	resp, err := parseResponse(output)
	if err != nil {
		log.Printf("[engine] unparsable output for session=%s: %v", req.SessionID, err)
		return model.Failure(model.CauseMalformedOutput, msgMalformed)
	}

	return resultFrom(req, resp)
}

func (b *Bridge) failureFor(ctx context.Context, sessionID string, err error) model.TurnResult {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		log.Printf("[engine] timed out after %s for session=%s", b.cfg.Timeout, sessionID)
		return model.Failure(model.CauseTimeout, msgTimeout)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		log.Printf("[engine] exited with %d for session=%s: %s",
			exitErr.ExitCode(), sessionID, strings.TrimSpace(string(exitErr.Stderr)))
		return model.Failure(model.CauseEngineUnavailable, msgBackendDown)
	}

	log.Printf("[engine] failed to start for session=%s: %v", sessionID, err)
	return model.Failure(model.CauseEngineUnavailable, msgUnavailable)
}

// parseResponse decodes the engine payload, tolerating stray output around
// the JSON document (warnings printed by the interpreter, etc).
func parseResponse(output []byte) (*model.Response, error) {
	var resp model.Response
	if err := json.Unmarshal(bytes.TrimSpace(output), &resp); err == nil {
		return &resp, nil
	}

	start := bytes.IndexByte(output, '{')
	end := bytes.LastIndexByte(output, '}')
	if start < 0 || end < start {
		return nil, errors.New("no JSON document in engine output")
	}
	if err := json.Unmarshal(output[start:end+1], &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func resultFrom(req model.TurnRequest, resp *model.Response) model.TurnResult {
	method := resp.Method
	if method == "" {
		method = req.Method
	}
	// The engine reports its own processing errors as natural language in
	// the response text; the bridge does not interpret it.
	return model.TurnResult{
		OK:             true,
		Message:        resp.Response,
		Intent:         resp.Intent,
		ToolResults:    resp.ToolResults,
		DataContext:    resp.DataContext(),
		SessionContext: resp.SessionContext,
		Method:         method,
		ReasoningTrace: resp.ReasoningTrace,
		Iterations:     resp.Iterations,
	}
}
