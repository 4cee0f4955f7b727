package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/AI-et-al/janus/budget"
	"github.com/AI-et-al/janus/cost"
	"github.com/AI-et-al/janus/provider"
	"github.com/AI-et-al/janus/router"
	"github.com/AI-et-al/janus/store"
)

// maxCaptureBytes truncates each captured output stream.
const maxCaptureBytes = 64 * 1024

// taskScope is the artifact task-path for executor runs.
const taskScope = "executor"

// Config tunes the sandbox's plan request.
type Config struct {
	// PlanMaxTokens is the hard token cap on the plan response.
	PlanMaxTokens int `json:"plan_max_tokens" toml:"plan_max_tokens" yaml:"plan_max_tokens"`

	// CallTimeout bounds the plan request call.
	CallTimeout time.Duration `json:"call_timeout" toml:"call_timeout" yaml:"call_timeout"`
}

// WithDefaults returns a copy with zero values filled in.
func (c Config) WithDefaults() Config {
	if c.PlanMaxTokens <= 0 {
		c.PlanMaxTokens = 3000
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 120 * time.Second
	}
	return c
}

// ActionResult records one executed (or attempted) action.
type ActionResult struct {
	Index       int    `json:"index"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
	OK          bool   `json:"ok"`
	Detail      string `json:"detail,omitempty"`
	Stdout      string `json:"stdout,omitempty"`
	Stderr      string `json:"stderr,omitempty"`
	ExitCode    int    `json:"exitCode"`
	TimedOut    bool   `json:"timedOut"`
	DurationMs  int64  `json:"durationMs"`
}

// Result is the receipt for one executor run.
type Result struct {
	TaskID        string              `json:"taskId"`
	Success       bool                `json:"success"`
	Artifacts     []store.ArtifactRef `json:"artifacts"`
	OutputSummary string              `json:"outputSummary"`
	Error         string              `json:"error,omitempty"`
	ExecutorID    string              `json:"executorId"`
	LatencyMs     int64               `json:"latencyMs"`
	CostUSD       float64             `json:"costUsd"`
	InputTokens   int                 `json:"inputTokens"`
	OutputTokens  int                 `json:"outputTokens"`
	ModelKey      string              `json:"modelKey"`
	Provider      string              `json:"provider"`
	ModelID       string              `json:"modelId"`
	Actions       []ActionResult      `json:"actions"`
}

// Sandbox requests one plan per goal and executes it under the policy.
type Sandbox struct {
	router *router.Router
	pool   *provider.Pool
	ledger *budget.Ledger
	store  store.ContextStore
	policy Policy
	cfg    Config
	logger *slog.Logger
	id     string
}

// New creates a Sandbox.
func New(r *router.Router, pool *provider.Pool, ledger *budget.Ledger, st store.ContextStore, policy Policy, cfg Config) *Sandbox {
	return &Sandbox{
		router: r,
		pool:   pool,
		ledger: ledger,
		store:  st,
		policy: policy,
		cfg:    cfg.WithDefaults(),
		logger: slog.Default(),
		id:     "sandbox-" + uuid.NewString()[:8],
	}
}

// Execute requests a plan for the goal, validates it, and runs it action
// by action. Budget exhaustion before the plan call is the distinct
// budget.ErrExceeded failure; everything after the model responded is
// reported through the Result so the artifact trail stays inspectable.
func (s *Sandbox) Execute(ctx context.Context, goal, priorContext string) (*Result, error) {
	taskID := uuid.NewString()
	started := time.Now()

	res := &Result{TaskID: taskID, ExecutorID: s.id}
	finish := func(success bool, summary, errText string) *Result {
		res.Success = success
		res.OutputSummary = summary
		res.Error = errText
		res.LatencyMs = time.Since(started).Milliseconds()
		if data, err := json.MarshalIndent(res, "", "  "); err == nil {
			s.writeArtifact(res, taskID, "receipt.json", data)
		}
		return res
	}

	dec, err := s.router.Route(goal, router.CategoryExecution, router.Constraints{})
	if err != nil {
		return nil, err
	}
	res.ModelKey = dec.ModelKey
	res.Provider = dec.Provider
	res.ModelID = dec.ModelID

	// The pre-call budget gate: a plan whose request cannot be afforded
	// is rejected outright before any call is made.
	if !s.ledger.CanAfford(dec.EstimatedCostUSD) {
		exceeded := &budget.ExceededError{EstimatedUSD: dec.EstimatedCostUSD, RemainingUSD: s.ledger.Remaining()}
		finish(false, "rejected before plan request", exceeded.Error())
		return nil, exceeded
	}

	prompt := planPrompt(goal, priorContext, s.policy)
	s.writeArtifact(res, taskID, "plan_prompt.txt", []byte(prompt))

	client, err := s.pool.Get(dec.Provider)
	if err != nil {
		finish(false, "no transport for plan request", err.Error())
		return nil, err
	}

	cctx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	resp, err := client.Complete(cctx, provider.Request{
		System:    "You plan constrained file and command operations. Output only JSON.",
		Prompt:    prompt,
		Model:     dec.ModelID,
		MaxTokens: s.cfg.PlanMaxTokens,
		JSONOnly:  true,
	})
	if err != nil {
		finish(false, "plan request failed", err.Error())
		return nil, err
	}
	s.writeArtifact(res, taskID, "plan_response.txt", []byte(resp.Text))

	usage := cost.Usage{InputTokens: resp.InputTokens, OutputTokens: resp.OutputTokens}
	if usage.InputTokens == 0 {
		usage.InputTokens = cost.EstimateTokens(prompt)
	}
	if usage.OutputTokens == 0 {
		usage.OutputTokens = cost.EstimateTokens(resp.Text)
	}
	res.InputTokens = usage.InputTokens
	res.OutputTokens = usage.OutputTokens
	res.CostUSD = cost.Estimate(dec.Model, usage.InputTokens, usage.OutputTokens)
	s.ledger.Charge(res.CostUSD)

	plan, err := ParsePlan(resp.Text)
	if err != nil {
		return finish(false, "plan rejected", err.Error()), nil
	}
	if data, merr := json.MarshalIndent(plan, "", "  "); merr == nil {
		s.writeArtifact(res, taskID, "plan.json", data)
	}

	// Safety policy runs over the whole plan before any action executes:
	// a rejected plan causes zero side effects.
	if err := s.policy.Validate(plan); err != nil {
		return finish(false, "plan rejected", err.Error()), nil
	}

	for i, action := range plan.Actions {
		ar := s.runAction(ctx, i, action)
		res.Actions = append(res.Actions, ar)
		if data, merr := json.MarshalIndent(ar, "", "  "); merr == nil {
			s.writeArtifact(res, taskID, fmt.Sprintf("action_%02d.json", i), data)
		}
		// Later actions may depend on earlier ones, so the first failure
		// halts the remaining plan. Completed actions stay on disk.
		if !ar.OK {
			return finish(false,
				fmt.Sprintf("halted at action %d of %d: %s", i+1, len(plan.Actions), ar.Detail),
				ar.Detail), nil
		}
	}
	return finish(true, fmt.Sprintf("completed %d actions", len(plan.Actions)), ""), nil
}

// runAction executes one action. Unknown kinds cannot reach here (the
// parser and policy both reject them) but fail closed anyway.
func (s *Sandbox) runAction(ctx context.Context, index int, action Action) ActionResult {
	ar := ActionResult{Index: index, Kind: action.Kind(), Description: action.Describe()}
	start := time.Now()
	switch act := action.(type) {
	case WriteFile:
		s.runWrite(&ar, act)
	case RunCommand:
		s.runCommand(ctx, &ar, act)
	default:
		ar.Detail = fmt.Sprintf("unknown action kind %q", action.Kind())
	}
	ar.DurationMs = time.Since(start).Milliseconds()
	return ar
}

func (s *Sandbox) runWrite(ar *ActionResult, act WriteFile) {
	path, err := s.policy.ResolvePath(act.Path)
	if err != nil {
		ar.Detail = err.Error()
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		ar.Detail = fmt.Sprintf("create parent dir: %v", err)
		return
	}
	if err := os.WriteFile(path, []byte(act.Content), 0o644); err != nil {
		ar.Detail = fmt.Sprintf("write file: %v", err)
		return
	}
	ar.OK = true
	ar.Detail = fmt.Sprintf("wrote %d bytes to %s", len(act.Content), act.Path)
}

func (s *Sandbox) runCommand(ctx context.Context, ar *ActionResult, act RunCommand) {
	timeout := s.policy.commandTimeout(act)
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, act.Command[0], act.Command[1:]...)
	cmd.Dir = s.policy.RepoRoot
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Force-kill straggling processes that ignore the initial signal.
	cmd.WaitDelay = 2 * time.Second

	err := cmd.Run()
	ar.Stdout = truncateOutput(stdout.Bytes())
	ar.Stderr = truncateOutput(stderr.Bytes())
	ar.TimedOut = errors.Is(cctx.Err(), context.DeadlineExceeded)

	switch {
	case ar.TimedOut:
		ar.ExitCode = -1
		ar.Detail = fmt.Sprintf("command killed after %s", timeout)
	case err != nil:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			ar.ExitCode = exitErr.ExitCode()
			ar.Detail = fmt.Sprintf("exit status %d", ar.ExitCode)
		} else {
			ar.ExitCode = -1
			ar.Detail = err.Error()
		}
	default:
		ar.OK = true
		ar.Detail = "ok"
	}
}

func (s *Sandbox) writeArtifact(res *Result, taskID, name string, data []byte) {
	if s.store == nil {
		return
	}
	ref, err := s.store.WriteArtifact(taskID, taskScope, name, data)
	if err != nil {
		s.logger.Warn("artifact write failed", "name", name, "err", err)
		return
	}
	res.Artifacts = append(res.Artifacts, ref)
}

func truncateOutput(b []byte) string {
	if len(b) <= maxCaptureBytes {
		return string(b)
	}
	return string(b[:maxCaptureBytes]) + "\n[truncated]"
}
