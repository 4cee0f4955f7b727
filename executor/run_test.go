package executor

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AI-et-al/janus/budget"
	"github.com/AI-et-al/janus/catalog"
	"github.com/AI-et-al/janus/provider"
	"github.com/AI-et-al/janus/router"
	"github.com/AI-et-al/janus/store"
)

type fakePlanner struct {
	text string
	err  error

	mu    sync.Mutex
	calls int
}

func (f *fakePlanner) Complete(ctx context.Context, req provider.Request) (*provider.Response, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &provider.Response{Text: f.text}, nil
}

func (f *fakePlanner) Provider() string { return "x" }
func (f *fakePlanner) Close() error     { return nil }

func execCatalog() catalog.Catalog {
	return catalog.Catalog{
		Models: []catalog.ModelConfig{
			{Key: "x/m", Provider: "x", ModelID: "m", Quality: catalog.TierBalanced, CostPerMTokOut: 20},
		},
	}
}

func newTestSandbox(t *testing.T, ledger *budget.Ledger, planner *fakePlanner, policy Policy) (*Sandbox, *store.FileStore) {
	t.Helper()
	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	pool := provider.NewPool(nil)
	pool.Put("x", planner)

	r := router.New(execCatalog(), ledger, router.WithCredentials(pool.Credentials()))
	return New(r, pool, ledger, fs, policy, Config{}), fs
}

func TestExecute(t *testing.T) {
	repo := t.TempDir()
	planner := &fakePlanner{text: `{
		"version": 1,
		"goal": "create a note",
		"actions": [
			{"type": "write_file", "path": "notes/hello.txt", "content": "hello world", "description": "write note"},
			{"type": "run_command", "command": ["cat", "notes/hello.txt"], "timeoutMs": 5000}
		],
		"successCriteria": ["note exists"]
	}`}

	s, _ := newTestSandbox(t, budget.NewLedger(10), planner, DefaultPolicy(repo))

	res, err := s.Execute(context.Background(), "create a note", "")
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.True(t, res.Success)
	assert.Equal(t, "x/m", res.ModelKey)
	require.Len(t, res.Actions, 2)
	assert.True(t, res.Actions[0].OK)
	assert.True(t, res.Actions[1].OK)
	assert.Contains(t, res.Actions[1].Stdout, "hello world")

	data, err := os.ReadFile(filepath.Join(repo, "notes", "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	names := artifactNames(res)
	for _, want := range []string{"plan_prompt.txt", "plan_response.txt", "plan.json", "receipt.json"} {
		assert.Contains(t, names, want)
	}
	assert.Greater(t, res.CostUSD, 0.0)
}

func TestExecuteRejectsTraversalBeforeAnyWrite(t *testing.T) {
	repo := t.TempDir()
	planner := &fakePlanner{text: `{
		"version": 1,
		"goal": "escape",
		"actions": [
			{"type": "write_file", "path": "../../etc/passwd", "content": "owned"}
		]
	}`}

	s, _ := newTestSandbox(t, budget.NewLedger(10), planner, DefaultPolicy(repo))

	res, err := s.Execute(context.Background(), "escape", "")
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "escapes repository root")
	assert.Empty(t, res.Actions, "no action may execute from a rejected plan")

	// Nothing may exist outside the repo root.
	if _, statErr := os.Stat(filepath.Join(repo, "..", "..", "etc", "passwd")); !os.IsNotExist(statErr) {
		t.Errorf("expected no file outside the repo root, stat returned %v", statErr)
	}
}

func TestExecuteHaltsOnFailedAction(t *testing.T) {
	repo := t.TempDir()
	planner := &fakePlanner{text: `{
		"version": 1,
		"goal": "fail then write",
		"actions": [
			{"type": "run_command", "command": ["cat", "does-not-exist.txt"]},
			{"type": "write_file", "path": "after.txt", "content": "never"}
		]
	}`}

	s, _ := newTestSandbox(t, budget.NewLedger(10), planner, DefaultPolicy(repo))

	res, err := s.Execute(context.Background(), "fail then write", "")
	require.NoError(t, err)

	assert.False(t, res.Success)
	require.Len(t, res.Actions, 1, "execution must halt at the first failure")
	assert.False(t, res.Actions[0].OK)
	assert.NotZero(t, res.Actions[0].ExitCode)

	if _, statErr := os.Stat(filepath.Join(repo, "after.txt")); !os.IsNotExist(statErr) {
		t.Error("action after the failure must not run")
	}
}

func TestExecuteKillsTimedOutCommand(t *testing.T) {
	repo := t.TempDir()
	planner := &fakePlanner{text: `{
		"version": 1,
		"goal": "sleep",
		"actions": [
			{"type": "run_command", "command": ["sleep", "999"], "timeoutMs": 100}
		]
	}`}

	policy := DefaultPolicy(repo)
	policy.AllowedCommands = append(policy.AllowedCommands, "sleep")
	s, _ := newTestSandbox(t, budget.NewLedger(10), planner, policy)

	start := time.Now()
	res, err := s.Execute(context.Background(), "sleep", "")
	elapsed := time.Since(start)
	require.NoError(t, err)

	assert.False(t, res.Success)
	require.Len(t, res.Actions, 1)
	assert.True(t, res.Actions[0].TimedOut)
	assert.Less(t, elapsed, 10*time.Second, "the command must be killed near its timeout, not run to completion")
}

func TestExecuteBudgetGate(t *testing.T) {
	repo := t.TempDir()
	planner := &fakePlanner{text: "{}"}

	s, fs := newTestSandbox(t, budget.NewLedger(0), planner, DefaultPolicy(repo))

	_, err := s.Execute(context.Background(), "anything", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, budget.ErrExceeded)
	assert.Zero(t, planner.calls, "no model call may happen after a budget rejection")

	// The rejection still leaves a receipt in the artifact store.
	entries, err := os.ReadDir(filepath.Join(fs.Root(), "artifacts"))
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestExecuteRejectsMalformedPlan(t *testing.T) {
	repo := t.TempDir()
	planner := &fakePlanner{text: "I refuse to answer in JSON."}

	s, _ := newTestSandbox(t, budget.NewLedger(10), planner, DefaultPolicy(repo))

	res, err := s.Execute(context.Background(), "anything", "")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "no JSON object")
}

func artifactNames(res *Result) []string {
	names := make([]string, 0, len(res.Artifacts))
	for _, a := range res.Artifacts {
		names = append(names, a.Name)
	}
	return names
}
