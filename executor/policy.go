package executor

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Policy is the fixed safety envelope every plan is validated against
// before anything executes. Constructed once at process start from
// explicit configuration; the sandbox never consults the environment.
type Policy struct {
	// RepoRoot is the directory every write must resolve inside and
	// every command runs in.
	RepoRoot string

	// MaxActions caps the plan length.
	MaxActions int

	// MaxWriteBytes caps a single WriteFile's content.
	MaxWriteBytes int

	// MaxCommandTimeout caps (and defaults) the per-command timeout.
	MaxCommandTimeout time.Duration

	// AllowedCommands is the argv[0] allowlist.
	AllowedCommands []string

	// AllowedGitSubcommands further restricts git invocations.
	AllowedGitSubcommands []string

	// DeniedFragments is a literal denylist checked against the joined
	// command line, lowercased.
	DeniedFragments []string
}

// DefaultPolicy returns the standard envelope rooted at repoRoot.
func DefaultPolicy(repoRoot string) Policy {
	return Policy{
		RepoRoot:          repoRoot,
		MaxActions:        20,
		MaxWriteBytes:     256 * 1024,
		MaxCommandTimeout: 60 * time.Second,
		AllowedCommands: []string{
			"go", "git", "ls", "cat", "head", "tail", "grep", "find",
			"wc", "mkdir", "touch", "echo", "diff", "make", "python3",
			"node", "npm",
		},
		AllowedGitSubcommands: []string{
			"status", "diff", "log", "show", "add", "commit", "branch",
			"checkout", "rev-parse",
		},
		DeniedFragments: []string{
			"rm ", "sudo", "mkfs", "dd ", "shutdown", "reboot",
			":(){", "kill -9 -1", "> /dev/sd", "chown -r",
		},
	}
}

// Validate checks the whole plan against the policy. Nothing may execute
// unless this returns nil: validation failures are detected before any
// side effect.
func (p Policy) Validate(plan *Plan) error {
	if len(plan.Actions) > p.MaxActions {
		return planErr(-1, "%d actions exceeds limit of %d", len(plan.Actions), p.MaxActions)
	}
	for i, a := range plan.Actions {
		switch act := a.(type) {
		case WriteFile:
			if err := p.validateWrite(i, act); err != nil {
				return err
			}
		case RunCommand:
			if err := p.validateCommand(i, act); err != nil {
				return err
			}
		default:
			return planErr(i, "unknown action kind %q", a.Kind())
		}
	}
	return nil
}

// ResolvePath maps a plan-relative path to an absolute path inside the
// repository root. Absolute paths and any traversal outside the root are
// rejected.
func (p Policy) ResolvePath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("absolute path %q not allowed", path)
	}
	abs := filepath.Join(p.RepoRoot, filepath.Clean(path))
	rel, err := filepath.Rel(p.RepoRoot, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes repository root", path)
	}
	return abs, nil
}

func (p Policy) validateWrite(index int, a WriteFile) error {
	if _, err := p.ResolvePath(a.Path); err != nil {
		return planErr(index, "%v", err)
	}
	if len(a.Content) > p.MaxWriteBytes {
		return planErr(index, "content %d bytes exceeds limit of %d", len(a.Content), p.MaxWriteBytes)
	}
	return nil
}

func (p Policy) validateCommand(index int, a RunCommand) error {
	if len(a.Command) == 0 {
		return planErr(index, "empty command")
	}
	name := a.Command[0]
	if !contains(p.AllowedCommands, name) {
		return planErr(index, "command %q not in allowlist", name)
	}
	if name == "git" {
		if len(a.Command) < 2 {
			return planErr(index, "git invocation missing subcommand")
		}
		if !contains(p.AllowedGitSubcommands, a.Command[1]) {
			return planErr(index, "git subcommand %q not in allowlist", a.Command[1])
		}
	}
	line := strings.ToLower(strings.Join(a.Command, " "))
	for _, frag := range p.DeniedFragments {
		if strings.Contains(line, frag) {
			return planErr(index, "command contains denied fragment %q", frag)
		}
	}
	if a.TimeoutMs < 0 {
		return planErr(index, "negative timeout")
	}
	if time.Duration(a.TimeoutMs)*time.Millisecond > p.MaxCommandTimeout {
		return planErr(index, "timeout %dms exceeds ceiling of %s", a.TimeoutMs, p.MaxCommandTimeout)
	}
	return nil
}

// commandTimeout returns the effective timeout for one command: the
// requested value, defaulting to the ceiling when unset.
func (p Policy) commandTimeout(a RunCommand) time.Duration {
	if a.TimeoutMs > 0 {
		return time.Duration(a.TimeoutMs) * time.Millisecond
	}
	return p.MaxCommandTimeout
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
