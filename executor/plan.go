// Package executor turns a model-proposed action plan into a validated,
// strictly ordered sequence of file writes and command runs inside a
// sandboxed repository root.
//
// Advice can be parsed tolerantly; plans cannot. After the first balanced
// JSON object is extracted from the model's text, any deviation from the
// plan schema is a hard validation failure and nothing executes.
package executor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/AI-et-al/janus/parser"
)

// PlanVersion is the only accepted plan schema version.
const PlanVersion = 1

// ErrPlanInvalid is the base of every plan rejection: malformed JSON,
// schema deviation, or safety-policy violation. Fatal to the plan, not
// the process.
var ErrPlanInvalid = errors.New("plan validation failed")

// PlanError describes why a plan was rejected.
type PlanError struct {
	ActionIndex int // -1 when the failure is not tied to one action
	Reason      string
}

func (e *PlanError) Error() string {
	if e.ActionIndex >= 0 {
		return fmt.Sprintf("plan validation failed: action %d: %s", e.ActionIndex, e.Reason)
	}
	return "plan validation failed: " + e.Reason
}

// Unwrap lets errors.Is(err, ErrPlanInvalid) match.
func (e *PlanError) Unwrap() error { return ErrPlanInvalid }

func planErr(index int, format string, args ...any) error {
	return &PlanError{ActionIndex: index, Reason: fmt.Sprintf(format, args...)}
}

// Action is the closed set of things a plan may do. Exactly two variants
// exist: WriteFile and RunCommand. Every switch over an Action carries a
// default branch that rejects unknown kinds, so a new variant fails loudly
// everywhere it is not yet handled.
type Action interface {
	Kind() string
	Describe() string
}

// WriteFile writes content to a path inside the repository root.
type WriteFile struct {
	Path        string `json:"path"`
	Content     string `json:"content"`
	Description string `json:"description"`
}

// Kind returns the action's wire tag.
func (WriteFile) Kind() string { return "write_file" }

// Describe returns the model-supplied description, or the path.
func (a WriteFile) Describe() string {
	if a.Description != "" {
		return a.Description
	}
	return "write " + a.Path
}

// RunCommand runs an argv with a per-command timeout.
type RunCommand struct {
	Command     []string `json:"command"`
	TimeoutMs   int      `json:"timeoutMs"`
	Description string   `json:"description"`
}

// Kind returns the action's wire tag.
func (RunCommand) Kind() string { return "run_command" }

// Describe returns the model-supplied description, or the command line.
func (a RunCommand) Describe() string {
	if a.Description != "" {
		return a.Description
	}
	return "run " + strings.Join(a.Command, " ")
}

// Plan is one bounded, model-proposed action sequence.
type Plan struct {
	Version         int      `json:"version"`
	Goal            string   `json:"goal"`
	Actions         []Action `json:"actions"`
	SuccessCriteria []string `json:"successCriteria"`
}

// wire shapes for strict decoding.
type planWire struct {
	Version         int          `json:"version"`
	Goal            string       `json:"goal"`
	Actions         []actionWire `json:"actions"`
	SuccessCriteria []string     `json:"successCriteria"`
}

type actionWire struct {
	Type        string   `json:"type"`
	Path        string   `json:"path,omitempty"`
	Content     string   `json:"content,omitempty"`
	Command     []string `json:"command,omitempty"`
	TimeoutMs   int      `json:"timeoutMs,omitempty"`
	Description string   `json:"description,omitempty"`
}

// MarshalJSON writes the plan back in its wire shape.
func (p Plan) MarshalJSON() ([]byte, error) {
	w := planWire{
		Version:         p.Version,
		Goal:            p.Goal,
		SuccessCriteria: p.SuccessCriteria,
	}
	for _, a := range p.Actions {
		switch act := a.(type) {
		case WriteFile:
			w.Actions = append(w.Actions, actionWire{
				Type: act.Kind(), Path: act.Path, Content: act.Content, Description: act.Description,
			})
		case RunCommand:
			w.Actions = append(w.Actions, actionWire{
				Type: act.Kind(), Command: act.Command, TimeoutMs: act.TimeoutMs, Description: act.Description,
			})
		default:
			return nil, fmt.Errorf("unknown action kind %q", a.Kind())
		}
	}
	return json.Marshal(w)
}

// ParsePlan extracts the first balanced JSON object from the model's raw
// text and decodes it strictly: unknown fields, a wrong version, an
// unknown action type, or variant fields that do not match the tag all
// reject the plan.
func ParsePlan(raw string) (*Plan, error) {
	objText, ok := parser.FirstObject(raw)
	if !ok {
		return nil, &PlanError{ActionIndex: -1, Reason: "no JSON object in model response"}
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(objText)))
	dec.DisallowUnknownFields()
	var w planWire
	if err := dec.Decode(&w); err != nil {
		return nil, &PlanError{ActionIndex: -1, Reason: "schema deviation: " + err.Error()}
	}

	if w.Version != PlanVersion {
		return nil, planErr(-1, "unsupported plan version %d", w.Version)
	}
	if strings.TrimSpace(w.Goal) == "" {
		return nil, planErr(-1, "missing goal")
	}
	if len(w.Actions) == 0 {
		return nil, planErr(-1, "plan has no actions")
	}

	p := &Plan{Version: w.Version, Goal: w.Goal, SuccessCriteria: w.SuccessCriteria}
	for i, a := range w.Actions {
		switch a.Type {
		case "write_file":
			if len(a.Command) > 0 || a.TimeoutMs != 0 {
				return nil, planErr(i, "write_file action carries run_command fields")
			}
			if a.Path == "" {
				return nil, planErr(i, "write_file missing path")
			}
			p.Actions = append(p.Actions, WriteFile{Path: a.Path, Content: a.Content, Description: a.Description})
		case "run_command":
			if a.Path != "" || a.Content != "" {
				return nil, planErr(i, "run_command action carries write_file fields")
			}
			if len(a.Command) == 0 {
				return nil, planErr(i, "run_command missing command")
			}
			p.Actions = append(p.Actions, RunCommand{Command: a.Command, TimeoutMs: a.TimeoutMs, Description: a.Description})
		default:
			return nil, planErr(i, "unknown action type %q", a.Type)
		}
	}
	return p, nil
}
