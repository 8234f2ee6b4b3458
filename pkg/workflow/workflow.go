package workflow

import (
	"strings"
	"time"
)

// Entity is a workflow loaded from a user script: the declared interface
// plus a handle the script engine uses to run it locally. Entities are
// read-only once loaded.
type Entity struct {
	Module    string    // dotted module name, e.g. "my_flow"
	Name      string    // workflow name within the module
	Interface Interface // declared input schema
	Filename  string    // script file the entity was loaded from

	// Run invokes the workflow body with resolved inputs. Set by the
	// loader; nil for entities that only exist to be registered.
	Run func(inputs map[string]any) (any, error) `json:"-"`
}

// QualifiedName returns "module.workflow", the registry lookup key.
func (e *Entity) QualifiedName() string {
	return e.Module + "." + e.Name
}

// Reference addresses a workflow inside a script file.
type Reference struct {
	Filename string // script file path as given on the command line
	Workflow string // workflow name within the script
}

// Module derives the dotted module name from the script filename:
// extension stripped, path separators replaced with dots.
func (r Reference) Module() string {
	name := r.Filename
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	name = strings.ReplaceAll(name, "/", ".")
	return strings.TrimPrefix(name, ".")
}

// ParseReference splits a "<file>:<workflow>" command-line argument.
// Anything other than exactly one colon is rejected.
func ParseReference(s string) (Reference, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return Reference{}, &ValidationError{
			Message: "input " + s + " must be in format '<file.js>:<workflow>'",
		}
	}
	return Reference{Filename: parts[0], Workflow: parts[1]}, nil
}

// Registered is a workflow version known to the remote service.
type Registered struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ExecutionPhase represents the lifecycle phase of a remote execution.
type ExecutionPhase string

const (
	PhaseQueued    ExecutionPhase = "QUEUED"
	PhaseRunning   ExecutionPhase = "RUNNING"
	PhaseSucceeded ExecutionPhase = "SUCCEEDED"
	PhaseFailed    ExecutionPhase = "FAILED"
	PhaseAborted   ExecutionPhase = "ABORTED"
)

// String returns the string representation of the phase.
func (p ExecutionPhase) String() string {
	return string(p)
}

// IsTerminal returns true if the execution is in a final phase.
func (p ExecutionPhase) IsTerminal() bool {
	switch p {
	case PhaseSucceeded, PhaseFailed, PhaseAborted:
		return true
	}
	return false
}

// Execution is the handle for a triggered remote execution.
type Execution struct {
	Name      string         `json:"name"`
	Workflow  string         `json:"workflow"`
	Version   string         `json:"version"`
	Project   string         `json:"project"`
	Domain    string         `json:"domain"`
	Phase     ExecutionPhase `json:"phase"`
	Outputs   map[string]any `json:"outputs,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
