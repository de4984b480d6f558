// Package pipeline sequences the external reconstruction and training tools
// over a project directory, gating every stage on filesystem-observable
// preconditions and postconditions.
package pipeline

import (
	"fmt"

	"github.com/splatforge/splatpipe/internal/fsutil"
	"github.com/splatforge/splatpipe/internal/layout"
	"github.com/splatforge/splatpipe/internal/masks"
)

// FailureKind classifies why a stage failed.
type FailureKind int

const (
	// ConfigurationInvalid means a required input was missing before any
	// stage ran.
	ConfigurationInvalid FailureKind = iota

	// PreconditionUnmet means a stage's required input artifact is absent.
	PreconditionUnmet

	// ProcessExitNonZero means the external tool reported failure.
	ProcessExitNonZero

	// PostconditionUnmet means the external tool exited 0 but its expected
	// output artifact is missing.
	PostconditionUnmet

	// ProvisioningFailed means the mask copy step hit an I/O error.
	ProvisioningFailed
)

func (k FailureKind) String() string {
	switch k {
	case ConfigurationInvalid:
		return "configuration invalid"
	case PreconditionUnmet:
		return "precondition unmet"
	case ProcessExitNonZero:
		return "process exited non-zero"
	case PostconditionUnmet:
		return "postcondition unmet"
	case ProvisioningFailed:
		return "mask provisioning failed"
	default:
		return "unknown failure"
	}
}

// StageFailure is the terminal error for a pipeline run. ExitCode carries
// the child process exit status when Kind is ProcessExitNonZero.
type StageFailure struct {
	Stage    string
	Kind     FailureKind
	ExitCode int
	Reason   string
}

func (e *StageFailure) Error() string {
	if e.Kind == ProcessExitNonZero {
		return fmt.Sprintf("stage %s: %s (exit code %d): %s", e.Stage, e.Kind, e.ExitCode, e.Reason)
	}
	return fmt.Sprintf("stage %s: %s: %s", e.Stage, e.Kind, e.Reason)
}

// Condition is a filesystem-observable predicate over the project layout.
// It reports whether it holds, and a human-readable reason when it does not.
type Condition func(fsys fsutil.FileSystem, l layout.ProjectLayout) (ok bool, reason string)

// requirePaths builds a Condition that holds when every selected path exists.
func requirePaths(paths func(l layout.ProjectLayout) []string) Condition {
	return func(fsys fsutil.FileSystem, l layout.ProjectLayout) (bool, string) {
		for _, p := range paths(l) {
			if !fsys.Exists(p) {
				return false, fmt.Sprintf("expected %s to exist", p)
			}
		}
		return true, ""
	}
}

// StageSpec describes one external-tool invocation declaratively. Specs are
// immutable after construction; the orchestrator consumes an ordered list of
// them with a single generic driver loop, so adding or reordering a stage is
// a data change. All tool flag names live in the per-tool builders
// (colmap.go, brush.go), keeping the tool compatibility surface out of
// orchestration logic.
type StageSpec struct {
	Name   string
	Binary string

	// Args builds the ordered argument list. The mask decision is consumed
	// only by builders for stages that accept masking; the rest ignore it.
	Args func(l layout.ProjectLayout, d masks.Decision) []string

	// Env is extra environment for the child process, merged over the
	// parent environment.
	Env map[string]string

	// Precondition gates the launch; Postcondition is the only accepted
	// proof that the stage succeeded. Either may be nil.
	Precondition  Condition
	Postcondition Condition
}
