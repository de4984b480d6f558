package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/splatforge/splatpipe/internal/fsutil"
	"github.com/splatforge/splatpipe/internal/layout"
	"github.com/splatforge/splatpipe/internal/masks"
)

// Runner executes one stage: precondition check, subprocess launch with
// inherited output streams, exit-code check, postcondition check.
//
// There are no retries and no timeout: the external tools are long-running
// and not safe to blindly re-invoke, so a failure must surface to the
// operator instead.
type Runner struct {
	FS  fsutil.FileSystem
	Log *zap.SugaredLogger

	// DryRun logs the exact command line without launching anything and
	// treats all conditions as satisfied.
	DryRun bool
}

// Run executes spec against the layout. A nil return means the stage's
// postcondition held; any other outcome is a *StageFailure.
func (r *Runner) Run(ctx context.Context, spec StageSpec, l layout.ProjectLayout, d masks.Decision) error {
	args := spec.Args(l, d)

	if r.DryRun {
		r.Log.Infof("[dry-run] would run: %s", commandLine(spec.Binary, args))
		return nil
	}

	if spec.Precondition != nil {
		if ok, reason := spec.Precondition(r.FS, l); !ok {
			return &StageFailure{Stage: spec.Name, Kind: PreconditionUnmet, Reason: reason}
		}
	}

	r.Log.Infof("running: %s", commandLine(spec.Binary, args))

	cmd := exec.CommandContext(ctx, spec.Binary, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if len(spec.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range spec.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &StageFailure{
				Stage:    spec.Name,
				Kind:     ProcessExitNonZero,
				ExitCode: exitErr.ExitCode(),
				Reason:   fmt.Sprintf("%s exited with code %d", spec.Binary, exitErr.ExitCode()),
			}
		}
		return &StageFailure{
			Stage:    spec.Name,
			Kind:     ProcessExitNonZero,
			ExitCode: -1,
			Reason:   fmt.Sprintf("failed to launch %s: %v", spec.Binary, err),
		}
	}

	if spec.Postcondition != nil {
		if ok, reason := spec.Postcondition(r.FS, l); !ok {
			return &StageFailure{Stage: spec.Name, Kind: PostconditionUnmet, Reason: reason}
		}
	}

	return nil
}

func commandLine(binary string, args []string) string {
	return binary + " " + strings.Join(args, " ")
}
