package pipeline

// Brush invocation surface. As with colmap.go, flag names track the tool's
// CLI and live only in this file.

import (
	"fmt"
	"os/exec"
	"strconv"

	"github.com/splatforge/splatpipe/internal/config"
	"github.com/splatforge/splatpipe/internal/fsutil"
	"github.com/splatforge/splatpipe/internal/layout"
	"github.com/splatforge/splatpipe/internal/masks"
)

// TrainingStage builds the trainer invocation: splat optimization over the
// undistorted dataset with periodic export. The export resolution cap is
// tied to the undistortion cap so the trainer never upsamples.
func TrainingStage(cfg config.Config) StageSpec {
	var env map[string]string
	if cfg.Brush.Device != "" {
		env = map[string]string{"CUBECL_DEFAULT_DEVICE": cfg.Brush.Device}
	}

	return StageSpec{
		Name:   StageTraining,
		Binary: cfg.Brush.Bin,
		Env:    env,
		Args: func(l layout.ProjectLayout, _ masks.Decision) []string {
			return []string{
				l.TrainerDatasetDir,
				"--total-steps", strconv.Itoa(cfg.Brush.TotalSteps),
				"--max-resolution", strconv.Itoa(cfg.Colmap.UndistortMaxImageSize),
				"--max-splats", strconv.Itoa(cfg.Brush.MaxSplats),
				"--eval-split-every", strconv.Itoa(cfg.Brush.EvalSplitEvery),
				"--export-every", strconv.Itoa(cfg.Brush.ExportEvery),
				"--export-path", l.ExportDir,
				"--export-name", cfg.Brush.ExportName,
				"--eval-every", strconv.Itoa(cfg.Brush.ExportEvery),
				"--eval-save-to-disk",
			}
		},
		Precondition: func(fsys fsutil.FileSystem, l layout.ProjectLayout) (bool, string) {
			if !binaryResolvable(fsys, cfg.Brush.Bin) {
				return false, fmt.Sprintf("trainer binary not found: %s (not in PATH and not a file)", cfg.Brush.Bin)
			}
			for _, p := range []string{l.TrainerImagesDir, l.TrainerSparseDir} {
				if !fsys.Exists(p) {
					return false, fmt.Sprintf("expected %s to exist", p)
				}
			}
			return true, ""
		},
	}
}

// binaryResolvable reports whether name resolves via PATH or points at an
// existing file.
func binaryResolvable(fsys fsutil.FileSystem, name string) bool {
	if _, err := exec.LookPath(name); err == nil {
		return true
	}
	return fsys.Exists(name)
}
