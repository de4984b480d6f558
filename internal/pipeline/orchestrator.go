package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/splatforge/splatpipe/internal/config"
	"github.com/splatforge/splatpipe/internal/fsutil"
	"github.com/splatforge/splatpipe/internal/layout"
	"github.com/splatforge/splatpipe/internal/masks"
)

// Status is the terminal disposition of a pipeline run.
type Status int

const (
	StatusRunning Status = iota
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Run is the transient state carried across stage execution. It is owned
// exclusively by the Orchestrator and discarded at process exit; every run
// rediscovers the project state from the filesystem.
type Run struct {
	ID    string
	Stage string

	SourceMasks masks.Decision
	DenseMasks  masks.Decision

	Status          Status
	Failure         *StageFailure
	TrainingSkipped bool
}

// Orchestrator drives the ordered stage list with fail-fast sequencing.
// The first failure is terminal: no later stage runs and no cleanup is
// attempted, leaving completed outputs in place for inspection.
type Orchestrator struct {
	fs          fsutil.FileSystem
	log         *zap.SugaredLogger
	cfg         config.Config
	layout      layout.ProjectLayout
	runner      *Runner
	provisioner *masks.Provisioner

	reconstruction []StageSpec
	training       StageSpec
}

// New wires an orchestrator for cfg against the real filesystem.
func New(cfg config.Config, log *zap.SugaredLogger) *Orchestrator {
	fs := fsutil.OSFileSystem{}
	return newOrchestrator(cfg, log, fs, ReconstructionStages(cfg), TrainingStage(cfg))
}

// newOrchestrator is the test seam: stages and filesystem are injectable.
func newOrchestrator(cfg config.Config, log *zap.SugaredLogger, fs fsutil.FileSystem, reconstruction []StageSpec, training StageSpec) *Orchestrator {
	return &Orchestrator{
		fs:             fs,
		log:            log,
		cfg:            cfg,
		layout:         layout.Derive(cfg.Project.Dir, cfg.Project.ImagesDir),
		runner:         &Runner{FS: fs, Log: log, DryRun: cfg.DryRun},
		provisioner:    &masks.Provisioner{FS: fs, Log: log},
		reconstruction: reconstruction,
		training:       training,
	}
}

// Layout exposes the derived project layout.
func (o *Orchestrator) Layout() layout.ProjectLayout { return o.layout }

// Execute drives the full stage sequence:
// feature extraction, matching, mapping, undistortion, mask provisioning,
// training. The returned Run always reflects the terminal state; the error
// is non-nil iff the run failed.
func (o *Orchestrator) Execute(ctx context.Context) (*Run, error) {
	run := &Run{ID: uuid.NewString(), Status: StatusRunning}

	o.log.Infow("pipeline starting",
		"run_id", run.ID,
		"project", o.layout.ProjectRoot,
		"images", o.layout.ImagesDir,
		"dry_run", o.cfg.DryRun,
	)

	if err := o.setup(run); err != nil {
		return o.fail(run, err)
	}

	// Source masks feed feature extraction only; resolved once, up front.
	run.SourceMasks = masks.Resolve(o.fs, o.cfg.Masks.SourceDir, o.layout.ImagesDir, o.cfg.Masks.Extension)
	o.logDecision("source masks", run.SourceMasks)

	for i, spec := range o.reconstruction {
		run.Stage = spec.Name
		o.log.Infof("stage %d/%d: %s", i+1, len(o.reconstruction)+1, spec.Name)
		if err := o.runner.Run(ctx, spec, o.layout, run.SourceMasks); err != nil {
			return o.fail(run, err)
		}
	}

	// Dense masks depend on the undistorted dataset existing, so they are
	// resolved only after undistortion succeeds.
	run.Stage = StageMaskProvisioning
	run.DenseMasks = masks.Resolve(o.fs, o.cfg.Masks.DenseDir, o.layout.TrainerImagesDir, o.cfg.Masks.Extension)
	o.logDecision("dense masks", run.DenseMasks)

	if o.cfg.DryRun {
		if run.DenseMasks.Active {
			o.log.Infof("[dry-run] would copy %d mask(s) into %s", run.DenseMasks.MaskCount, o.layout.TrainerMasksDir)
		}
	} else if _, err := o.provisioner.Provision(run.DenseMasks, o.layout.TrainerMasksDir); err != nil {
		return o.fail(run, &StageFailure{Stage: StageMaskProvisioning, Kind: ProvisioningFailed, Reason: err.Error()})
	}

	if !o.cfg.Brush.Run {
		run.TrainingSkipped = true
		run.Status = StatusSucceeded
		o.log.Infow("pipeline succeeded (training skipped)", "run_id", run.ID, "dataset", o.layout.TrainerDatasetDir)
		return run, nil
	}

	run.Stage = StageTraining
	o.log.Infof("stage %d/%d: %s", len(o.reconstruction)+1, len(o.reconstruction)+1, StageTraining)
	if !o.cfg.DryRun {
		if err := o.fs.MkdirAll(o.layout.ExportDir, 0755); err != nil {
			return o.fail(run, &StageFailure{Stage: StageTraining, Kind: PreconditionUnmet, Reason: fmt.Sprintf("create export directory: %v", err)})
		}
	}
	if err := o.runner.Run(ctx, o.training, o.layout, run.DenseMasks); err != nil {
		return o.fail(run, err)
	}

	run.Status = StatusSucceeded
	o.log.Infow("pipeline succeeded", "run_id", run.ID, "exports", o.layout.ExportDir)
	return run, nil
}

// setup validates the configured inputs and creates the project skeleton.
// The images directory must exist before anything runs; the project tree is
// created on demand so re-runs are cheap.
func (o *Orchestrator) setup(run *Run) error {
	run.Stage = "setup"

	if !o.fs.IsDir(o.layout.ImagesDir) {
		return &StageFailure{
			Stage:  run.Stage,
			Kind:   ConfigurationInvalid,
			Reason: fmt.Sprintf("images directory does not exist: %s", o.layout.ImagesDir),
		}
	}

	if o.cfg.DryRun {
		return nil
	}
	for _, dir := range []string{o.layout.ProjectRoot, o.layout.SparseDir, o.layout.DenseDir} {
		if err := o.fs.MkdirAll(dir, 0755); err != nil {
			return &StageFailure{
				Stage:  run.Stage,
				Kind:   ConfigurationInvalid,
				Reason: fmt.Sprintf("create %s: %v", dir, err),
			}
		}
	}
	return nil
}

// fail records the terminal failure, emits the single marked error line,
// and returns the run alongside the failure.
func (o *Orchestrator) fail(run *Run, err error) (*Run, error) {
	run.Status = StatusFailed
	if sf, ok := err.(*StageFailure); ok {
		run.Failure = sf
	} else {
		run.Failure = &StageFailure{Stage: run.Stage, Kind: ProcessExitNonZero, Reason: err.Error()}
	}
	o.log.Errorw("PIPELINE FAILED",
		"run_id", run.ID,
		"stage", run.Failure.Stage,
		"kind", run.Failure.Kind.String(),
		"reason", run.Failure.Reason,
	)
	return run, run.Failure
}

// logDecision prints one line per note and warning so degraded masking is
// visible without blocking progress.
func (o *Orchestrator) logDecision(which string, d masks.Decision) {
	for _, n := range d.Notes {
		o.log.Infof("%s: %s", which, n)
	}
	for _, w := range d.Warnings {
		o.log.Warnf("%s: %s", which, w)
	}
	if d.Active {
		o.log.Infow(which+" active", "dir", d.SourceDir, "masks", d.MaskCount, "images", d.ImageCount)
	}
}
