// Command splatpipe drives a COLMAP reconstruction and a Brush training run
// over a directory of images, producing a trained splat scene.
//
// Configuration is layered: built-in defaults, an optional --config YAML
// file, and command-line flags (highest precedence).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/splatforge/splatpipe/internal/config"
	"github.com/splatforge/splatpipe/internal/pipeline"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	def := config.Default()

	fs := flag.NewFlagSet("splatpipe", flag.ExitOnError)

	configPath := fs.String("config", "", "YAML configuration file")
	showVersion := fs.Bool("version", false, "Print version and exit")
	dryRun := fs.Bool("dry-run", def.DryRun, "Print every external command without executing")

	projectDir := fs.String("project-dir", def.Project.Dir, "Project working directory (required)")
	imagesDir := fs.String("images-dir", def.Project.ImagesDir, "Source images directory (required)")

	colmapBin := fs.String("colmap-bin", def.Colmap.Bin, "Name or path of the COLMAP binary")
	sfmMaxImageSize := fs.Int("sfm-max-image-size", def.Colmap.SfmMaxImageSize, "Max image size for feature extraction")
	siftMaxNumFeatures := fs.Int("sift-max-num-features", def.Colmap.SiftMaxNumFeatures, "Max SIFT features per image")
	undistortMaxImageSize := fs.Int("undistort-max-image-size", def.Colmap.UndistortMaxImageSize, "Max image size for undistortion (also caps training resolution)")
	cameraModel := fs.String("camera-model", def.Colmap.CameraModel, "COLMAP camera model")
	singleCamera := fs.Int("single-camera", def.Colmap.SingleCamera, "Treat all images as one camera (1=yes, 0=no)")
	minNumMatches := fs.Int("min-num-matches", def.Colmap.MinNumMatches, "Minimum matches for the mapper")
	refineFocalLength := fs.Int("refine-focal-length", def.Colmap.RefineFocalLength, "Bundle adjustment: refine focal length (1=yes, 0=no)")
	refineExtraParams := fs.Int("refine-extra-params", def.Colmap.RefineExtraParams, "Bundle adjustment: refine extra params (1=yes, 0=no)")
	refinePrincipalPoint := fs.Int("refine-principal-point", def.Colmap.RefinePrincipalPoint, "Bundle adjustment: refine principal point (1=yes, 0=no)")

	brushBin := fs.String("brush-bin", def.Brush.Bin, "Name or path of the Brush binary")
	runBrush := fs.Bool("run-brush", def.Brush.Run, "Run Brush training after reconstruction")
	brushTotalSteps := fs.Int("brush-total-steps", def.Brush.TotalSteps, "Training steps")
	brushMaxSplats := fs.Int("brush-max-splats", def.Brush.MaxSplats, "Maximum splat count")
	brushExportEvery := fs.Int("brush-export-every", def.Brush.ExportEvery, "Export cadence in steps")
	brushEvalSplitEvery := fs.Int("brush-eval-split-every", def.Brush.EvalSplitEvery, "Hold out every Nth image for evaluation")
	brushExportName := fs.String("brush-export-name", def.Brush.ExportName, "Export file name")
	device := fs.String("device", def.Brush.Device, "GPU device selector (CUBECL_DEFAULT_DEVICE)")

	masksDir := fs.String("masks-dir", def.Masks.SourceDir, "Masks for the source images (feature extraction)")
	denseMasksDir := fs.String("dense-masks-dir", def.Masks.DenseDir, "Masks for the undistorted images (training)")
	maskExt := fs.String("mask-ext", def.Masks.Extension, "Mask file extension")

	fs.Parse(args)

	if *showVersion {
		fmt.Printf("splatpipe version %s\n", version)
		return 0
	}

	cfg := def
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 2
		}
		cfg = loaded
	}

	// Flags the operator actually set override the file layer.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "dry-run":
			cfg.DryRun = *dryRun
		case "project-dir":
			cfg.Project.Dir = *projectDir
		case "images-dir":
			cfg.Project.ImagesDir = *imagesDir
		case "colmap-bin":
			cfg.Colmap.Bin = *colmapBin
		case "sfm-max-image-size":
			cfg.Colmap.SfmMaxImageSize = *sfmMaxImageSize
		case "sift-max-num-features":
			cfg.Colmap.SiftMaxNumFeatures = *siftMaxNumFeatures
		case "undistort-max-image-size":
			cfg.Colmap.UndistortMaxImageSize = *undistortMaxImageSize
		case "camera-model":
			cfg.Colmap.CameraModel = *cameraModel
		case "single-camera":
			cfg.Colmap.SingleCamera = *singleCamera
		case "min-num-matches":
			cfg.Colmap.MinNumMatches = *minNumMatches
		case "refine-focal-length":
			cfg.Colmap.RefineFocalLength = *refineFocalLength
		case "refine-extra-params":
			cfg.Colmap.RefineExtraParams = *refineExtraParams
		case "refine-principal-point":
			cfg.Colmap.RefinePrincipalPoint = *refinePrincipalPoint
		case "brush-bin":
			cfg.Brush.Bin = *brushBin
		case "run-brush":
			cfg.Brush.Run = *runBrush
		case "brush-total-steps":
			cfg.Brush.TotalSteps = *brushTotalSteps
		case "brush-max-splats":
			cfg.Brush.MaxSplats = *brushMaxSplats
		case "brush-export-every":
			cfg.Brush.ExportEvery = *brushExportEvery
		case "brush-eval-split-every":
			cfg.Brush.EvalSplitEvery = *brushEvalSplitEvery
		case "brush-export-name":
			cfg.Brush.ExportName = *brushExportName
		case "device":
			cfg.Brush.Device = *device
		case "masks-dir":
			cfg.Masks.SourceDir = *masksDir
		case "dense-masks-dir":
			cfg.Masks.DenseDir = *denseMasksDir
		case "mask-ext":
			cfg.Masks.Extension = *maskExt
		}
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		fs.Usage()
		return 2
	}

	logger, err := newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	orch := pipeline.New(*cfg, logger.Sugar())
	if _, err := orch.Execute(context.Background()); err != nil {
		// Propagate the failing tool's exit code when there is one.
		var sf *pipeline.StageFailure
		if errors.As(err, &sf) && sf.ExitCode > 0 {
			return sf.ExitCode
		}
		return 1
	}
	return 0
}

func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = true
	return cfg.Build()
}
