package pipeline

// COLMAP invocation surface. Flag names here track the tool's CLI and are
// versioned by COLMAP, not by the orchestrator; keep every flag in this file
// so a tool upgrade never touches orchestration logic.

import (
	"fmt"
	"strconv"

	"github.com/splatforge/splatpipe/internal/config"
	"github.com/splatforge/splatpipe/internal/fsutil"
	"github.com/splatforge/splatpipe/internal/layout"
	"github.com/splatforge/splatpipe/internal/masks"
)

// Stage names, in pipeline order.
const (
	StageFeatureExtraction = "feature-extraction"
	StageMatching          = "matching"
	StageMapping           = "mapping"
	StageUndistortion      = "undistortion"
	StageMaskProvisioning  = "mask-provisioning"
	StageTraining          = "training"
)

// ReconstructionStages returns the ordered COLMAP stage list for cfg.
func ReconstructionStages(cfg config.Config) []StageSpec {
	return []StageSpec{
		featureExtractionStage(cfg),
		matchingStage(cfg),
		mappingStage(cfg),
		undistortionStage(cfg),
	}
}

// featureExtractionStage detects features in the source images. It is the
// only stage that accepts a mask argument.
func featureExtractionStage(cfg config.Config) StageSpec {
	return StageSpec{
		Name:   StageFeatureExtraction,
		Binary: cfg.Colmap.Bin,
		Args: func(l layout.ProjectLayout, d masks.Decision) []string {
			args := []string{
				"feature_extractor",
				"--database_path", l.DatabasePath,
				"--image_path", l.ImagesDir,
				"--ImageReader.single_camera", strconv.Itoa(cfg.Colmap.SingleCamera),
				"--ImageReader.camera_model", cfg.Colmap.CameraModel,
				"--SiftExtraction.use_gpu", "1",
				"--SiftExtraction.max_image_size", strconv.Itoa(cfg.Colmap.SfmMaxImageSize),
				"--SiftExtraction.max_num_features", strconv.Itoa(cfg.Colmap.SiftMaxNumFeatures),
			}
			if d.Active {
				args = append(args, "--ImageReader.mask_path", d.SourceDir)
			}
			return args
		},
		Precondition: func(fsys fsutil.FileSystem, l layout.ProjectLayout) (bool, string) {
			if !fsys.IsDir(l.ImagesDir) {
				return false, fmt.Sprintf("images directory does not exist: %s", l.ImagesDir)
			}
			return true, ""
		},
		Postcondition: requirePaths(func(l layout.ProjectLayout) []string {
			return []string{l.DatabasePath}
		}),
	}
}

// matchingStage runs exhaustive feature matching over the database.
// Matching mutates the database in place, so there is no new artifact to
// observe afterwards.
func matchingStage(cfg config.Config) StageSpec {
	return StageSpec{
		Name:   StageMatching,
		Binary: cfg.Colmap.Bin,
		Args: func(l layout.ProjectLayout, _ masks.Decision) []string {
			return []string{
				"exhaustive_matcher",
				"--database_path", l.DatabasePath,
				"--SiftMatching.use_gpu", "1",
			}
		},
		Precondition: requirePaths(func(l layout.ProjectLayout) []string {
			return []string{l.DatabasePath}
		}),
	}
}

// mappingStage runs sparse SfM reconstruction. The mapper can exit 0 without
// producing a model, so the sparse/0 postcondition is load-bearing.
func mappingStage(cfg config.Config) StageSpec {
	return StageSpec{
		Name:   StageMapping,
		Binary: cfg.Colmap.Bin,
		Args: func(l layout.ProjectLayout, _ masks.Decision) []string {
			return []string{
				"mapper",
				"--database_path", l.DatabasePath,
				"--image_path", l.ImagesDir,
				"--output_path", l.SparseDir,
				"--Mapper.min_num_matches", strconv.Itoa(cfg.Colmap.MinNumMatches),
				"--Mapper.ba_refine_focal_length", strconv.Itoa(cfg.Colmap.RefineFocalLength),
				"--Mapper.ba_refine_extra_params", strconv.Itoa(cfg.Colmap.RefineExtraParams),
				"--Mapper.ba_refine_principal_point", strconv.Itoa(cfg.Colmap.RefinePrincipalPoint),
			}
		},
		Precondition: requirePaths(func(l layout.ProjectLayout) []string {
			return []string{l.DatabasePath}
		}),
		Postcondition: requirePaths(func(l layout.ProjectLayout) []string {
			return []string{l.SparseModelDir()}
		}),
	}
}

// undistortionStage removes lens distortion and re-expresses the sparse
// model, producing the dataset layout the trainer consumes.
func undistortionStage(cfg config.Config) StageSpec {
	return StageSpec{
		Name:   StageUndistortion,
		Binary: cfg.Colmap.Bin,
		Args: func(l layout.ProjectLayout, _ masks.Decision) []string {
			return []string{
				"image_undistorter",
				"--image_path", l.ImagesDir,
				"--input_path", l.SparseModelDir(),
				"--output_path", l.DenseDir,
				"--output_type", "COLMAP",
				"--max_image_size", strconv.Itoa(cfg.Colmap.UndistortMaxImageSize),
			}
		},
		Precondition: requirePaths(func(l layout.ProjectLayout) []string {
			return []string{l.SparseModelDir()}
		}),
		Postcondition: requirePaths(func(l layout.ProjectLayout) []string {
			return []string{l.TrainerImagesDir, l.TrainerSparseDir}
		}),
	}
}
