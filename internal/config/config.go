// Package config holds the pipeline configuration surface.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then command-line flag overrides applied by the caller. The resulting
// Config value is immutable by convention; it is constructed once in main
// and passed by value into every component.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the full configuration consumed by the pipeline core.
type Config struct {
	Project ProjectConfig `mapstructure:"project"`
	Colmap  ColmapConfig  `mapstructure:"colmap"`
	Brush   BrushConfig   `mapstructure:"brush"`
	Masks   MaskConfig    `mapstructure:"masks"`

	// DryRun prints every external command without executing it.
	DryRun bool `mapstructure:"dry_run"`
}

// ProjectConfig names the input images and the project working tree.
type ProjectConfig struct {
	Dir       string `mapstructure:"dir"`
	ImagesDir string `mapstructure:"images_dir"`
}

// ColmapConfig carries the reconstructor binary and its tuning parameters.
type ColmapConfig struct {
	Bin string `mapstructure:"bin"`

	SfmMaxImageSize       int    `mapstructure:"sfm_max_image_size"`
	SiftMaxNumFeatures    int    `mapstructure:"sift_max_num_features"`
	UndistortMaxImageSize int    `mapstructure:"undistort_max_image_size"`
	CameraModel           string `mapstructure:"camera_model"`
	SingleCamera          int    `mapstructure:"single_camera"`
	MinNumMatches         int    `mapstructure:"min_num_matches"`
	RefineFocalLength     int    `mapstructure:"refine_focal_length"`
	RefineExtraParams     int    `mapstructure:"refine_extra_params"`
	RefinePrincipalPoint  int    `mapstructure:"refine_principal_point"`
}

// BrushConfig carries the trainer binary and its training parameters.
type BrushConfig struct {
	Bin string `mapstructure:"bin"`

	// Run gates the training stage; when false the pipeline ends after mask
	// provisioning.
	Run bool `mapstructure:"run"`

	TotalSteps     int    `mapstructure:"total_steps"`
	MaxSplats      int    `mapstructure:"max_splats"`
	ExportEvery    int    `mapstructure:"export_every"`
	EvalSplitEvery int    `mapstructure:"eval_split_every"`
	ExportName     string `mapstructure:"export_name"`

	// Device selects a GPU via CUBECL_DEFAULT_DEVICE; empty means tool default.
	Device string `mapstructure:"device"`
}

// MaskConfig names the optional mask sources.
// SourceDir masks apply to the original images (feature extraction);
// DenseDir masks apply to the undistorted images (training).
type MaskConfig struct {
	SourceDir string `mapstructure:"source_dir"`
	DenseDir  string `mapstructure:"dense_dir"`
	Extension string `mapstructure:"extension"`
}

// Load builds a Config from defaults plus an optional YAML file.
// An empty path loads defaults only.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// Defaults-only load cannot fail; an error here is a programming bug.
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("project.dir", "")
	v.SetDefault("project.images_dir", "")

	v.SetDefault("colmap.bin", "colmap")
	v.SetDefault("colmap.sfm_max_image_size", 3200)
	v.SetDefault("colmap.sift_max_num_features", 8192)
	v.SetDefault("colmap.undistort_max_image_size", 2400)
	v.SetDefault("colmap.camera_model", "OPENCV")
	v.SetDefault("colmap.single_camera", 1)
	v.SetDefault("colmap.min_num_matches", 15)
	v.SetDefault("colmap.refine_focal_length", 1)
	v.SetDefault("colmap.refine_extra_params", 1)
	v.SetDefault("colmap.refine_principal_point", 0)

	v.SetDefault("brush.bin", "brush")
	v.SetDefault("brush.run", true)
	v.SetDefault("brush.total_steps", 30000)
	v.SetDefault("brush.max_splats", 5000000)
	v.SetDefault("brush.export_every", 5000)
	v.SetDefault("brush.eval_split_every", 8)
	v.SetDefault("brush.export_name", "splat.ply")
	v.SetDefault("brush.device", "")

	v.SetDefault("masks.source_dir", "")
	v.SetDefault("masks.dense_dir", "")
	v.SetDefault("masks.extension", "png")

	v.SetDefault("dry_run", false)
}

// Validate checks the fields that must be set before a run can start.
// Filesystem-level checks (the images directory existing) belong to the
// orchestrator, which owns fail-fast sequencing.
func (c *Config) Validate() error {
	if c.Project.Dir == "" {
		return fmt.Errorf("project.dir is required")
	}
	if c.Project.ImagesDir == "" {
		return fmt.Errorf("project.images_dir is required")
	}
	if c.Colmap.Bin == "" {
		return fmt.Errorf("colmap.bin is required")
	}
	if c.Brush.Run && c.Brush.Bin == "" {
		return fmt.Errorf("brush.bin is required when training is enabled")
	}
	if c.Masks.Extension == "" {
		return fmt.Errorf("masks.extension is required")
	}
	return nil
}
