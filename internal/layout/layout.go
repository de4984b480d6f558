// Package layout derives the on-disk dataset layout for a pipeline run.
//
// Every path the pipeline reads or writes is a pure function of the project
// root and the images directory. The layout is derived once at startup and
// the value threaded through all components, so no two components can
// disagree about where an artifact lives.
package layout

import "path/filepath"

// ProjectLayout holds the full set of derived filesystem locations.
//
//	<root>/database.db        feature database
//	<root>/sparse/0           sparse SfM model (written by the mapper)
//	<root>/dense/0/images     undistorted images
//	<root>/dense/0/sparse     undistorted sparse model
//	<root>/dense/0/masks      optional trainer masks
//	<root>/brush_exports      trained scene exports
type ProjectLayout struct {
	ProjectRoot string
	ImagesDir   string

	DatabasePath string
	SparseDir    string
	DenseDir     string

	// Trainer dataset, created under dense/0 by the undistortion stage.
	TrainerDatasetDir string
	TrainerImagesDir  string
	TrainerSparseDir  string
	TrainerMasksDir   string

	ExportDir string
}

// Derive computes the layout for a project root and images directory.
// Pure: no I/O, no failure mode, identical inputs yield identical layouts.
func Derive(projectRoot, imagesDir string) ProjectLayout {
	dense := filepath.Join(projectRoot, "dense")
	dataset := filepath.Join(dense, "0")

	return ProjectLayout{
		ProjectRoot:       projectRoot,
		ImagesDir:         imagesDir,
		DatabasePath:      filepath.Join(projectRoot, "database.db"),
		SparseDir:         filepath.Join(projectRoot, "sparse"),
		DenseDir:          dense,
		TrainerDatasetDir: dataset,
		TrainerImagesDir:  filepath.Join(dataset, "images"),
		TrainerSparseDir:  filepath.Join(dataset, "sparse"),
		TrainerMasksDir:   filepath.Join(dataset, "masks"),
		ExportDir:         filepath.Join(projectRoot, "brush_exports"),
	}
}

// SparseModelDir returns the first reconstructed sparse model (sparse/0).
// The mapper writes it; the undistorter consumes it.
func (l ProjectLayout) SparseModelDir() string {
	return filepath.Join(l.SparseDir, "0")
}
