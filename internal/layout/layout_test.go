package layout

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestDerive_Paths(t *testing.T) {
	t.Parallel()

	root := filepath.Join("work", "scene1")
	images := filepath.Join("capture", "photos")
	l := Derive(root, images)

	assert.Equal(t, root, l.ProjectRoot)
	assert.Equal(t, images, l.ImagesDir)
	assert.Equal(t, filepath.Join(root, "database.db"), l.DatabasePath)
	assert.Equal(t, filepath.Join(root, "sparse"), l.SparseDir)
	assert.Equal(t, filepath.Join(root, "dense"), l.DenseDir)
	assert.Equal(t, filepath.Join(root, "dense", "0"), l.TrainerDatasetDir)
	assert.Equal(t, filepath.Join(root, "dense", "0", "images"), l.TrainerImagesDir)
	assert.Equal(t, filepath.Join(root, "dense", "0", "sparse"), l.TrainerSparseDir)
	assert.Equal(t, filepath.Join(root, "dense", "0", "masks"), l.TrainerMasksDir)
	assert.Equal(t, filepath.Join(root, "brush_exports"), l.ExportDir)
	assert.Equal(t, filepath.Join(root, "sparse", "0"), l.SparseModelDir())
}

func TestDerive_Idempotent(t *testing.T) {
	t.Parallel()

	a := Derive("/data/proj", "/data/images")
	b := Derive("/data/proj", "/data/images")

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("Derive not idempotent (-first +second):\n%s", diff)
	}
}

func TestDerive_DatasetUnderDense(t *testing.T) {
	t.Parallel()

	l := Derive("p", "i")

	// The trainer dataset and all of its sub-paths live under dense/0; the
	// sparse model consumed by undistortion lives under sparse/0.
	assert.Equal(t, l.TrainerDatasetDir, filepath.Dir(l.TrainerImagesDir))
	assert.Equal(t, l.TrainerDatasetDir, filepath.Dir(l.TrainerSparseDir))
	assert.Equal(t, l.TrainerDatasetDir, filepath.Dir(l.TrainerMasksDir))
	assert.Equal(t, l.DenseDir, filepath.Dir(l.TrainerDatasetDir))
	assert.Equal(t, l.SparseDir, filepath.Dir(l.SparseModelDir()))
}
