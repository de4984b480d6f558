package masks

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splatforge/splatpipe/internal/fsutil"
)

// seedFS builds an in-memory tree with the given number of images and masks.
func seedFS(t *testing.T, images, pngMasks int) *fsutil.MemoryFileSystem {
	t.Helper()
	m := fsutil.NewMemoryFileSystem()
	require.NoError(t, m.MkdirAll("/images", 0755))
	for i := 0; i < images; i++ {
		require.NoError(t, m.WriteFile(fmt.Sprintf("/images/img%03d.jpg", i), []byte("x"), 0644))
	}
	if pngMasks >= 0 {
		require.NoError(t, m.MkdirAll("/masks", 0755))
		for i := 0; i < pngMasks; i++ {
			require.NoError(t, m.WriteFile(fmt.Sprintf("/masks/img%03d.png", i), []byte("m"), 0644))
		}
	}
	return m
}

func TestResolve_NoDirectoryConfigured(t *testing.T) {
	t.Parallel()
	m := seedFS(t, 10, -1)

	d := Resolve(m, "", "/images", "png")

	assert.False(t, d.Active)
	assert.Zero(t, d.MaskCount)
	assert.Empty(t, d.Warnings)
	assert.NotEmpty(t, d.Notes)
}

func TestResolve_DirectoryMissing(t *testing.T) {
	t.Parallel()
	m := seedFS(t, 10, -1)

	d := Resolve(m, "/masks", "/images", "png")

	assert.False(t, d.Active)
	assert.Empty(t, d.Warnings, "a missing directory is informational, not degraded")
	assert.NotEmpty(t, d.Notes)
}

func TestResolve_DirectoryEmptyOfMatchingMasks(t *testing.T) {
	t.Parallel()
	m := seedFS(t, 10, 0)
	// A file with the wrong extension must not count.
	require.NoError(t, m.WriteFile("/masks/readme.txt", []byte("x"), 0644))

	d := Resolve(m, "/masks", "/images", "png")

	assert.False(t, d.Active)
	assert.Zero(t, d.MaskCount)
	require.Len(t, d.Warnings, 1)
	assert.Contains(t, d.Warnings[0], "no *.png files")
}

func TestResolve_Shortfall(t *testing.T) {
	t.Parallel()
	m := seedFS(t, 10, 4)

	d := Resolve(m, "/masks", "/images", "png")

	assert.True(t, d.Active)
	assert.Equal(t, 4, d.MaskCount)
	assert.Equal(t, 10, d.ImageCount)
	require.Len(t, d.Warnings, 1)
	assert.Contains(t, d.Warnings[0], "fewer masks than images")
}

func TestResolve_FullCoverage(t *testing.T) {
	t.Parallel()
	m := seedFS(t, 6, 6)

	d := Resolve(m, "/masks", "/images", "png")

	assert.True(t, d.Active)
	assert.Equal(t, 6, d.MaskCount)
	assert.Equal(t, 6, d.ImageCount)
	assert.Empty(t, d.Warnings)
}

func TestResolve_MoreMasksThanImages(t *testing.T) {
	t.Parallel()
	m := seedFS(t, 3, 5)

	d := Resolve(m, "/masks", "/images", "png")

	assert.True(t, d.Active)
	assert.Empty(t, d.Warnings)
}

func TestResolve_ZeroImagesSkipsShortfall(t *testing.T) {
	t.Parallel()
	m := seedFS(t, 0, 3)

	d := Resolve(m, "/masks", "/images", "png")

	assert.True(t, d.Active)
	assert.Equal(t, 0, d.ImageCount)
	assert.Empty(t, d.Warnings)
}

func TestResolve_ActivationMatrix(t *testing.T) {
	t.Parallel()

	cases := []struct {
		images, masks int
		active        bool
		shortfall     bool
	}{
		{0, 0, false, false},
		{0, 1, true, false},
		{1, 0, false, false},
		{1, 1, true, false},
		{5, 1, true, true},
		{5, 5, true, false},
		{1, 5, true, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(fmt.Sprintf("i%d_m%d", tc.images, tc.masks), func(t *testing.T) {
			t.Parallel()
			m := seedFS(t, tc.images, tc.masks)
			d := Resolve(m, "/masks", "/images", "png")

			assert.Equal(t, tc.active, d.Active)
			if tc.active {
				assert.Greater(t, d.MaskCount, 0, "active implies masks present")
				assert.True(t, m.IsDir(d.SourceDir), "active implies source dir exists")
			}
			hasShortfall := false
			for _, w := range d.Warnings {
				if strings.Contains(w, "fewer masks") {
					hasShortfall = true
				}
			}
			assert.Equal(t, tc.shortfall, hasShortfall)
		})
	}
}

func TestCountByExtension(t *testing.T) {
	t.Parallel()

	m := fsutil.NewMemoryFileSystem()
	require.NoError(t, m.MkdirAll("/d/sub", 0755))
	require.NoError(t, m.WriteFile("/d/a.JPG", nil, 0644))
	require.NoError(t, m.WriteFile("/d/b.jpeg", nil, 0644))
	require.NoError(t, m.WriteFile("/d/c.PNG", nil, 0644))
	require.NoError(t, m.WriteFile("/d/d.tiff", nil, 0644))
	require.NoError(t, m.WriteFile("/d/e.txt", nil, 0644))
	require.NoError(t, m.WriteFile("/d/sub/nested.jpg", nil, 0644))

	t.Run("case-insensitive, non-recursive", func(t *testing.T) {
		t.Parallel()
		got := CountByExtension(m, "/d", []string{".jpg", ".jpeg", ".png", ".tif", ".tiff"})
		assert.Equal(t, 4, got)
	})

	t.Run("single extension", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 1, CountByExtension(m, "/d", []string{".png"}))
	})

	t.Run("missing directory is zero", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, 0, CountByExtension(m, "/elsewhere", []string{".png"}))
	})
}
