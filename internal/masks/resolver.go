// Package masks reconciles optional per-image mask data against the image
// set from filesystem evidence alone.
//
// Masking participates in two distinct stages with different path
// expectations: source masks feed the reconstructor's feature extraction,
// dense masks are copied into the trainer dataset. The two resolutions are
// independent and never share state.
package masks

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/splatforge/splatpipe/internal/fsutil"
)

// imageExtensions are the extensions counted as images, lowercase with dot.
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".tif", ".tiff"}

// Decision is the reconciled outcome of inspecting one mask source.
//
// Invariant: Active implies MaskCount > 0 and SourceDir is an existing
// directory. A shortfall (MaskCount < ImageCount) does not deactivate
// masking; images without a matching mask are processed unmasked by the
// downstream tool.
type Decision struct {
	Active     bool
	SourceDir  string
	MaskCount  int
	ImageCount int
	Extension  string

	// Notes are informational; Warnings flag degraded masking. Neither
	// blocks the pipeline.
	Notes    []string
	Warnings []string
}

// Resolve inspects candidateDir against imagesDir and decides whether
// masking is active for the consuming stage. Reads directory listings only;
// never writes, never fails.
func Resolve(fsys fsutil.FileSystem, candidateDir, imagesDir, ext string) Decision {
	d := Decision{Extension: ext}

	if candidateDir == "" {
		d.Notes = append(d.Notes, "no mask directory configured; continuing without masks")
		return d
	}
	if !fsys.IsDir(candidateDir) {
		d.Notes = append(d.Notes, fmt.Sprintf("mask directory not found: %s; continuing without masks", candidateDir))
		return d
	}

	d.SourceDir = candidateDir
	d.ImageCount = CountByExtension(fsys, imagesDir, imageExtensions)
	d.MaskCount = CountByExtension(fsys, candidateDir, []string{"." + strings.ToLower(ext)})

	if d.MaskCount == 0 {
		d.Warnings = append(d.Warnings, fmt.Sprintf("mask directory %s exists but contains no *.%s files", candidateDir, ext))
		return d
	}

	d.Active = true
	if d.ImageCount > 0 && d.MaskCount < d.ImageCount {
		d.Warnings = append(d.Warnings, fmt.Sprintf(
			"fewer masks than images (%d masks, %d images); unmatched images will be processed without masking",
			d.MaskCount, d.ImageCount))
	}
	return d
}

// CountByExtension counts regular files in dir whose extension
// (case-insensitive) is one of exts. Non-recursive. Extensions include the
// leading dot and must be lowercase. A missing or unreadable directory
// counts as zero.
func CountByExtension(fsys fsutil.FileSystem, dir string, exts []string) int {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return 0
	}

	count := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range exts {
			if ext == want {
				count++
				break
			}
		}
	}
	return count
}
