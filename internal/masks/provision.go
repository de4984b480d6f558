package masks

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/splatforge/splatpipe/internal/fsutil"
)

// Provisioner copies reconciled dense masks into the trainer dataset.
type Provisioner struct {
	FS  fsutil.FileSystem
	Log *zap.SugaredLogger
}

// Provision copies every file matching the decision's extension from its
// source directory into destDir, overwriting files of the same name so
// re-runs stay in sync with the source. An inactive decision is a logged
// no-op. Returns the number of files copied.
func (p *Provisioner) Provision(d Decision, destDir string) (int, error) {
	if !d.Active {
		p.Log.Infow("no masks to provision; skipping copy", "dest", destDir)
		return 0, nil
	}

	if err := p.FS.MkdirAll(destDir, 0755); err != nil {
		return 0, fmt.Errorf("create mask directory %s: %w", destDir, err)
	}

	entries, err := p.FS.ReadDir(d.SourceDir)
	if err != nil {
		return 0, fmt.Errorf("list mask directory %s: %w", d.SourceDir, err)
	}

	want := "." + strings.ToLower(d.Extension)
	copied := 0
	for _, e := range entries {
		if e.IsDir() || strings.ToLower(filepath.Ext(e.Name())) != want {
			continue
		}
		src := filepath.Join(d.SourceDir, e.Name())
		dst := filepath.Join(destDir, e.Name())
		if err := fsutil.CopyFile(p.FS, src, dst); err != nil {
			return copied, fmt.Errorf("provision mask %s: %w", e.Name(), err)
		}
		copied++
	}

	p.Log.Infow("trainer masks ready", "copied", copied, "dest", destDir)
	return copied, nil
}
