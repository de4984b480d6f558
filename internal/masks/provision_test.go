package masks

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/splatforge/splatpipe/internal/fsutil"
)

func newProvisioner(m *fsutil.MemoryFileSystem) *Provisioner {
	return &Provisioner{FS: m, Log: zap.NewNop().Sugar()}
}

func listDir(t *testing.T, m *fsutil.MemoryFileSystem, dir string) []string {
	t.Helper()
	entries, err := m.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestProvision_CopiesMatchingMasks(t *testing.T) {
	t.Parallel()

	m := seedFS(t, 4, 3)
	// Non-matching files in the source are skipped.
	require.NoError(t, m.WriteFile("/masks/notes.txt", []byte("x"), 0644))

	d := Resolve(m, "/masks", "/images", "png")
	require.True(t, d.Active)

	copied, err := newProvisioner(m).Provision(d, "/proj/dense/0/masks")
	require.NoError(t, err)
	assert.Equal(t, 3, copied)
	assert.Equal(t, []string{"img000.png", "img001.png", "img002.png"}, listDir(t, m, "/proj/dense/0/masks"))
}

func TestProvision_Idempotent(t *testing.T) {
	t.Parallel()

	m := seedFS(t, 2, 2)
	d := Resolve(m, "/masks", "/images", "png")
	p := newProvisioner(m)

	_, err := p.Provision(d, "/dest")
	require.NoError(t, err)
	first := listDir(t, m, "/dest")

	_, err = p.Provision(d, "/dest")
	require.NoError(t, err)
	assert.Equal(t, first, listDir(t, m, "/dest"))
}

func TestProvision_OverwritesStaleCopies(t *testing.T) {
	t.Parallel()

	m := seedFS(t, 1, 1)
	d := Resolve(m, "/masks", "/images", "png")
	p := newProvisioner(m)

	_, err := p.Provision(d, "/dest")
	require.NoError(t, err)

	// Source changes between runs; a re-run must win over the stale copy.
	require.NoError(t, m.WriteFile("/masks/img000.png", []byte("v2"), 0644))
	_, err = p.Provision(d, "/dest")
	require.NoError(t, err)

	got, err := m.ReadFile("/dest/img000.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

func TestProvision_InactiveIsNoOp(t *testing.T) {
	t.Parallel()

	m := seedFS(t, 5, 0)
	d := Resolve(m, "/masks", "/images", "png")
	require.False(t, d.Active)

	copied, err := newProvisioner(m).Provision(d, "/dest")
	require.NoError(t, err)
	assert.Zero(t, copied)
	assert.False(t, m.Exists("/dest"), "inactive provisioning must not create the masks directory")
}
