package inventory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeExecutable(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
}

func TestLoad_DiscoversProjectsAndVPs(t *testing.T) {
	root := t.TempDir()
	projDir := filepath.Join(root, "projects")
	vpDir := filepath.Join(root, "vps")
	require.NoError(t, os.Mkdir(projDir, 0o755))
	require.NoError(t, os.Mkdir(vpDir, 0o755))

	p1 := filepath.Join(projDir, "p1")
	require.NoError(t, os.Mkdir(p1, 0o755))
	writeExecutable(t, filepath.Join(p1, "app"))
	require.NoError(t, os.WriteFile(filepath.Join(p1, "main.c"), []byte("int main(){}"), 0o644))

	writeExecutable(t, filepath.Join(vpDir, "vp64"))
	require.NoError(t, os.WriteFile(filepath.Join(vpDir, "readme.txt"), []byte("not a vp"), 0o644))

	snap, err := Load(projDir, vpDir)
	require.NoError(t, err)

	require.Len(t, snap.Projects, 1)
	assert.Equal(t, "app", snap.Projects[0].Binary)
	assert.Equal(t, "main.c", snap.Projects[0].Source)

	require.Len(t, snap.VPs, 1)
	assert.Equal(t, "vp64", filepath.Base(snap.VPs[0]))
}

func TestLoad_ProjectWithoutBinaryIsSkipped(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "vps"), 0o755))
	empty := filepath.Join(root, "p_empty")
	require.NoError(t, os.Mkdir(empty, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(empty, "notes.c"), []byte("x"), 0o644))

	snap, err := Load(root, filepath.Join(root, "vps"))
	require.NoError(t, err)
	assert.Len(t, snap.Projects, 0)
}

func TestSnapshot_ToTransferUsesBasenames(t *testing.T) {
	snap := Snapshot{
		Projects: []Project{{Directory: "/a/b/proj1", Binary: "x"}},
		VPs:      []string{"/a/b/vp64"},
	}
	tr := snap.ToTransfer()
	assert.Equal(t, []string{"proj1"}, tr.Dirs)
	assert.Equal(t, []string{"vp64"}, tr.VPs)
}

func TestSnapshot_FindVPAndProject(t *testing.T) {
	snap := Snapshot{
		Projects: []Project{{Directory: "/a/p1", Binary: "app"}},
		VPs:      []string{"/a/vp64"},
	}
	path, ok := snap.FindVP("vp64")
	require.True(t, ok)
	assert.Equal(t, "/a/vp64", path)

	_, ok = snap.FindVP("missing")
	assert.False(t, ok)

	proj, ok := snap.FindProject("p1")
	require.True(t, ok)
	assert.Equal(t, "app", proj.Binary)
}
