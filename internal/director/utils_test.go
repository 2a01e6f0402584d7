package director

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateStoryboardPath(t *testing.T) {
	now := time.Date(2026, 2, 13, 1, 0, 0, 0, time.UTC)
	path := GenerateStoryboardPath(StoryboardsDir, now)
	assert.Equal(t, filepath.Join("storyboards", "storyboard_2026-02-13_01-00-00.yaml"), path)
}

func TestFindLatestStoryboard(t *testing.T) {
	dir := t.TempDir()

	files := []string{
		filepath.Join(dir, "storyboard_2026-02-12_10-00-00.yaml"),
		filepath.Join(dir, "storyboard_2026-02-13_01-00-00.yml"),
		filepath.Join(dir, "storyboard_2026-02-11_15-30-00.yaml"),
	}
	base := time.Now().Add(-24 * time.Hour)
	for i, f := range files {
		require.NoError(t, os.WriteFile(f, []byte("version: \"1\"\n"), 0644))
		modTime := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(f, modTime, modTime))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "newer.yaml"), 0755))

	latest, err := FindLatestStoryboard(dir)
	require.NoError(t, err)
	assert.Equal(t, files[len(files)-1], latest)

	_, err = FindLatestStoryboard(t.TempDir())
	assert.Error(t, err)
	_, err = FindLatestStoryboard(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
