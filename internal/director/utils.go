package director

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// StoryboardsDir is where storyboards live by default.
const StoryboardsDir = "storyboards"

// GenerateStoryboardPath creates a timestamped storyboard filename in dir
func GenerateStoryboardPath(dir string, now time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("storyboard_%s.yaml", now.Format("2006-01-02_15-04-05")))
}

// FindLatestStoryboard finds the most recently modified storyboard in dir
func FindLatestStoryboard(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read storyboards directory: %w", err)
	}

	type candidate struct {
		path string
		mod  time.Time
	}
	var found []candidate
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		found = append(found, candidate{filepath.Join(dir, name), info.ModTime()})
	}

	if len(found) == 0 {
		return "", fmt.Errorf("no storyboard files found in %s", dir)
	}

	// Newest first; names break ties so the result is stable.
	sort.Slice(found, func(i, j int) bool {
		if !found[i].mod.Equal(found[j].mod) {
			return found[i].mod.After(found[j].mod)
		}
		return found[i].path > found[j].path
	})

	return found[0].path, nil
}
