package dev

import (
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

func (w *watcher) getIsMatch(pattern string, path string) bool {
	combined := pattern + "\x00" + path

	if hit, isCached := w.matchResults.Load(combined); isCached {
		return hit
	}

	normalizedPath := filepath.ToSlash(path)

	matches, err := doublestar.Match(pattern, normalizedPath)
	if err != nil {
		w.config.Logger.Errorf("error: failed to match file: %v", err)
		return false
	}

	actualValue, _ := w.matchResults.LoadOrStore(combined, matches)
	return actualValue
}

func (w *watcher) getIsMatchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if w.getIsMatch(pattern, path) {
			return true
		}
	}
	return false
}
