package inventory

import (
	"context"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/yuya-takeyama/s3-to-b2/internal/store"
)

// Collect enumerates the source objects eligible for transfer, dropping
// keys that match an exclude pattern. A listing failure aborts the run:
// without a complete inventory there is nothing safe to schedule.
func Collect(ctx context.Context, src store.ObjectStore, prefix string, excludes []string) ([]store.Object, error) {
	objects, err := src.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list source objects: %w", err)
	}

	if len(excludes) == 0 {
		return objects, nil
	}

	filtered := make([]store.Object, 0, len(objects))
	for _, obj := range objects {
		excluded, err := IsExcluded(obj.Key, excludes)
		if err != nil {
			return nil, fmt.Errorf("match exclude pattern against %s: %w", obj.Key, err)
		}
		if excluded {
			continue
		}
		filtered = append(filtered, obj)
	}

	return filtered, nil
}

// IsExcluded reports whether key matches any of the patterns. Patterns
// use doublestar syntax, so "**/*.tmp" matches at any depth.
func IsExcluded(key string, patterns []string) (bool, error) {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, key)
		if err != nil {
			return false, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}
