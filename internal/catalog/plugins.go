package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// PluginRegistry lists the problem generators that can be selected.
type PluginRegistry interface {
	ListAvailable(ctx context.Context) ([]string, error)
}

// DefaultPluginExt is the source extension of problem generator files.
const DefaultPluginExt = ".cpp"

// DirRegistry discovers problem generators from the source files in a directory.
// A file named shock_tube.cpp makes "shock_tube" available.
type DirRegistry struct {
	Dir string
	// Ext defaults to DefaultPluginExt when empty.
	Ext string
}

// ListAvailable returns the sorted file stems found in Dir.
func (r DirRegistry) ListAvailable(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := r.Ext
	if ext == "" {
		ext = DefaultPluginExt
	}

	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		return nil, fmt.Errorf("reading problem generator directory %s: %w", r.Dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) != ext {
			continue
		}
		stem := strings.TrimSuffix(name, ext)
		if stem == "" {
			continue
		}
		names = append(names, stem)
	}
	slices.Sort(names)
	return names, nil
}

// StaticRegistry is a fixed list of problem generators.
type StaticRegistry []string

// ListAvailable returns a sorted copy of the list.
func (r StaticRegistry) ListAvailable(_ context.Context) ([]string, error) {
	names := slices.Clone([]string(r))
	slices.Sort(names)
	return slices.Compact(names), nil
}
