// Package pluginws holds the plain filesystem glue the host application
// uses around its plugin workspace: enumerating installed plugins, removing
// one, and measuring how much disk a directory tree occupies. None of it
// touches license state.
package pluginws

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrInvalidPluginName is returned when a plugin name could escape the
// workspace root.
var ErrInvalidPluginName = errors.New("invalid plugin name")

// ListPlugins returns the names of the immediate subdirectories of the
// workspace root, sorted. A missing root is treated as an empty workspace,
// not an error.
func ListPlugins(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read workspace: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// RemovePlugin deletes a plugin directory and everything under it.
// Removing a plugin that does not exist is a no-op. Names that could
// resolve outside the workspace root are rejected.
func RemovePlugin(root, name string) error {
	if err := checkPluginName(name); err != nil {
		return err
	}
	dir := filepath.Join(root, name)
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove plugin %s: %w", name, err)
	}
	return nil
}

// DirSize returns the total size in bytes of the regular files under root.
// The walk does not follow symbolic links, so link cycles cannot loop it.
func DirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("walk %s: %w", root, err)
	}
	return total, nil
}

func checkPluginName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidPluginName, name)
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidPluginName, name)
	}
	return nil
}
