// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scan enumerates the PDFs under a zotfile directory.
package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Ext is the extension of the files the tool manages. Matching is
// case-sensitive.
const Ext = ".pdf"

// ErrDirectoryNotFound is returned when the root is missing or is not a
// directory.
var ErrDirectoryNotFound = errors.New("directory not found")

// Root validates dir and returns its absolute form.
func Root(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", dir, ErrDirectoryNotFound)
		}
		return "", fmt.Errorf("checking %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory: %w", dir, ErrDirectoryNotFound)
	}
	return abs, nil
}

// PDFs walks root recursively and returns the absolute paths of all regular
// files ending in Ext, in lexical walk order.
func PDFs(root string) ([]string, error) {
	abs, err := Root(root)
	if err != nil {
		return nil, err
	}

	var paths []string
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() || filepath.Ext(path) != Ext {
			return nil
		}
		if !d.Type().IsRegular() && d.Type()&fs.ModeSymlink == 0 {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
