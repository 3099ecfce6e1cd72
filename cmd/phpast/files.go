package main

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/src-d/enry/v2"
)

const languagePHP = "PHP"

// phpOpenTag settles extensions PHP shares with other languages (.inc, .php).
var phpOpenTag = []byte("<?php")

// collectPHPFiles walks dir and returns the PHP sources in lexical order,
// skipping hidden and vendored directories.
func collectPHPFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return fmt.Errorf("relative path of %s: %w", path, relErr)
		}

		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if rel != "." && (isHiddenDir(entry.Name()) || enry.IsVendor(rel+"/")) {
				return filepath.SkipDir
			}

			return nil
		}

		if entry.Type().IsRegular() && isPHPFile(path, rel) {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	return files, nil
}

// isPHPFile reports whether path holds PHP source. rel is the slash separated
// path used for vendor matching.
func isPHPFile(path, rel string) bool {
	if enry.IsVendor(rel) || enry.IsDotFile(rel) {
		return false
	}

	if lang, safe := enry.GetLanguageByExtension(path); safe {
		return lang == languagePHP
	}

	if !slices.Contains(enry.GetLanguagesByExtension(path, nil, nil), languagePHP) {
		return false
	}

	//nolint:gosec // path comes from walking a user-selected directory.
	content, err := os.ReadFile(path)
	if err != nil {
		return false
	}

	return bytes.Contains(content, phpOpenTag) || enry.GetLanguage(filepath.Base(path), content) == languagePHP
}

// isHiddenDir returns true for directories that start with a dot (e.g. .git),
// except for "." and ".." which are filesystem navigation entries.
func isHiddenDir(name string) bool {
	return len(name) > 1 && name[0] == '.'
}
