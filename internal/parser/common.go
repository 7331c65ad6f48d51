package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MaxSnippetSize bounds how much of a single file is read. Snippet files are
// a few hundred bytes; anything past this is not a snippet.
const MaxSnippetSize = 1 << 20

// ErrMalformed marks input that does not have snippet structure.
var ErrMalformed = errors.New("malformed snippet")

// Malformed returns an error wrapping ErrMalformed with a formatted reason.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// ReadSnippetFile reads a whole snippet file, rejecting empty files and files
// larger than MaxSnippetSize. The file is closed before returning.
func ReadSnippetFile(path string) ([]byte, error) {
	// #nosec G304 - path comes from walking the user-supplied source directory
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, MaxSnippetSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	if len(data) > MaxSnippetSize {
		return nil, Malformed("file exceeds %d bytes", MaxSnippetSize)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, Malformed("file is empty")
	}
	return data, nil
}

// NormalizeLineEndings converts \r\n and lone \r to \n.
func NormalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// TriggerFromFileName derives a trigger from a file name by dropping the
// directory and extension.
func TriggerFromFileName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
}

// DiscoverFiles lists the files under baseDir that match accept, sorted by
// their slash-separated path relative to baseDir so enumeration order is
// stable across platforms. With recursive set, subdirectories are walked,
// following symlinked directories with cycle detection.
func DiscoverFiles(baseDir string, recursive bool, accept func(path string) bool) ([]string, error) {
	info, err := os.Stat(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to stat directory %q: %w", baseDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", baseDir)
	}

	var files []string
	if recursive {
		err = walkFollowSymlinks(baseDir, func(path string, info os.FileInfo) error {
			if !info.IsDir() && accept(path) {
				files = append(files, path)
			}
			return nil
		})
	} else {
		files, err = listDir(baseDir, accept)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return relKey(baseDir, files[i]) < relKey(baseDir, files[j])
	})
	return files, nil
}

func listDir(dir string, accept func(path string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %q: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		// Stat follows symlinks so linked snippet files are included.
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if accept(path) {
			files = append(files, path)
		}
	}
	return files, nil
}

func relKey(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// walkFollowSymlinks walks a directory tree, following symlinks to directories.
// Cycles are avoided by tracking resolved directory paths.
func walkFollowSymlinks(root string, walkFn func(path string, info os.FileInfo) error) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("failed to read directory %q: %w", root, err)
	}
	visited := make(map[string]bool)
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		visited[resolved] = true
	}
	for _, entry := range entries {
		if err := walkEntry(filepath.Join(root, entry.Name()), visited, walkFn); err != nil {
			return err
		}
	}
	return nil
}

func walkEntry(path string, visited map[string]bool, walkFn func(path string, info os.FileInfo) error) error {
	info, err := os.Stat(path)
	if err != nil {
		return nil // dangling symlink or unreadable entry
	}

	if !info.IsDir() {
		return walkFn(path, info)
	}

	realPath, err := filepath.EvalSymlinks(path)
	if err != nil || visited[realPath] {
		return nil
	}
	visited[realPath] = true

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil // unreadable subdirectories are skipped, not fatal
	}
	for _, entry := range entries {
		if err := walkEntry(filepath.Join(path, entry.Name()), visited, walkFn); err != nil {
			return err
		}
	}
	return nil
}
