package shared

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/desertthunder/mapx/internal/models"
)

// sniffLen is the number of bytes [http.DetectContentType] considers.
const sniffLen = 512

// ResolveFiles expands paths, glob patterns and directories into an ordered file list.
//
// Directories contribute their regular files (non-recursive, sorted by name). Pattern order is kept and duplicate paths are dropped.
// A pattern that matches nothing is an [ErrInvalidInput] error.
func ResolveFiles(patterns []string) ([]models.File, error) {
	var files []models.File
	seen := make(map[string]bool)

	add := func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		if seen[abs] {
			return nil
		}
		f, err := DescribeFile(path)
		if err != nil {
			return err
		}
		seen[abs] = true
		files = append(files, f)
		return nil
	}

	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("%w: bad pattern %q: %v", ErrInvalidInput, pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: no files match %q", ErrInvalidInput, pattern)
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}

			if !info.IsDir() {
				if err := add(match); err != nil {
					return nil, err
				}
				continue
			}

			entries, err := os.ReadDir(match)
			if err != nil {
				return nil, fmt.Errorf("failed to read directory %s: %w", match, err)
			}
			sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
			for _, entry := range entries {
				if !entry.Type().IsRegular() {
					continue
				}
				if err := add(filepath.Join(match, entry.Name())); err != nil {
					return nil, err
				}
			}
		}
	}

	return files, nil
}

// DescribeFile stats a single file and detects its MIME type.
func DescribeFile(path string) (models.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return models.File{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if info.IsDir() {
		return models.File{}, fmt.Errorf("%w: %s is a directory", ErrInvalidInput, path)
	}

	mimeType, err := DetectMIMEType(path)
	if err != nil {
		return models.File{}, err
	}

	return models.File{
		Name:     filepath.Base(path),
		Path:     path,
		MIMEType: mimeType,
		Size:     info.Size(),
	}, nil
}

// DetectMIMEType returns the MIME type for path, by extension first and by content sniffing otherwise.
//
// Parameters such as "; charset=utf-8" are stripped.
func DetectMIMEType(path string) (string, error) {
	if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
		return stripParams(byExt), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if n == 0 {
		return "", nil
	}

	return stripParams(http.DetectContentType(buf[:n])), nil
}

func stripParams(mimeType string) string {
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.TrimSpace(mimeType)
}

// SplitPatterns splits free-form selection input on whitespace, honouring double quotes for paths with spaces.
func SplitPatterns(input string) []string {
	var (
		patterns []string
		current  strings.Builder
		quoted   bool
	)

	flush := func() {
		if current.Len() > 0 {
			patterns = append(patterns, current.String())
			current.Reset()
		}
	}

	for _, r := range input {
		switch {
		case r == '"':
			quoted = !quoted
		case !quoted && (r == ' ' || r == '\t' || r == '\n'):
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return patterns
}
