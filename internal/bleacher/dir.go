package bleacher

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/whit3rabbit/bleachcode/internal/config"
)

// Subdirectories of a directory run's target.
const (
	BleachedDir = "bleached"
	ContextDir  = "context"
)

// MappingSuffix is appended to a source's relative path to name its mapping
// file under ContextDir.
const MappingSuffix = ".map"

// DirReport summarizes a directory run.
type DirReport struct {
	Bleached int
	Copied   int
	Skipped  int
	Errors   []error
}

// Err folds the collected errors into one, or returns nil.
func (r *DirReport) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("directory processing finished with %d errors: %w", len(r.Errors), errors.Join(r.Errors...))
}

// ProcessDir bleaches every source file under sourceDir into
// targetDir/bleached, saves one mapping per file under targetDir/context and
// copies all other files unchanged. Paths matching a skip pattern are
// ignored. With AbortOnError the walk stops at the first failure; otherwise
// failures are collected in the report.
func (c *Context) ProcessDir(sourceDir, targetDir string) (*DirReport, error) {
	cfg := c.Config
	report := &DirReport{}
	bleachedPath := filepath.Join(targetDir, BleachedDir)
	contextPath := filepath.Join(targetDir, ContextDir)

	// The target may live inside the source tree; never walk into it.
	absTarget, err := filepath.Abs(targetDir)
	if err != nil {
		return nil, fmt.Errorf("error resolving target directory %s: %w", targetDir, err)
	}

	// fail records err and tells WalkDir whether to stop.
	fail := func(err error) error {
		report.Errors = append(report.Errors, err)
		if cfg.AbortOnError {
			return err
		}
		return nil
	}

	walkErr := filepath.WalkDir(sourceDir, func(entryPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return fail(fmt.Errorf("error accessing path %q: %w", entryPath, err))
		}

		relPath, err := filepath.Rel(sourceDir, entryPath)
		if err != nil {
			return fail(fmt.Errorf("error calculating relative path for %q: %w", entryPath, err))
		}
		if relPath == "." {
			return nil
		}

		if d.IsDir() {
			if abs, err := filepath.Abs(entryPath); err == nil && abs == absTarget {
				return filepath.SkipDir
			}
		}

		skipped, err := matchesAny(relPath, cfg.SkipPaths)
		if err != nil {
			return fail(fmt.Errorf("error matching skip pattern for %q: %w", relPath, err))
		}
		if skipped {
			report.Skipped++
			if !c.Silent {
				config.PrintInfo("Skipping: %s\n", entryPath)
			}
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			// Symlinks, devices and sockets are not followed.
			report.Skipped++
			if !c.Silent {
				config.PrintInfo("Skipping non-regular file: %s\n", entryPath)
			}
			return nil
		}

		target := filepath.Join(bleachedPath, relPath)
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fail(fmt.Errorf("error creating directory for file %s: %w", target, err))
		}

		if !hasExtension(entryPath, cfg.Extensions) {
			if !c.Silent {
				config.PrintInfo("Copying file: %s -> %s\n", entryPath, target)
			}
			if err := copyFile(entryPath, target); err != nil {
				return fail(fmt.Errorf("error copying file %s to %s: %w", entryPath, target, err))
			}
			report.Copied++
			return nil
		}

		if !c.Silent {
			config.PrintInfo("Processing: %s -> %s\n", entryPath, target)
		}
		res, err := ProcessFile(entryPath, c)
		if err != nil {
			return fail(fmt.Errorf("error processing file %s: %w", entryPath, err))
		}
		if err := WriteOutput(target, res); err != nil {
			return fail(err)
		}
		mapPath := filepath.Join(contextPath, relPath+MappingSuffix)
		if err := os.MkdirAll(filepath.Dir(mapPath), 0755); err != nil {
			return fail(fmt.Errorf("error creating directory for mapping %s: %w", mapPath, err))
		}
		if err := res.Table.SaveMapping(mapPath, c.Key); err != nil {
			return fail(fmt.Errorf("error saving mapping for %s: %w", entryPath, err))
		}
		report.Bleached++
		return nil
	})

	if walkErr != nil {
		// With AbortOnError the failing entry is already in the report.
		if !cfg.AbortOnError {
			report.Errors = append(report.Errors, walkErr)
		}
		return report, fmt.Errorf("error during directory walk of %s: %w", sourceDir, walkErr)
	}
	if !c.Silent {
		config.PrintInfo("Bleached %d, copied %d, skipped %d\n", report.Bleached, report.Copied, report.Skipped)
	}
	return report, report.Err()
}

func hasExtension(path string, exts []string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if strings.ToLower(strings.TrimPrefix(e, ".")) == ext {
			return true
		}
	}
	return false
}

// matchesAny reports whether relPath, or its base name, matches one of the
// glob patterns. Paths are matched with forward slashes.
func matchesAny(relPath string, patterns []string) (bool, error) {
	slashed := filepath.ToSlash(relPath)
	base := filepath.Base(relPath)
	for _, pattern := range patterns {
		for _, candidate := range []string{slashed, base} {
			matched, err := filepath.Match(pattern, candidate)
			if err != nil {
				return false, fmt.Errorf("invalid pattern '%s': %w", pattern, err)
			}
			if matched {
				return true, nil
			}
		}
	}
	return false, nil
}

// copyFile copies a single file from src to dst, preserving permissions.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat source file %s: %w", src, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", src)
	}

	source, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", src, err)
	}
	defer source.Close()

	destination, err := os.OpenFile(dst, os.O_RDWR|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", dst, err)
	}
	if _, err := io.Copy(destination, source); err != nil {
		destination.Close()
		return fmt.Errorf("failed to copy data from %s to %s: %w", src, dst, err)
	}
	return destination.Close()
}
