// Package dropdir gives sandboxed file access to the CSV drop directory:
// export files placed there are picked up by the import watcher and moved
// to a processed/ subdirectory after a successful import.
package dropdir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/lisearch/internal/checksum"
)

// ProcessedDir is where imported files are archived, relative to root.
const ProcessedDir = "processed"

// FileMeta describes one CSV file awaiting import.
type FileMeta struct {
	Path      string // relative to the drop root
	Checksum  string
	UpdatedAt time.Time
}

// Dir is a drop directory rooted at an absolute path.
type Dir struct {
	root string
}

// New creates a Dir rooted at the given directory. The directory must
// already exist.
func New(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("dropdir: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("dropdir: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dropdir: root is not a directory: %s", abs)
	}
	return &Dir{root: abs}, nil
}

// Root returns the absolute drop directory path.
func (d *Dir) Root() string { return d.root }

// safePath resolves a relative path against the root and rejects any
// result that escapes it (directory traversal).
func (d *Dir) safePath(rel string) (string, error) {
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("dropdir: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(d.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("dropdir: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, d.root+string(os.PathSeparator)) && abs != d.root {
		return "", fmt.Errorf("dropdir: path escapes drop root: %s", rel)
	}
	return abs, nil
}

// List returns metadata for every top-level .csv file in the drop
// directory. Archived files under processed/ are not listed.
func (d *Dir) List() ([]FileMeta, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("dropdir: list: %w", err)
	}
	var out []FileMeta
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("dropdir: stat %s: %w", e.Name(), err)
		}
		data, err := os.ReadFile(filepath.Join(d.root, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("dropdir: read %s: %w", e.Name(), err)
		}
		out = append(out, FileMeta{
			Path:      e.Name(),
			Checksum:  checksum.Sum(data),
			UpdatedAt: info.ModTime(),
		})
	}
	return out, nil
}

// Read returns the raw bytes of a file in the drop directory.
func (d *Dir) Read(path string) ([]byte, error) {
	abs, err := d.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("dropdir: read %s: %w", path, err)
	}
	return data, nil
}

// MoveToProcessed archives an imported file under processed/, suffixing
// the name with a timestamp when the target already exists. Returns the
// new path relative to root.
func (d *Dir) MoveToProcessed(path string) (string, error) {
	absOld, err := d.safePath(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Join(d.root, ProcessedDir), 0o755); err != nil {
		return "", fmt.Errorf("dropdir: mkdir processed: %w", err)
	}

	rel := filepath.Join(ProcessedDir, filepath.Base(path))
	absNew, err := d.safePath(rel)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(absNew); err == nil {
		base := filepath.Base(path)
		ext := filepath.Ext(base)
		stamped := fmt.Sprintf("%s-%d%s", strings.TrimSuffix(base, ext), time.Now().UnixMilli(), ext)
		rel = filepath.Join(ProcessedDir, stamped)
		absNew = filepath.Join(d.root, rel)
	}
	if err := os.Rename(absOld, absNew); err != nil {
		return "", fmt.Errorf("dropdir: move: %w", err)
	}
	return rel, nil
}
