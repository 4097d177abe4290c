package build

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/conneroisu/swatch/internal/errors"
)

// Passthrough copies static files that match any of Patterns, relative to
// Root, without processing them.
type Passthrough struct {
	Root     string
	Patterns []string
}

// AssetFile is one copied asset
type AssetFile struct {
	Path   string `json:"path"`
	Output string `json:"output"`
	Size   int64  `json:"size"`
}

// Matches reports whether the file at path lies under Root and matches one
// of the patterns. The watcher uses it to spot asset changes.
func (p Passthrough) Matches(path string) bool {
	rel, ok := p.rel(path)
	return ok && p.matchRel(rel)
}

func (p Passthrough) matchRel(rel string) bool {
	for _, pattern := range p.Patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// rel returns path relative to Root in slash form
func (p Passthrough) rel(path string) (string, bool) {
	root, err := filepath.Abs(p.Root)
	if err != nil {
		return "", false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// Copy copies every matching file below Root into dst, keeping relative
// paths. A missing Root copies nothing.
func (p Passthrough) Copy(ctx context.Context, dst string) ([]AssetFile, error) {
	if len(p.Patterns) == 0 {
		return nil, nil
	}
	if _, err := os.Stat(p.Root); os.IsNotExist(err) {
		return nil, nil
	}

	var copied []AssetFile
	err := filepath.WalkDir(p.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(p.Root, path)
		if err != nil {
			return err
		}
		if !p.matchRel(filepath.ToSlash(rel)) {
			return nil
		}

		out := filepath.Join(dst, rel)
		size, err := copyFile(path, out)
		if err != nil {
			return errors.NewIOError(errors.ErrCodeAssetCopy, "failed to copy asset", err).WithFile(path)
		}
		copied = append(copied, AssetFile{Path: path, Output: out, Size: size})
		return nil
	})
	return copied, err
}

func copyFile(src, dst string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}

	source, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer source.Close()

	dest, err := os.Create(dst)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(dest, source)
	if closeErr := dest.Close(); err == nil {
		err = closeErr
	}
	return n, err
}
