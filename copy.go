package docmig

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

// copyExclusions are build artifacts and VCS metadata never worth
// carrying into the target tree.
var copyExclusions = map[string]struct{}{
	"node_modules": {},
	".git":         {},
	".svn":         {},
	"dist":         {},
}

// optionalAssets are sources a guide may mention without shipping;
// their absence warrants a warning, not an aborted phase.
var optionalAssets = []string{
	"examples",
	"logo",
	"screenshots",
	".env.example",
}

func IsOptionalAsset(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	for _, opt := range optionalAssets {
		if strings.Contains(base, opt) {
			return true
		}
	}
	return false
}

// CopyPath copies a file or directory tree from src to dst. Copying the
// same source twice leaves dst byte-identical, so repeated runs are safe.
func (m *Mutator) CopyPath(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return &SourceNotFoundError{Path: src}
	}

	if info.IsDir() {
		return m.copyDir(src, dst)
	}
	return m.copyFile(src, dst)
}

func (m *Mutator) copyDir(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	if err := EnsureDir(dst); err != nil {
		return err
	}

	for _, entry := range entries {
		if _, excluded := copyExclusions[entry.Name()]; excluded {
			m.log.Debugf("copy skips %s", filepath.Join(src, entry.Name()))
			continue
		}

		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if entry.IsDir() {
			if err := m.copyDir(srcPath, dstPath); err != nil {
				return err
			}
			continue
		}
		if err := m.copyFile(srcPath, dstPath); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mutator) copyFile(src, dst string) error {
	if sameContent(src, dst) {
		m.log.Debugf("skip %s: already identical", dst)
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := EnsureDir(filepath.Dir(dst)); err != nil {
		return err
	}
	if m.beforeWrite != nil {
		m.beforeWrite(dst)
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func sameContent(a, b string) bool {
	ha, err := GetFileSHA256(a)
	if err != nil {
		return false
	}
	hb, err := GetFileSHA256(b)
	if err != nil {
		return false
	}
	return ha == hb
}
