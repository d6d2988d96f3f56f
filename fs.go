package docmig

import (
	"bytes"
	"compress/zlib"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
)

// PathResolver anchors relative paths to one tree root (the source tree
// holding the guides, or the target scaffold being mutated).
type PathResolver struct {
	root string
}

func NewPathResolver(root string) (*PathResolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &PathResolver{root: abs}, nil
}

func (r *PathResolver) Root() string { return r.root }

func (r *PathResolver) Resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(r.root, path)
}

func (r *PathResolver) ResolveExisting(path string) string {
	p := r.Resolve(path)
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return ""
}

func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &NotFoundError{Path: path}
		}
		return "", err
	}
	return string(data), nil
}

func WriteText(path, content string) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

func EnsureDir(dir string) error {
	if dir == "" || dir == "." || dir == "/" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

func GetFileSHA256(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// TrashFile moves a deleted file under the state trash dir, keyed by its
// path relative to the target root so undo can put it back.
func TrashFile(path, trashDir, root string) error {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}

	dest := filepath.Join(trashDir, rel)
	if err := EnsureDir(filepath.Dir(dest)); err != nil {
		return err
	}
	return os.Rename(path, dest)
}

func RestoreFileFromTrash(path, trashDir, root string) error {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}

	src := filepath.Join(trashDir, rel)
	if !Exists(src) {
		return &NotFoundError{Path: src}
	}
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return os.Rename(src, path)
}

func WriteBlob(dir, hash string, content []byte) error {
	blobDir := filepath.Join(dir, BlobsDir)
	if err := EnsureDir(blobDir); err != nil {
		return err
	}

	var b bytes.Buffer
	w := zlib.NewWriter(&b)
	if _, err := w.Write(content); err != nil {
		return err
	}
	w.Close()

	return os.WriteFile(filepath.Join(blobDir, hash), b.Bytes(), 0644)
}

func ReadBlob(dir, hash string) ([]byte, error) {
	if hash == "" {
		return []byte{}, nil
	}

	data, err := os.ReadFile(filepath.Join(dir, BlobsDir, hash))
	if err != nil {
		return nil, err
	}

	if !isZlibCompressed(data) {
		return data, nil
	}

	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return data, nil
	}
	defer r.Close()

	return io.ReadAll(r)
}

func isZlibCompressed(data []byte) bool {
	return len(data) > 2 && data[0] == 0x78
}
