// Package filestore persists uploaded face and evidence images under a
// single root directory. Stored paths are root-relative with forward
// slashes, so they stay valid when the root moves between deployments.
package filestore

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Namespaces for the two fixed subtrees under the store root.
const (
	NamespaceFaces    = "faces"
	NamespaceEvidence = "evidence"
)

// NotFoundError indicates a stored path that does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// StorageError wraps a filesystem failure during a store operation.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Store manages blobs under a root directory.
type Store struct {
	root string
}

// New creates a store rooted at root and ensures the namespace
// subdirectories exist.
func New(root string) (*Store, error) {
	for _, ns := range []string{NamespaceFaces, NamespaceEvidence} {
		dir := filepath.Join(root, ns)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &StorageError{Op: "mkdir", Path: dir, Err: err}
		}
	}
	return &Store{root: root}, nil
}

// Root returns the configured root directory.
func (s *Store) Root() string {
	return s.root
}

// Extension derives a file extension from an original filename: the last
// dot-delimited segment, lower-cased. Defaults to ".jpg" when the name is
// missing or has no usable extension.
func Extension(originalName string) string {
	if originalName == "" {
		return ".jpg"
	}
	// filepath.Base guards against path segments in client-supplied names.
	base := filepath.Base(originalName)
	idx := strings.LastIndex(base, ".")
	if idx <= 0 || idx == len(base)-1 {
		return ".jpg"
	}
	return strings.ToLower(base[idx:])
}

// Save writes data under the given namespace using prefix plus the
// extension derived from originalName. Name collisions are resolved by
// appending _1, _2, ... until a free name is claimed. The claim uses an
// exclusive create, so two concurrent savers cannot win the same name.
// Returns the stored path relative to the root, with forward slashes.
func (s *Store) Save(namespace, prefix, originalName string, data []byte) (string, error) {
	if namespace != NamespaceFaces && namespace != NamespaceEvidence {
		return "", &StorageError{Op: "save", Path: namespace, Err: errors.New("unknown namespace")}
	}
	// The prefix becomes part of the filename, so it must not carry path
	// segments. A client-supplied prefix like "../x" would otherwise write
	// outside the root and return a path the read-side guard rejects.
	if prefix == "" || strings.ContainsAny(prefix, `/\`) || strings.Contains(prefix, "..") {
		return "", &StorageError{Op: "save", Path: prefix, Err: errors.New("invalid name prefix")}
	}

	ext := Extension(originalName)
	for counter := 0; ; counter++ {
		name := prefix + ext
		if counter > 0 {
			name = fmt.Sprintf("%s_%d%s", prefix, counter, ext)
		}
		abs := filepath.Join(s.root, namespace, name)

		f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", &StorageError{Op: "create", Path: abs, Err: err}
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(abs) // drop the partial file before surfacing the error
			return "", &StorageError{Op: "write", Path: abs, Err: err}
		}
		if err := f.Close(); err != nil {
			os.Remove(abs)
			return "", &StorageError{Op: "close", Path: abs, Err: err}
		}

		return namespace + "/" + name, nil
	}
}

// Read returns the raw bytes stored at a root-relative path.
func (s *Store) Read(rel string) ([]byte, error) {
	abs := s.abs(rel)
	data, err := os.ReadFile(abs)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &NotFoundError{Path: rel}
	}
	if err != nil {
		return nil, &StorageError{Op: "read", Path: abs, Err: err}
	}
	return data, nil
}

// Size returns the byte size of a stored file.
func (s *Store) Size(rel string) (int64, error) {
	info, err := os.Stat(s.abs(rel))
	if errors.Is(err, os.ErrNotExist) {
		return 0, &NotFoundError{Path: rel}
	}
	if err != nil {
		return 0, &StorageError{Op: "stat", Path: rel, Err: err}
	}
	return info.Size(), nil
}

// Delete removes a stored file. A missing file is not an error.
func (s *Store) Delete(rel string) error {
	err := os.Remove(s.abs(rel))
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return &StorageError{Op: "delete", Path: rel, Err: err}
}

// abs resolves a stored relative path against the root. Rooted cleaning
// keeps "../" segments from escaping the root.
func (s *Store) abs(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+rel)))
}
