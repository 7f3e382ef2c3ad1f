// Package blobstore stores uploaded files: post covers, avatars and resources.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/sushihentaime/inkwell/internal/common"
)

// MaxSize is the largest accepted upload.
const MaxSize = 10 << 20

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".png":  true,
	".mp4":  true,
	".pdf":  true,
	".webm": true,
	".mpeg": true,
	".avi":  true,
	".ogv":  true,
}

var (
	ErrUnsupportedType = common.Invalid("File type is not supported")
	ErrTooLarge        = common.Invalid("File is too large")
	ErrInvalidID       = errors.New("invalid object id")
)

// Folders used by the services.
func PostFolder(username string) string     { return "blog/posts/" + username }
func AvatarFolder(username string) string   { return "blog/avatars/" + username }
func ResourceFolder(username string) string { return "blog/resource/" + username }

// File is an upload received from a client.
type File struct {
	Name string
	Body io.Reader
}

type Object struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type Store interface {
	Upload(ctx context.Context, r io.Reader, filename, folder string) (Object, error)
	Destroy(ctx context.Context, id string) error
}

// FileStore keeps objects below a root directory and serves them under baseURL.
type FileStore struct {
	root    string
	baseURL string
}

func NewFileStore(root, baseURL string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("could not create blob directory: %w", err)
	}

	return &FileStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root is the directory objects are written to.
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) Upload(ctx context.Context, r io.Reader, filename, folder string) (Object, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return Object{}, ErrUnsupportedType
	}

	name, err := gonanoid.New()
	if err != nil {
		return Object{}, fmt.Errorf("generate nanoid: %w", err)
	}

	id := path.Join(folder, name+ext)
	dst, err := s.resolve(id)
	if err != nil {
		return Object{}, err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return Object{}, err
	}

	f, err := os.Create(dst)
	if err != nil {
		return Object{}, err
	}

	n, err := io.Copy(f, io.LimitReader(r, MaxSize+1))
	closeErr := f.Close()
	switch {
	case err != nil:
		os.Remove(dst)
		return Object{}, err
	case closeErr != nil:
		os.Remove(dst)
		return Object{}, closeErr
	case n > MaxSize:
		os.Remove(dst)
		return Object{}, ErrTooLarge
	}

	if err := ctx.Err(); err != nil {
		os.Remove(dst)
		return Object{}, err
	}

	return Object{ID: id, URL: s.baseURL + "/" + id}, nil
}

// Destroy removes an object. Removing a missing object is not an error.
func (s *FileStore) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}

	p, err := s.resolve(id)
	if err != nil {
		return err
	}

	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

// resolve maps an object id to a path inside root.
func (s *FileStore) resolve(id string) (string, error) {
	clean := path.Clean("/" + id)
	if clean == "/" || clean != "/"+id {
		return "", ErrInvalidID
	}

	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// Wrap classifies a store failure for callers. Rejected input keeps its
// validation error, anything else becomes a dependency failure.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if common.KindOf(err) == common.KindValidation {
		return err
	}
	return common.Dependency(message, err)
}
