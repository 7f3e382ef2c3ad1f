package blobstore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sushihentaime/inkwell/internal/common"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()

	s, err := NewFileStore(t.TempDir(), "http://localhost:4000/media/")
	require.NoError(t, err)

	return s
}

func TestUploadAndDestroy(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	obj, err := s.Upload(ctx, strings.NewReader("png bytes"), "Cover.PNG", PostFolder("writer01"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(obj.ID, "blog/posts/writer01/"))
	assert.True(t, strings.HasSuffix(obj.ID, ".png"))
	assert.Equal(t, "http://localhost:4000/media/"+obj.ID, obj.URL)

	b, err := os.ReadFile(filepath.Join(s.Root(), filepath.FromSlash(obj.ID)))
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(b))

	require.NoError(t, s.Destroy(ctx, obj.ID))
	_, err = os.Stat(filepath.Join(s.Root(), filepath.FromSlash(obj.ID)))
	assert.True(t, os.IsNotExist(err))

	// destroying twice is a no-op
	assert.NoError(t, s.Destroy(ctx, obj.ID))
}

func TestUploadRejects(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upload(ctx, strings.NewReader("x"), "script.sh", ResourceFolder("writer01"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	big := bytes.NewReader(make([]byte, MaxSize+1))
	_, err = s.Upload(ctx, big, "movie.mp4", ResourceFolder("writer01"))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(filepath.Join(s.Root(), "blog", "resource", "writer01"))
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected uploads leave no file behind")
}

func TestDestroyRejectsTraversal(t *testing.T) {
	s := newTestStore(t)

	assert.ErrorIs(t, s.Destroy(context.Background(), "../etc/passwd"), ErrInvalidID)
	assert.ErrorIs(t, s.Destroy(context.Background(), "blog/../../x"), ErrInvalidID)
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil, "upload failed"))
	assert.ErrorIs(t, Wrap(ErrUnsupportedType, "upload failed"), ErrUnsupportedType)

	err := Wrap(os.ErrPermission, "upload failed")
	assert.ErrorIs(t, err, common.ErrDependency)
	assert.ErrorIs(t, err, os.ErrPermission)
}
