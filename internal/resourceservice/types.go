package resourceservice

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sushihentaime/inkwell/internal/blobstore"
	"github.com/sushihentaime/inkwell/internal/common"
)

const (
	MsgNoFile           = "No file uploaded"
	MsgAttachRequired   = "Blog id and resources id are mandatory"
	MsgBlogNotFound     = "Blog not found."
	MsgResourcesJSON    = "Invalid JSON format for resources added"
	MsgInvalidResources = "Some resources are invalid or not authorized for adding to the blog."
	MsgNotFound         = "No resource found"
	MsgUploadFailed     = "File upload failed"
	MsgDestroyFailed    = "Could not delete the file"
)

var ErrNotFound = common.NotFound(MsgNotFound)

// ResourceService stores files users upload for their posts. A resource is
// attached to at most one post and never moves to another.
type ResourceService struct {
	db     *sql.DB
	m      *model
	blobs  blobstore.Store
	logger *slog.Logger
}

type model struct{}

type Resource struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user"`
	BlobID    string     `json:"resourceId"`
	URL       string     `json:"resourceUrl"`
	BlogID    *uuid.UUID `json:"blog,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}
