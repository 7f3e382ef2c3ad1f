package resourceservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sushihentaime/inkwell/internal/blobstore"
	"github.com/sushihentaime/inkwell/internal/common"
	"github.com/sushihentaime/inkwell/internal/policy"
)

func NewResourceService(db *sql.DB, blobs blobstore.Store, logger *slog.Logger) *ResourceService {
	return &ResourceService{
		db:     db,
		m:      &model{},
		blobs:  blobs,
		logger: logger,
	}
}

// Upload stores a file for the actor. It is not attached to any post yet.
func (s *ResourceService) Upload(ctx context.Context, actor policy.Actor, file *blobstore.File) (*Resource, error) {
	if err := policy.CanPerform(actor, policy.UploadResource, policy.Target{OwnerID: actor.ID}).Err(); err != nil {
		return nil, err
	}

	if file == nil {
		return nil, common.Invalid(MsgNoFile)
	}

	obj, err := s.blobs.Upload(ctx, file.Body, file.Name, blobstore.ResourceFolder(actor.Username))
	if err != nil {
		return nil, blobstore.Wrap(err, MsgUploadFailed)
	}

	r := &Resource{
		ID:     uuid.New(),
		UserID: actor.ID,
		BlobID: obj.ID,
		URL:    obj.URL,
	}

	if err := s.m.insert(ctx, s.db, r); err != nil {
		if destroyErr := s.blobs.Destroy(ctx, obj.ID); destroyErr != nil {
			s.logger.Error("failed to destroy blob", slog.String("id", obj.ID), slog.String("error", destroyErr.Error()))
		}
		return nil, err
	}

	return r, nil
}

// parseIDs decodes a JSON array of resource ids and drops duplicates.
func parseIDs(raw string) ([]uuid.UUID, error) {
	var strs []string
	if err := json.Unmarshal([]byte(raw), &strs); err != nil {
		return nil, common.Invalid(MsgResourcesJSON)
	}

	seen := make(map[uuid.UUID]bool, len(strs))
	ids := make([]uuid.UUID, 0, len(strs))
	for _, str := range strs {
		id, err := uuid.Parse(str)
		if err != nil {
			return nil, common.Invalid(MsgResourcesJSON)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	if len(ids) == 0 {
		return nil, common.Invalid(MsgAttachRequired)
	}

	return ids, nil
}

// Attach links resources to a post of the actor. Either all of them are
// attached or none: each must belong to the actor and be unattached.
func (s *ResourceService) Attach(ctx context.Context, actor policy.Actor, postID uuid.UUID, raw string) error {
	if raw == "" {
		return common.Invalid(MsgAttachRequired)
	}

	ids, err := parseIDs(raw)
	if err != nil {
		return err
	}

	author, err := s.m.postAuthor(ctx, s.db, postID)
	if err != nil {
		return err
	}

	if err := policy.CanPerform(actor, policy.AttachResource, policy.Target{OwnerID: author}).Err(); err != nil {
		return err
	}

	return common.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		n, err := s.m.attach(ctx, tx, postID, actor.ID, ids)
		if err != nil {
			return err
		}
		if n != int64(len(ids)) {
			return common.Forbidden(MsgInvalidResources)
		}
		return nil
	})
}

// Delete removes a resource of the actor together with its file.
func (s *ResourceService) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	r, err := s.m.get(ctx, s.db, id)
	if err != nil {
		return err
	}

	if err := policy.CanPerform(actor, policy.DeleteResource, policy.Target{OwnerID: r.UserID}).Err(); err != nil {
		return err
	}

	if err := s.blobs.Destroy(ctx, r.BlobID); err != nil {
		return common.Dependency(MsgDestroyFailed, err)
	}

	return s.m.delete(ctx, s.db, r.ID)
}

// List returns the resources attached to a post. Only the post author and
// admins may see them.
func (s *ResourceService) List(ctx context.Context, actor policy.Actor, postID uuid.UUID, skip int) (common.Page[Resource], error) {
	author, err := s.m.postAuthor(ctx, s.db, postID)
	if err != nil {
		return common.Page[Resource]{}, err
	}

	if err := policy.CanPerform(actor, policy.ViewResources, policy.Target{OwnerID: author}).Err(); err != nil {
		return common.Page[Resource]{}, err
	}

	resources, err := s.m.forPost(ctx, s.db, postID, common.NormalizeSkip(skip))
	if err != nil {
		return common.Page[Resource]{}, err
	}

	return common.Paginate(resources), nil
}
