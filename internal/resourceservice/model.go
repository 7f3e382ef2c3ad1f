package resourceservice

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/sushihentaime/inkwell/internal/common"
)

func (m *model) insert(ctx context.Context, q common.Querier, r *Resource) error {
	query := `
		INSERT INTO resources (id, user_id, blob_id, blob_url)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := q.QueryRowContext(ctx, query, r.ID, r.UserID, r.BlobID, r.URL).Scan(&r.CreatedAt)
	if err != nil {
		switch {
		case common.ForeignKeyError(err, "resources_user_id_fkey"):
			return common.NotFound("User not found")
		default:
			return err
		}
	}

	return nil
}

func scanResource(scan func(dest ...any) error) (*Resource, error) {
	var r Resource
	var blogID uuid.NullUUID

	if err := scan(&r.ID, &r.UserID, &r.BlobID, &r.URL, &blogID, &r.CreatedAt); err != nil {
		return nil, err
	}

	if blogID.Valid {
		r.BlogID = &blogID.UUID
	}

	return &r, nil
}

func (m *model) get(ctx context.Context, q common.Querier, id uuid.UUID) (*Resource, error) {
	query := `
		SELECT id, user_id, blob_id, blob_url, blog_id, created_at
		FROM resources
		WHERE id = $1`

	r, err := scanResource(q.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	return r, nil
}

func (m *model) delete(ctx context.Context, q common.Querier, id uuid.UUID) error {
	res, err := q.ExecContext(ctx, `DELETE FROM resources WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return common.ExpectOneRow(res, ErrNotFound)
}

// postAuthor returns the author of a post.
func (m *model) postAuthor(ctx context.Context, q common.Querier, postID uuid.UUID) (uuid.UUID, error) {
	var author uuid.UUID
	err := q.QueryRowContext(ctx, `SELECT author_id FROM blogs WHERE id = $1`, postID).Scan(&author)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return uuid.Nil, common.NotFound(MsgBlogNotFound)
		default:
			return uuid.Nil, err
		}
	}

	return author, nil
}

// attach links the unattached resources of userID in ids to postID and
// returns how many rows changed.
func (m *model) attach(ctx context.Context, q common.Querier, postID, userID uuid.UUID, ids []uuid.UUID) (int64, error) {
	query := `
		UPDATE resources
		SET blog_id = $1
		WHERE id = ANY($2::uuid[]) AND user_id = $3 AND blog_id IS NULL`

	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = id.String()
	}

	res, err := q.ExecContext(ctx, query, postID, pq.Array(strs), userID)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

func (m *model) forPost(ctx context.Context, q common.Querier, postID uuid.UUID, skip int) ([]Resource, error) {
	query := `
		SELECT id, user_id, blob_id, blob_url, blog_id, created_at
		FROM resources
		WHERE blog_id = $1
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3`

	rows, err := q.QueryContext(ctx, query, postID, common.FetchLimit, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resources []Resource
	for rows.Next() {
		r, err := scanResource(rows.Scan)
		if err != nil {
			return nil, err
		}
		resources = append(resources, *r)
	}

	return resources, rows.Err()
}
