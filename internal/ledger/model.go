package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sushihentaime/inkwell/internal/common"
	"github.com/sushihentaime/inkwell/internal/policy"
	"github.com/sushihentaime/inkwell/internal/visibility"
)

// counter columns that relation writes may touch.
const (
	colFollowers = "followers"
	colFollowing = "following"
	colLikes     = "likes"
	colComments  = "comments"
)

func (m *model) account(ctx context.Context, q common.Querier, id uuid.UUID) (*policy.Account, error) {
	query := `
		SELECT id, role, is_verified, is_blocked, is_closed
		FROM users
		WHERE id = $1`

	var a policy.Account
	err := q.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Role, &a.IsVerified, &a.IsBlocked, &a.IsClosed)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}

	return &a, nil
}

// post returns the post and the state of its author, or nil when the post does not exist.
func (m *model) post(ctx context.Context, q common.Querier, id uuid.UUID) (*postRef, *policy.Account, error) {
	query := `
		SELECT b.id, b.author_id, b.url, b.is_published, u.role, u.is_verified, u.is_blocked, u.is_closed
		FROM blogs b
		JOIN users u ON u.id = b.author_id
		WHERE b.id = $1`

	var p postRef
	var a policy.Account
	err := q.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.AuthorID, &p.URL, &p.IsPublished, &a.Role, &a.IsVerified, &a.IsBlocked, &a.IsClosed)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil, nil
		default:
			return nil, nil, err
		}
	}
	a.ID = p.AuthorID

	return &p, &a, nil
}

// adjust adds delta to a counter of a user, never going below zero.
func (m *model) adjust(ctx context.Context, q common.Querier, column string, userID uuid.UUID, delta int) error {
	switch column {
	case colFollowers, colFollowing, colLikes, colComments:
	default:
		return fmt.Errorf("unknown counter %q", column)
	}

	query := fmt.Sprintf(`
		UPDATE users
		SET %[1]s = GREATEST(%[1]s + $2, 0)
		WHERE id = $1`, column)

	res, err := q.ExecContext(ctx, query, userID, delta)
	if err != nil {
		return err
	}

	return common.ExpectOneRow(res, common.NotFound(policy.MsgUserNotFound))
}

func (m *model) adjustPostLikes(ctx context.Context, q common.Querier, postID uuid.UUID, delta int) error {
	query := `
		UPDATE blogs
		SET likes = GREATEST(likes + $2, 0)
		WHERE id = $1`

	res, err := q.ExecContext(ctx, query, postID, delta)
	if err != nil {
		return err
	}

	return common.ExpectOneRow(res, common.NotFound(MsgBlogNotFound))
}

func (m *model) insertFollow(ctx context.Context, q common.Querier, f *Follow) error {
	query := `
		INSERT INTO follows (id, user_id, author_id, blog_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := q.QueryRowContext(ctx, query, f.ID, f.UserID, f.AuthorID, f.BlogID).Scan(&f.CreatedAt)
	if err != nil {
		switch {
		case common.UniqueError(err, "follows_user_author_key"):
			return common.Conflict(MsgAlreadyFollowing)
		default:
			return err
		}
	}

	return nil
}

func scanFollow(row *sql.Row) (*Follow, error) {
	var f Follow
	err := row.Scan(&f.ID, &f.UserID, &f.AuthorID, &f.BlogID, &f.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}

	return &f, nil
}

func (m *model) followByID(ctx context.Context, q common.Querier, id uuid.UUID) (*Follow, error) {
	query := `
		SELECT id, user_id, author_id, blog_id, created_at
		FROM follows
		WHERE id = $1`

	return scanFollow(q.QueryRowContext(ctx, query, id))
}

func (m *model) followFor(ctx context.Context, q common.Querier, userID, authorID uuid.UUID) (*Follow, error) {
	query := `
		SELECT id, user_id, author_id, blog_id, created_at
		FROM follows
		WHERE user_id = $1 AND author_id = $2`

	return scanFollow(q.QueryRowContext(ctx, query, userID, authorID))
}

func (m *model) deleteFollow(ctx context.Context, q common.Querier, id uuid.UUID) error {
	res, err := q.ExecContext(ctx, `DELETE FROM follows WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return common.ExpectOneRow(res, common.NotFound(MsgWrongFollow))
}

// connections lists the other side of follow relations. When byAuthor is true
// it lists the followers of id, otherwise the authors id follows.
func (m *model) connections(ctx context.Context, q common.Querier, id uuid.UUID, byAuthor bool, skip int) ([]Connection, error) {
	self, other := "f.user_id", "f.author_id"
	if byAuthor {
		self, other = "f.author_id", "f.user_id"
	}

	query := fmt.Sprintf(`
		SELECT f.id, f.created_at, b.url, u.id, u.username, u.first_name, u.last_name, u.avatar_url
		FROM follows f
		JOIN users u ON u.id = %s
		LEFT JOIN blogs b ON b.id = f.blog_id
		WHERE %s = $1 AND %s
		ORDER BY f.created_at DESC, f.id
		LIMIT $2 OFFSET $3`, other, self, visibility.ActiveUserPredicate)

	rows, err := q.QueryContext(ctx, query, id, common.FetchLimit, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Connection
	for rows.Next() {
		var c Connection
		var url sql.NullString
		err := rows.Scan(&c.ID, &c.CreatedAt, &url, &c.User.ID, &c.User.Username, &c.User.FirstName, &c.User.LastName, &c.User.AvatarURL)
		if err != nil {
			return nil, err
		}
		if url.Valid {
			c.BlogURL = &url.String
		}
		out = append(out, c)
	}

	return out, rows.Err()
}

func (m *model) insertLike(ctx context.Context, q common.Querier, l *Like) error {
	query := `
		INSERT INTO likes (id, user_id, blog_id, author_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	err := q.QueryRowContext(ctx, query, l.ID, l.UserID, l.BlogID, l.AuthorID).Scan(&l.CreatedAt)
	if err != nil {
		switch {
		case common.UniqueError(err, "likes_user_blog_key"):
			return common.Conflict(MsgAlreadyLiked)
		default:
			return err
		}
	}

	return nil
}

func (m *model) likeFor(ctx context.Context, q common.Querier, userID, postID uuid.UUID) (*Like, error) {
	query := `
		SELECT id, user_id, blog_id, author_id, created_at
		FROM likes
		WHERE user_id = $1 AND blog_id = $2`

	var l Like
	err := q.QueryRowContext(ctx, query, userID, postID).Scan(&l.ID, &l.UserID, &l.BlogID, &l.AuthorID, &l.CreatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}

	return &l, nil
}

func (m *model) deleteLike(ctx context.Context, q common.Querier, id uuid.UUID) error {
	res, err := q.ExecContext(ctx, `DELETE FROM likes WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return common.ExpectOneRow(res, common.State(MsgNotLiked))
}

func (m *model) postLikes(ctx context.Context, q common.Querier, postID uuid.UUID) (int, error) {
	var likes int
	err := q.QueryRowContext(ctx, `SELECT likes FROM blogs WHERE id = $1`, postID).Scan(&likes)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return 0, common.NotFound(MsgBlogNotFound)
		default:
			return 0, err
		}
	}

	return likes, nil
}

func (m *model) insertComment(ctx context.Context, q common.Querier, c *Comment) error {
	query := `
		INSERT INTO comments (id, content, author_id, blog_id, blog_author_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := q.QueryRowContext(ctx, query, c.ID, c.Content, c.Author.ID, c.BlogID, c.BlogAuthorID).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return err
	}

	query = `
		UPDATE blogs
		SET comments = array_append(comments, $2)
		WHERE id = $1`

	res, err := q.ExecContext(ctx, query, c.BlogID, c.ID)
	if err != nil {
		return err
	}

	return common.ExpectOneRow(res, common.NotFound(MsgCommentBlog))
}

const commentColumns = `
	c.id, c.content, c.blog_id, c.blog_author_id, c.created_at, c.updated_at,
	u.id, u.username, u.first_name, u.last_name, u.avatar_url`

func scanComment(scan func(dest ...any) error) (*Comment, error) {
	var c Comment
	err := scan(&c.ID, &c.Content, &c.BlogID, &c.BlogAuthorID, &c.CreatedAt, &c.UpdatedAt,
		&c.Author.ID, &c.Author.Username, &c.Author.FirstName, &c.Author.LastName, &c.Author.AvatarURL)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (m *model) comment(ctx context.Context, q common.Querier, id uuid.UUID) (*Comment, error) {
	query := `SELECT ` + commentColumns + `
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.id = $1`

	c, err := scanComment(q.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, common.NotFound(MsgCommentNotFound)
		default:
			return nil, err
		}
	}

	return c, nil
}

func (m *model) updateComment(ctx context.Context, q common.Querier, c *Comment) error {
	query := `
		UPDATE comments
		SET content = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := q.QueryRowContext(ctx, query, c.ID, c.Content).Scan(&c.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return common.NotFound(MsgCommentNotFound)
		default:
			return err
		}
	}

	return nil
}

func (m *model) deleteComment(ctx context.Context, q common.Querier, c *Comment) error {
	res, err := q.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, c.ID)
	if err != nil {
		return err
	}

	if err := common.ExpectOneRow(res, common.NotFound(MsgCommentNotFound)); err != nil {
		return err
	}

	query := `
		UPDATE blogs
		SET comments = array_remove(comments, $2)
		WHERE id = $1`

	_, err = q.ExecContext(ctx, query, c.BlogID, c.ID)
	return err
}

func (m *model) comments(ctx context.Context, q common.Querier, postID uuid.UUID, skip int) ([]Comment, error) {
	query := `SELECT ` + commentColumns + `
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.blog_id = $1
		ORDER BY c.created_at DESC, c.id
		LIMIT $2 OFFSET $3`

	rows, err := q.QueryContext(ctx, query, postID, common.FetchLimit, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		c, err := scanComment(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}

	return out, rows.Err()
}

// countBetween counts relations of table targeting authorID created in [start, end).
func (m *model) countBetween(ctx context.Context, q common.Querier, table string, authorID uuid.UUID, start, end time.Time) (int, error) {
	switch table {
	case "likes", "follows":
	default:
		return 0, fmt.Errorf("unknown relation %q", table)
	}

	query := fmt.Sprintf(`
		SELECT count(*)
		FROM %s
		WHERE author_id = $1 AND created_at >= $2 AND created_at < $3`, table)

	var n int
	err := q.QueryRowContext(ctx, query, authorID, start, end).Scan(&n)
	return n, err
}

// deleteCounted runs a DELETE ... RETURNING 1 statement and returns the number of rows removed.
func (m *model) deleteCounted(ctx context.Context, q common.Querier, query string, args ...any) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `WITH d AS (`+query+` RETURNING 1) SELECT count(*) FROM d`, args...).Scan(&n)
	return n, err
}

func (m *model) deleteResources(ctx context.Context, q common.Querier, where string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, `DELETE FROM resources WHERE `+where+` RETURNING blob_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
