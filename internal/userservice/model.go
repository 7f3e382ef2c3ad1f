package userservice

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/sushihentaime/inkwell/internal/common"
	"github.com/sushihentaime/inkwell/internal/policy"
	"github.com/sushihentaime/inkwell/internal/visibility"
)

var ErrNotFound = common.NotFound(policy.MsgUserNotFound)

const userColumns = `
	id, username, email, password, first_name, last_name, bio, avatar_id, avatar_url, role,
	is_verified, is_blocked, is_closed, followers, following, likes, comments, cardinality(blogs),
	refresh_token, created_at, updated_at, version`

func scanUser(scan func(dest ...any) error) (*User, error) {
	var u User
	err := scan(
		&u.ID, &u.Username, &u.Email, &u.Password.hash, &u.FirstName, &u.LastName, &u.Bio, &u.AvatarID, &u.AvatarURL, &u.Role,
		&u.IsVerified, &u.IsBlocked, &u.IsClosed, &u.Followers, &u.Following, &u.Likes, &u.Comments, &u.TotalBlogs,
		&u.RefreshToken, &u.CreatedAt, &u.UpdatedAt, &u.Version,
	)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

func (m *model) getOne(ctx context.Context, q common.Querier, where string, args ...any) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	u, err := scanUser(q.QueryRowContext(ctx, query, args...).Scan)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		default:
			return nil, err
		}
	}

	return u, nil
}

func (m *model) insert(ctx context.Context, q common.Querier, u *User) error {
	query := `
		INSERT INTO users (id, username, email, password, first_name, last_name, avatar_id, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING role, created_at, updated_at, version`

	args := []any{
		u.ID,
		u.Username,
		u.Email,
		u.Password.hash,
		u.FirstName,
		u.LastName,
		u.AvatarID,
		u.AvatarURL,
	}

	err := q.QueryRowContext(ctx, query, args...).Scan(&u.Role, &u.CreatedAt, &u.UpdatedAt, &u.Version)
	if err != nil {
		switch {
		case common.UniqueError(err, "users_username_key"), common.UniqueError(err, "users_email_key"):
			return common.Conflict(MsgUserExists)
		default:
			return err
		}
	}

	return nil
}

func (m *model) getByID(ctx context.Context, q common.Querier, id uuid.UUID) (*User, error) {
	return m.getOne(ctx, q, "id = $1", id)
}

func (m *model) getByUsername(ctx context.Context, q common.Querier, username string) (*User, error) {
	return m.getOne(ctx, q, "username = $1", username)
}

// getByLogin finds an account by username or email.
func (m *model) getByLogin(ctx context.Context, q common.Querier, login string) (*User, error) {
	return m.getOne(ctx, q, "username = $1 OR email = $1", login)
}

func (m *model) getByResetToken(ctx context.Context, q common.Querier, hash []byte) (*User, error) {
	return m.getOne(ctx, q, "reset_token = $1 AND reset_token_expiry > $2", hash, time.Now())
}

// getByVerifyToken returns the account holding the token together with
// whether the token is still valid.
func (m *model) getByVerifyToken(ctx context.Context, q common.Querier, hash []byte) (*User, bool, error) {
	var expiry sql.NullTime
	query := `SELECT ` + userColumns + `, verify_token_expiry FROM users WHERE verify_token = $1`

	u, err := scanUser(func(dest ...any) error {
		return q.QueryRowContext(ctx, query, hash).Scan(append(dest, &expiry)...)
	})
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, false, ErrNotFound
		default:
			return nil, false, err
		}
	}

	return u, expiry.Valid && expiry.Time.After(time.Now()), nil
}

// update writes the mutable profile and state fields with optimistic locking.
func (m *model) update(ctx context.Context, q common.Querier, u *User) error {
	query := `
		UPDATE users
		SET email = $1, password = $2, first_name = $3, last_name = $4, bio = $5, avatar_id = $6, avatar_url = $7,
			is_verified = $8, is_blocked = $9, is_closed = $10, refresh_token = $11,
			updated_at = NOW(), version = version + 1
		WHERE id = $12 AND version = $13
		RETURNING updated_at, version`

	args := []any{
		u.Email,
		u.Password.hash,
		u.FirstName,
		u.LastName,
		u.Bio,
		u.AvatarID,
		u.AvatarURL,
		u.IsVerified,
		u.IsBlocked,
		u.IsClosed,
		u.RefreshToken,
		u.ID,
		u.Version,
	}

	err := q.QueryRowContext(ctx, query, args...).Scan(&u.UpdatedAt, &u.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return common.Conflict("unable to update the record due to an edit conflict, please try again")
		case common.UniqueError(err, "users_email_key"):
			return common.Conflict(MsgUserExists)
		default:
			return err
		}
	}

	return nil
}

func (m *model) setRefreshToken(ctx context.Context, q common.Querier, id uuid.UUID, token *string) error {
	res, err := q.ExecContext(ctx, `UPDATE users SET refresh_token = $2 WHERE id = $1`, id, token)
	if err != nil {
		return err
	}

	return common.ExpectOneRow(res, ErrNotFound)
}

func (m *model) setResetToken(ctx context.Context, q common.Querier, id uuid.UUID, hash []byte, expiry *time.Time) error {
	query := `
		UPDATE users
		SET reset_token = $2, reset_token_expiry = $3
		WHERE id = $1`

	res, err := q.ExecContext(ctx, query, id, hash, expiry)
	if err != nil {
		return err
	}

	return common.ExpectOneRow(res, ErrNotFound)
}

func (m *model) setVerifyToken(ctx context.Context, q common.Querier, id uuid.UUID, hash []byte, expiry *time.Time) error {
	query := `
		UPDATE users
		SET verify_token = $2, verify_token_expiry = $3
		WHERE id = $1`

	res, err := q.ExecContext(ctx, query, id, hash, expiry)
	if err != nil {
		return err
	}

	return common.ExpectOneRow(res, ErrNotFound)
}

func (m *model) delete(ctx context.Context, q common.Querier, id uuid.UUID) error {
	res, err := q.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return common.ExpectOneRow(res, ErrNotFound)
}

// coverIDs returns the cover blobs of every post of a user.
func (m *model) coverIDs(ctx context.Context, q common.Querier, id uuid.UUID) ([]string, error) {
	var ids []string
	err := q.QueryRowContext(ctx, `SELECT COALESCE(array_agg(cover_id), '{}') FROM blogs WHERE author_id = $1 AND cover_id <> ''`, id).
		Scan(pq.Array(&ids))

	return ids, err
}

func (m *model) list(ctx context.Context, q common.Querier, skip int) ([]User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`

	rows, err := q.QueryContext(ctx, query, common.FetchLimit, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}

	return users, rows.Err()
}

func (m *model) count(ctx context.Context, q common.Querier) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&n)
	return n, err
}

// postCounts returns the number of posts of a user and how many are published.
func (m *model) postCounts(ctx context.Context, q common.Querier, id uuid.UUID) (total, published int, err error) {
	query := `
		SELECT count(*), count(*) FILTER (WHERE is_published)
		FROM blogs
		WHERE author_id = $1`

	err = q.QueryRowContext(ctx, query, id).Scan(&total, &published)
	return total, published, err
}

// posts lists the posts of an author newest first.
func (m *model) posts(ctx context.Context, q common.Querier, author visibility.Author, publishedOnly bool, skip int) ([]visibility.Post, error) {
	query := `
		SELECT id, title, url, content, tags, seo_keywords, meta_description, cover_id, cover_url,
			likes, comments, is_published, created_at, updated_at, version
		FROM blogs
		WHERE author_id = $1 AND (is_published OR NOT $2)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`

	rows, err := q.QueryContext(ctx, query, author.ID, publishedOnly, common.FetchLimit, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []visibility.Post
	for rows.Next() {
		p := visibility.Post{Author: author}
		var comments []string

		err := rows.Scan(&p.ID, &p.Title, &p.URL, &p.Content, pq.Array(&p.Tags), &p.SEOKeywords, &p.MetaDescription,
			&p.CoverID, &p.CoverURL, &p.Likes, pq.Array(&comments), &p.IsPublished, &p.CreatedAt, &p.UpdatedAt, &p.Version)
		if err != nil {
			return nil, err
		}

		for _, c := range comments {
			id, err := uuid.Parse(c)
			if err != nil {
				return nil, err
			}
			p.Comments = append(p.Comments, id)
		}

		posts = append(posts, p)
	}

	return posts, rows.Err()
}
