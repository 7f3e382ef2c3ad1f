package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/sushihentaime/inkwell/internal/common"
	"github.com/sushihentaime/inkwell/internal/policy"
	"github.com/sushihentaime/inkwell/internal/visibility"
)

// postColumns selects a post with its author. Queries alias blogs as b and
// users as u.
const postColumns = `
	b.id, b.title, b.url, b.content, b.tags, b.seo_keywords, b.meta_description, b.cover_id, b.cover_url,
	b.likes, b.comments, b.is_published, b.created_at, b.updated_at, b.version,
	u.id, u.username, u.first_name, u.last_name, u.avatar_url, u.is_verified, u.is_blocked, u.is_closed`

const postFrom = ` FROM blogs b JOIN users u ON u.id = b.author_id `

// publicPosts is the prefix of every public listing query.
const publicPosts = `SELECT ` + postColumns + postFrom + `WHERE ` + visibility.PublicPostPredicate

func scanPost(scan func(dest ...any) error) (*visibility.Post, error) {
	var p visibility.Post
	var comments []string

	err := scan(
		&p.ID, &p.Title, &p.URL, &p.Content, pq.Array(&p.Tags), &p.SEOKeywords, &p.MetaDescription, &p.CoverID, &p.CoverURL,
		&p.Likes, pq.Array(&comments), &p.IsPublished, &p.CreatedAt, &p.UpdatedAt, &p.Version,
		&p.Author.ID, &p.Author.Username, &p.Author.FirstName, &p.Author.LastName, &p.Author.AvatarURL,
		&p.Author.IsVerified, &p.Author.IsBlocked, &p.Author.IsClosed,
	)
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

	return &p, nil
}

func (m *model) getOne(ctx context.Context, q common.Querier, notFound error, query string, args ...any) (*visibility.Post, error) {
	p, err := scanPost(q.QueryRowContext(ctx, query, args...).Scan)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, notFound
		default:
			return nil, err
		}
	}

	return p, nil
}

func (m *model) getMany(ctx context.Context, q common.Querier, query string, args ...any) ([]visibility.Post, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []visibility.Post
	for rows.Next() {
		p, err := scanPost(rows.Scan)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}

	return posts, rows.Err()
}

// getByID returns a post regardless of its state. Callers check access.
func (m *model) getByID(ctx context.Context, q common.Querier, id uuid.UUID) (*visibility.Post, error) {
	query := `SELECT ` + postColumns + postFrom + `WHERE b.id = $1`
	return m.getOne(ctx, q, ErrNotFound, query, id)
}

// getPublicByURL returns a post only while strangers may see it.
func (m *model) getPublicByURL(ctx context.Context, q common.Querier, url string) (*visibility.Post, error) {
	return m.getOne(ctx, q, common.NotFound(MsgPublicNotFound), publicPosts+` AND b.url = $1`, url)
}

// author is the account a new post is written for.
type author struct {
	policy.Account
	Username string
}

func (m *model) author(ctx context.Context, q common.Querier, id uuid.UUID) (*author, error) {
	query := `
		SELECT id, username, role, is_verified, is_blocked, is_closed
		FROM users
		WHERE id = $1`

	var a author
	err := q.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Username, &a.Role, &a.IsVerified, &a.IsBlocked, &a.IsClosed)
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

func (m *model) urlExists(ctx context.Context, q common.Querier, url string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM blogs WHERE url = $1)`, url).Scan(&exists)
	return exists, err
}

// insert stores p and adds it to the author's ownership list.
func (m *model) insert(ctx context.Context, q common.Querier, p *visibility.Post) error {
	query := `
		INSERT INTO blogs (id, author_id, title, url, content, tags, seo_keywords, meta_description, cover_id, cover_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING likes, is_published, created_at, updated_at, version`

	args := []any{
		p.ID,
		p.Author.ID,
		p.Title,
		p.URL,
		p.Content,
		pq.Array(p.Tags),
		p.SEOKeywords,
		p.MetaDescription,
		p.CoverID,
		p.CoverURL,
	}

	err := q.QueryRowContext(ctx, query, args...).Scan(&p.Likes, &p.IsPublished, &p.CreatedAt, &p.UpdatedAt, &p.Version)
	if err != nil {
		switch {
		case common.UniqueError(err, "blogs_url_key"):
			return common.Conflict(MsgURLExists)
		case common.ForeignKeyError(err, "blogs_author_id_fkey"):
			return common.NotFound(policy.MsgUserNotFound)
		default:
			return err
		}
	}

	res, err := q.ExecContext(ctx, `UPDATE users SET blogs = array_append(blogs, $2) WHERE id = $1`, p.Author.ID, p.ID)
	if err != nil {
		return err
	}

	return common.ExpectOneRow(res, common.NotFound(policy.MsgUserNotFound))
}

// update writes the editable fields of p. A concurrent edit makes the version
// check fail.
func (m *model) update(ctx context.Context, q common.Querier, p *visibility.Post) error {
	query := `
		UPDATE blogs
		SET title = $1, content = $2, tags = $3, seo_keywords = $4, meta_description = $5, cover_id = $6, cover_url = $7,
			is_published = $8, updated_at = NOW(), version = version + 1
		WHERE id = $9 AND version = $10
		RETURNING updated_at, version`

	args := []any{
		p.Title,
		p.Content,
		pq.Array(p.Tags),
		p.SEOKeywords,
		p.MetaDescription,
		p.CoverID,
		p.CoverURL,
		p.IsPublished,
		p.ID,
		p.Version,
	}

	err := q.QueryRowContext(ctx, query, args...).Scan(&p.UpdatedAt, &p.Version)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return common.Conflict("unable to update the post due to an edit conflict, please try again")
		default:
			return err
		}
	}

	return nil
}

// delete removes the post row and its entry in the author's ownership list.
func (m *model) delete(ctx context.Context, q common.Querier, id, authorID uuid.UUID) error {
	if _, err := q.ExecContext(ctx, `UPDATE users SET blogs = array_remove(blogs, $2) WHERE id = $1`, authorID, id); err != nil {
		return err
	}

	res, err := q.ExecContext(ctx, `DELETE FROM blogs WHERE id = $1`, id)
	if err != nil {
		return err
	}

	return common.ExpectOneRow(res, ErrNotFound)
}

// recent returns published posts created before the given time, newest first.
func (m *model) recent(ctx context.Context, q common.Querier, before time.Time, limit int) ([]visibility.Post, error) {
	query := publicPosts + `
		AND b.created_at < $1
		ORDER BY b.created_at DESC, b.id
		LIMIT $2`

	return m.getMany(ctx, q, query, before, limit)
}

func (m *model) trending(ctx context.Context, q common.Querier, limit int) ([]visibility.Post, error) {
	query := publicPosts + `
		ORDER BY b.likes DESC, b.created_at DESC, b.id
		LIMIT $1`

	return m.getMany(ctx, q, query, limit)
}

// popularAuthorPosts returns the newest public posts of the most followed
// open accounts.
func (m *model) popularAuthorPosts(ctx context.Context, q common.Querier, authors, limit int) ([]visibility.Post, error) {
	query := publicPosts + `
		AND b.author_id IN (
			SELECT id FROM users
			WHERE NOT is_blocked AND NOT is_closed
			ORDER BY followers DESC, id
			LIMIT $1)
		ORDER BY b.created_at DESC, b.id
		LIMIT $2`

	return m.getMany(ctx, q, query, authors, limit)
}

func (m *model) list(ctx context.Context, q common.Querier, skip int) ([]visibility.Post, error) {
	query := publicPosts + `
		ORDER BY b.created_at DESC, b.id
		LIMIT $1 OFFSET $2`

	return m.getMany(ctx, q, query, common.FetchLimit, skip)
}

// search matches term against the tags and the title of public posts,
// ignoring case.
func (m *model) search(ctx context.Context, q common.Querier, term string, skip int) ([]visibility.Post, error) {
	query := publicPosts + `
		AND (b.title ILIKE $1 OR EXISTS (SELECT 1 FROM unnest(b.tags) AS t(tag) WHERE t.tag ILIKE $1))
		ORDER BY b.created_at DESC, b.id
		LIMIT $2 OFFSET $3`

	return m.getMany(ctx, q, query, "%"+escapeLike(term)+"%", common.FetchLimit, skip)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
