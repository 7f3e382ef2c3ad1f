package ledger

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// DetachPost removes the comments, likes and resources of a post inside tx
// and takes the removed likes and comments off the author's counters. Follows
// credited to the post are kept; the foreign key clears their blog reference.
// Running it again for the same post is a no-op.
func (l *Ledger) DetachPost(ctx context.Context, tx *sql.Tx, postID, authorID uuid.UUID) (Detached, error) {
	var d Detached
	var err error

	d.Comments, err = l.m.deleteCounted(ctx, tx, `DELETE FROM comments WHERE blog_id = $1`, postID)
	if err != nil {
		return Detached{}, err
	}

	d.Likes, err = l.m.deleteCounted(ctx, tx, `DELETE FROM likes WHERE blog_id = $1`, postID)
	if err != nil {
		return Detached{}, err
	}

	d.Resources, err = l.m.deleteResources(ctx, tx, "blog_id = $1", postID)
	if err != nil {
		return Detached{}, err
	}

	if d.Likes > 0 {
		if err := l.m.adjust(ctx, tx, colLikes, authorID, -d.Likes); err != nil {
			return Detached{}, err
		}
	}

	if d.Comments > 0 {
		if err := l.m.adjust(ctx, tx, colComments, authorID, -d.Comments); err != nil {
			return Detached{}, err
		}
	}

	return d, nil
}

// detachUserQueries correct the counters of other accounts for every relation
// a user takes part in. They must run before the relations are deleted.
var detachUserQueries = []string{
	`UPDATE users SET followers = GREATEST(users.followers - c.n, 0)
	FROM (SELECT author_id AS id, count(*) AS n FROM follows WHERE user_id = $1 GROUP BY author_id) c
	WHERE users.id = c.id`,

	`UPDATE users SET following = GREATEST(users.following - c.n, 0)
	FROM (SELECT user_id AS id, count(*) AS n FROM follows WHERE author_id = $1 GROUP BY user_id) c
	WHERE users.id = c.id`,

	`UPDATE blogs SET likes = GREATEST(blogs.likes - 1, 0)
	FROM likes l
	WHERE l.blog_id = blogs.id AND l.user_id = $1 AND l.author_id <> $1`,

	`UPDATE users SET likes = GREATEST(users.likes - c.n, 0)
	FROM (SELECT author_id AS id, count(*) AS n FROM likes WHERE user_id = $1 AND author_id <> $1 GROUP BY author_id) c
	WHERE users.id = c.id`,

	`UPDATE users SET comments = GREATEST(users.comments - c.n, 0)
	FROM (SELECT blog_author_id AS id, count(*) AS n FROM comments WHERE author_id = $1 AND blog_author_id <> $1 GROUP BY blog_author_id) c
	WHERE users.id = c.id`,

	`UPDATE blogs SET comments = ARRAY(
		SELECT t.x FROM unnest(blogs.comments) WITH ORDINALITY AS t(x, i)
		WHERE t.x NOT IN (SELECT id FROM comments WHERE author_id = $1)
		ORDER BY t.i)
	WHERE blogs.id IN (SELECT blog_id FROM comments WHERE author_id = $1 AND blog_author_id <> $1)`,
}

// DetachUser removes every relation the user owns or receives inside tx and
// corrects the counters of the other side. The user's own posts are left to
// the caller.
func (l *Ledger) DetachUser(ctx context.Context, tx *sql.Tx, userID uuid.UUID) (Detached, error) {
	for _, query := range detachUserQueries {
		if _, err := tx.ExecContext(ctx, query, userID); err != nil {
			return Detached{}, err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM follows WHERE user_id = $1 OR author_id = $1`, userID); err != nil {
		return Detached{}, err
	}

	var d Detached
	var err error

	d.Likes, err = l.m.deleteCounted(ctx, tx, `DELETE FROM likes WHERE user_id = $1`, userID)
	if err != nil {
		return Detached{}, err
	}

	d.Comments, err = l.m.deleteCounted(ctx, tx, `DELETE FROM comments WHERE author_id = $1`, userID)
	if err != nil {
		return Detached{}, err
	}

	d.Resources, err = l.m.deleteResources(ctx, tx, "user_id = $1", userID)
	if err != nil {
		return Detached{}, err
	}

	return d, nil
}
