package ledger

import (
	"context"
	"log/slog"
	"time"
)

var reconcileQueries = []string{
	`UPDATE users SET followers = e.followers, following = e.following, likes = e.likes, comments = e.comments
	FROM (
		SELECT u.id,
			(SELECT count(*) FROM follows f WHERE f.author_id = u.id) AS followers,
			(SELECT count(*) FROM follows f WHERE f.user_id = u.id) AS following,
			(SELECT count(*) FROM likes l WHERE l.author_id = u.id) AS likes,
			(SELECT count(*) FROM comments c WHERE c.blog_author_id = u.id) AS comments
		FROM users u
	) e
	WHERE users.id = e.id
		AND (users.followers, users.following, users.likes, users.comments) IS DISTINCT FROM (e.followers::int, e.following::int, e.likes::int, e.comments::int)`,

	`UPDATE blogs SET likes = e.likes
	FROM (
		SELECT b.id, (SELECT count(*) FROM likes l WHERE l.blog_id = b.id) AS likes
		FROM blogs b
	) e
	WHERE blogs.id = e.id AND blogs.likes <> e.likes`,

	`UPDATE blogs SET comments = e.ids
	FROM (
		SELECT b.id, COALESCE((SELECT array_agg(c.id ORDER BY c.created_at, c.id) FROM comments c WHERE c.blog_id = b.id), '{}') AS ids
		FROM blogs b
	) e
	WHERE blogs.id = e.id AND NOT (blogs.comments @> e.ids AND e.ids @> blogs.comments)`,
}

// Reconcile recounts every relation and rewrites the counters that drifted.
// It returns the number of rows corrected.
func (l *Ledger) Reconcile(ctx context.Context) (int64, error) {
	var total int64

	for _, query := range reconcileQueries {
		res, err := l.db.ExecContext(ctx, query)
		if err != nil {
			return total, err
		}

		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
	}

	return total, nil
}

// StartReconciler runs Reconcile every interval until ctx is cancelled.
func (l *Ledger) StartReconciler(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				n, err := l.Reconcile(ctx)
				if err != nil {
					l.logger.Error("could not reconcile counters", slog.String("error", err.Error()))
					continue
				}
				if n > 0 {
					l.logger.Info("reconciled counters", slog.Int64("rows", n))
				}
			case <-ctx.Done():
				l.logger.Info("stopping reconciler due to context cancellation")
				return
			}
		}
	}()
}
