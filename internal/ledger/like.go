package ledger

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/sushihentaime/inkwell/internal/common"
	"github.com/sushihentaime/inkwell/internal/policy"
)

// Like records actor's like on a visible post and bumps the post and author
// counters.
func (l *Ledger) Like(ctx context.Context, actor policy.Actor, postID uuid.UUID) (LikeStatus, error) {
	if err := policy.CanPerform(actor, policy.Like, policy.Target{}).Err(); err != nil {
		return LikeStatus{}, err
	}

	existing, err := l.m.likeFor(ctx, l.db, actor.ID, postID)
	if err != nil {
		return LikeStatus{}, err
	}
	if existing != nil {
		return LikeStatus{}, common.Conflict(MsgAlreadyLiked)
	}

	post, author, err := l.m.post(ctx, l.db, postID)
	if err != nil {
		return LikeStatus{}, err
	}
	if post == nil || !post.IsPublished || !author.Active() {
		return LikeStatus{}, common.NotFound(MsgBlogNotFound)
	}

	like := &Like{
		ID:       uuid.New(),
		UserID:   actor.ID,
		BlogID:   post.ID,
		AuthorID: post.AuthorID,
	}

	err = common.WithTx(ctx, l.db, func(tx *sql.Tx) error {
		if err := l.m.insertLike(ctx, tx, like); err != nil {
			return err
		}
		if err := l.m.adjustPostLikes(ctx, tx, post.ID, 1); err != nil {
			return err
		}
		return l.m.adjust(ctx, tx, colLikes, post.AuthorID, 1)
	})
	if err != nil {
		return LikeStatus{}, err
	}

	return l.LikeCount(ctx, actor, postID)
}

// Unlike removes actor's like. The author recorded on the like is decremented,
// which is the post author at the time of the like.
func (l *Ledger) Unlike(ctx context.Context, actor policy.Actor, postID uuid.UUID) (LikeStatus, error) {
	if err := policy.CanPerform(actor, policy.Unlike, policy.Target{}).Err(); err != nil {
		return LikeStatus{}, err
	}

	like, err := l.m.likeFor(ctx, l.db, actor.ID, postID)
	if err != nil {
		return LikeStatus{}, err
	}
	if like == nil {
		return LikeStatus{}, common.State(MsgNotLiked)
	}

	err = common.WithTx(ctx, l.db, func(tx *sql.Tx) error {
		if err := l.m.deleteLike(ctx, tx, like.ID); err != nil {
			return err
		}
		if err := l.m.adjustPostLikes(ctx, tx, like.BlogID, -1); err != nil {
			return err
		}
		return l.m.adjust(ctx, tx, colLikes, like.AuthorID, -1)
	})
	if err != nil {
		return LikeStatus{}, err
	}

	return l.LikeCount(ctx, actor, postID)
}

// LikeCount returns the like total of a post and whether viewer liked it.
func (l *Ledger) LikeCount(ctx context.Context, viewer policy.Actor, postID uuid.UUID) (LikeStatus, error) {
	total, err := l.m.postLikes(ctx, l.db, postID)
	if err != nil {
		return LikeStatus{}, err
	}

	status := LikeStatus{TotalLikes: total}
	if viewer.IsAnonymous() {
		return status, nil
	}

	like, err := l.m.likeFor(ctx, l.db, viewer.ID, postID)
	if err != nil {
		return LikeStatus{}, err
	}
	status.IsLiked = like != nil

	return status, nil
}
