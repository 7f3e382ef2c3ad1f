package ledger

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/sushihentaime/inkwell/internal/common"
	"github.com/sushihentaime/inkwell/internal/policy"
)

// Follow makes actor follow authorID, optionally crediting the post that
// triggered the follow.
func (l *Ledger) Follow(ctx context.Context, actor policy.Actor, authorID uuid.UUID, blogID *uuid.UUID) (*Follow, error) {
	v := common.NewValidator()
	v.Check(authorID != uuid.Nil, "authId", "must be provided")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	author, err := l.m.account(ctx, l.db, authorID)
	if err != nil {
		return nil, err
	}

	if err := policy.CanPerform(actor, policy.Follow, policy.Target{OwnerID: authorID, Account: author}).Err(); err != nil {
		return nil, err
	}

	existing, err := l.m.followFor(ctx, l.db, actor.ID, authorID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, common.Conflict(MsgAlreadyFollowing)
	}

	if blogID != nil {
		post, _, err := l.m.post(ctx, l.db, *blogID)
		if err != nil {
			return nil, err
		}
		if post == nil || post.AuthorID != authorID || !post.IsPublished {
			return nil, common.NotFound(MsgInvalidBlog)
		}
	}

	f := &Follow{
		ID:       uuid.New(),
		UserID:   actor.ID,
		AuthorID: authorID,
		BlogID:   blogID,
	}

	err = common.WithTx(ctx, l.db, func(tx *sql.Tx) error {
		if err := l.m.insertFollow(ctx, tx, f); err != nil {
			return err
		}
		if err := l.m.adjust(ctx, tx, colFollowers, authorID, 1); err != nil {
			return err
		}
		return l.m.adjust(ctx, tx, colFollowing, actor.ID, 1)
	})
	if err != nil {
		return nil, err
	}

	return f, nil
}

// Unfollow removes a follow relation owned by actor.
func (l *Ledger) Unfollow(ctx context.Context, actor policy.Actor, followID uuid.UUID) error {
	f, err := l.m.followByID(ctx, l.db, followID)
	if err != nil {
		return err
	}
	if f == nil {
		return common.NotFound(MsgWrongFollow)
	}

	if err := policy.CanPerform(actor, policy.Unfollow, policy.Target{OwnerID: f.UserID}).Err(); err != nil {
		return err
	}

	return common.WithTx(ctx, l.db, func(tx *sql.Tx) error {
		if err := l.m.deleteFollow(ctx, tx, f.ID); err != nil {
			return err
		}
		if err := l.m.adjust(ctx, tx, colFollowers, f.AuthorID, -1); err != nil {
			return err
		}
		return l.m.adjust(ctx, tx, colFollowing, f.UserID, -1)
	})
}

func (l *Ledger) IsFollowing(ctx context.Context, actor policy.Actor, authorID uuid.UUID) (FollowStatus, error) {
	if err := policy.CanPerform(actor, policy.ViewActivity, policy.Target{}).Err(); err != nil {
		return FollowStatus{}, err
	}

	f, err := l.m.followFor(ctx, l.db, actor.ID, authorID)
	if err != nil {
		return FollowStatus{}, err
	}
	if f == nil {
		return FollowStatus{}, nil
	}

	return FollowStatus{IsFollowing: true, ID: &f.ID}, nil
}

// Followers lists the active accounts following actor, newest first.
func (l *Ledger) Followers(ctx context.Context, actor policy.Actor, skip int) (common.Page[Connection], error) {
	if err := policy.CanPerform(actor, policy.ViewActivity, policy.Target{}).Err(); err != nil {
		return common.Page[Connection]{}, err
	}

	rows, err := l.m.connections(ctx, l.db, actor.ID, true, common.NormalizeSkip(skip))
	if err != nil {
		return common.Page[Connection]{}, err
	}

	return common.Paginate(rows), nil
}

// Following lists the active authors actor follows, newest first.
func (l *Ledger) Following(ctx context.Context, actor policy.Actor, skip int) (common.Page[Connection], error) {
	if err := policy.CanPerform(actor, policy.ViewFollowing, policy.Target{}).Err(); err != nil {
		return common.Page[Connection]{}, err
	}

	rows, err := l.m.connections(ctx, l.db, actor.ID, false, common.NormalizeSkip(skip))
	if err != nil {
		return common.Page[Connection]{}, err
	}

	return common.Paginate(rows), nil
}
