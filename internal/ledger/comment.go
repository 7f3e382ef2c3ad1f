package ledger

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/sushihentaime/inkwell/internal/common"
	"github.com/sushihentaime/inkwell/internal/policy"
	"github.com/sushihentaime/inkwell/internal/visibility"
)

const maxCommentLength = 2000

func validateComment(v *common.Validator, content string) {
	v.Check(strings.TrimSpace(content) != "", "content", "must be provided")
	v.Check(len(content) <= maxCommentLength, "content", "must not be more than 2000 characters long")
}

// CreateComment adds a comment to a published post. The post author is
// recorded on the comment once and never updated.
func (l *Ledger) CreateComment(ctx context.Context, actor policy.Actor, postID uuid.UUID, content string) (*Comment, error) {
	v := common.NewValidator()
	validateComment(v, content)
	v.Check(postID != uuid.Nil, "blog", "must be provided")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	post, author, err := l.m.post(ctx, l.db, postID)
	if err != nil {
		return nil, err
	}
	if post == nil || !post.IsPublished {
		return nil, common.NotFound(MsgCommentBlog)
	}

	if err := policy.CanPerform(actor, policy.CreateComment, policy.Target{OwnerID: post.AuthorID, Account: author}).Err(); err != nil {
		return nil, err
	}

	c := &Comment{
		ID:           uuid.New(),
		Content:      content,
		Author:       visibility.Author{ID: actor.ID, Username: actor.Username},
		BlogID:       post.ID,
		BlogAuthorID: post.AuthorID,
	}

	err = common.WithTx(ctx, l.db, func(tx *sql.Tx) error {
		if err := l.m.insertComment(ctx, tx, c); err != nil {
			return err
		}
		return l.m.adjust(ctx, tx, colComments, c.BlogAuthorID, 1)
	})
	if err != nil {
		return nil, err
	}

	return l.m.comment(ctx, l.db, c.ID)
}

func (l *Ledger) EditComment(ctx context.Context, actor policy.Actor, commentID uuid.UUID, content string) (*Comment, error) {
	v := common.NewValidator()
	validateComment(v, content)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	c, err := l.m.comment(ctx, l.db, commentID)
	if err != nil {
		return nil, err
	}

	blogAuthor, err := l.m.account(ctx, l.db, c.BlogAuthorID)
	if err != nil {
		return nil, err
	}

	if err := policy.CanPerform(actor, policy.EditComment, policy.Target{OwnerID: c.Author.ID, Account: blogAuthor}).Err(); err != nil {
		return nil, err
	}

	c.Content = content
	if err := l.m.updateComment(ctx, l.db, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (l *Ledger) DeleteComment(ctx context.Context, actor policy.Actor, commentID uuid.UUID) error {
	c, err := l.m.comment(ctx, l.db, commentID)
	if err != nil {
		return err
	}

	if err := policy.CanPerform(actor, policy.DeleteComment, policy.Target{OwnerID: c.Author.ID}).Err(); err != nil {
		return err
	}

	return common.WithTx(ctx, l.db, func(tx *sql.Tx) error {
		if err := l.m.deleteComment(ctx, tx, c); err != nil {
			return err
		}
		return l.m.adjust(ctx, tx, colComments, c.BlogAuthorID, -1)
	})
}

// Comments lists the comments of a visible post, newest first.
func (l *Ledger) Comments(ctx context.Context, viewer policy.Actor, postID uuid.UUID, skip int) (common.Page[Comment], error) {
	post, author, err := l.m.post(ctx, l.db, postID)
	if err != nil {
		return common.Page[Comment]{}, err
	}

	visible := post != nil && visibility.PostVisible(viewer, visibility.Post{
		Author:      visibility.Author{ID: post.AuthorID, IsBlocked: author.IsBlocked, IsClosed: author.IsClosed},
		IsPublished: post.IsPublished,
	})
	if !visible {
		return common.Page[Comment]{}, common.NotFound(MsgCommentBlog)
	}

	rows, err := l.m.comments(ctx, l.db, postID, common.NormalizeSkip(skip))
	if err != nil {
		return common.Page[Comment]{}, err
	}

	return common.Paginate(rows), nil
}
