package blogservice

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/sushihentaime/inkwell/internal/blobstore"
	"github.com/sushihentaime/inkwell/internal/common"
	"github.com/sushihentaime/inkwell/internal/ledger"
	"github.com/sushihentaime/inkwell/internal/policy"
	"github.com/sushihentaime/inkwell/internal/visibility"
)

func NewBlogService(db *sql.DB, cache *common.Cache, blobs blobstore.Store, l *ledger.Ledger, logger *slog.Logger) *BlogService {
	return &BlogService{
		db:     db,
		m:      &model{},
		c:      cache,
		blobs:  blobs,
		ledger: l,
		logger: logger,
	}
}

// destroy removes a blob and only logs a failure.
func (s *BlogService) destroy(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if err := s.blobs.Destroy(ctx, id); err != nil {
		s.logger.Error("failed to destroy blob", slog.String("id", id), slog.String("error", err.Error()))
	}
}

// invalidate drops cached listings after a post changed.
func (s *BlogService) invalidate() {
	s.c.Delete(common.CacheKeyHomeFeed())
}

// Create stores a new published post for in.AuthorID. The cover image is
// required and is uploaded before the row is written.
func (s *BlogService) Create(ctx context.Context, actor policy.Actor, in CreateInput) (*visibility.PostView, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.URL = strings.ToLower(strings.TrimSpace(in.URL))
	in.SEOKeywords = strings.TrimSpace(in.SEOKeywords)
	in.MetaDescription = strings.TrimSpace(in.MetaDescription)

	if in.Cover == nil || in.Title == "" || in.URL == "" || in.Content == "" || in.SEOKeywords == "" || in.MetaDescription == "" {
		return nil, common.Invalid(MsgFieldsRequired)
	}

	a, err := s.m.author(ctx, s.db, in.AuthorID)
	if err != nil {
		return nil, err
	}

	target := policy.Target{OwnerID: in.AuthorID}
	if a != nil {
		target.Account = &a.Account
	}
	if err := policy.CanPerform(actor, policy.CreatePost, target).Err(); err != nil {
		return nil, err
	}

	v := common.NewValidator()
	validateTitle(v, in.Title)
	validateURL(v, in.URL)
	validateContent(v, in.Content)
	validateMeta(v, "seoKeywords", in.SEOKeywords, 500)
	validateMeta(v, "metaDescription", in.MetaDescription, 500)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	tags, err := parseTags(in.Tags)
	if err != nil {
		return nil, err
	}

	exists, err := s.m.urlExists(ctx, s.db, in.URL)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, common.Conflict(MsgURLExists)
	}

	obj, err := s.blobs.Upload(ctx, in.Cover.Body, in.Cover.Name, blobstore.PostFolder(a.Username))
	if err != nil {
		return nil, blobstore.Wrap(err, MsgUploadFailed)
	}

	p := &visibility.Post{
		ID:              uuid.New(),
		Author:          visibility.Author{ID: a.ID, Username: a.Username},
		Title:           in.Title,
		URL:             in.URL,
		Content:         sanitizeMarkdown(in.Content),
		Tags:            tags,
		SEOKeywords:     in.SEOKeywords,
		MetaDescription: in.MetaDescription,
		CoverID:         obj.ID,
		CoverURL:        obj.URL,
	}

	err = common.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.m.insert(ctx, tx, p)
	})
	if err != nil {
		s.destroy(ctx, obj.ID)
		return nil, err
	}

	s.invalidate()

	s.logger.Info("post created", slog.String("url", p.URL), slog.String("author", a.Username))

	view, _ := visibility.FilterPost(actor, *p)
	return &view, nil
}

// Update changes the given fields of a post. Content is sanitized again and a
// new cover replaces the stored one.
func (s *BlogService) Update(ctx context.Context, actor policy.Actor, id uuid.UUID, in UpdateInput) (*visibility.PostView, error) {
	if in.Title == nil && in.Content == nil && in.Tags == nil && in.SEOKeywords == nil && in.MetaDescription == nil && in.Cover == nil {
		return nil, common.Invalid(MsgNothingToUpdate)
	}

	p, err := s.m.getByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	a, err := s.m.author(ctx, s.db, p.Author.ID)
	if err != nil {
		return nil, err
	}

	target := policy.Target{OwnerID: p.Author.ID}
	if a != nil {
		target.Account = &a.Account
	}
	if err := policy.CanPerform(actor, policy.EditPost, target).Err(); err != nil {
		return nil, err
	}

	v := common.NewValidator()
	if in.Title != nil {
		p.Title = strings.TrimSpace(*in.Title)
		validateTitle(v, p.Title)
	}
	if in.Content != nil {
		p.Content = sanitizeMarkdown(*in.Content)
		validateContent(v, p.Content)
	}
	if in.SEOKeywords != nil {
		p.SEOKeywords = strings.TrimSpace(*in.SEOKeywords)
		validateMeta(v, "seoKeywords", p.SEOKeywords, 500)
	}
	if in.MetaDescription != nil {
		p.MetaDescription = strings.TrimSpace(*in.MetaDescription)
		validateMeta(v, "metaDescription", p.MetaDescription, 500)
	}
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if in.Tags != nil {
		if p.Tags, err = parseTags(*in.Tags); err != nil {
			return nil, err
		}
	}

	oldCover := ""
	if in.Cover != nil {
		obj, err := s.blobs.Upload(ctx, in.Cover.Body, in.Cover.Name, blobstore.PostFolder(p.Author.Username))
		if err != nil {
			return nil, blobstore.Wrap(err, MsgUploadFailed)
		}
		oldCover = p.CoverID
		p.CoverID, p.CoverURL = obj.ID, obj.URL
	}

	if err := s.m.update(ctx, s.db, p); err != nil {
		if in.Cover != nil {
			s.destroy(ctx, p.CoverID)
		}
		return nil, err
	}

	s.destroy(ctx, oldCover)
	s.invalidate()

	view, _ := visibility.FilterPost(actor, *p)
	return &view, nil
}

func (s *BlogService) setPublished(ctx context.Context, actor policy.Actor, id uuid.UUID, published bool) error {
	p, err := s.m.getByID(ctx, s.db, id)
	if err != nil {
		return err
	}

	action := policy.PublishPost
	if !published {
		action = policy.UnpublishPost
	}
	if err := policy.CanPerform(actor, action, policy.Target{OwnerID: p.Author.ID}).Err(); err != nil {
		return err
	}

	if p.IsPublished == published {
		return nil
	}

	p.IsPublished = published
	if err := s.m.update(ctx, s.db, p); err != nil {
		return err
	}

	s.invalidate()

	return nil
}

func (s *BlogService) Publish(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	return s.setPublished(ctx, actor, id, true)
}

func (s *BlogService) Unpublish(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	return s.setPublished(ctx, actor, id, false)
}

// Delete removes a post with its comments, likes and resources. The cover is
// destroyed first; if that fails nothing is deleted.
func (s *BlogService) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	p, err := s.m.getByID(ctx, s.db, id)
	if err != nil {
		return err
	}

	if err := policy.CanPerform(actor, policy.DeletePost, policy.Target{OwnerID: p.Author.ID}).Err(); err != nil {
		return err
	}

	if p.CoverID != "" {
		if err := s.blobs.Destroy(ctx, p.CoverID); err != nil {
			return common.Dependency(MsgCoverDestroyFail, err)
		}
	}

	var d ledger.Detached
	err = common.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		if d, err = s.ledger.DetachPost(ctx, tx, p.ID, p.Author.ID); err != nil {
			return err
		}
		return s.m.delete(ctx, tx, p.ID, p.Author.ID)
	})
	if err != nil {
		return err
	}

	for _, blob := range d.Resources {
		s.destroy(ctx, blob)
	}

	s.invalidate()

	s.logger.Info("post deleted",
		slog.String("url", p.URL),
		slog.Int("comments", d.Comments),
		slog.Int("likes", d.Likes),
		slog.Int("resources", len(d.Resources)),
	)

	return nil
}

// GetByURL opens a public post. The result tells whether viewer liked it and
// carries the posts published just before it.
func (s *BlogService) GetByURL(ctx context.Context, viewer policy.Actor, url string) (*PostPage, error) {
	p, err := s.m.getPublicByURL(ctx, s.db, strings.ToLower(strings.TrimSpace(url)))
	if err != nil {
		return nil, err
	}

	view, ok := visibility.FilterPost(viewer, *p)
	if !ok {
		return nil, common.NotFound(MsgPublicNotFound)
	}

	status, err := s.ledger.LikeCount(ctx, viewer, p.ID)
	if err != nil {
		return nil, err
	}

	recent, err := s.m.recent(ctx, s.db, p.CreatedAt, RecentPosts)
	if err != nil {
		return nil, err
	}

	return &PostPage{
		Post:        PostDetail{PostView: view, IsLiked: status.IsLiked},
		RecentPosts: summarize(recent),
	}, nil
}
