package userservice

import (
	"context"
	"strings"

	"github.com/sushihentaime/inkwell/internal/common"
	"github.com/sushihentaime/inkwell/internal/policy"
	"github.com/sushihentaime/inkwell/internal/visibility"
)

// Profile returns the profile of username with one page of its posts, as
// seen by viewer. Strangers only see published posts and public fields.
func (s *UserService) Profile(ctx context.Context, viewer policy.Actor, username string, skip int) (*visibility.ProfileView, error) {
	u, err := s.m.getByUsername(ctx, s.db, strings.ToLower(username))
	if err != nil {
		return nil, err
	}

	p := visibility.Profile{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Bio:        u.Bio,
		AvatarURL:  u.AvatarURL,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		IsBlocked:  u.IsBlocked,
		IsClosed:   u.IsClosed,
		Followers:  u.Followers,
		Following:  u.Following,
		Likes:      u.Likes,
		Comments:   u.Comments,
		CreatedAt:  u.CreatedAt,
		TotalBlogs: u.TotalBlogs,
	}

	if err := visibility.CheckProfile(viewer, p); err != nil {
		return nil, err
	}

	publishedOnly := visibility.ProfilePublishedOnly(viewer, u.ID)

	total, published, err := s.m.postCounts(ctx, s.db, u.ID)
	if err != nil {
		return nil, err
	}
	p.PostsPublished = published
	p.TotalPosts = total
	if publishedOnly {
		p.TotalPosts = published
	}

	author := visibility.Author{
		ID:         u.ID,
		Username:   u.Username,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		AvatarURL:  u.AvatarURL,
		IsVerified: u.IsVerified,
		IsBlocked:  u.IsBlocked,
		IsClosed:   u.IsClosed,
	}

	posts, err := s.m.posts(ctx, s.db, author, publishedOnly, common.NormalizeSkip(skip))
	if err != nil {
		return nil, err
	}

	page := common.Paginate(posts)
	p.Posts = page.Items
	p.AreMore = page.AreMore

	v, err := visibility.FilterProfile(viewer, p)
	if err != nil {
		return nil, err
	}

	return &v, nil
}
