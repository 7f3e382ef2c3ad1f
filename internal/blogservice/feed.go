package blogservice

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"

	"github.com/sushihentaime/inkwell/internal/common"
	"github.com/sushihentaime/inkwell/internal/visibility"
)

func summarize(posts []visibility.Post) []visibility.PostView {
	views := make([]visibility.PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, visibility.SummarizePost(p))
	}
	return views
}

// keywords returns up to MaxKeywords distinct lowercase tags of posts in
// random order.
func keywords(posts []visibility.Post) []string {
	seen := make(map[string]bool)
	words := []string{}
	for _, p := range posts {
		for _, tag := range p.Tags {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			words = append(words, tag)
		}
	}

	rand.Shuffle(len(words), func(i, j int) {
		words[i], words[j] = words[j], words[i]
	})

	if len(words) > MaxKeywords {
		words = words[:MaxKeywords]
	}

	return words
}

// HomeFeed returns the most liked posts, recent posts of popular authors and
// a set of keywords. The feed is cached for a minute.
func (s *BlogService) HomeFeed(ctx context.Context) (*HomeFeed, error) {
	if cached, found := s.c.Get(common.CacheKeyHomeFeed()); found {
		if feed, ok := cached.(*HomeFeed); ok {
			return feed, nil
		}
	}

	trending, err := s.m.trending(ctx, s.db, TrendingPosts)
	if err != nil {
		return nil, err
	}

	popular, err := s.m.popularAuthorPosts(ctx, s.db, PopularAuthors, PopularAuthors)
	if err != nil {
		return nil, err
	}

	shown := make(map[uuid.UUID]bool, len(trending))
	for _, p := range trending {
		shown[p.ID] = true
	}

	authorPosts := make([]visibility.Post, 0, common.PageSize)
	for _, p := range popular {
		if shown[p.ID] {
			continue
		}
		authorPosts = append(authorPosts, p)
		if len(authorPosts) == common.PageSize {
			break
		}
	}

	feed := &HomeFeed{
		TrendingPosts: summarize(trending),
		AuthorPosts:   summarize(authorPosts),
		TopKeywords:   keywords(trending),
	}

	s.c.Set(common.CacheKeyHomeFeed(), feed, homeFeedTTL)

	return feed, nil
}

// AllPosts lists public posts, newest first.
func (s *BlogService) AllPosts(ctx context.Context, skip int) (*PostList, error) {
	posts, err := s.m.list(ctx, s.db, common.NormalizeSkip(skip))
	if err != nil {
		return nil, err
	}

	return newPostList(posts), nil
}

// TagSearch lists public posts whose title or one of whose tags contains
// term.
func (s *BlogService) TagSearch(ctx context.Context, term string, skip int) (*PostList, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, common.Invalid(MsgTagRequired)
	}

	posts, err := s.m.search(ctx, s.db, term, common.NormalizeSkip(skip))
	if err != nil {
		return nil, err
	}

	if len(posts) == 0 {
		return nil, common.NotFound(MsgSearchNotFound)
	}

	return newPostList(posts), nil
}

func newPostList(posts []visibility.Post) *PostList {
	page := common.Paginate(posts)

	return &PostList{
		Page:     common.Page[visibility.PostView]{Items: summarize(page.Items), AreMore: page.AreMore},
		Keywords: keywords(page.Items),
	}
}
