// Package visibility decides which posts and profile fields a viewer may see.
//
// Listing queries embed PublicPostPredicate so that hidden posts never reach
// pagination. FilterPost and FilterProfile are the final field filter applied
// before a record leaves the service layer.
package visibility

import (
	"time"

	"github.com/google/uuid"

	"github.com/sushihentaime/inkwell/internal/common"
	"github.com/sushihentaime/inkwell/internal/policy"
)

// PublicPostPredicate restricts a query to posts a stranger may see. The
// query must alias blogs as b and the joined author row as u.
const PublicPostPredicate = "b.is_published AND NOT u.is_blocked AND NOT u.is_closed"

// ActiveUserPredicate restricts a query aliased as u to open accounts.
const ActiveUserPredicate = "u.is_verified AND NOT u.is_blocked AND NOT u.is_closed"

type Author struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	AvatarURL string    `json:"avatarUrl"`

	IsVerified bool `json:"-"`
	IsBlocked  bool `json:"-"`
	IsClosed   bool `json:"-"`
}

// Post is a stored post together with the state of its author.
type Post struct {
	ID              uuid.UUID
	Author          Author
	Title           string
	URL             string
	Content         string
	Tags            []string
	SEOKeywords     string
	MetaDescription string
	CoverID         string
	CoverURL        string
	Likes           int
	Comments        []uuid.UUID
	IsPublished     bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int
}

// PostView is the serialized form of a post. Nil fields are omitted.
type PostView struct {
	ID              uuid.UUID   `json:"id"`
	Author          *Author     `json:"author,omitempty"`
	Title           string      `json:"title"`
	URL             string      `json:"url"`
	MetaDescription string      `json:"metaDescription"`
	CoverURL        string      `json:"coverUrl"`
	Likes           int         `json:"likes"`
	Content         *string     `json:"content,omitempty"`
	Tags            []string    `json:"tags,omitempty"`
	SEOKeywords     *string     `json:"seoKeywords,omitempty"`
	Comments        []uuid.UUID `json:"comments,omitempty"`
	IsPublished     *bool       `json:"isPublished,omitempty"`
	CreatedAt       *time.Time  `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time  `json:"updatedAt,omitempty"`
}

// Profile is a stored account with a page of its posts.
type Profile struct {
	ID         uuid.UUID
	Username   string
	Email      string
	FirstName  string
	LastName   string
	Bio        string
	AvatarURL  string
	Role       policy.Role
	IsVerified bool
	IsBlocked  bool
	IsClosed   bool
	Followers  int
	Following  int
	Likes      int
	Comments   int
	CreatedAt  time.Time

	// TotalBlogs counts every post of the account, TotalPosts only those in
	// the viewer's scope.
	TotalBlogs     int
	TotalPosts     int
	PostsPublished int
	Posts          []Post
	AreMore        bool
}

type ProfileView struct {
	ID             uuid.UUID  `json:"id"`
	Username       string     `json:"username"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	Bio            string     `json:"bio"`
	AvatarURL      string     `json:"avatarUrl"`
	Followers      int        `json:"followers"`
	Following      int        `json:"following"`
	Likes          int        `json:"likes"`
	Comments       int        `json:"comments"`
	TotalPosts     int        `json:"totalPosts"`
	PostsPublished int        `json:"postPublished"`
	Posts          []PostView `json:"posts"`
	AreMore        bool       `json:"areMore"`

	Email      *string      `json:"email,omitempty"`
	Role       *policy.Role `json:"role,omitempty"`
	IsVerified *bool        `json:"isVerified,omitempty"`
	IsBlocked  *bool        `json:"isBlocked,omitempty"`
	IsClosed   *bool        `json:"isClosed,omitempty"`
	TotalBlogs *int         `json:"totalBlogs,omitempty"`
	CreatedAt  *time.Time   `json:"createdAt,omitempty"`
}

func privileged(viewer policy.Actor, ownerID uuid.UUID) bool {
	return viewer.IsAdmin() || (!viewer.IsAnonymous() && viewer.ID == ownerID)
}

// PostVisible reports whether viewer may see p at all.
func PostVisible(viewer policy.Actor, p Post) bool {
	if privileged(viewer, p.Author.ID) {
		return true
	}
	return p.IsPublished && !p.Author.IsBlocked && !p.Author.IsClosed
}

// FilterPost returns the full view of p, or false when viewer may not see it.
func FilterPost(viewer policy.Actor, p Post) (PostView, bool) {
	if !PostVisible(viewer, p) {
		return PostView{}, false
	}
	return fullPost(p), true
}

// SummarizePost returns the listing view of a post that is already known to be
// visible: no body, tags, keywords or timestamps.
func SummarizePost(p Post) PostView {
	author := p.Author
	return PostView{
		ID:              p.ID,
		Author:          &author,
		Title:           p.Title,
		URL:             p.URL,
		MetaDescription: p.MetaDescription,
		CoverURL:        p.CoverURL,
		Likes:           p.Likes,
	}
}

func fullPost(p Post) PostView {
	v := SummarizePost(p)
	content, keywords, published := p.Content, p.SEOKeywords, p.IsPublished
	created, updated := p.CreatedAt, p.UpdatedAt

	v.Content = &content
	v.SEOKeywords = &keywords
	v.IsPublished = &published
	v.CreatedAt = &created
	v.UpdatedAt = &updated
	v.Tags = p.Tags
	if v.Tags == nil {
		v.Tags = []string{}
	}
	v.Comments = p.Comments
	return v
}

// ProfilePublishedOnly reports whether the post query of a profile must be
// restricted to published posts for this viewer.
func ProfilePublishedOnly(viewer policy.Actor, profileID uuid.UUID) bool {
	return !privileged(viewer, profileID)
}

// CheckProfile returns a not-found error when viewer may not see the profile.
func CheckProfile(viewer policy.Actor, p Profile) error {
	if viewer.IsAdmin() {
		return nil
	}
	if p.IsBlocked || p.IsClosed {
		return common.NotFound(policy.MsgUserNotFound)
	}
	if !p.IsVerified && viewer.ID != p.ID {
		return common.NotFound(policy.MsgUserNotFound)
	}
	return nil
}

// FilterProfile builds the view of p for viewer. Strangers get the public
// fields and published post summaries only.
func FilterProfile(viewer policy.Actor, p Profile) (ProfileView, error) {
	if err := CheckProfile(viewer, p); err != nil {
		return ProfileView{}, err
	}

	v := ProfileView{
		ID:             p.ID,
		Username:       p.Username,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Bio:            p.Bio,
		AvatarURL:      p.AvatarURL,
		Followers:      p.Followers,
		Following:      p.Following,
		Likes:          p.Likes,
		Comments:       p.Comments,
		TotalPosts:     p.TotalPosts,
		PostsPublished: p.PostsPublished,
		AreMore:        p.AreMore,
		Posts:          []PostView{},
	}

	if !privileged(viewer, p.ID) {
		for _, post := range p.Posts {
			if post.IsPublished {
				v.Posts = append(v.Posts, SummarizePost(post))
			}
		}
		return v, nil
	}

	email, role := p.Email, p.Role
	verified, blocked, closed := p.IsVerified, p.IsBlocked, p.IsClosed
	total, created := p.TotalBlogs, p.CreatedAt

	v.Email = &email
	v.Role = &role
	v.IsVerified = &verified
	v.IsBlocked = &blocked
	v.IsClosed = &closed
	v.TotalBlogs = &total
	v.CreatedAt = &created

	for _, post := range p.Posts {
		v.Posts = append(v.Posts, fullPost(post))
	}

	return v, nil
}
