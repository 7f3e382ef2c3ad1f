package ledger

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sushihentaime/inkwell/internal/visibility"
)

const (
	MsgAlreadyFollowing = "You have already following this Blogger."
	MsgInvalidBlog      = "Invalid BlogId"
	MsgWrongFollow      = "Wrong Follower Id"
	MsgAlreadyLiked     = "You have already Liked this Post"
	MsgNotLiked         = "You haven't liked this post yet"
	MsgBlogNotFound     = "Blog not found!"
	MsgCommentBlog      = "BlogId is invalid"
	MsgCommentNotFound  = "Comment not found"
)

// Ledger owns the follow, like and comment relations and the counters they
// feed on users and blogs. Every relation write and its counter updates
// commit in one transaction.
type Ledger struct {
	db     *sql.DB
	m      *model
	logger *slog.Logger
}

type model struct{}

type Follow struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user"`
	AuthorID  uuid.UUID  `json:"author"`
	BlogID    *uuid.UUID `json:"blog,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

type Like struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user"`
	BlogID    uuid.UUID `json:"blog"`
	AuthorID  uuid.UUID `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

type Comment struct {
	ID      uuid.UUID `json:"id"`
	Content string    `json:"content"`
	// Author is the commenter.
	Author       visibility.Author `json:"author"`
	BlogID       uuid.UUID         `json:"blog"`
	BlogAuthorID uuid.UUID         `json:"blogAuthor"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

type LikeStatus struct {
	TotalLikes int  `json:"totalLikes"`
	IsLiked    bool `json:"isLiked"`
}

type FollowStatus struct {
	IsFollowing bool       `json:"isFollowing"`
	ID          *uuid.UUID `json:"id"`
}

// Connection is one row of a followers or following listing.
type Connection struct {
	ID        uuid.UUID         `json:"id"`
	User      visibility.Author `json:"user"`
	BlogURL   *string           `json:"blogUrl,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

type ChartPoint struct {
	Week  time.Time `json:"week"`
	Count int       `json:"count"`
}

type ChartData struct {
	Likes     []ChartPoint `json:"likesData"`
	Followers []ChartPoint `json:"followersData"`
}

// Detached reports what a cascade removed.
type Detached struct {
	Comments  int
	Likes     int
	Resources []string
}

// postRef is the slice of a post the ledger needs for its checks.
type postRef struct {
	ID          uuid.UUID
	AuthorID    uuid.UUID
	URL         string
	IsPublished bool
}
