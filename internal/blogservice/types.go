package blogservice

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sushihentaime/inkwell/internal/blobstore"
	"github.com/sushihentaime/inkwell/internal/common"
	"github.com/sushihentaime/inkwell/internal/ledger"
	"github.com/sushihentaime/inkwell/internal/visibility"
)

const (
	// MaxTags is the most tags a post may carry.
	MaxTags = 15
	// RecentPosts is the number of earlier posts returned with a post.
	RecentPosts = 8
	// TrendingPosts is the number of most liked posts on the home feed.
	TrendingPosts = 6
	// PopularAuthors is the number of most followed authors whose posts fill
	// the rest of the home feed.
	PopularAuthors = 26
	// MaxKeywords is the most keywords returned with a listing.
	MaxKeywords = 15

	homeFeedTTL = time.Minute
)

const (
	MsgFieldsRequired   = "All fields are mandatory including post image"
	MsgURLExists        = "URL already exist for another blog."
	MsgInvalidTagsJSON  = "Invalid JSON format for tags"
	MsgTooManyTags      = "Please provide atmost 15 tags only."
	MsgPostNotFound     = "Blog post not found"
	MsgPublicNotFound   = "This Post not found"
	MsgNothingToUpdate  = "Atleast one information for updation  is required."
	MsgTagRequired      = "A Tag is required to search post"
	MsgSearchNotFound   = "Post not found with related search"
	MsgUploadFailed     = "File upload failed"
	MsgCoverDestroyFail = "Error deleting post resources"
)

var ErrNotFound = common.NotFound(MsgPostNotFound)

type BlogService struct {
	db     *sql.DB
	m      *model
	c      *common.Cache
	blobs  blobstore.Store
	ledger *ledger.Ledger
	logger *slog.Logger
}

type model struct{}

// CreateInput holds a new post. Tags is the raw JSON array sent by the
// client.
type CreateInput struct {
	AuthorID        uuid.UUID
	Title           string
	URL             string
	Content         string
	Tags            string
	SEOKeywords     string
	MetaDescription string
	Cover           *blobstore.File
}

// UpdateInput holds the fields of a post to change. Nil fields are kept.
type UpdateInput struct {
	Title           *string
	Content         *string
	Tags            *string
	SEOKeywords     *string
	MetaDescription *string
	Cover           *blobstore.File
}

// PostDetail is a post opened by its URL.
type PostDetail struct {
	visibility.PostView
	IsLiked bool `json:"isLiked"`
}

type PostPage struct {
	Post        PostDetail            `json:"postDetails"`
	RecentPosts []visibility.PostView `json:"recentPosts"`
}

type HomeFeed struct {
	TrendingPosts []visibility.PostView `json:"trendingPosts"`
	AuthorPosts   []visibility.PostView `json:"authorPosts"`
	TopKeywords   []string              `json:"topKeywords"`
}

// PostList is one page of a listing with keywords drawn from its posts.
type PostList struct {
	common.Page[visibility.PostView]
	Keywords []string `json:"keywords"`
}
