package blogservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sushihentaime/inkwell/internal/blobstore"
	"github.com/sushihentaime/inkwell/internal/common"
	"github.com/sushihentaime/inkwell/internal/ledger"
	"github.com/sushihentaime/inkwell/internal/policy"
)

type testEnv struct {
	s      *BlogService
	db     *sql.DB
	ledger *ledger.Ledger
	blobs  *blobstore.FileStore
}

func setupTestEnvironment(t *testing.T) *testEnv {
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	db := common.TestDB("file://../../migrations", t)
	cache := common.NewCache(5*time.Minute, 10*time.Minute)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	blobs, err := blobstore.NewFileStore(t.TempDir(), "http://localhost:4000/media")
	require.NoError(t, err)

	l := ledger.NewLedger(db, logger)

	return &testEnv{
		s:      NewBlogService(db, cache, blobs, l, logger),
		db:     db,
		ledger: l,
		blobs:  blobs,
	}
}

// failingStore accepts uploads but can not destroy anything.
type failingStore struct {
	blobstore.Store
}

func (failingStore) Destroy(ctx context.Context, id string) error {
	return errors.New("blob store unavailable")
}

func seedUser(t *testing.T, db *sql.DB, username string, role policy.Role) policy.Actor {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(`
		INSERT INTO users (id, username, email, password, role, is_verified)
		VALUES ($1, $2, $3, 'x', $4, true)`,
		id, username, fmt.Sprintf("%s@example.com", username), role)
	require.NoError(t, err)

	return policy.Actor{ID: id, Username: username, Role: role, IsVerified: true}
}

// seedPost writes a published post directly, which allows controlling its
// creation time.
func seedPost(t *testing.T, db *sql.DB, author policy.Actor, url string, tags []string, createdAt time.Time) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec(`
		INSERT INTO blogs (id, author_id, title, url, content, tags, meta_description, created_at)
		VALUES ($1, $2, $3, $3, 'content', $4, 'meta', $5)`,
		id, author.ID, url, pq.Array(tags), createdAt)
	require.NoError(t, err)

	_, err = db.Exec(`UPDATE users SET blogs = array_append(blogs, $2) WHERE id = $1`, author.ID, id)
	require.NoError(t, err)

	return id
}

func cover() *blobstore.File {
	return &blobstore.File{Name: "cover.png", Body: strings.NewReader("not really a png")}
}

func createInput(author uuid.UUID, url string) CreateInput {
	return CreateInput{
		AuthorID:        author,
		Title:           "Writing Go services",
		URL:             url,
		Content:         "# Hello\n<script>alert(1)</script>world",
		Tags:            `["go", "Backend"]`,
		SEOKeywords:     "go, services",
		MetaDescription: "How we write Go services",
		Cover:           cover(),
	}
}

func ownedBlogs(t *testing.T, db *sql.DB, id uuid.UUID) []string {
	t.Helper()

	var blogs []string
	err := db.QueryRow(`SELECT blogs FROM users WHERE id = $1`, id).Scan(pq.Array(&blogs))
	require.NoError(t, err)

	return blogs
}

func blobExists(env *testEnv, id string) bool {
	_, err := os.Stat(filepath.Join(env.blobs.Root(), filepath.FromSlash(id)))
	return err == nil
}

func TestCreate(t *testing.T) {
	env := setupTestEnvironment(t)
	ctx := context.Background()

	author := seedUser(t, env.db, "author01", policy.RoleUser)
	other := seedUser(t, env.db, "other001", policy.RoleUser)
	admin := seedUser(t, env.db, "admin001", policy.RoleAdmin)
	blocked := seedUser(t, env.db, "blocked1", policy.RoleUser)
	_, err := env.db.Exec(`UPDATE users SET is_blocked = true WHERE id = $1`, blocked.ID)
	require.NoError(t, err)

	unverified := author
	unverified.IsVerified = false

	manyTags := createInput(author.ID, "many-tags")
	manyTags.Tags = `["a","b","c","d","e","f","g","h","i","j","k","l","m","n","o","p"]`

	badTags := createInput(author.ID, "bad-tags")
	badTags.Tags = `go, backend`

	noCover := createInput(author.ID, "no-cover")
	noCover.Cover = nil

	badType := createInput(author.ID, "bad-type")
	badType.Cover = &blobstore.File{Name: "cover.exe", Body: strings.NewReader("x")}

	testCases := []struct {
		name     string
		actor    policy.Actor
		input    CreateInput
		wantKind common.Kind
	}{
		{name: "author writes own post", actor: author, input: createInput(author.ID, "own-post")},
		{name: "admin writes for author", actor: admin, input: createInput(author.ID, "admin-post")},
		{name: "duplicate url", actor: author, input: createInput(author.ID, "own-post"), wantKind: common.KindConflict},
		{name: "other user", actor: other, input: createInput(author.ID, "other-post"), wantKind: common.KindAuthorization},
		{name: "unverified actor", actor: unverified, input: createInput(author.ID, "unverified"), wantKind: common.KindAuthorization},
		{name: "blocked author", actor: admin, input: createInput(blocked.ID, "blocked-post"), wantKind: common.KindAuthorization},
		{name: "missing author", actor: admin, input: createInput(uuid.New(), "missing"), wantKind: common.KindNotFound},
		{name: "missing cover", actor: author, input: noCover, wantKind: common.KindValidation},
		{name: "too many tags", actor: author, input: manyTags, wantKind: common.KindValidation},
		{name: "malformed tags", actor: author, input: badTags, wantKind: common.KindValidation},
		{name: "unsupported cover", actor: author, input: badType, wantKind: common.KindValidation},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			post, err := env.s.Create(ctx, tc.actor, tc.input)
			if tc.wantKind != 0 {
				require.Error(t, err)
				assert.Equal(t, tc.wantKind, common.KindOf(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.input.URL, post.URL)
			assert.Equal(t, []string{"go", "Backend"}, post.Tags)
			assert.Equal(t, "# Hello\nworld", *post.Content)
			assert.True(t, *post.IsPublished)
			assert.Contains(t, ownedBlogs(t, env.db, author.ID), post.ID.String())
		})
	}

	var count int
	require.NoError(t, env.db.QueryRow(`SELECT count(*) FROM blogs`).Scan(&count))
	assert.Equal(t, 2, count)
}

func TestUpdate(t *testing.T) {
	env := setupTestEnvironment(t)
	ctx := context.Background()

	author := seedUser(t, env.db, "author01", policy.RoleUser)
	other := seedUser(t, env.db, "other001", policy.RoleUser)

	post, err := env.s.Create(ctx, author, createInput(author.ID, "update-me"))
	require.NoError(t, err)

	var oldCover string
	require.NoError(t, env.db.QueryRow(`SELECT cover_id FROM blogs WHERE id = $1`, post.ID).Scan(&oldCover))
	require.True(t, blobExists(env, oldCover))

	t.Run("nothing to update", func(t *testing.T) {
		_, err := env.s.Update(ctx, author, post.ID, UpdateInput{})
		assert.ErrorIs(t, err, common.ErrValidation)
	})

	t.Run("stranger", func(t *testing.T) {
		title := "Taken over"
		_, err := env.s.Update(ctx, other, post.ID, UpdateInput{Title: &title})
		assert.ErrorIs(t, err, common.ErrForbidden)
	})

	t.Run("missing post", func(t *testing.T) {
		title := "Nothing here"
		_, err := env.s.Update(ctx, author, uuid.New(), UpdateInput{Title: &title})
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("fields and cover", func(t *testing.T) {
		title, tags, content := "Writing better Go", `["go"]`, "<SCRIPT>x</SCRIPT>new body"
		updated, err := env.s.Update(ctx, author, post.ID, UpdateInput{Title: &title, Tags: &tags, Content: &content, Cover: cover()})
		require.NoError(t, err)

		assert.Equal(t, title, updated.Title)
		assert.Equal(t, []string{"go"}, updated.Tags)
		assert.Equal(t, "new body", *updated.Content)
		assert.NotEqual(t, post.CoverURL, updated.CoverURL)
		assert.False(t, blobExists(env, oldCover))
	})
}

func TestPublishAndUnpublish(t *testing.T) {
	env := setupTestEnvironment(t)
	ctx := context.Background()

	author := seedUser(t, env.db, "author01", policy.RoleUser)
	other := seedUser(t, env.db, "other001", policy.RoleUser)
	admin := seedUser(t, env.db, "admin001", policy.RoleAdmin)
	id := seedPost(t, env.db, author, "toggle-me", nil, time.Now())

	err := env.s.Unpublish(ctx, other, id)
	assert.ErrorIs(t, err, common.ErrForbidden)

	err = env.s.Unpublish(ctx, policy.Anonymous, id)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)

	require.NoError(t, env.s.Unpublish(ctx, author, id))

	_, err = env.s.GetByURL(ctx, author, "toggle-me")
	assert.ErrorIs(t, err, common.ErrNotFound)

	list, err := env.s.AllPosts(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	require.NoError(t, env.s.Publish(ctx, admin, id))

	page, err := env.s.GetByURL(ctx, policy.Anonymous, "toggle-me")
	require.NoError(t, err)
	assert.Equal(t, id, page.Post.ID)

	err = env.s.Publish(ctx, author, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeletePost(t *testing.T) {
	env := setupTestEnvironment(t)
	ctx := context.Background()

	author := seedUser(t, env.db, "author01", policy.RoleUser)
	reader := seedUser(t, env.db, "reader01", policy.RoleUser)
	other := seedUser(t, env.db, "other001", policy.RoleUser)

	post, err := env.s.Create(ctx, author, createInput(author.ID, "doomed-post"))
	require.NoError(t, err)

	_, err = env.ledger.Follow(ctx, reader, author.ID, &post.ID)
	require.NoError(t, err)
	_, err = env.ledger.Like(ctx, reader, post.ID)
	require.NoError(t, err)
	_, err = env.ledger.CreateComment(ctx, reader, post.ID, "Nice post")
	require.NoError(t, err)
	_, err = env.ledger.CreateComment(ctx, other, post.ID, "Agreed")
	require.NoError(t, err)

	obj, err := env.blobs.Upload(ctx, strings.NewReader("pdf"), "notes.pdf", blobstore.ResourceFolder(author.Username))
	require.NoError(t, err)
	_, err = env.db.Exec(`INSERT INTO resources (id, user_id, blob_id, blob_url, blog_id) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), author.ID, obj.ID, obj.URL, post.ID)
	require.NoError(t, err)

	err = env.s.Delete(ctx, other, post.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	require.NoError(t, env.s.Delete(ctx, author, post.ID))

	var likes, comments, followers int
	err = env.db.QueryRow(`SELECT likes, comments, followers FROM users WHERE id = $1`, author.ID).Scan(&likes, &comments, &followers)
	require.NoError(t, err)
	assert.Equal(t, 0, likes)
	assert.Equal(t, 0, comments)
	assert.Equal(t, 1, followers)

	for _, table := range []string{"likes", "comments", "resources"} {
		var n int
		require.NoError(t, env.db.QueryRow(`SELECT count(*) FROM `+table+` WHERE blog_id = $1`, post.ID).Scan(&n))
		assert.Zero(t, n, table)
	}

	var follows int
	require.NoError(t, env.db.QueryRow(`SELECT count(*) FROM follows WHERE author_id = $1 AND blog_id IS NULL`, author.ID).Scan(&follows))
	assert.Equal(t, 1, follows)

	assert.Empty(t, ownedBlogs(t, env.db, author.ID))
	assert.False(t, blobExists(env, obj.ID))

	err = env.s.Delete(ctx, author, post.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	fixed, err := env.ledger.Reconcile(ctx)
	require.NoError(t, err)
	assert.Zero(t, fixed)
}

func TestDeletePostCoverFailure(t *testing.T) {
	env := setupTestEnvironment(t)
	ctx := context.Background()

	author := seedUser(t, env.db, "author01", policy.RoleUser)
	post, err := env.s.Create(ctx, author, createInput(author.ID, "sticky-post"))
	require.NoError(t, err)

	env.s.blobs = failingStore{env.blobs}

	err = env.s.Delete(ctx, author, post.ID)
	assert.ErrorIs(t, err, common.ErrDependency)

	var n int
	require.NoError(t, env.db.QueryRow(`SELECT count(*) FROM blogs WHERE id = $1`, post.ID).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestGetByURL(t *testing.T) {
	env := setupTestEnvironment(t)
	ctx := context.Background()

	author := seedUser(t, env.db, "author01", policy.RoleUser)
	reader := seedUser(t, env.db, "reader01", policy.RoleUser)

	now := time.Now().Truncate(time.Second)
	for i := 0; i < 10; i++ {
		seedPost(t, env.db, author, fmt.Sprintf("older-%02d", i), nil, now.Add(-time.Duration(i+1)*time.Hour))
	}
	id := seedPost(t, env.db, author, "current-post", []string{"go"}, now)

	_, err := env.ledger.Like(ctx, reader, id)
	require.NoError(t, err)

	page, err := env.s.GetByURL(ctx, reader, "current-post")
	require.NoError(t, err)
	assert.True(t, page.Post.IsLiked)
	assert.Equal(t, 1, page.Post.Likes)
	assert.Equal(t, "content", *page.Post.Content)
	require.Len(t, page.RecentPosts, RecentPosts)
	assert.Equal(t, "older-00", page.RecentPosts[0].URL)
	assert.Nil(t, page.RecentPosts[0].Content)

	page, err = env.s.GetByURL(ctx, policy.Anonymous, "current-post")
	require.NoError(t, err)
	assert.False(t, page.Post.IsLiked)

	_, err = env.db.Exec(`UPDATE users SET is_closed = true WHERE id = $1`, author.ID)
	require.NoError(t, err)

	_, err = env.s.GetByURL(ctx, reader, "current-post")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestHomeFeed(t *testing.T) {
	env := setupTestEnvironment(t)
	ctx := context.Background()

	author := seedUser(t, env.db, "author01", policy.RoleUser)
	now := time.Now()

	var ids []uuid.UUID
	for i := 0; i < 30; i++ {
		ids = append(ids, seedPost(t, env.db, author, fmt.Sprintf("post-%02d", i), []string{"Go", fmt.Sprintf("tag%02d", i)}, now.Add(-time.Duration(i)*time.Minute)))
	}

	readers := make([]policy.Actor, 3)
	for i := range readers {
		readers[i] = seedUser(t, env.db, fmt.Sprintf("reader%02d", i), policy.RoleUser)
	}
	for i, reader := range readers {
		for _, id := range ids[len(ids)-1-i:] {
			_, err := env.ledger.Like(ctx, reader, id)
			require.NoError(t, err)
		}
	}

	feed, err := env.s.HomeFeed(ctx)
	require.NoError(t, err)

	require.Len(t, feed.TrendingPosts, TrendingPosts)
	assert.Equal(t, ids[29], feed.TrendingPosts[0].ID)
	assert.Equal(t, 3, feed.TrendingPosts[0].Likes)

	require.Len(t, feed.AuthorPosts, common.PageSize)
	trending := make(map[uuid.UUID]bool)
	for _, p := range feed.TrendingPosts {
		trending[p.ID] = true
	}
	for _, p := range feed.AuthorPosts {
		assert.False(t, trending[p.ID])
	}

	assert.Contains(t, feed.TopKeywords, "go")
	assert.LessOrEqual(t, len(feed.TopKeywords), MaxKeywords)

	cached, err := env.s.HomeFeed(ctx)
	require.NoError(t, err)
	assert.Same(t, feed, cached)

	require.NoError(t, env.s.Unpublish(ctx, author, ids[29]))

	fresh, err := env.s.HomeFeed(ctx)
	require.NoError(t, err)
	assert.NotSame(t, feed, fresh)
	assert.NotEqual(t, ids[29], fresh.TrendingPosts[0].ID)
}

func TestAllPostsPagination(t *testing.T) {
	env := setupTestEnvironment(t)
	ctx := context.Background()

	author := seedUser(t, env.db, "author01", policy.RoleUser)
	blocked := seedUser(t, env.db, "blocked1", policy.RoleUser)

	now := time.Now()
	for i := 0; i < 25; i++ {
		seedPost(t, env.db, author, fmt.Sprintf("post-%02d", i), []string{"go"}, now.Add(-time.Duration(i)*time.Minute))
	}
	seedPost(t, env.db, blocked, "hidden-post", nil, now)
	_, err := env.db.Exec(`UPDATE users SET is_blocked = true WHERE id = $1`, blocked.ID)
	require.NoError(t, err)

	first, err := env.s.AllPosts(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, first.Items, 20)
	assert.True(t, first.AreMore)
	assert.Equal(t, "post-00", first.Items[0].URL)
	assert.Equal(t, []string{"go"}, first.Keywords)

	second, err := env.s.AllPosts(ctx, 20)
	require.NoError(t, err)
	assert.Len(t, second.Items, 5)
	assert.False(t, second.AreMore)
}

func TestTagSearch(t *testing.T) {
	env := setupTestEnvironment(t)
	ctx := context.Background()

	author := seedUser(t, env.db, "author01", policy.RoleUser)
	now := time.Now()
	seedPost(t, env.db, author, "golang-tips", []string{"Golang", "tips"}, now)
	seedPost(t, env.db, author, "rust-notes", []string{"rust"}, now.Add(-time.Minute))
	seedPost(t, env.db, author, "100-percent", []string{"math"}, now.Add(-2*time.Minute))

	testCases := []struct {
		name     string
		term     string
		want     []string
		wantKind common.Kind
	}{
		{name: "tag ignores case", term: "GOLANG", want: []string{"golang-tips"}},
		{name: "partial tag", term: "ru", want: []string{"rust-notes"}},
		{name: "title", term: "notes", want: []string{"rust-notes"}},
		{name: "wildcard is literal", term: "%", wantKind: common.KindNotFound},
		{name: "no match", term: "python", wantKind: common.KindNotFound},
		{name: "empty", term: "  ", wantKind: common.KindValidation},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			list, err := env.s.TagSearch(ctx, tc.term, 0)
			if tc.wantKind != 0 {
				assert.Equal(t, tc.wantKind, common.KindOf(err))
				return
			}

			require.NoError(t, err)
			var urls []string
			for _, p := range list.Items {
				urls = append(urls, p.URL)
			}
			assert.Equal(t, tc.want, urls)
		})
	}
}
