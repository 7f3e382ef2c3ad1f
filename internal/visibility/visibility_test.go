package visibility

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sushihentaime/inkwell/internal/common"
	"github.com/sushihentaime/inkwell/internal/policy"
)

func testProfile() Profile {
	ownerID := uuid.New()
	author := Author{ID: ownerID, Username: "writer01", IsVerified: true}
	now := time.Now()

	return Profile{
		ID:             ownerID,
		Username:       "writer01",
		Email:          "writer@example.com",
		Role:           policy.RoleUser,
		IsVerified:     true,
		TotalBlogs:     2,
		TotalPosts:     2,
		PostsPublished: 1,
		CreatedAt:      now,
		Posts: []Post{
			{ID: uuid.New(), Author: author, Title: "Public", URL: "public", Content: "body", Tags: []string{"go"}, IsPublished: true, CreatedAt: now},
			{ID: uuid.New(), Author: author, Title: "Draft", URL: "draft", Content: "secret", IsPublished: false, CreatedAt: now},
		},
	}
}

func TestFilterProfileStranger(t *testing.T) {
	p := testProfile()
	stranger := policy.Actor{ID: uuid.New(), Role: policy.RoleUser, IsVerified: true}

	for _, viewer := range []policy.Actor{stranger, policy.Anonymous} {
		v, err := FilterProfile(viewer, p)
		require.NoError(t, err)

		assert.Len(t, v.Posts, 1)
		assert.Equal(t, "Public", v.Posts[0].Title)

		b, err := json.Marshal(v)
		require.NoError(t, err)

		var raw map[string]any
		require.NoError(t, json.Unmarshal(b, &raw))
		for _, field := range []string{"email", "createdAt", "isBlocked", "isClosed", "isVerified", "role", "totalBlogs"} {
			assert.NotContains(t, raw, field)
		}

		post := raw["posts"].([]any)[0].(map[string]any)
		for _, field := range []string{"isPublished", "content", "tags", "comments", "seoKeywords", "createdAt", "updatedAt"} {
			assert.NotContains(t, post, field)
		}
	}
}

func TestFilterProfileOwnerAndAdmin(t *testing.T) {
	p := testProfile()
	owner := policy.Actor{ID: p.ID, Role: policy.RoleUser, IsVerified: true}
	admin := policy.Actor{ID: uuid.New(), Role: policy.RoleAdmin, IsVerified: true}

	for _, viewer := range []policy.Actor{owner, admin} {
		v, err := FilterProfile(viewer, p)
		require.NoError(t, err)

		assert.Len(t, v.Posts, 2)
		require.NotNil(t, v.Email)
		assert.Equal(t, "writer@example.com", *v.Email)
		require.NotNil(t, v.TotalBlogs)
		assert.Equal(t, 2, *v.TotalBlogs)
		require.NotNil(t, v.Posts[1].IsPublished)
		assert.False(t, *v.Posts[1].IsPublished)
	}
}

func TestHiddenProfiles(t *testing.T) {
	stranger := policy.Actor{ID: uuid.New(), Role: policy.RoleUser, IsVerified: true}
	admin := policy.Actor{ID: uuid.New(), Role: policy.RoleAdmin}

	testCases := []struct {
		name   string
		mutate func(p *Profile)
	}{
		{"blocked", func(p *Profile) { p.IsBlocked = true }},
		{"closed", func(p *Profile) { p.IsClosed = true }},
		{"unverified", func(p *Profile) { p.IsVerified = false }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := testProfile()
			tc.mutate(&p)

			_, err := FilterProfile(stranger, p)
			assert.ErrorIs(t, err, common.ErrNotFound)

			_, err = FilterProfile(admin, p)
			assert.NoError(t, err)
		})
	}

	p := testProfile()
	p.IsVerified = false
	_, err := FilterProfile(policy.Actor{ID: p.ID}, p)
	assert.NoError(t, err, "owners see their own unverified profile")
}

func TestPostVisibility(t *testing.T) {
	authorID := uuid.New()
	stranger := policy.Actor{ID: uuid.New(), Role: policy.RoleUser}
	owner := policy.Actor{ID: authorID, Role: policy.RoleUser}

	testCases := []struct {
		name      string
		published bool
		blocked   bool
		closed    bool
		viewer    policy.Actor
		want      bool
	}{
		{"published active author", true, false, false, stranger, true},
		{"unpublished", false, false, false, stranger, false},
		{"blocked author", true, true, false, stranger, false},
		{"closed author", true, false, true, policy.Anonymous, false},
		{"owner sees unpublished", false, false, false, owner, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := Post{
				ID:          uuid.New(),
				Author:      Author{ID: authorID, IsBlocked: tc.blocked, IsClosed: tc.closed},
				IsPublished: tc.published,
				Content:     "body",
			}

			v, ok := FilterPost(tc.viewer, p)
			assert.Equal(t, tc.want, ok)
			if ok {
				require.NotNil(t, v.Content)
				assert.Equal(t, "body", *v.Content)
			}
		})
	}
}

func TestProfilePublishedOnly(t *testing.T) {
	id := uuid.New()
	assert.False(t, ProfilePublishedOnly(policy.Actor{ID: id}, id))
	assert.False(t, ProfilePublishedOnly(policy.Actor{ID: uuid.New(), Role: policy.RoleAdmin}, id))
	assert.True(t, ProfilePublishedOnly(policy.Anonymous, id))
}
