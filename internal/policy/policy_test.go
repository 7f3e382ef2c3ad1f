package policy

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/sushihentaime/inkwell/internal/common"
)

func newActor(role Role, verified bool) Actor {
	return Actor{ID: uuid.New(), Username: "someone", Role: role, IsVerified: verified}
}

func accountOf(a Actor) *Account {
	return &Account{ID: a.ID, Role: a.Role, IsVerified: a.IsVerified, IsBlocked: a.IsBlocked, IsClosed: a.IsClosed}
}

func TestGate(t *testing.T) {
	closed := newActor(RoleUser, true)
	closed.IsClosed = true
	blocked := newActor(RoleUser, true)
	blocked.IsBlocked = true

	testCases := []struct {
		name     string
		actor    Actor
		wantKind common.Kind
		wantMsg  string
	}{
		{"anonymous", Anonymous, common.KindAuthentication, MsgNoToken},
		{"closed", closed, common.KindAuthorization, MsgClosed},
		{"blocked", blocked, common.KindAuthorization, MsgBlocked},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := CanPerform(tc.actor, Unlike, Target{})
			assert.False(t, d.Allowed)
			assert.Equal(t, tc.wantKind, d.Kind)
			assert.Equal(t, tc.wantMsg, d.Reason)
		})
	}
}

func TestPostActions(t *testing.T) {
	author := newActor(RoleUser, true)
	stranger := newActor(RoleUser, true)
	admin := newActor(RoleAdmin, true)
	unverified := newActor(RoleUser, false)

	inactive := accountOf(author)
	inactive.IsBlocked = true

	testCases := []struct {
		name    string
		actor   Actor
		action  Action
		target  Target
		allowed bool
		kind    common.Kind
	}{
		{"author creates own post", author, CreatePost, Target{OwnerID: author.ID, Account: accountOf(author)}, true, 0},
		{"admin creates for author", admin, CreatePost, Target{OwnerID: author.ID, Account: accountOf(author)}, true, 0},
		{"stranger creates for author", stranger, CreatePost, Target{OwnerID: author.ID, Account: accountOf(author)}, false, common.KindAuthorization},
		{"unverified creates", unverified, CreatePost, Target{OwnerID: unverified.ID, Account: accountOf(unverified)}, false, common.KindAuthorization},
		{"missing author", admin, CreatePost, Target{OwnerID: author.ID}, false, common.KindNotFound},
		{"blocked author", admin, CreatePost, Target{OwnerID: author.ID, Account: inactive}, false, common.KindAuthorization},
		{"author edits", author, EditPost, Target{OwnerID: author.ID, Account: accountOf(author)}, true, 0},
		{"admin edits inactive author post", admin, EditPost, Target{OwnerID: author.ID, Account: inactive}, false, common.KindAuthorization},
		{"stranger publishes", stranger, PublishPost, Target{OwnerID: author.ID}, false, common.KindAuthorization},
		{"admin unpublishes", admin, UnpublishPost, Target{OwnerID: author.ID}, true, 0},
		{"author deletes", author, DeletePost, Target{OwnerID: author.ID}, true, 0},
		{"stranger deletes", stranger, DeletePost, Target{OwnerID: author.ID}, false, common.KindAuthorization},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := CanPerform(tc.actor, tc.action, tc.target)
			assert.Equal(t, tc.allowed, d.Allowed)
			if !tc.allowed {
				assert.Equal(t, tc.kind, d.Kind)
				assert.ErrorIs(t, d.Err(), &common.Error{Kind: tc.kind})
			} else {
				assert.NoError(t, d.Err())
			}
		})
	}
}

func TestCommentActions(t *testing.T) {
	commenter := newActor(RoleUser, true)
	postAuthor := newActor(RoleUser, true)
	admin := newActor(RoleAdmin, true)

	unverifiedAuthor := accountOf(postAuthor)
	unverifiedAuthor.IsVerified = false

	assert.True(t, CanPerform(commenter, CreateComment, Target{Account: accountOf(postAuthor)}).Allowed)

	d := CanPerform(commenter, CreateComment, Target{Account: unverifiedAuthor})
	assert.Equal(t, common.KindNotFound, d.Kind)
	assert.Equal(t, MsgUserNotFound, d.Reason)

	assert.True(t, CanPerform(commenter, EditComment, Target{OwnerID: commenter.ID, Account: accountOf(postAuthor)}).Allowed)
	assert.False(t, CanPerform(postAuthor, EditComment, Target{OwnerID: commenter.ID, Account: accountOf(postAuthor)}).Allowed)
	assert.True(t, CanPerform(admin, DeleteComment, Target{OwnerID: commenter.ID}).Allowed)
	assert.False(t, CanPerform(postAuthor, DeleteComment, Target{OwnerID: commenter.ID}).Allowed)
}

func TestFollowAndLike(t *testing.T) {
	user := newActor(RoleUser, true)
	author := newActor(RoleUser, true)
	unverified := newActor(RoleUser, false)

	closedAuthor := accountOf(author)
	closedAuthor.IsClosed = true

	assert.True(t, CanPerform(user, Follow, Target{Account: accountOf(author)}).Allowed)

	d := CanPerform(user, Follow, Target{Account: accountOf(user)})
	assert.Equal(t, common.KindValidation, d.Kind)
	assert.Equal(t, MsgSelfFollow, d.Reason)

	d = CanPerform(user, Follow, Target{Account: closedAuthor})
	assert.Equal(t, common.KindNotFound, d.Kind)
	assert.Equal(t, MsgInvalidAuthor, d.Reason)

	d = CanPerform(unverified, Follow, Target{Account: accountOf(author)})
	assert.Equal(t, MsgNotVerified, d.Reason)

	assert.True(t, CanPerform(user, Unfollow, Target{OwnerID: user.ID}).Allowed)
	assert.False(t, CanPerform(author, Unfollow, Target{OwnerID: user.ID}).Allowed)

	assert.True(t, CanPerform(user, Like, Target{}).Allowed)
	assert.False(t, CanPerform(unverified, Like, Target{}).Allowed)
	// an unverified user can always take a like back
	assert.True(t, CanPerform(unverified, Unlike, Target{}).Allowed)
}

func TestAccountActions(t *testing.T) {
	user := newActor(RoleUser, true)
	other := newActor(RoleUser, true)
	admin := newActor(RoleAdmin, true)
	otherAdmin := newActor(RoleAdmin, true)

	t.Run("admin cannot block admin", func(t *testing.T) {
		d := CanPerform(admin, BlockUser, Target{OwnerID: otherAdmin.ID, Account: accountOf(otherAdmin)})
		assert.False(t, d.Allowed)
		assert.Equal(t, MsgAdminBlock, d.Reason)
		assert.Equal(t, 400, d.Kind.HTTPStatus())
	})

	t.Run("admin blocks user", func(t *testing.T) {
		assert.True(t, CanPerform(admin, BlockUser, Target{OwnerID: user.ID, Account: accountOf(user)}).Allowed)
		assert.True(t, CanPerform(admin, UnblockUser, Target{OwnerID: user.ID, Account: accountOf(user)}).Allowed)
	})

	t.Run("user cannot block", func(t *testing.T) {
		d := CanPerform(user, BlockUser, Target{OwnerID: other.ID, Account: accountOf(other)})
		assert.Equal(t, MsgNotAdmin, d.Reason)
	})

	t.Run("close account", func(t *testing.T) {
		assert.True(t, CanPerform(user, CloseAccount, Target{OwnerID: user.ID}).Allowed)
		assert.False(t, CanPerform(user, CloseAccount, Target{OwnerID: other.ID}).Allowed)
		assert.Equal(t, MsgAdminClose, CanPerform(admin, CloseAccount, Target{OwnerID: admin.ID}).Reason)
	})

	t.Run("delete account", func(t *testing.T) {
		assert.True(t, CanPerform(user, DeleteAccount, Target{OwnerID: user.ID, Account: accountOf(user)}).Allowed)
		assert.True(t, CanPerform(admin, DeleteAccount, Target{OwnerID: user.ID, Account: accountOf(user)}).Allowed)
		assert.False(t, CanPerform(other, DeleteAccount, Target{OwnerID: user.ID, Account: accountOf(user)}).Allowed)
		assert.Equal(t, MsgAdminDelete, CanPerform(admin, DeleteAccount, Target{OwnerID: otherAdmin.ID, Account: accountOf(otherAdmin)}).Reason)
	})

	t.Run("admin listings", func(t *testing.T) {
		assert.True(t, CanPerform(admin, ListUsers, Target{}).Allowed)
		assert.False(t, CanPerform(user, ManageContacts, Target{}).Allowed)
	})
}

func TestResourceActions(t *testing.T) {
	owner := newActor(RoleUser, true)
	other := newActor(RoleUser, true)
	admin := newActor(RoleAdmin, true)

	assert.True(t, CanPerform(owner, UploadResource, Target{}).Allowed)
	assert.True(t, CanPerform(owner, AttachResource, Target{OwnerID: owner.ID}).Allowed)
	assert.False(t, CanPerform(admin, AttachResource, Target{OwnerID: owner.ID}).Allowed)
	assert.False(t, CanPerform(other, DeleteResource, Target{OwnerID: owner.ID}).Allowed)
	assert.True(t, CanPerform(admin, ViewResources, Target{OwnerID: owner.ID}).Allowed)
}

func TestUnknownActionDenied(t *testing.T) {
	d := CanPerform(newActor(RoleAdmin, true), Action(250), Target{})
	assert.False(t, d.Allowed)
	assert.Equal(t, "unknown", Action(250).String())
}
