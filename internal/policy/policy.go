// Package policy decides whether an actor may perform an action on a target.
// Every service consults CanPerform instead of checking roles inline.
package policy

import (
	"github.com/google/uuid"

	"github.com/sushihentaime/inkwell/internal/common"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Actor is the authenticated identity behind a request, built from access
// token claims.
type Actor struct {
	ID         uuid.UUID `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	IsVerified bool      `json:"isVerified"`
	IsBlocked  bool      `json:"isBlocked"`
	IsClosed   bool      `json:"isClosed"`
}

var Anonymous = Actor{}

func (a Actor) IsAnonymous() bool {
	return a.ID == uuid.Nil
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Account is the stored state of an account a decision depends on.
type Account struct {
	ID         uuid.UUID
	Role       Role
	IsVerified bool
	IsBlocked  bool
	IsClosed   bool
}

// Active reports whether the account is neither blocked nor closed.
func (a *Account) Active() bool {
	return !a.IsBlocked && !a.IsClosed
}

type Action uint8

const (
	CreatePost Action = iota + 1
	EditPost
	PublishPost
	UnpublishPost
	DeletePost
	CreateComment
	EditComment
	DeleteComment
	Follow
	Unfollow
	ViewFollowing
	Like
	Unlike
	BlockUser
	UnblockUser
	CloseAccount
	DeleteAccount
	ManageAccount
	UploadResource
	AttachResource
	DeleteResource
	ViewResources
	ListUsers
	ManageContacts
	ViewActivity
)

var actionNames = map[Action]string{
	CreatePost:     "create_post",
	EditPost:       "edit_post",
	PublishPost:    "publish_post",
	UnpublishPost:  "unpublish_post",
	DeletePost:     "delete_post",
	CreateComment:  "create_comment",
	EditComment:    "edit_comment",
	DeleteComment:  "delete_comment",
	Follow:         "follow",
	Unfollow:       "unfollow",
	ViewFollowing:  "view_following",
	Like:           "like",
	Unlike:         "unlike",
	BlockUser:      "block_user",
	UnblockUser:    "unblock_user",
	CloseAccount:   "close_account",
	DeleteAccount:  "delete_account",
	ManageAccount:  "manage_account",
	UploadResource: "upload_resource",
	AttachResource: "attach_resource",
	DeleteResource: "delete_resource",
	ViewResources:  "view_resources",
	ListUsers:      "list_users",
	ManageContacts: "manage_contacts",
	ViewActivity:   "view_activity",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// Target describes what an action applies to.
type Target struct {
	// OwnerID owns the target: the post author, the comment author, the
	// relation or resource owner, or the subject account itself.
	OwnerID uuid.UUID
	// Account is the account whose state the action depends on: the intended
	// post author, the author of the commented post, the followed author or
	// the subject of an account action. nil means it does not exist.
	Account *Account
}

const (
	MsgNoToken        = "Token not found"
	MsgClosed         = "This account is closed. Please Login again to open the account"
	MsgBlocked        = "This account has been blocked"
	MsgNotVerified    = "This account is not verified. Please verify your account"
	MsgNotAdmin       = "Your request can not be processed"
	MsgNotAuthorized  = "Not authorized"
	MsgUserNotFound   = "User not found"
	MsgAuthorInactive = "The author account is blocked or closed"
	MsgInvalidAuthor  = "Invalid Author"
	MsgSelfFollow     = "You can not follow yourself."
	MsgAdminBlock     = "Admin can not be blocked."
	MsgAdminClose     = "Admin can not close account."
	MsgAdminDelete    = "Admin account cannot be deleted."
)

// Decision is the outcome of a policy check. A denial carries the failure
// kind and the message shown to the client.
type Decision struct {
	Allowed bool
	Kind    common.Kind
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(kind common.Kind, reason string) Decision {
	return Decision{Kind: kind, Reason: reason}
}

// Err returns nil for an allowed decision and a *common.Error otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return common.E(d.Kind, d.Reason)
}

// CanPerform is the single authorization decision point.
func CanPerform(actor Actor, action Action, target Target) Decision {
	if d := gate(actor); !d.Allowed {
		return d
	}

	switch action {
	case CreatePost:
		return all(verified(actor), ownerOrAdmin(actor, target.OwnerID), activeAccount(target.Account, common.KindNotFound, MsgUserNotFound, MsgAuthorInactive))

	case EditPost:
		return all(ownerOrAdmin(actor, target.OwnerID), activeAccount(target.Account, common.KindNotFound, MsgUserNotFound, MsgAuthorInactive))

	case PublishPost, UnpublishPost, DeletePost, DeleteComment:
		return ownerOrAdmin(actor, target.OwnerID)

	case CreateComment:
		return all(verified(actor), commentableAuthor(target.Account))

	case EditComment:
		return all(ownerOrAdmin(actor, target.OwnerID), commentableAuthor(target.Account))

	case Follow:
		return all(verified(actor), followable(actor, target.Account))

	case Unfollow, DeleteResource, AttachResource, ManageAccount:
		return owner(actor, target.OwnerID)

	case Like, UploadResource, ViewFollowing:
		return verified(actor)

	case Unlike, ViewActivity:
		return allow()

	case BlockUser, UnblockUser:
		return all(admin(actor), blockable(target.Account))

	case CloseAccount:
		if d := owner(actor, target.OwnerID); !d.Allowed {
			return d
		}
		if actor.IsAdmin() {
			return deny(common.KindAuthorization, MsgAdminClose)
		}
		return allow()

	case DeleteAccount:
		if d := ownerOrAdmin(actor, target.OwnerID); !d.Allowed {
			return d
		}
		if target.Account == nil {
			return deny(common.KindNotFound, MsgUserNotFound)
		}
		if target.Account.Role == RoleAdmin {
			return deny(common.KindAuthorization, MsgAdminDelete)
		}
		return allow()

	case ViewResources:
		return ownerOrAdmin(actor, target.OwnerID)

	case ListUsers, ManageContacts:
		return admin(actor)
	}

	return deny(common.KindAuthorization, MsgNotAuthorized)
}

// gate applies to every action: the actor must be signed in with an open,
// unblocked account.
func gate(actor Actor) Decision {
	switch {
	case actor.IsAnonymous():
		return deny(common.KindAuthentication, MsgNoToken)
	case actor.IsClosed:
		return deny(common.KindAuthorization, MsgClosed)
	case actor.IsBlocked:
		return deny(common.KindAuthorization, MsgBlocked)
	}
	return allow()
}

// all returns the first denial, evaluated in order.
func all(decisions ...Decision) Decision {
	for _, d := range decisions {
		if !d.Allowed {
			return d
		}
	}
	return allow()
}

func verified(actor Actor) Decision {
	if !actor.IsVerified {
		return deny(common.KindAuthorization, MsgNotVerified)
	}
	return allow()
}

func admin(actor Actor) Decision {
	if !actor.IsAdmin() {
		return deny(common.KindAuthorization, MsgNotAdmin)
	}
	return allow()
}

func owner(actor Actor, ownerID uuid.UUID) Decision {
	if actor.ID != ownerID {
		return deny(common.KindAuthorization, MsgNotAuthorized)
	}
	return allow()
}

func ownerOrAdmin(actor Actor, ownerID uuid.UUID) Decision {
	if actor.ID != ownerID && !actor.IsAdmin() {
		return deny(common.KindAuthorization, MsgNotAuthorized)
	}
	return allow()
}

func activeAccount(acc *Account, missingKind common.Kind, missing, inactive string) Decision {
	if acc == nil {
		return deny(missingKind, missing)
	}
	if !acc.Active() {
		return deny(common.KindAuthorization, inactive)
	}
	return allow()
}

// commentableAuthor hides posts of unverified or inactive authors behind a
// not-found answer.
func commentableAuthor(acc *Account) Decision {
	if acc == nil || !acc.Active() || !acc.IsVerified {
		return deny(common.KindNotFound, MsgUserNotFound)
	}
	return allow()
}

func followable(actor Actor, author *Account) Decision {
	if author == nil || !author.Active() {
		return deny(common.KindNotFound, MsgInvalidAuthor)
	}
	if author.ID == actor.ID {
		return deny(common.KindValidation, MsgSelfFollow)
	}
	return allow()
}

func blockable(acc *Account) Decision {
	if acc == nil {
		return deny(common.KindNotFound, MsgUserNotFound)
	}
	if acc.Role == RoleAdmin {
		return deny(common.KindState, MsgAdminBlock)
	}
	return allow()
}
