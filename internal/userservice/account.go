package userservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/sushihentaime/inkwell/internal/blobstore"
	"github.com/sushihentaime/inkwell/internal/common"
	"github.com/sushihentaime/inkwell/internal/credential"
	"github.com/sushihentaime/inkwell/internal/policy"
)

// RequestVerification mails a verification link to the actor. Like the reset
// flow, the token is withdrawn when the email cannot be queued.
func (s *UserService) RequestVerification(ctx context.Context, actor policy.Actor) error {
	if err := policy.CanPerform(actor, policy.ManageAccount, policy.Target{OwnerID: actor.ID}).Err(); err != nil {
		return err
	}

	u, err := s.m.getByID(ctx, s.db, actor.ID)
	if err != nil {
		return err
	}

	if u.IsVerified {
		return common.State(MsgAlreadyVerified)
	}

	token, err := credential.NewOneTimeToken(VerifyTokenTime)
	if err != nil {
		return err
	}

	if err := s.m.setVerifyToken(ctx, s.db, u.ID, token.Hash, &token.Expiry); err != nil {
		return err
	}

	data := map[string]string{
		"firstName": u.FirstName,
		"verifyURL": fmt.Sprintf("%s/user/%s/account/verify/%s", s.frontendURL, u.Username, token.Plain),
	}

	if err := s.notify(ctx, u.Email, common.TemplateVerifyEmail, data); err != nil {
		if undoErr := s.m.setVerifyToken(ctx, s.db, u.ID, nil, nil); undoErr != nil {
			return undoErr
		}
		return common.Dependency(MsgNotificationFailed, err)
	}

	return nil
}

// VerifyAccount marks the account holding token as verified. The username
// from the link must match the account.
func (s *UserService) VerifyAccount(ctx context.Context, username, token string) error {
	u, valid, err := s.m.getByVerifyToken(ctx, s.db, credential.HashToken(token))
	if err != nil {
		if common.KindOf(err) == common.KindNotFound {
			return common.NotFound(MsgInvalidToken)
		}
		return err
	}

	if !valid {
		return common.NotFound(MsgVerifyExpired)
	}

	if u.Username != strings.ToLower(username) {
		return common.Invalid(MsgInvalidUsername)
	}

	u.IsVerified = true

	return common.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.m.update(ctx, tx, u); err != nil {
			return err
		}
		return s.m.setVerifyToken(ctx, tx, u.ID, nil, nil)
	})
}

// UpdateProfile changes the profile of the actor. The email can only change
// while the account is unverified.
func (s *UserService) UpdateProfile(ctx context.Context, actor policy.Actor, in ProfileInput) (*User, error) {
	if err := policy.CanPerform(actor, policy.ManageAccount, policy.Target{OwnerID: actor.ID}).Err(); err != nil {
		return nil, err
	}

	if in.FirstName == nil && in.LastName == nil && in.Bio == nil && in.Email == nil && in.Avatar == nil {
		return nil, common.Invalid(MsgNothingToUpdate)
	}

	u, err := s.m.getByID(ctx, s.db, actor.ID)
	if err != nil {
		return nil, err
	}

	v := common.NewValidator()
	if in.FirstName != nil {
		u.FirstName = strings.TrimSpace(*in.FirstName)
		validateName(v, "firstName", u.FirstName)
	}
	if in.LastName != nil {
		u.LastName = strings.TrimSpace(*in.LastName)
		validateName(v, "lastName", u.LastName)
	}
	if in.Bio != nil {
		u.Bio = strings.TrimSpace(*in.Bio)
		validateBio(v, u.Bio)
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if u.IsVerified && email != u.Email {
			return nil, common.Invalid(MsgEmailLocked)
		}
		u.Email = email
		validateEmail(v, u.Email)
	}
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	oldAvatar := ""
	if in.Avatar != nil {
		obj, err := s.blobs.Upload(ctx, in.Avatar.Body, in.Avatar.Name, blobstore.AvatarFolder(u.Username))
		if err != nil {
			return nil, blobstore.Wrap(err, MsgUploadFailed)
		}
		oldAvatar = u.AvatarID
		u.AvatarID, u.AvatarURL = obj.ID, obj.URL
	}

	if err := s.m.update(ctx, s.db, u); err != nil {
		if in.Avatar != nil {
			s.destroy(ctx, u.AvatarID)
		}
		return nil, err
	}

	s.destroy(ctx, oldAvatar)

	return u, nil
}

// setBlocked blocks or unblocks the account id. username must name the same
// account, which guards against acting on a stale id.
func (s *UserService) setBlocked(ctx context.Context, actor policy.Actor, id uuid.UUID, username string, blocked bool) error {
	v := common.NewValidator()
	v.Check(username != "", "username", "must be provided")
	if !v.Valid() {
		return v.ValidationError()
	}

	action := policy.BlockUser
	if !blocked {
		action = policy.UnblockUser
	}

	u, err := s.m.getByID(ctx, s.db, id)
	if err != nil && common.KindOf(err) != common.KindNotFound {
		return err
	}

	var target policy.Target
	if u != nil {
		target = policy.Target{OwnerID: u.ID, Account: u.Account()}
	}
	if err := policy.CanPerform(actor, action, target).Err(); err != nil {
		return err
	}

	if u.Username != strings.ToLower(username) {
		return common.Invalid(MsgIDUsernameMismatch)
	}

	u.IsBlocked = blocked
	if blocked {
		u.RefreshToken = nil
	}

	return s.m.update(ctx, s.db, u)
}

func (s *UserService) Block(ctx context.Context, actor policy.Actor, id uuid.UUID, username string) error {
	return s.setBlocked(ctx, actor, id, username, true)
}

func (s *UserService) Unblock(ctx context.Context, actor policy.Actor, id uuid.UUID, username string) error {
	return s.setBlocked(ctx, actor, id, username, false)
}

// Close closes the actor's own account. Logging in again reopens it.
func (s *UserService) Close(ctx context.Context, actor policy.Actor) error {
	if err := policy.CanPerform(actor, policy.CloseAccount, policy.Target{OwnerID: actor.ID}).Err(); err != nil {
		return err
	}

	u, err := s.m.getByID(ctx, s.db, actor.ID)
	if err != nil {
		return err
	}

	u.IsClosed = true
	u.RefreshToken = nil
	if err := s.m.update(ctx, s.db, u); err != nil {
		return err
	}

	_ = s.notify(ctx, u.Email, common.TemplateAccountClosed, map[string]string{"firstName": u.FirstName})

	return nil
}

// Delete removes an account with its posts and every relation it takes part
// in. Counters of other users are corrected in the same transaction. Blobs
// are destroyed once the rows are gone.
func (s *UserService) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	u, err := s.m.getByID(ctx, s.db, id)
	if err != nil && common.KindOf(err) != common.KindNotFound {
		return err
	}

	target := policy.Target{OwnerID: id}
	if u != nil {
		target.Account = u.Account()
	}
	if err := policy.CanPerform(actor, policy.DeleteAccount, target).Err(); err != nil {
		return err
	}

	var blobs []string
	err = common.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		covers, err := s.m.coverIDs(ctx, tx, u.ID)
		if err != nil {
			return err
		}

		d, err := s.ledger.DetachUser(ctx, tx, u.ID)
		if err != nil {
			return err
		}

		blobs = append(covers, d.Resources...)

		return s.m.delete(ctx, tx, u.ID)
	})
	if err != nil {
		return err
	}

	blobs = append(blobs, u.AvatarID)
	for _, id := range blobs {
		s.destroy(ctx, id)
	}

	s.logger.Info("account deleted", slog.String("username", u.Username), slog.Int("blobs", len(blobs)))

	return nil
}

// AllUsers lists every account, newest first, with the total count.
func (s *UserService) AllUsers(ctx context.Context, actor policy.Actor, skip int) (*UserList, error) {
	if err := policy.CanPerform(actor, policy.ListUsers, policy.Target{}).Err(); err != nil {
		return nil, err
	}

	users, err := s.m.list(ctx, s.db, common.NormalizeSkip(skip))
	if err != nil {
		return nil, err
	}

	count, err := s.m.count(ctx, s.db)
	if err != nil {
		return nil, err
	}

	return &UserList{Page: common.Paginate(users), Count: count}, nil
}
