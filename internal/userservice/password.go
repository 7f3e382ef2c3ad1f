package userservice

import (
	"context"
	"database/sql"
	"strings"

	"github.com/sushihentaime/inkwell/internal/common"
	"github.com/sushihentaime/inkwell/internal/credential"
	"github.com/sushihentaime/inkwell/internal/policy"
)

// ForgotPassword mails a reset link. The token is removed again when the
// email cannot be queued, so no unusable token stays on the account.
func (s *UserService) ForgotPassword(ctx context.Context, login string) error {
	login = strings.ToLower(strings.TrimSpace(login))
	if login == "" {
		return common.Invalid("Without Username or Email password can not be changed.")
	}

	u, err := s.m.getByLogin(ctx, s.db, login)
	if err != nil {
		if common.KindOf(err) == common.KindNotFound {
			return common.NotFound(MsgAccountNotFound)
		}
		return err
	}

	if u.IsBlocked {
		return common.Forbidden(MsgAccountBlocked)
	}

	token, err := credential.NewOneTimeToken(ResetTokenTime)
	if err != nil {
		return err
	}

	if err := s.m.setResetToken(ctx, s.db, u.ID, token.Hash, &token.Expiry); err != nil {
		return err
	}

	data := map[string]string{
		"firstName": u.FirstName,
		"resetURL":  s.frontendURL + "/reset-password/" + token.Plain,
	}

	if err := s.notify(ctx, u.Email, common.TemplateResetPassword, data); err != nil {
		if undoErr := s.m.setResetToken(ctx, s.db, u.ID, nil, nil); undoErr != nil {
			return undoErr
		}
		return common.Dependency(MsgNotificationFailed, err)
	}

	return nil
}

// ResetPassword sets a new password using a mailed reset token.
func (s *UserService) ResetPassword(ctx context.Context, token, password string) error {
	v := common.NewValidator()
	validateToken(v, token)
	validatePassword(v, "password", password)
	if !v.Valid() {
		return v.ValidationError()
	}

	u, err := s.m.getByResetToken(ctx, s.db, credential.HashToken(token))
	if err != nil {
		if common.KindOf(err) == common.KindNotFound {
			return common.Invalid(MsgResetInvalid)
		}
		return err
	}

	if u.IsBlocked {
		return common.Forbidden(MsgAccountBlocked)
	}

	if err := u.Password.set(password); err != nil {
		return err
	}

	return common.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.m.update(ctx, tx, u); err != nil {
			return err
		}
		return s.m.setResetToken(ctx, tx, u.ID, nil, nil)
	})
}

func (s *UserService) ChangePassword(ctx context.Context, actor policy.Actor, oldPassword, newPassword string) error {
	if err := policy.CanPerform(actor, policy.ManageAccount, policy.Target{OwnerID: actor.ID}).Err(); err != nil {
		return err
	}

	v := common.NewValidator()
	v.Check(oldPassword != "", "oldPassword", "must be provided")
	validatePassword(v, "newPassword", newPassword)
	if !v.Valid() {
		return v.ValidationError()
	}

	if oldPassword == newPassword {
		return common.Invalid(MsgSamePassword)
	}

	u, err := s.m.getByID(ctx, s.db, actor.ID)
	if err != nil {
		return err
	}

	ok, err := u.Password.compare(oldPassword)
	if err != nil {
		return err
	}
	if !ok {
		return common.Invalid(MsgInvalidOldPwd)
	}

	if err := u.Password.set(newPassword); err != nil {
		return err
	}

	return s.m.update(ctx, s.db, u)
}
