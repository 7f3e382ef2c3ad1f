package userservice

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/sushihentaime/inkwell/internal/blobstore"
	"github.com/sushihentaime/inkwell/internal/common"
	"github.com/sushihentaime/inkwell/internal/credential"
	"github.com/sushihentaime/inkwell/internal/ledger"
	"github.com/sushihentaime/inkwell/internal/policy"
)

func NewUserService(db *sql.DB, issuer *credential.JWTIssuer, blobs blobstore.Store, notifier common.Notifier, l *ledger.Ledger, frontendURL string, logger *slog.Logger) *UserService {
	return &UserService{
		db:          db,
		m:           &model{},
		issuer:      issuer,
		blobs:       blobs,
		notifier:    notifier,
		ledger:      l,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		logger:      logger,
	}
}

func (u *User) Actor() policy.Actor {
	return policy.Actor{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		IsBlocked:  u.IsBlocked,
		IsClosed:   u.IsClosed,
	}
}

func (u *User) Account() *policy.Account {
	return &policy.Account{
		ID:         u.ID,
		Role:       u.Role,
		IsVerified: u.IsVerified,
		IsBlocked:  u.IsBlocked,
		IsClosed:   u.IsClosed,
	}
}

func (p *Password) set(pwd string) error {
	hash, err := credential.Hash(pwd)
	if err != nil {
		return err
	}

	p.Plain = pwd
	p.hash = hash

	return nil
}

func (p *Password) compare(pwd string) (bool, error) {
	return credential.Verify(pwd, p.hash)
}

// notify queues an email. Failures are logged and reported to the caller,
// which decides whether they matter.
func (s *UserService) notify(ctx context.Context, to, template string, data map[string]string) error {
	err := s.notifier.Notify(ctx, common.Notification{To: to, Template: template, Data: data})
	if err != nil {
		s.logger.Error("could not queue notification", slog.String("template", template), slog.String("error", err.Error()))
	}
	return err
}

// issue signs a new token pair for u and stores the refresh token.
func (s *UserService) issue(ctx context.Context, u *User) (*AuthToken, error) {
	access, err := s.issuer.IssueAccessToken(u.Actor())
	if err != nil {
		return nil, err
	}

	refresh, err := s.issuer.IssueRefreshToken(u.ID)
	if err != nil {
		return nil, err
	}

	if err := s.m.setRefreshToken(ctx, s.db, u.ID, &refresh); err != nil {
		return nil, err
	}
	u.RefreshToken = &refresh

	return &AuthToken{AccessToken: access, RefreshToken: refresh}, nil
}

// Register creates an account, sends the welcome email and logs the user in.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	v := common.NewValidator()
	validateUsername(v, in.Username)
	validateEmail(v, in.Email)
	validateName(v, "firstName", in.FirstName)
	validateName(v, "lastName", in.LastName)
	validatePassword(v, "password", in.Password)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	u := &User{
		ID:        uuid.New(),
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}

	if err := u.Password.set(in.Password); err != nil {
		return nil, err
	}

	if in.Avatar != nil {
		obj, err := s.blobs.Upload(ctx, in.Avatar.Body, in.Avatar.Name, blobstore.AvatarFolder(u.Username))
		if err != nil {
			return nil, blobstore.Wrap(err, MsgUploadFailed)
		}
		u.AvatarID, u.AvatarURL = obj.ID, obj.URL
	}

	if err := s.m.insert(ctx, s.db, u); err != nil {
		s.destroy(ctx, u.AvatarID)
		return nil, err
	}

	_ = s.notify(ctx, u.Email, common.TemplateWelcome, map[string]string{"firstName": u.FirstName})

	tokens, err := s.issue(ctx, u)
	if err != nil {
		return nil, err
	}

	return &Session{User: u, Tokens: *tokens}, nil
}

// Login authenticates by username or email. A closed account is reopened.
func (s *UserService) Login(ctx context.Context, login, password string) (*Session, error) {
	login = strings.ToLower(strings.TrimSpace(login))

	v := common.NewValidator()
	v.Check(login != "", "username", "must be provided")
	v.Check(password != "", "password", "must be provided")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	u, err := s.m.getByLogin(ctx, s.db, login)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound):
			return nil, common.Unauthenticated(MsgBadCredentials)
		default:
			return nil, err
		}
	}

	ok, err := u.Password.compare(password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.Unauthenticated(MsgBadCredentials)
	}

	if u.IsBlocked {
		return nil, common.Forbidden(MsgAccountBlocked)
	}

	session := &Session{User: u}
	if u.IsClosed {
		u.IsClosed = false
		if err := s.m.update(ctx, s.db, u); err != nil {
			return nil, err
		}
		session.Info = MsgReopened
	}

	tokens, err := s.issue(ctx, u)
	if err != nil {
		return nil, err
	}
	session.Tokens = *tokens

	return session, nil
}

func (s *UserService) Logout(ctx context.Context, actor policy.Actor) error {
	if actor.IsAnonymous() {
		return common.Unauthenticated(policy.MsgNoToken)
	}

	return s.m.setRefreshToken(ctx, s.db, actor.ID, nil)
}

// Refresh exchanges the stored refresh token for a new pair. The account
// state is read again, so the new access token carries current flags.
func (s *UserService) Refresh(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, common.Unauthenticated(MsgRefreshNotFound)
	}

	id, err := s.issuer.ParseRefreshToken(token)
	if err != nil {
		return nil, common.Unauthenticated(MsgRefreshInvalid)
	}

	u, err := s.m.getByID(ctx, s.db, id)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound):
			return nil, common.Unauthenticated(MsgRefreshInvalid)
		default:
			return nil, err
		}
	}

	if u.RefreshToken == nil || *u.RefreshToken != token {
		return nil, common.Unauthenticated(MsgRefreshInvalid)
	}

	if u.IsBlocked {
		return nil, common.Forbidden(MsgAccountBlocked)
	}

	session := &Session{User: u}
	if u.IsClosed {
		u.IsClosed = false
		if err := s.m.update(ctx, s.db, u); err != nil {
			return nil, err
		}
		session.Info = MsgReopened
	}

	tokens, err := s.issue(ctx, u)
	if err != nil {
		return nil, err
	}
	session.Tokens = *tokens

	return session, nil
}

// destroy removes a blob that is no longer referenced. Failures only leave
// an orphaned file behind, so they are logged.
func (s *UserService) destroy(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if err := s.blobs.Destroy(ctx, id); err != nil {
		s.logger.Error("could not destroy blob", slog.String("id", id), slog.String("error", err.Error()))
	}
}
