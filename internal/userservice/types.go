package userservice

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sushihentaime/inkwell/internal/blobstore"
	"github.com/sushihentaime/inkwell/internal/common"
	"github.com/sushihentaime/inkwell/internal/credential"
	"github.com/sushihentaime/inkwell/internal/ledger"
	"github.com/sushihentaime/inkwell/internal/policy"
)

const (
	ResetTokenTime  time.Duration = 15 * time.Minute
	VerifyTokenTime time.Duration = 15 * time.Minute
)

const (
	MsgUserExists         = "User Already registered."
	MsgBadCredentials     = "Username or Password do not match or user does not exist"
	MsgAccountBlocked     = "Your account has been blocked. Please contact support"
	MsgReopened           = "Account reopened successfully."
	MsgRefreshNotFound    = "Refresh Token not found."
	MsgRefreshInvalid     = "Refresh token is expired or used"
	MsgAccountNotFound    = "Your account not found."
	MsgResetInvalid       = "Token is invalid or expired, please try again"
	MsgInvalidOldPwd      = "Invalid old password"
	MsgSamePassword       = "New Password can not be the same as Old Password"
	MsgAlreadyVerified    = "Account already verified."
	MsgInvalidToken       = "Invalid Token"
	MsgVerifyExpired      = "This Verification Mail has Expired. Please generate new verification mail from your dashboard."
	MsgInvalidUsername    = "Invalid Username"
	MsgNothingToUpdate    = "At least one field is required for update."
	MsgEmailLocked        = "Email can not be changed."
	MsgIDUsernameMismatch = "Either of Id or Username is Incorrect"
	MsgUploadFailed       = "File not uploaded, please try again"
	MsgNotificationFailed = "Something went wrong, please try again."
)

type UserService struct {
	db          *sql.DB
	m           *model
	issuer      *credential.JWTIssuer
	blobs       blobstore.Store
	notifier    common.Notifier
	ledger      *ledger.Ledger
	frontendURL string
	logger      *slog.Logger
}

type model struct{}

type User struct {
	ID         uuid.UUID   `json:"id"`
	Username   string      `json:"username"`
	Email      string      `json:"email"`
	Password   Password    `json:"-"`
	FirstName  string      `json:"firstName"`
	LastName   string      `json:"lastName"`
	Bio        string      `json:"bio"`
	AvatarID   string      `json:"-"`
	AvatarURL  string      `json:"avatarUrl"`
	Role       policy.Role `json:"role"`
	IsVerified bool        `json:"isVerified"`
	IsBlocked  bool        `json:"isBlocked"`
	IsClosed   bool        `json:"isClosed"`
	Followers  int         `json:"followers"`
	Following  int         `json:"following"`
	Likes      int         `json:"likes"`
	Comments   int         `json:"comments"`
	TotalBlogs int         `json:"totalBlogs"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
	Version    int         `json:"-"`

	RefreshToken *string `json:"-"`
}

type Password struct {
	Plain string
	hash  []byte
}

type AuthToken struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Session is returned by every operation that logs a user in.
type Session struct {
	User   *User     `json:"user"`
	Tokens AuthToken `json:"tokens"`
	Info   string    `json:"info,omitempty"`
}

type RegisterInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
	Avatar    *blobstore.File
}

// ProfileInput holds the fields of a profile update. Nil fields are left unchanged.
type ProfileInput struct {
	FirstName *string
	LastName  *string
	Bio       *string
	Email     *string
	Avatar    *blobstore.File
}

// UserList is one page of the admin user listing.
type UserList struct {
	common.Page[User]
	Count int `json:"count"`
}
