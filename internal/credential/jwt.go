// Package credential hashes passwords and issues the signed tokens that carry
// an actor between requests.
package credential

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sushihentaime/inkwell/internal/policy"
)

var ErrInvalidToken = errors.New("invalid token")

// AccessClaims carries everything the authorization policy needs, so a request
// can be authorized without loading the account.
type AccessClaims struct {
	Username   string      `json:"username"`
	Email      string      `json:"email"`
	Role       policy.Role `json:"role"`
	IsVerified bool        `json:"isVerified"`
	IsBlocked  bool        `json:"isBlocked"`
	IsClosed   bool        `json:"isClosed"`
	jwt.RegisteredClaims
}

// Actor converts verified claims into the request actor.
func (c *AccessClaims) Actor() (policy.Actor, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return policy.Anonymous, ErrInvalidToken
	}

	return policy.Actor{
		ID:         id,
		Username:   c.Username,
		Email:      c.Email,
		Role:       c.Role,
		IsVerified: c.IsVerified,
		IsBlocked:  c.IsBlocked,
		IsClosed:   c.IsClosed,
	}, nil
}

type JWTIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
}

func NewJWTIssuer(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTIssuer {
	return &JWTIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		issuer:        "inkwell",
	}
}

func (j *JWTIssuer) registered(subject uuid.UUID, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    j.issuer,
		Subject:   subject.String(),
		ID:        uuid.NewString(),
	}
}

// IssueAccessToken signs a short lived token for actor.
func (j *JWTIssuer) IssueAccessToken(actor policy.Actor) (string, error) {
	claims := AccessClaims{
		Username:         actor.Username,
		Email:            actor.Email,
		Role:             actor.Role,
		IsVerified:       actor.IsVerified,
		IsBlocked:        actor.IsBlocked,
		IsClosed:         actor.IsClosed,
		RegisteredClaims: j.registered(actor.ID, j.accessTTL),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.accessSecret)
}

// IssueRefreshToken signs a long lived token that only identifies the user.
func (j *JWTIssuer) IssueRefreshToken(userID uuid.UUID) (string, error) {
	claims := j.registered(userID, j.refreshTTL)
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.refreshSecret)
}

// ParseAccessToken verifies token and returns the actor it was issued for.
func (j *JWTIssuer) ParseAccessToken(token string) (policy.Actor, error) {
	var claims AccessClaims
	if err := j.parse(token, &claims, j.accessSecret); err != nil {
		return policy.Anonymous, err
	}

	return claims.Actor()
}

// ParseRefreshToken verifies token and returns the user id it was issued for.
func (j *JWTIssuer) ParseRefreshToken(token string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	if err := j.parse(token, &claims, j.refreshSecret); err != nil {
		return uuid.Nil, err
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}

	return id, nil
}

func (j *JWTIssuer) parse(token string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(j.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !parsed.Valid {
		return ErrInvalidToken
	}

	return nil
}
