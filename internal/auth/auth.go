package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Lap-DevOps/Organizational-Chart/internal"
	"github.com/Lap-DevOps/Organizational-Chart/internal/user"
	"github.com/golang-jwt/jwt/v5"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// TokenGenerator creates and validates signed tokens.
type TokenGenerator interface {
	Generate(u *user.User, typ TokenType) (string, error)
	Validate(tokenString string, typ TokenType) (*Claims, error)
	TTL(typ TokenType) time.Duration
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID   int64     `json:"uid"`
	PublicID string    `json:"pid"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	Type     TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// Principal converts validated claims into the request principal.
func (c *Claims) Principal() *internal.Principal {
	return &internal.Principal{
		ID:       c.UserID,
		PublicID: c.PublicID,
		Email:    c.Email,
		Role:     c.Role,
	}
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	Issuer             string
	now                func() time.Time
}

func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
		Issuer:             "orgchart",
		now:                time.Now,
	}
}

func (j *JWTTokenGenerator) secret(typ TokenType) ([]byte, error) {
	switch typ {
	case AccessToken:
		return j.AccessTokenSecret, nil
	case RefreshToken:
		return j.RefreshTokenSecret, nil
	}
	return nil, fmt.Errorf("unknown token type %q", typ)
}

func (j *JWTTokenGenerator) TTL(typ TokenType) time.Duration {
	if typ == RefreshToken {
		return j.RefreshTokenTTL
	}
	return j.AccessTokenTTL
}

func (j *JWTTokenGenerator) Generate(u *user.User, typ TokenType) (string, error) {
	secret, err := j.secret(typ)
	if err != nil {
		return "", err
	}

	now := j.now()
	claims := &Claims{
		UserID:   u.ID,
		PublicID: u.PublicID.String(),
		Email:    u.Email,
		Role:     u.Role.String(),
		Type:     typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.Issuer,
			Subject:   u.PublicID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TTL(typ))),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Validate checks signature, expiry and that the token is of the expected type.
func (j *JWTTokenGenerator) Validate(tokenString string, typ TokenType) (*Claims, error) {
	secret, err := j.secret(typ)
	if err != nil {
		return nil, internal.ErrInvalidToken.WithCause(err)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(j.Issuer), jwt.WithTimeFunc(j.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken.WithCause(err)
	}

	if !token.Valid || claims.Type != typ {
		return nil, internal.ErrInvalidToken
	}

	return claims, nil
}
