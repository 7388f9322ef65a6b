package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/frahmantamala/rbac-service/internal"
)

// Account is the authenticated user as exposed by /auth/me.
type Account struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	RoleID          int64     `json:"roleId"`
	Active          bool      `json:"active"`
	URLImageProfile *string   `json:"urlImageProfile,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Credentials is what the login flow needs to check a password.
type Credentials struct {
	UserID       int64
	PasswordHash string
}

// TokenGenerator issues and verifies bearer tokens carrying a user id.
type TokenGenerator interface {
	Issue(userID int64) (string, error)
	Verify(tokenString string) (int64, error)
}

// Claims represents JWT token claims
type Claims struct {
	ID int64 `json:"id"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	Secret []byte
	TTL    time.Duration
	now    func() time.Time
}

// NewJWTTokenGenerator creates a new JWT token generator
func NewJWTTokenGenerator(secret string, ttl time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		Secret: []byte(secret),
		TTL:    ttl,
		now:    time.Now,
	}
}

// Issue signs an HS256 token for userID that expires after TTL.
func (j *JWTTokenGenerator) Issue(userID int64) (string, error) {
	now := j.now()
	claims := &Claims{
		ID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// Verify validates a JWT token and returns the user id it was issued for
func (j *JWTTokenGenerator) Verify(tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Secret, nil
	}, jwt.WithTimeFunc(j.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, internal.ErrTokenExpired
		}
		return 0, internal.ErrInvalidToken.WithCause(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID <= 0 {
		return 0, internal.ErrInvalidToken
	}
	return claims.ID, nil
}
