// Package jwt verifies the access tokens issued by the HRIS identity service
// and mints the short-lived tokens used by the event stream.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

type Role string

const (
	RoleOwner    Role = "owner"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// CanApprove reports whether the role may act on other employees' records.
func (r Role) CanApprove() bool {
	return r == RoleOwner || r == RoleManager
}

var (
	ErrInvalidToken          = errors.New("invalid or expired token")
	ErrTenantRequired        = errors.New("token carries no company")
	ErrEmployeeRequired      = errors.New("this action requires an employee profile")
	ErrManagerAccessRequired = errors.New("manager or owner access required")
)

const sseTokenTTL = 5 * time.Minute

// Claims is the identity a request acts under. TenantID comes from the
// company_id claim.
type Claims struct {
	UserID     string
	TenantID   string
	EmployeeID string
	Email      string
	Role       Role
}

type Service interface {
	JWTAuth() *jwtauth.JWTAuth
	GenerateAccessToken(claims Claims) (token string, expiresAt int64, err error)
	GenerateSSEToken(claims Claims) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (Claims, error)
}

type JWTService struct {
	accessTokenExpirationTime string
	tokenAuth                 *jwtauth.JWTAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

// GenerateAccessToken issues a token shaped like the identity service's.
// The API itself never logs users in; this serves tooling and tests.
func (j *JWTService) GenerateAccessToken(claims Claims) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = time.Now().Add(expDuration).Unix()

	payload := claimsMap(claims)
	payload["type"] = "access"
	payload["exp"] = expiresAt

	_, token, err = j.tokenAuth.Encode(payload)
	return token, expiresAt, err
}

// GenerateSSEToken generates a short-lived token for the event stream, which
// cannot carry an Authorization header from a browser EventSource.
func (j *JWTService) GenerateSSEToken(claims Claims) (token string, expiresIn int, err error) {
	payload := claimsMap(claims)
	payload["type"] = "sse"
	payload["exp"] = time.Now().Add(sseTokenTTL).Unix()

	_, token, err = j.tokenAuth.Encode(payload)
	if err != nil {
		return "", 0, err
	}
	return token, int(sseTokenTTL.Seconds()), nil
}

// ValidateSSEToken validates an SSE token and returns its claims.
func (j *JWTService) ValidateSSEToken(tokenString string) (Claims, error) {
	token, err := j.tokenAuth.Decode(tokenString)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, err := token.AsMap(context.Background())
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	if tokenType, _ := claims["type"].(string); tokenType != "sse" {
		return Claims{}, ErrInvalidToken
	}
	return ParseClaims(claims)
}

// ParseClaims reads Claims out of a decoded token.
func ParseClaims(m map[string]interface{}) (Claims, error) {
	c := Claims{
		UserID:     stringClaim(m, "user_id"),
		TenantID:   stringClaim(m, "company_id"),
		EmployeeID: stringClaim(m, "employee_id"),
		Email:      stringClaim(m, "email"),
		Role:       Role(stringClaim(m, "role")),
	}
	if c.UserID == "" {
		return Claims{}, ErrInvalidToken
	}
	if c.TenantID == "" {
		return Claims{}, ErrTenantRequired
	}
	return c, nil
}

func stringClaim(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

func claimsMap(c Claims) map[string]interface{} {
	m := map[string]interface{}{
		"user_id":    c.UserID,
		"company_id": c.TenantID,
		"role":       string(c.Role),
	}
	if c.EmployeeID != "" {
		m["employee_id"] = c.EmployeeID
	}
	if c.Email != "" {
		m["email"] = c.Email
	}
	return m
}
