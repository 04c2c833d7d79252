package jwt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testClaims = Claims{
	UserID:     "user-1",
	TenantID:   "tenant-1",
	EmployeeID: "emp-1",
	Role:       RoleManager,
}

func TestSSETokenRoundTrip(t *testing.T) {
	svc := NewJWTService("secret", "1h")

	token, expiresIn, err := svc.GenerateSSEToken(testClaims)
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	claims, err := svc.ValidateSSEToken(token)
	require.NoError(t, err)
	assert.Equal(t, testClaims, claims)
}

func TestAccessTokenIsNotAnSSEToken(t *testing.T) {
	svc := NewJWTService("secret", "1h")

	token, _, err := svc.GenerateAccessToken(testClaims)
	require.NoError(t, err)

	_, err = svc.ValidateSSEToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenFromOtherSecretRejected(t *testing.T) {
	token, _, err := NewJWTService("other", "1h").GenerateSSEToken(testClaims)
	require.NoError(t, err)

	_, err = NewJWTService("secret", "1h").ValidateSSEToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenCarriesClaims(t *testing.T) {
	svc := NewJWTService("secret", "1h")

	token, _, err := svc.GenerateAccessToken(testClaims)
	require.NoError(t, err)

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)
	m, err := decoded.AsMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access", m["type"])

	claims, err := ParseClaims(m)
	require.NoError(t, err)
	assert.Equal(t, testClaims, claims)
}

func TestParseClaimsRequiresTenant(t *testing.T) {
	_, err := ParseClaims(map[string]interface{}{"user_id": "u"})
	assert.ErrorIs(t, err, ErrTenantRequired)

	_, err = ParseClaims(map[string]interface{}{"company_id": "t"})
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRoleCanApprove(t *testing.T) {
	assert.True(t, RoleOwner.CanApprove())
	assert.True(t, RoleManager.CanApprove())
	assert.False(t, RoleEmployee.CanApprove())
}
