package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-admissions-api/internal/models"
	appErrors "github.com/noah-isme/sma-admissions-api/pkg/errors"
)

func TestAuthServiceIssueAndValidate(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "sma-admissions"})

	token, expiresAt, err := svc.IssueToken("u-1", models.RoleCounselor, "north", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, models.RoleCounselor, claims.Role)
	assert.Equal(t, "north", claims.TenantID)
}

func TestAuthServiceRejectsWrongSecret(t *testing.T) {
	issuer := NewAuthService(nil, AuthConfig{AccessTokenSecret: "other"})
	token, _, err := issuer.IssueToken("u-1", models.RoleAdmin, "", time.Hour)
	require.NoError(t, err)

	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret"})
	_, err = svc.ValidateToken(token)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceRejectsWrongIssuer(t *testing.T) {
	issuer := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "someone-else"})
	token, _, err := issuer.IssueToken("u-1", models.RoleAdmin, "", time.Hour)
	require.NoError(t, err)

	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "sma-admissions"})
	_, err = svc.ValidateToken(token)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceRejectsExpiredToken(t *testing.T) {
	claims := &models.JWTClaims{
		UserID: "u-1",
		Role:   models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret"})
	_, err = svc.ValidateToken(token)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceRejectsUnknownRole(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u-1", Role: "STUDENT"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret"})
	_, err = svc.ValidateToken(token)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestAuthServiceRejectsNoneAlgorithm(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u-1", Role: models.RoleAdmin}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret"})
	_, err = svc.ValidateToken(token)
	assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
}

func TestAuthServiceIssueRequiresSecret(t *testing.T) {
	_, _, err := NewAuthService(nil, AuthConfig{}).IssueToken("u-1", models.RoleAdmin, "", 0)
	assert.Error(t, err)
}
