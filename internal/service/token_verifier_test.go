package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lesson-planner-api/internal/models"
	appErrors "github.com/noah-isme/lesson-planner-api/pkg/errors"
)

func TestTokenVerifierRoundTrip(t *testing.T) {
	verifier := NewTokenVerifier("secret", "auth-service")

	token, err := verifier.SignToken(models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher}, time.Hour)
	require.NoError(t, err)

	claims, err := verifier.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "teacher-1", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
	assert.Equal(t, "auth-service", claims.Issuer)
	assert.Equal(t, "teacher-1", claims.Subject)
}

func TestTokenVerifierRejectsBadTokens(t *testing.T) {
	verifier := NewTokenVerifier("secret", "auth-service")

	foreign, err := NewTokenVerifier("other", "auth-service").SignToken(models.JWTClaims{UserID: "teacher-1"}, time.Hour)
	require.NoError(t, err)
	wrongIssuer, err := NewTokenVerifier("secret", "elsewhere").SignToken(models.JWTClaims{UserID: "teacher-1"}, time.Hour)
	require.NoError(t, err)
	stale := models.JWTClaims{UserID: "teacher-1"}
	stale.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	expired, err := verifier.SignToken(stale, 0)
	require.NoError(t, err)
	anonymous, err := verifier.SignToken(models.JWTClaims{Role: models.RoleTeacher}, time.Hour)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"wrong issuer": wrongIssuer,
		"expired":      expired,
		"no user":      anonymous,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := verifier.ValidateToken(token)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestTokenVerifierWithoutIssuerAcceptsAny(t *testing.T) {
	token, err := NewTokenVerifier("secret", "anywhere").SignToken(models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	claims, err := NewTokenVerifier("secret", "").ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, claims.CanManageAnySchedule())
}
