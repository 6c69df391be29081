package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shipit/shipit-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	user := &models.User{WalletAddress: "0x52908400098527886e0f7030069857d2e4169ee7", Role: models.UserRoleDriver}

	signed, err := GenerateToken(user, "secret")
	require.NoError(t, err)

	token, err := ValidateToken(signed, "secret")
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, user.WalletAddress, claims["sub"])
	assert.Equal(t, "driver", claims["role"])

	_, err = ValidateToken(signed, "other-secret")
	assert.Error(t, err)
}
