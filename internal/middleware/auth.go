package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/shipit/shipit-backend/pkg/utils"
)

// Context keys set by WalletAuth
const (
	WalletKey = "walletAddress"
	RoleKey   = "role"
)

func bearerToken(c *gin.Context) string {
	// First try to get token from Authorization header
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}

	// Websocket clients cannot set headers from the browser
	return c.Query("token")
}

// WalletAuth authenticates wallet JWTs. A presented token must be valid; a
// missing token is rejected only when required is set. With an empty secret
// no token can be trusted, so tokens are ignored and required routes refuse
// every request.
func WalletAuth(secret string, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			if required {
				c.JSON(401, gin.H{"error": "Wallet authentication is not configured"})
				c.Abort()
				return
			}
			c.Next()
			return
		}

		tokenString := bearerToken(c)

		if tokenString == "" {
			if required {
				c.JSON(401, gin.H{"error": "Authorization header or token query parameter required"})
				c.Abort()
				return
			}
			c.Next()
			return
		}

		token, err := utils.ValidateToken(tokenString, secret)
		if err != nil || !token.Valid {
			c.JSON(401, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(401, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		wallet, _ := claims["sub"].(string)
		if wallet == "" {
			c.JSON(401, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}
		role, _ := claims["role"].(string)

		c.Set(WalletKey, strings.ToLower(wallet))
		c.Set(RoleKey, role)
		c.Next()
	}
}

// AuthenticatedWallet returns the wallet proven by a JWT, if any.
func AuthenticatedWallet(c *gin.Context) (string, bool) {
	wallet := c.GetString(WalletKey)
	return wallet, wallet != ""
}
