package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/DSnider-CodeSample/TCTB-CodeSample/cache"
	"github.com/DSnider-CodeSample/TCTB-CodeSample/config"
	"github.com/gin-gonic/gin"
)

const ClaimsKey = "claims"

// RevokedKey is the cache key marking a token ID as revoked.
func RevokedKey(tokenID string) string { return "revoked:" + tokenID }

// Auth validates the Bearer JWT (or the token query parameter used by
// WebSocket and EventSource clients) and rejects revoked tokens.
func Auth(sec config.SecurityConfig, c cache.Cache) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenStr, ok := bearer(ctx)
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := ParseToken(tokenStr, sec.JWTSecret)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		cacheCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		_, err = c.Get(cacheCtx, RevokedKey(claims.ID))
		if err == nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token revoked"})
			return
		}
		if !cache.IsNotFound(err) {
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "session store unavailable"})
			return
		}

		ctx.Set(ClaimsKey, claims)
		ctx.Next()
	}
}

// RequireRole rejects authenticated clients whose role differs from role.
func RequireRole(role string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		cl := GetClaims(ctx)
		if cl == nil || cl.Role != role {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		ctx.Next()
	}
}

// GetClaims retrieves the authenticated claims from the Gin context.
func GetClaims(c *gin.Context) *Claims {
	if v, exists := c.Get(ClaimsKey); exists {
		return v.(*Claims)
	}
	return nil
}

func bearer(ctx *gin.Context) (string, bool) {
	header := ctx.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer "), true
	}
	if header == "" {
		if q := ctx.Query("token"); q != "" {
			return q, true
		}
	}
	return "", false
}
