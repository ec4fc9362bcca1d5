package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ctxUserID = "auth.user_id"
	ctxEmail  = "auth.email"
)

// Claims mirrors the access token issued by the hosted auth provider.
// Only the subject (user id) and email are consumed.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AdminChecker reports whether the given user id belongs to an admin.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

func parseToken(c *gin.Context, secret []byte) (*Claims, bool) {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return nil, false
	}
	raw := strings.TrimPrefix(h, "Bearer ")
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return nil, false
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || claims.Subject == "" {
		return nil, false
	}
	return claims, true
}

// OptionalAuth records the caller's identity when a valid token is present
// and lets anonymous requests through untouched.
func OptionalAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := parseToken(c, secret); ok {
			c.Set(ctxUserID, claims.Subject)
			c.Set(ctxEmail, claims.Email)
		}
		c.Next()
	}
}

// RequireAuth rejects requests without a valid token.
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseToken(c, secret)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Set(ctxUserID, claims.Subject)
		c.Set(ctxEmail, claims.Email)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin(admins AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := UserID(c)
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		ok, err := admins.IsAdmin(c.Request.Context(), uid)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "admin check failed"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	v, _ := c.Get(ctxUserID)
	s, _ := v.(string)
	return s
}

// Email returns the authenticated user's email, or "".
func Email(c *gin.Context) string {
	v, _ := c.Get(ctxEmail)
	s, _ := v.(string)
	return s
}
