package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const callerIDKey = "caller_id"

// AuthConfig holds JWT verification configuration
type AuthConfig struct {
	Secret string
}

// jwtMiddleware verifies the Bearer token issued by the identity provider and
// resolves the caller id from its subject claim. The core trusts the token;
// role resolution happens downstream through the authorizer.
func jwtMiddleware(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token missing subject"})
			return
		}

		callerID, err := strconv.ParseInt(sub, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "malformed subject"})
			return
		}

		c.Set(callerIDKey, callerID)
		c.Next()
	}
}

// callerID reads the authenticated caller id set by jwtMiddleware
func callerID(c *gin.Context) int64 {
	id, _ := c.Get(callerIDKey)
	v, _ := id.(int64)
	return v
}
