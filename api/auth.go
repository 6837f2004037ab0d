package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// userIDKey is the gin context key holding the authenticated user ID
const userIDKey = "lineswipe_user_id"

// authRequired verifies the bearer JWT and stores the user ID from the sub
// claim in the request context. Tokens are minted by the external
// authenticator; this middleware only verifies and extracts.
func authRequired(secret string) gin.HandlerFunc {
	key := []byte(secret)

	return func(c *gin.Context) {
		tokenStr := extractBearerToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
			return
		}

		token, err := jwt.ParseWithClaims(tokenStr, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid token"})
			return
		}

		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "token has no subject"})
			return
		}
		userID, err := strconv.ParseInt(sub, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "token subject is not a user id"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// ingestAuth guards the internal feed routes with a shared secret header
func ingestAuth(ingestToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ingestToken == "" || c.GetHeader("X-Ingest-Token") != ingestToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid ingest token"})
			return
		}
		c.Next()
	}
}

// currentUserID returns the user ID stored by authRequired
func currentUserID(c *gin.Context) int64 {
	if id, exists := c.Get(userIDKey); exists {
		if userID, ok := id.(int64); ok {
			return userID
		}
	}
	return 0
}

// extractBearerToken pulls the token out of the Authorization header.
// Returns empty string when the header is missing or malformed.
func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
