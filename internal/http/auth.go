package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"campus-board/internal/domain"
)

const userContextKey = "authenticated-user"

const authFailedMessage = "Unable to authenticate with provided credentials."

// apiKeyAuth authenticates requests carrying an
// `Authorization: ApiKey <username>:<key>` header. Anything missing,
// malformed, or non-matching is a 401; the response never reveals
// which part failed.
func (h *Handler) apiKeyAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, key, ok := parseAPIKeyHeader(c.GetHeader("Authorization"))
		if !ok {
			h.abortUnauthorized(c)
			return
		}

		user, err := h.users.AuthenticateKey(c.Request.Context(), username, key)
		if err != nil {
			h.abortUnauthorized(c)
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

func (h *Handler) abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":   true,
		"message": authFailedMessage,
	})
}

func parseAPIKeyHeader(header string) (username, key string, ok bool) {
	const scheme = "ApiKey "
	if !strings.HasPrefix(header, scheme) {
		return "", "", false
	}
	credentials := strings.TrimPrefix(header, scheme)
	parts := strings.SplitN(credentials, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func currentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*domain.User)
	return user
}
