package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/physiome/admin-api/internal/model"
	authsvc "github.com/physiome/admin-api/internal/service/auth"
	"github.com/physiome/admin-api/pkg/httputil"
)

const (
	// CookieToken is the cookie the web frontend stores the access token in.
	CookieToken = "token"
	// ContextUser holds the authenticated *model.User.
	ContextUser = "user"
)

// Authenticator resolves an access token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

type AuthMiddleware struct {
	authService Authenticator
}

func NewAuthMiddleware(authService Authenticator) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Authenticate reads the token from the "token" cookie, falling back to a
// Bearer header, and stores the user in the context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := m.authService.Authenticate(c.Request.Context(), tokenFrom(c))
		if err != nil {
			log.Debug().
				Err(err).
				Str("path", c.Request.URL.Path).
				Str("request_id", c.GetString(ContextRequestID)).
				Msg("Authentication failed")
			httputil.Abort(c, http.StatusUnauthorized, authsvc.MsgNotAuthorized)
			return
		}

		c.Set(ContextUser, user)
		c.Next()
	}
}

// RequireRoles admits only users whose role is listed. It must run after
// Authenticate.
func (m *AuthMiddleware) RequireRoles(roles ...model.Role) gin.HandlerFunc {
	allowed := make(map[model.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			httputil.Abort(c, http.StatusUnauthorized, authsvc.MsgNotAuthorized)
			return
		}

		if _, ok := allowed[user.Role]; !ok || !user.Role.Valid() {
			httputil.Abort(c, http.StatusForbidden,
				fmt.Sprintf("Access denied. %s is not authorized to access this route", user.Role))
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user stored by Authenticate.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}

func tokenFrom(c *gin.Context) string {
	if token, err := c.Cookie(CookieToken); err == nil && token != "" {
		return token
	}

	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
