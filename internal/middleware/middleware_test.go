package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physiome/admin-api/internal/model"
	"github.com/physiome/admin-api/pkg/httputil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuthenticator struct {
	users map[string]*model.User
	seen  []string
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (*model.User, error) {
	s.seen = append(s.seen, token)
	if u, ok := s.users[token]; ok {
		return u, nil
	}
	return nil, errors.New("bad token")
}

func newAuthRouter(auth *stubAuthenticator, roles ...model.Role) *gin.Engine {
	m := NewAuthMiddleware(auth)
	r := gin.New()
	r.GET("/private", m.Authenticate(), m.RequireRoles(roles...), func(c *gin.Context) {
		user, _ := CurrentUser(c)
		httputil.RespondWithSuccess(c, user.Profile())
	})
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestAuthenticate(t *testing.T) {
	auth := &stubAuthenticator{users: map[string]*model.User{
		"admin-token":   {Base: model.Base{ID: "a1"}, Role: model.RoleAdmin},
		"patient-token": {Base: model.Base{ID: "p1"}, Role: model.RolePatient},
		"odd-token":     {Base: model.Base{ID: "x1"}, Role: "superuser"},
	}}
	r := newAuthRouter(auth, model.RoleAdmin, "superuser")

	tests := []struct {
		name    string
		prepare func(*http.Request)
		status  int
		message string
	}{
		{
			name:    "no token",
			prepare: func(*http.Request) {},
			status:  http.StatusUnauthorized,
			message: "Not authorized to access this route",
		},
		{
			name:    "invalid bearer",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
			status:  http.StatusUnauthorized,
			message: "Not authorized to access this route",
		},
		{
			name:    "bearer header",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer admin-token") },
			status:  http.StatusOK,
		},
		{
			name: "cookie wins over header",
			prepare: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "token", Value: "admin-token"})
				r.Header.Set("Authorization", "Bearer patient-token")
			},
			status: http.StatusOK,
		},
		{
			name:    "role not allowed",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer patient-token") },
			status:  http.StatusForbidden,
			message: "Access denied. patient is not authorized to access this route",
		},
		{
			name:    "unknown role is always rejected",
			prepare: func(r *http.Request) { r.Header.Set("Authorization", "Bearer odd-token") },
			status:  http.StatusForbidden,
			message: "Access denied. superuser is not authorized to access this route",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			tt.prepare(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			assert.Equal(t, tt.status == http.StatusOK, resp.Success)
			assert.Equal(t, tt.message, resp.Message)
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderXRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderXRequestID))
	assert.Equal(t, "abc-123", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(HeaderXRequestID), 36)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, httputil.Response{Success: false, Message: "Internal server error"}, decode(t, w))
}

func TestRateLimit(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 2})
	r := gin.New()
	r.Use(rl.RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:4242"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSizeLimit(t *testing.T) {
	r := gin.New()
	r.Use(SizeLimit(16))
	r.POST("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 32))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}")))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS_AllowsFrontendWithCredentials(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}
