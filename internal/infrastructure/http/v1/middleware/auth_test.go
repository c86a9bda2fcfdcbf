package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "ventra/internal/core/context"
	"ventra/internal/core/id"
)

type stubValidator struct {
	actor *appctx.ActorContext
	err   error
}

func (v *stubValidator) ValidateToken(string) (*appctx.ActorContext, error) {
	return v.actor, v.err
}

func newAuthRig(validator JWTValidator, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler(), Auth(validator))
	handlers := append(extra, func(c *gin.Context) {
		actor := appctx.GetActor(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"role": actor.Role})
	})
	r.GET("/probe", handlers...)
	return r
}

func get(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthValidToken(t *testing.T) {
	actor := &appctx.ActorContext{UserID: id.New(), Role: "admin"}
	r := newAuthRig(&stubValidator{actor: actor})

	w := get(r, "Bearer good-token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"admin"`)
}

func TestAuthRejections(t *testing.T) {
	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic dXNlcjpwdw=="},
		{"no token part", "Bearer"},
	}
	r := newAuthRig(&stubValidator{actor: &appctx.ActorContext{UserID: id.New(), Role: "admin"}})
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := get(r, tc.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	t.Run("invalid token", func(t *testing.T) {
		bad := newAuthRig(&stubValidator{err: errors.New("expired")})
		w := get(bad, "Bearer whatever")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
	})
}

func TestRequireRole(t *testing.T) {
	admin := &appctx.ActorContext{UserID: id.New(), Role: "admin"}
	customer := &appctx.ActorContext{UserID: id.New(), Role: "customer"}

	t.Run("allowed role passes", func(t *testing.T) {
		r := newAuthRig(&stubValidator{actor: admin}, RequireRole("super-admin", "admin"))
		w := get(r, "Bearer t")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("blocked role gets forbidden with required roles listed", func(t *testing.T) {
		r := newAuthRig(&stubValidator{actor: customer}, RequireRole("super-admin", "admin"))
		w := get(r, "Bearer t")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "required_roles")
	})
}

func TestOptionalAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	actor := &appctx.ActorContext{UserID: id.New(), Role: "customer"}
	r := gin.New()
	r.Use(ErrorHandler(), OptionalAuth(&stubValidator{actor: actor}))
	r.GET("/probe", func(c *gin.Context) {
		if a := appctx.GetActor(c.Request.Context()); a != nil {
			c.JSON(http.StatusOK, gin.H{"role": a.Role})
			return
		}
		c.JSON(http.StatusOK, gin.H{"role": "anonymous"})
	})

	w := get(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "anonymous")

	w = get(r, "Bearer t")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "customer")
}
