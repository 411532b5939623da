package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"Social_Feed/internal/pkg"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	tokens   map[uint64]string
	extended []uint64
}

func (f *fakeSessions) Token(_ context.Context, userID uint64) (string, error) {
	tok, ok := f.tokens[userID]
	if !ok {
		return "", errors.New("token not found")
	}
	return tok, nil
}

func (f *fakeSessions) Extend(_ context.Context, userID uint64) error {
	f.extended = append(f.extended, userID)
	return nil
}

func newEngine(a *Auth, required bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	mw := a.Optional()
	if required {
		mw = a.Required()
	}
	r.GET("/who", mw, func(c *gin.Context) {
		v := ViewerFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": v.ID, "admin": v.IsAdmin()})
	})
	return r
}

func get(r http.Handler, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/who", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOptionalAuth(t *testing.T) {
	codec := pkg.NewTokenCodec("test-secret")
	r := newEngine(NewAuth(codec, nil), false)

	w := get(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":0,"admin":false}`, w.Body.String())

	tok, err := codec.Generate(7, pkg.RoleAdmin)
	require.NoError(t, err)
	w = get(r, "Bearer "+tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":7,"admin":true}`, w.Body.String())

	// 带了错误的 token 不会降级为匿名
	w = get(r, "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequiredAuth(t *testing.T) {
	codec := pkg.NewTokenCodec("test-secret")
	r := newEngine(NewAuth(codec, nil), true)

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Token abc").Code)

	tok, err := codec.Generate(3, 0)
	require.NoError(t, err)
	w := get(r, "Bearer "+tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":3,"admin":false}`, w.Body.String())
}

func TestSessionCheck(t *testing.T) {
	codec := pkg.NewTokenCodec("test-secret")
	current, err := codec.Generate(5, 0)
	require.NoError(t, err)
	other, err := codec.Generate(6, 0)
	require.NoError(t, err)

	sessions := &fakeSessions{tokens: map[uint64]string{5: current, 6: "newer-login"}}
	r := newEngine(NewAuth(codec, sessions), true)

	assert.Equal(t, http.StatusOK, get(r, "Bearer "+current).Code)
	assert.Equal(t, []uint64{5}, sessions.extended)

	// 在别处重新登录后旧 token 失效
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+other).Code)
	assert.Equal(t, []uint64{5}, sessions.extended)
}
