package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guildpost/guildpost/utils"
)

func newAuthEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthRequired(), func(ctx *gin.Context) {
		userID, _ := ctx.Get(ContextUserIDKey)
		ctx.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	r.GET("/staff", AuthRequired(), StaffRequired(), func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func decodeCode(t *testing.T, body []byte) int {
	t.Helper()
	var envelope struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope.Code
}

func TestAuthRequiredMissingHeader(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	r := newAuthEngine()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40101, decodeCode(t, w.Body.Bytes()))
}

func TestAuthRequiredBadScheme(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	r := newAuthEngine()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abcdef")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40102, decodeCode(t, w.Body.Bytes()))
}

func TestAuthRequiredInvalidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	r := newAuthEngine()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40105, decodeCode(t, w.Body.Bytes()))
}

func TestAuthRequiredValidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	r := newAuthEngine()

	token, err := utils.GenerateToken(7, "player@example.com", false, time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":7`)
}

func TestStaffRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	r := newAuthEngine()

	memberToken, err := utils.GenerateToken(7, "player@example.com", false, time.Hour)
	require.NoError(t, err)
	staffToken, err := utils.GenerateToken(8, "gm@example.com", true, time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/staff", nil)
	req.Header.Set("Authorization", "Bearer "+memberToken)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 40301, decodeCode(t, w.Body.Bytes()))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/staff", nil)
	req.Header.Set("Authorization", "Bearer "+staffToken)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogoutTokenRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	r := newAuthEngine()

	token, err := utils.GenerateToken(9, "leaver@example.com", false, time.Hour)
	require.NoError(t, err)
	utils.BlacklistToken(token, time.Now().Add(time.Hour))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 40104, decodeCode(t, w.Body.Bytes()))
}
