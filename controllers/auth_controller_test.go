package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func patchJSON(t *testing.T, r *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func userRow() *sqlmock.Rows {
	return userRowWithID(7)
}

func userRowWithID(id uint) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "first_name", "timezone", "language", "is_active"}).
		AddRow(id, "player@example.com", "Ivan", "UTC", "ru", true)
}

func TestUpdateProfileRejectsUnknownTimezone(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := newMockDB(t)
	a := NewAuthController(db, nil)

	r := gin.New()
	r.PATCH("/profile", withUser(7), a.UpdateProfile)

	mock.ExpectQuery("SELECT (.+) FROM `users`").WillReturnRows(userRow())

	w := patchJSON(t, r, "/profile", gin.H{"timezone": "Not/AZone"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40006, decodeCode(t, w.Body.Bytes()))
}

func TestUpdateProfileRejectsUnsupportedLanguage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := newMockDB(t)
	a := NewAuthController(db, nil)

	r := gin.New()
	r.PATCH("/profile", withUser(7), a.UpdateProfile)

	mock.ExpectQuery("SELECT (.+) FROM `users`").WillReturnRows(userRow())

	w := patchJSON(t, r, "/profile", gin.H{"language": "de"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40007, decodeCode(t, w.Body.Bytes()))
}

func TestUpdateProfileNoChangesSkipsWrite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := newMockDB(t)
	a := NewAuthController(db, nil)

	r := gin.New()
	r.PATCH("/profile", withUser(7), a.UpdateProfile)

	// Same values as stored, so no UPDATE and no action log entry.
	mock.ExpectQuery("SELECT (.+) FROM `users`").WillReturnRows(userRow())

	w := patchJSON(t, r, "/profile", gin.H{"first_name": "Ivan", "language": "ru"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDuplicateEmailRaceConflicts(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := newMockDB(t)
	a := NewAuthController(db, nil)

	r := gin.New()
	r.POST("/register", a.Register)

	// The existence check sees nothing, then a concurrent registration wins
	// the unique email index first.
	mock.ExpectQuery("SELECT (.+) FROM `users`").
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `users`").
		WillReturnError(gorm.ErrDuplicatedKey)
	mock.ExpectRollback()

	w := postJSON(t, r, "/register", gin.H{
		"email":    "player@example.com",
		"password": "longenough1",
		"confirm":  "longenough1",
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 40901, decodeCode(t, w.Body.Bytes()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyEmailUnknownToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := newMockDB(t)
	a := NewAuthController(db, nil)

	r := gin.New()
	r.GET("/verify/:token", a.VerifyEmail)

	mock.ExpectQuery("SELECT (.+) FROM `email_verifications`").
		WillReturnError(gorm.ErrRecordNotFound)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/verify/doesnotexist", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40401, decodeCode(t, w.Body.Bytes()))
}

func TestVerifyEmailExpiredTokenConsumed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := newMockDB(t)
	a := NewAuthController(db, nil)

	r := gin.New()
	r.GET("/verify/:token", a.VerifyEmail)

	stale := time.Now().Add(-25 * time.Hour)
	mock.ExpectQuery("SELECT (.+) FROM `email_verifications`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token", "created_at"}).
			AddRow(3, 7, "staletoken", stale))
	// The stale row is removed so the link can never answer again.
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `email_verifications`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/verify/staletoken", nil))

	assert.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, 41001, decodeCode(t, w.Body.Bytes()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
