package controllers

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/guildpost/guildpost/middleware"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db, mock
}

func withUser(id uint) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Set(middleware.ContextUserIDKey, id)
		ctx.Next()
	}
}

func TestToggleNewsSubscribes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := newMockDB(t)
	s := NewSubscriptionController(db)

	r := gin.New()
	r.POST("/subscriptions/news/toggle", withUser(7), s.ToggleNews)

	// No existing row, so the toggle creates one.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `subscriptions` WHERE user_id = ? AND category_id = ?")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `subscriptions`").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `user_action_logs`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/subscriptions/news/toggle", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"subscribed":true`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleNewsUnsubscribes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := newMockDB(t)
	s := NewSubscriptionController(db)

	r := gin.New()
	r.POST("/subscriptions/news/toggle", withUser(7), s.ToggleNews)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `subscriptions` WHERE user_id = ? AND category_id = ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `user_action_logs`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/subscriptions/news/toggle", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"subscribed":false`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTogglePostSubscribes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := newMockDB(t)
	s := NewSubscriptionController(db)

	r := gin.New()
	r.POST("/posts/:id/subscribe", withUser(7), s.TogglePost)

	mock.ExpectQuery("SELECT (.+) FROM `posts`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title"}).
			AddRow(42, 3, "Need a tank for raids"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `post_subscriptions` WHERE user_id = ? AND post_id = ?")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `post_subscriptions`").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `user_action_logs`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts/42/subscribe", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"subscribed":true`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTogglePostUnsubscribes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := newMockDB(t)
	s := NewSubscriptionController(db)

	r := gin.New()
	r.POST("/posts/:id/subscribe", withUser(7), s.TogglePost)

	mock.ExpectQuery("SELECT (.+) FROM `posts`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title"}).
			AddRow(42, 3, "Need a tank for raids"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `post_subscriptions` WHERE user_id = ? AND post_id = ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `user_action_logs`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts/42/subscribe", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"subscribed":false`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTogglePostUnknownPost(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := newMockDB(t)
	s := NewSubscriptionController(db)

	r := gin.New()
	r.POST("/posts/:id/subscribe", withUser(7), s.TogglePost)

	mock.ExpectQuery("SELECT (.+) FROM `posts`").
		WillReturnError(gorm.ErrRecordNotFound)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/posts/999/subscribe", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40403, decodeCode(t, w.Body.Bytes()))
}

func TestToggleCategoryUnknownValue(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := newMockDB(t)
	s := NewSubscriptionController(db)

	r := gin.New()
	r.POST("/subscriptions/categories/:value/toggle", withUser(7), s.ToggleCategory)

	mock.ExpectQuery("SELECT (.+) FROM `categories`").
		WillReturnError(gorm.ErrRecordNotFound)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/subscriptions/categories/paladins/toggle", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40406, decodeCode(t, w.Body.Bytes()))
}

func TestToggleCategorySubscribes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := newMockDB(t)
	s := NewSubscriptionController(db)

	r := gin.New()
	r.POST("/subscriptions/categories/:value/toggle", withUser(7), s.ToggleCategory)

	mock.ExpectQuery("SELECT (.+) FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "value"}).
			AddRow(3, "Tanks", "tanks"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `subscriptions` WHERE user_id = ? AND category_id = ?")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `subscriptions`").
		WillReturnResult(sqlmock.NewResult(6, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `user_action_logs`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/subscriptions/categories/tanks/toggle", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"subscribed":true`)
	assert.NoError(t, mock.ExpectationsWereMet())
}
