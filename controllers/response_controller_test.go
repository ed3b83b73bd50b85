package controllers

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func pendingResponseRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "post_id", "user_id", "text", "status"}).
		AddRow(11, 42, 3, "I can tank your weekly runs.", "pending")
}

func rejectedResponseRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "post_id", "user_id", "text", "status"}).
		AddRow(11, 42, 3, "I can tank your weekly runs.", "rejected")
}

func responsePostRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "title"}).
		AddRow(42, 7, "Need a tank for raids")
}

// expectResponseLoad queues the lookup sequence shared by every response
// handler: the response row, its author preload, and the parent post.
func expectResponseLoad(mock sqlmock.Sqlmock, responseRows *sqlmock.Rows) {
	mock.ExpectQuery("SELECT (.+) FROM `responses`").WillReturnRows(responseRows)
	mock.ExpectQuery("SELECT (.+) FROM `users`").WillReturnRows(userRowWithID(3))
	mock.ExpectQuery("SELECT (.+) FROM `posts`").WillReturnRows(responsePostRows())
}

func TestRejectResponseUpdatesStatusKeepingRow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := newMockDB(t)
	rc := NewResponseController(db, nil)

	r := gin.New()
	r.POST("/responses/:id/reject", withUser(7), rc.RejectResponse)

	expectResponseLoad(mock, pendingResponseRows())
	// Reject is an UPDATE, never a DELETE. The row survives.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `responses` SET `status`=? WHERE id = ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `user_action_logs`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/responses/11/reject", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"rejected"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectedResponseStillFetchableByPostAuthor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := newMockDB(t)
	rc := NewResponseController(db, nil)

	r := gin.New()
	r.GET("/responses/:id", withUser(7), rc.GetResponse)

	expectResponseLoad(mock, rejectedResponseRows())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/responses/11", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"rejected"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteResponseRemovesRow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, mock := newMockDB(t)
	rc := NewResponseController(db, nil)

	r := gin.New()
	r.DELETE("/responses/:id", withUser(7), rc.DeleteResponse)

	expectResponseLoad(mock, pendingResponseRows())
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `responses`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `user_action_logs`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/responses/11", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "response deleted")
	assert.NoError(t, mock.ExpectationsWereMet())
}
