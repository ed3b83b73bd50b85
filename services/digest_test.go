package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestSkippedWhenWindowEmpty(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db, mock := newMockDB(t)
	sender := &fakeSender{}
	d := NewDigest(db, sender)

	mock.ExpectQuery("SELECT (.+) FROM `news`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))
	mock.ExpectQuery("SELECT (.+) FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "value"}))

	d.Run(time.Now())

	assert.Empty(t, sender.sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewsDigestListsWeekItems(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db, mock := newMockDB(t)
	sender := &fakeSender{}
	d := NewDigest(db, sender)

	mock.ExpectQuery("SELECT (.+) FROM `news`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).
			AddRow(1, "Patch 1.2").
			AddRow(2, "Server move"))
	mock.ExpectQuery("SELECT (.+) FROM `users` JOIN subscriptions").
		WillReturnRows(subscriberRows([3]any{1, "reader@example.com", "Reader"}))
	// No categories with fresh posts this week.
	mock.ExpectQuery("SELECT (.+) FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "value"}))

	d.Run(time.Now())

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "reader@example.com", sender.sent[0].To)
	assert.Equal(t, "Weekly news digest", sender.sent[0].Subject)
	assert.Contains(t, sender.sent[0].Body, "Patch 1.2")
	assert.Contains(t, sender.sent[0].Body, "Server move")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryDigestSkipsQuietCategories(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db, mock := newMockDB(t)
	sender := &fakeSender{}
	d := NewDigest(db, sender)

	mock.ExpectQuery("SELECT (.+) FROM `news`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))
	mock.ExpectQuery("SELECT (.+) FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "value"}).
			AddRow(1, "Tanks", "tanks").
			AddRow(2, "Heals", "heals"))
	// tanks has a post and a subscriber, heals is quiet
	mock.ExpectQuery("SELECT (.+) FROM `posts`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "category"}).
			AddRow(3, "LF tank", "tanks"))
	mock.ExpectQuery("SELECT (.+) FROM `users` JOIN subscriptions").
		WillReturnRows(subscriberRows([3]any{4, "tank@example.com", "Tank"}))
	mock.ExpectQuery("SELECT (.+) FROM `posts`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "category"}))

	d.Run(time.Now())

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "tank@example.com", sender.sent[0].To)
	assert.Equal(t, "Weekly digest: Tanks", sender.sent[0].Subject)
	assert.Contains(t, sender.sent[0].Body, "LF tank")
	assert.NoError(t, mock.ExpectationsWereMet())
}
