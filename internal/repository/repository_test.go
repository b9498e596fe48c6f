package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chatty-backend/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Chat{},
		&model.Message{},
		&model.RefreshToken{},
		&model.UsageRecord{},
	))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedWindowMessages(t *testing.T, db *gorm.DB, chatID uint, count int) {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < count; i++ {
		msg := &model.Message{
			ChatID:    chatID,
			Role:      model.RoleUser,
			Content:   fmt.Sprintf("message %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, db.Create(msg).Error)
	}
}

func TestListRecentByChatID_FewerThanLimit(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepository(db)
	seedWindowMessages(t, db, 1, 7)

	messages, err := repo.ListRecentByChatID(1, 20)
	require.NoError(t, err)
	require.Len(t, messages, 7)
	for i, msg := range messages {
		assert.Equal(t, fmt.Sprintf("message %d", i), msg.Content)
	}
}

func TestListRecentByChatID_MoreThanLimit(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepository(db)
	seedWindowMessages(t, db, 1, 25)

	messages, err := repo.ListRecentByChatID(1, 20)
	require.NoError(t, err)
	require.Len(t, messages, 20)

	// Most recent 20 of 25, oldest-first: starts at the sixth message.
	assert.Equal(t, "message 5", messages[0].Content)
	assert.Equal(t, "message 24", messages[19].Content)
}

func TestListRecentByChatID_IgnoresOtherChats(t *testing.T) {
	db := newTestDB(t)
	repo := NewMessageRepository(db)
	seedWindowMessages(t, db, 1, 3)
	seedWindowMessages(t, db, 2, 3)

	messages, err := repo.ListRecentByChatID(1, 20)
	require.NoError(t, err)
	assert.Len(t, messages, 3)
	for _, msg := range messages {
		assert.Equal(t, uint(1), msg.ChatID)
	}
}

func TestChatRepository_ListByUserIDOrder(t *testing.T) {
	db := newTestDB(t)
	repo := NewChatRepository(db)

	older := &model.Chat{UserID: 1, Title: "older"}
	require.NoError(t, db.Create(older).Error)
	newer := &model.Chat{UserID: 1, Title: "newer"}
	require.NoError(t, db.Create(newer).Error)
	require.NoError(t, repo.Touch(newer.ID, time.Now().Add(time.Minute)))

	chats, err := repo.ListByUserID(1, 50)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "newer", chats[0].Title)
	assert.Equal(t, "older", chats[1].Title)
}

func TestRefreshTokenRepository_DeleteExpired(t *testing.T) {
	db := newTestDB(t)
	repo := NewRefreshTokenRepository(db)

	now := time.Now()
	expired := &model.RefreshToken{UserID: 1, Token: "expired", ExpiresAt: now.Add(-time.Hour)}
	live := &model.RefreshToken{UserID: 1, Token: "live", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.Create(expired))
	require.NoError(t, repo.Create(live))

	removed, err := repo.DeleteExpired(now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	remaining, err := repo.GetByToken("live")
	require.NoError(t, err)
	require.NotNil(t, remaining)

	gone, err := repo.GetByToken("expired")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestUsageRecordRepository_ListByUserID(t *testing.T) {
	db := newTestDB(t)
	repo := NewUsageRecordRepository(db)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		record := &model.UsageRecord{
			UserID:     1,
			ChatID:     1,
			MessageID:  uint(i + 1),
			ModelUsed:  "m",
			TokensUsed: i,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(record))
	}

	records, err := repo.ListByUserID(1, 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, 4, records[0].TokensUsed, "newest first")
	assert.Equal(t, 2, records[2].TokensUsed)

	// Out-of-range limits fall back to the default.
	records, err = repo.ListByUserID(1, 0)
	require.NoError(t, err)
	assert.Len(t, records, 5)

	records, err = repo.ListByUserID(2, 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestUserRepository_NotFoundIsNil(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	user, err := repo.GetByEmail("nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = repo.GetByID(42)
	require.NoError(t, err)
	assert.Nil(t, user)
}
