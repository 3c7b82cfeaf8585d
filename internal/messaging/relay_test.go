package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/javidhasanzade/J-Overflow/internal/database"
	"github.com/javidhasanzade/J-Overflow/internal/events"
	"github.com/javidhasanzade/J-Overflow/internal/models"
	"github.com/javidhasanzade/J-Overflow/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestOutbox(t *testing.T) (*gorm.DB, repository.OutboxRepository) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db, repository.NewOutboxRepository(db)
}

func appendOutboxRow(t *testing.T, db *gorm.DB, outbox repository.OutboxRepository, row *models.OutboxEvent) {
	t.Helper()
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return outbox.Append(context.Background(), tx, row)
	}))
}

func TestRelayDrain(t *testing.T) {
	ctx := context.Background()
	db, outbox := newTestOutbox(t)
	_, rdb := newTestRedis(t)

	appendOutboxRow(t, db, outbox, &models.OutboxEvent{
		EventID: "e-1", QuestionID: "q-1", EventType: events.TypeQuestionCreated,
		Payload: []byte(`{"questionId":"q-1"}`), Version: 1,
	})
	appendOutboxRow(t, db, outbox, &models.OutboxEvent{
		EventID: "e-2", QuestionID: "q-1", EventType: events.TypeQuestionUpdated,
		Payload: []byte(`{"questionId":"q-1"}`), Version: 2,
	})

	relay := NewRelay(outbox, NewPublisher(rdb, testStream), 10*time.Millisecond)
	require.NoError(t, relay.Drain(ctx))

	// Both rows hit the stream in commit order.
	msgs, err := rdb.XRange(ctx, testStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	first, err := events.Decode([]byte(msgs[0].Values[envelopeField].(string)))
	require.NoError(t, err)
	assert.Equal(t, "e-1", first.EventID)
	assert.Equal(t, 1, first.Version)
	second, err := events.Decode([]byte(msgs[1].Values[envelopeField].(string)))
	require.NoError(t, err)
	assert.Equal(t, "e-2", second.EventID)

	// Nothing left to publish.
	rows, err := outbox.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRelayDrain_PublishFailureRetries(t *testing.T) {
	ctx := context.Background()
	db, outbox := newTestOutbox(t)
	mr, rdb := newTestRedis(t)

	appendOutboxRow(t, db, outbox, &models.OutboxEvent{
		EventID: "e-1", QuestionID: "q-1", EventType: events.TypeQuestionCreated,
		Payload: []byte(`{"questionId":"q-1"}`), Version: 1,
	})

	relay := NewRelay(outbox, NewPublisher(rdb, testStream), 10*time.Millisecond)

	mr.SetError("stream unavailable")
	require.NoError(t, relay.Drain(ctx))

	// Publish failed, so the row stays pending.
	rows, err := outbox.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// The next tick succeeds and the row is drained exactly once more.
	mr.SetError("")
	require.NoError(t, relay.Drain(ctx))

	rows, err = outbox.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, rows)

	msgs, err := rdb.XRange(ctx, testStream, "-", "+").Result()
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestRelayDrain_EmptyOutboxIsNoop(t *testing.T) {
	ctx := context.Background()
	_, outbox := newTestOutbox(t)
	_, rdb := newTestRedis(t)

	relay := NewRelay(outbox, NewPublisher(rdb, testStream), 10*time.Millisecond)
	require.NoError(t, relay.Drain(ctx))

	exists, err := rdb.Exists(ctx, testStream).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}
