package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecompass-ai/codecompass/internal/domain"
	"github.com/codecompass-ai/codecompass/internal/port"
)

func newTestSessionStore(t *testing.T) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisSessionStore(client, 30*24*time.Hour), mr
}

func turnAt(question string, ts time.Time) domain.ConversationTurn {
	return domain.ConversationTurn{Question: question, Answer: "a", Timestamp: ts}
}

func TestSessionRoundTrip(t *testing.T) {
	store, _ := newTestSessionStore(t)
	ctx := context.Background()

	session := &domain.ConversationSession{ID: "s1", SnapshotKey: "k1"}
	session.Append(turnAt("what does this repo do?", time.Now().UTC().Truncate(time.Second)))
	require.NoError(t, store.PutSession(ctx, "u1", session))

	got, err := store.GetSession(ctx, "u1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "k1", got.SnapshotKey)
	require.Len(t, got.History, 1)
	assert.Equal(t, "what does this repo do?", got.History[0].Question)
}

func TestGetSessionMissing(t *testing.T) {
	store, _ := newTestSessionStore(t)

	_, err := store.GetSession(context.Background(), "u1", "nope")
	assert.ErrorIs(t, err, port.ErrSessionNotFound)
}

func TestPutSessionSetsTTL(t *testing.T) {
	store, mr := newTestSessionStore(t)

	session := &domain.ConversationSession{ID: "s1", SnapshotKey: "k1"}
	require.NoError(t, store.PutSession(context.Background(), "u1", session))

	ttl := mr.TTL("chat:u1:s1")
	assert.Equal(t, 30*24*time.Hour, ttl)
}

func TestSessionsAreScopedToUser(t *testing.T) {
	store, _ := newTestSessionStore(t)
	ctx := context.Background()

	require.NoError(t, store.PutSession(ctx, "u1", &domain.ConversationSession{ID: "s1", SnapshotKey: "k1"}))

	_, err := store.GetSession(ctx, "u2", "s1")
	assert.ErrorIs(t, err, port.ErrSessionNotFound)
}

func TestListSessionsFiltersAndSorts(t *testing.T) {
	store, _ := newTestSessionStore(t)
	ctx := context.Background()

	older := &domain.ConversationSession{ID: "s-old", SnapshotKey: "k1"}
	older.Append(turnAt("first question", time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)))
	newer := &domain.ConversationSession{ID: "s-new", SnapshotKey: "k1"}
	newer.Append(turnAt("later question", time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)))
	other := &domain.ConversationSession{ID: "s-other", SnapshotKey: "k2"}
	other.Append(turnAt("unrelated", time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)))

	for _, s := range []*domain.ConversationSession{older, newer, other} {
		require.NoError(t, store.PutSession(ctx, "u1", s))
	}
	require.NoError(t, store.PutSession(ctx, "u2", &domain.ConversationSession{ID: "foreign", SnapshotKey: "k1"}))

	got, err := store.ListSessions(ctx, "u1", "k1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "s-new", got[0].ID)
	assert.Equal(t, "later question", got[0].FirstQuestion)
	assert.Equal(t, "s-old", got[1].ID)

	all, err := store.ListSessions(ctx, "u1", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
