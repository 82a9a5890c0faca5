package port

import (
	"context"

	"github.com/codecompass-ai/codecompass/internal/domain"
)

// SnapshotStore persists processed repository snapshots. Snapshots are
// write-once: the caller checks existence before putting, the store never
// merges.
type SnapshotStore interface {
	GetSnapshot(ctx context.Context, key string) (*domain.RepositorySnapshot, error)
	SnapshotExists(ctx context.Context, key string) (bool, error)
	PutSnapshot(ctx context.Context, snap *domain.RepositorySnapshot) error
	ListSnapshotsByUser(ctx context.Context, userID string) ([]domain.SnapshotSummary, error)
}

// SessionStore persists bounded conversation history per (user, session)
// pair. Concurrent writes to one session are last-writer-wins.
type SessionStore interface {
	GetSession(ctx context.Context, userID, sessionID string) (*domain.ConversationSession, error)
	PutSession(ctx context.Context, userID string, session *domain.ConversationSession) error
	ListSessions(ctx context.Context, userID, snapshotKey string) ([]domain.SessionSummary, error)
}

// QuotaStore tracks per-user daily usage counters.
type QuotaStore interface {
	Usage(ctx context.Context, userID string) (domain.QuotaUsage, error)
	Increment(ctx context.Context, userID, kind string) error
}
