package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/codecompass-ai/codecompass/internal/domain"
	"github.com/codecompass-ai/codecompass/internal/port"
)

// RedisSessionStore keeps conversation sessions in Redis under
// chat:{userID}:{sessionID}, refreshed with a sliding TTL on every write.
type RedisSessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessionStore creates a session store against the given Redis
// connection.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionKey(userID, sessionID string) string {
	return fmt.Sprintf("chat:%s:%s", userID, sessionID)
}

// GetSession loads a session by ID.
func (s *RedisSessionStore) GetSession(ctx context.Context, userID, sessionID string) (*domain.ConversationSession, error) {
	raw, err := s.client.Get(ctx, sessionKey(userID, sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, port.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session domain.ConversationSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &session, nil
}

// PutSession stores a session and resets its TTL.
func (s *RedisSessionStore) PutSession(ctx context.Context, userID string, session *domain.ConversationSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKey(userID, session.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// ListSessions returns summaries of a user's sessions, most recently active
// first. A non-empty snapshotKey narrows the listing to one repository.
func (s *RedisSessionStore) ListSessions(ctx context.Context, userID, snapshotKey string) ([]domain.SessionSummary, error) {
	pattern := fmt.Sprintf("chat:%s:*", userID)

	var summaries []domain.SessionSummary
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		raw, err := s.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue // expired between scan and get
		}
		if err != nil {
			return nil, fmt.Errorf("read session %s: %w", iter.Val(), err)
		}

		var session domain.ConversationSession
		if err := json.Unmarshal(raw, &session); err != nil {
			continue
		}
		if snapshotKey != "" && session.SnapshotKey != snapshotKey {
			continue
		}

		summary := domain.SessionSummary{
			ID:          session.ID,
			SnapshotKey: session.SnapshotKey,
		}
		if len(session.History) > 0 {
			summary.FirstQuestion = session.History[0].Question
			summary.LastActivity = session.History[len(session.History)-1].Timestamp
		}
		summaries = append(summaries, summary)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan sessions: %w", err)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastActivity.After(summaries[j].LastActivity)
	})
	return summaries, nil
}
