package service

import (
	"context"
	"sync"

	"github.com/codecompass-ai/codecompass/internal/domain"
	"github.com/codecompass-ai/codecompass/internal/port"
)

// fakeSource serves a canned directory layout keyed by path.
type fakeSource struct {
	listings map[string][]port.TreeEntry
	contents map[string]string
	listErr  map[string]error

	listCalls    int
	contentCalls int
	lastToken    string
}

func (f *fakeSource) List(ctx context.Context, ident domain.RepositoryIdentity, path, token string) ([]port.TreeEntry, error) {
	f.listCalls++
	f.lastToken = token
	if err, ok := f.listErr[path]; ok {
		return nil, err
	}
	return f.listings[path], nil
}

func (f *fakeSource) FileContent(ctx context.Context, ident domain.RepositoryIdentity, path, token string) (string, error) {
	f.contentCalls++
	content, ok := f.contents[path]
	if !ok {
		return "", port.ErrContentUnavailable
	}
	return content, nil
}

// fakeLLM replays scripted responses in order.
type fakeLLM struct {
	responses []any // string or error
	calls     int
	prompts   []string
}

func (f *fakeLLM) ModelName() string { return "fake-model" }

func (f *fakeLLM) Complete(ctx context.Context, messages []port.Message) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, messages[len(messages)-1].Content)
	if len(f.responses) == 0 {
		return `{}`, nil
	}
	next := f.responses[0]
	f.responses = f.responses[1:]
	if err, ok := next.(error); ok {
		return "", err
	}
	return next.(string), nil
}

type memSnapshotStore struct {
	mu    sync.Mutex
	snaps map[string]*domain.RepositorySnapshot
	// putErr forces PutSnapshot to fail.
	putErr error
}

func newMemSnapshotStore() *memSnapshotStore {
	return &memSnapshotStore{snaps: map[string]*domain.RepositorySnapshot{}}
}

func (s *memSnapshotStore) GetSnapshot(ctx context.Context, key string) (*domain.RepositorySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[key]
	if !ok {
		return nil, port.ErrSnapshotNotFound
	}
	return snap, nil
}

func (s *memSnapshotStore) SnapshotExists(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.snaps[key]
	return ok, nil
}

func (s *memSnapshotStore) PutSnapshot(ctx context.Context, snap *domain.RepositorySnapshot) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snaps[snap.Key]; !ok {
		s.snaps[snap.Key] = snap
	}
	return nil
}

func (s *memSnapshotStore) ListSnapshotsByUser(ctx context.Context, userID string) ([]domain.SnapshotSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.SnapshotSummary
	for _, snap := range s.snaps {
		if snap.OwnerUserID == userID {
			out = append(out, domain.SnapshotSummary{
				Key: snap.Key, Owner: snap.Owner, Name: snap.Name,
				SourceURL: snap.SourceURL, ProcessedAt: snap.ProcessedAt,
			})
		}
	}
	return out, nil
}

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.ConversationSession // userID + "/" + sessionID
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: map[string]*domain.ConversationSession{}}
}

func (s *memSessionStore) GetSession(ctx context.Context, userID, sessionID string) (*domain.ConversationSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[userID+"/"+sessionID]
	if !ok {
		return nil, port.ErrSessionNotFound
	}
	copied := *session
	return &copied, nil
}

func (s *memSessionStore) PutSession(ctx context.Context, userID string, session *domain.ConversationSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *session
	s.sessions[userID+"/"+session.ID] = &copied
	return nil
}

func (s *memSessionStore) ListSessions(ctx context.Context, userID, snapshotKey string) ([]domain.SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.SessionSummary
	for key, session := range s.sessions {
		if len(key) < len(userID)+1 || key[:len(userID)+1] != userID+"/" {
			continue
		}
		if snapshotKey != "" && session.SnapshotKey != snapshotKey {
			continue
		}
		summary := domain.SessionSummary{ID: session.ID, SnapshotKey: session.SnapshotKey}
		if len(session.History) > 0 {
			summary.FirstQuestion = session.History[0].Question
			summary.LastActivity = session.History[len(session.History)-1].Timestamp
		}
		out = append(out, summary)
	}
	return out, nil
}

type memQuotaStore struct {
	mu    sync.Mutex
	usage map[string]*domain.QuotaUsage
}

func newMemQuotaStore() *memQuotaStore {
	return &memQuotaStore{usage: map[string]*domain.QuotaUsage{}}
}

func (s *memQuotaStore) Usage(ctx context.Context, userID string) (domain.QuotaUsage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.usage[userID]; ok {
		return *u, nil
	}
	return domain.QuotaUsage{}, nil
}

func (s *memQuotaStore) Increment(ctx context.Context, userID, kind string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.usage[userID]
	if !ok {
		u = &domain.QuotaUsage{}
		s.usage[userID] = u
	}
	switch kind {
	case domain.QuotaKindRepo:
		u.ReposProcessed++
	case domain.QuotaKindMessage:
		u.MessagesSent++
	}
	return nil
}

func (s *memQuotaStore) set(userID string, usage domain.QuotaUsage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage[userID] = &usage
}
