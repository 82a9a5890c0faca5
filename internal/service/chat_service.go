package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/codecompass-ai/codecompass/internal/adapter/analysis"
	"github.com/codecompass-ai/codecompass/internal/domain"
	"github.com/codecompass-ai/codecompass/internal/port"
)

// FAQ matching thresholds: a stored question matches when it shares at
// least minSharedWords words with the incoming question and their Jaccard
// overlap exceeds minJaccardOverlap.
const (
	minSharedWords    = 2
	minJaccardOverlap = 0.3
)

// DefaultMaxMessagesPerDay is the daily question quota.
const DefaultMaxMessagesPerDay = 10

// Answer provenance.
const (
	SourceCommonQA   = "common_qa"
	SourceAIAnalysis = "ai_analysis"
)

// ChatService answers questions against processed snapshots, keeping
// bounded per-session history.
type ChatService struct {
	snapshots port.SnapshotStore
	sessions  port.SessionStore
	quotas    port.QuotaStore
	selector  *analysis.FileSelector
	generator *analysis.AnswerGenerator

	maxMessages int
}

// ChatConfig bundles the chat flow dependencies and limits.
type ChatConfig struct {
	Snapshots   port.SnapshotStore
	Sessions    port.SessionStore
	Quotas      port.QuotaStore
	Selector    *analysis.FileSelector
	Generator   *analysis.AnswerGenerator
	MaxMessages int
}

// NewChatService creates the chat service. A zero message limit selects the
// default.
func NewChatService(cfg ChatConfig) *ChatService {
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = DefaultMaxMessagesPerDay
	}
	return &ChatService{
		snapshots:   cfg.Snapshots,
		sessions:    cfg.Sessions,
		quotas:      cfg.Quotas,
		selector:    cfg.Selector,
		generator:   cfg.Generator,
		maxMessages: cfg.MaxMessages,
	}
}

// MaxMessages returns the daily message limit in effect.
func (s *ChatService) MaxMessages() int { return s.maxMessages }

// AskRequest is one question against a snapshot. An empty SessionID starts
// a new session.
type AskRequest struct {
	UserID      string
	SnapshotKey string
	SessionID   string
	Question    string
}

// FileSelectionReason explains why one file entered the answer context.
type FileSelectionReason struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// AskResult is the outcome of one answered question.
type AskResult struct {
	Answer          string                `json:"answer"`
	Source          string                `json:"source"`
	SessionID       string                `json:"session_id"`
	MatchedQuestion string                `json:"matched_question,omitempty"`
	FilesAnalyzed   int                   `json:"files_analyzed"`
	AnalysisSummary []FileSelectionReason `json:"analysis_summary,omitempty"`
}

// Ask answers the question, preferring a precomputed FAQ match over the
// full selection-and-generation path. Both paths record the turn and count
// against the message quota.
func (s *ChatService) Ask(ctx context.Context, req AskRequest) (*AskResult, error) {
	usage, err := s.quotas.Usage(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("check usage limits: %w", err)
	}
	if usage.MessagesSent >= s.maxMessages {
		return nil, port.ErrQuotaExceeded
	}

	snap, err := s.snapshots.GetSnapshot(ctx, req.SnapshotKey)
	if err != nil {
		return nil, err
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	session, err := s.sessions.GetSession(ctx, req.UserID, sessionID)
	if err == port.ErrSessionNotFound {
		session = &domain.ConversationSession{ID: sessionID, SnapshotKey: req.SnapshotKey}
	} else if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if matched, ok := matchFAQ(snap.FAQ, req.Question); ok {
		s.recordTurn(ctx, req.UserID, session, domain.ConversationTurn{
			Question:     req.Question,
			Answer:       matched.Answer,
			Timestamp:    time.Now().UTC(),
			ContextFiles: []domain.ContextEntry{},
		})
		return &AskResult{
			Answer:          matched.Answer,
			Source:          SourceCommonQA,
			SessionID:       sessionID,
			MatchedQuestion: matched.Question,
		}, nil
	}

	history := session.History
	selected := s.selector.Select(ctx, snap, req.Question)
	answer := s.generator.Generate(ctx, req.Question, selected, snap, history)

	s.recordTurn(ctx, req.UserID, session, domain.ConversationTurn{
		Question:     req.Question,
		Answer:       answer,
		Timestamp:    time.Now().UTC(),
		ContextFiles: selected,
	})

	summary := make([]FileSelectionReason, 0, len(selected))
	for _, entry := range selected {
		summary = append(summary, FileSelectionReason{File: entry.Path, Reason: entry.Reason})
	}

	return &AskResult{
		Answer:          answer,
		Source:          SourceAIAnalysis,
		SessionID:       sessionID,
		FilesAnalyzed:   len(selected),
		AnalysisSummary: summary,
	}, nil
}

// recordTurn appends the turn, persists the session, and bumps the message
// quota. Persistence failures are logged, not surfaced; the answer already
// exists.
func (s *ChatService) recordTurn(ctx context.Context, userID string, session *domain.ConversationSession, turn domain.ConversationTurn) {
	session.Append(turn)
	if err := s.sessions.PutSession(ctx, userID, session); err != nil {
		slog.Warn("session save failed", "user", userID, "session", session.ID, "error", err)
	}
	if err := s.quotas.Increment(ctx, userID, domain.QuotaKindMessage); err != nil {
		slog.Warn("message quota increment failed", "user", userID, "error", err)
	}
}

// matchFAQ finds the first stored question similar enough to the incoming
// one. Similarity is word-set overlap, case-insensitive.
func matchFAQ(faq []domain.QAPair, question string) (domain.QAPair, bool) {
	questionWords := wordSet(question)
	if len(questionWords) == 0 {
		return domain.QAPair{}, false
	}

	for _, qa := range faq {
		qaWords := wordSet(qa.Question)

		shared := 0
		for w := range questionWords {
			if _, ok := qaWords[w]; ok {
				shared++
			}
		}
		union := len(questionWords) + len(qaWords) - shared
		if shared >= minSharedWords && union > 0 && float64(shared)/float64(union) > minJaccardOverlap {
			return qa, true
		}
	}
	return domain.QAPair{}, false
}

func wordSet(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = struct{}{}
	}
	return set
}
