package domain

import "time"

// ContextEntry packages one selected file for inclusion in an
// answer-generation prompt.
type ContextEntry struct {
	Path     string       `json:"path"`
	Summary  string       `json:"summary"`
	Content  string       `json:"content"`
	Metadata FileMetadata `json:"metadata"`
	Reason   string       `json:"reason"`
}

// ConversationTurn is one answered question, with the file contexts it used.
type ConversationTurn struct {
	Question     string         `json:"question"`
	Answer       string         `json:"answer"`
	Timestamp    time.Time      `json:"timestamp"`
	ContextFiles []ContextEntry `json:"context_files"`
}

// MaxHistoryTurns bounds per-session conversation history. The window slides:
// new turns are always accepted and the oldest are evicted.
const MaxHistoryTurns = 10

// ConversationSession is the bounded chat history for one (user, session)
// pair against one snapshot.
type ConversationSession struct {
	ID          string             `json:"session_id"`
	SnapshotKey string             `json:"snapshot_key"`
	History     []ConversationTurn `json:"history"`
}

// Append adds a turn, keeping only the most recent MaxHistoryTurns.
func (s *ConversationSession) Append(turn ConversationTurn) {
	s.History = append(s.History, turn)
	if len(s.History) > MaxHistoryTurns {
		s.History = s.History[len(s.History)-MaxHistoryTurns:]
	}
}

// SessionSummary is the listing view of a stored session.
type SessionSummary struct {
	ID            string    `json:"session_id"`
	SnapshotKey   string    `json:"snapshot_key"`
	FirstQuestion string    `json:"first_question,omitempty"`
	LastActivity  time.Time `json:"last_message_timestamp,omitempty"`
}
