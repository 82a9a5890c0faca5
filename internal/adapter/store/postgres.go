package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/codecompass-ai/codecompass/internal/domain"
	"github.com/codecompass-ai/codecompass/internal/port"
)

// PostgresStore handles all relational database operations: snapshots,
// quota counters, and audit logs.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection and returns a store instance.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the tables if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			key             TEXT PRIMARY KEY,
			owner           TEXT NOT NULL,
			name            TEXT NOT NULL,
			source_url      TEXT NOT NULL,
			owner_user_id   TEXT NOT NULL,
			total_files     INT NOT NULL DEFAULT 0,
			processed_files INT NOT NULL DEFAULT 0,
			processed_at    TIMESTAMPTZ NOT NULL,
			document        JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_owner_user ON snapshots (owner_user_id, processed_at DESC)`,
		`CREATE TABLE IF NOT EXISTS user_quotas (
			user_id               TEXT PRIMARY KEY,
			repos_processed_today INT NOT NULL DEFAULT 0,
			messages_sent_today   INT NOT NULL DEFAULT 0,
			last_reset_date       TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id     TEXT NOT NULL,
			action      TEXT NOT NULL,
			resource    TEXT NOT NULL,
			resource_id TEXT NOT NULL DEFAULT '',
			details     JSONB NOT NULL DEFAULT '{}',
			ip          TEXT NOT NULL DEFAULT '',
			user_agent  TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// --- Snapshots ---

// GetSnapshot returns the full snapshot document for a key.
func (s *PostgresStore) GetSnapshot(ctx context.Context, key string) (*domain.RepositorySnapshot, error) {
	query := `SELECT document FROM snapshots WHERE key = $1`

	var doc []byte
	err := s.db.QueryRowContext(ctx, query, key).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var snap domain.RepositorySnapshot
	if err := json.Unmarshal(doc, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return &snap, nil
}

// SnapshotExists reports whether a snapshot with the key is stored.
func (s *PostgresStore) SnapshotExists(ctx context.Context, key string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM snapshots WHERE key = $1)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&exists); err != nil {
		return false, fmt.Errorf("snapshot exists: %w", err)
	}
	return exists, nil
}

// PutSnapshot stores a snapshot. An existing key is left untouched; the
// first complete processing run wins.
func (s *PostgresStore) PutSnapshot(ctx context.Context, snap *domain.RepositorySnapshot) error {
	doc, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	query := `INSERT INTO snapshots (key, owner, name, source_url, owner_user_id, total_files, processed_files, processed_at, document)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb)
	          ON CONFLICT (key) DO NOTHING`

	_, err = s.db.ExecContext(ctx, query,
		snap.Key, snap.Owner, snap.Name, snap.SourceURL, snap.OwnerUserID,
		snap.TotalEligible, snap.ProcessedFiles, snap.ProcessedAt, doc,
	)
	if err != nil {
		return fmt.Errorf("put snapshot: %w", err)
	}
	return nil
}

// ListSnapshotsByUser returns summaries of a user's snapshots, newest first.
func (s *PostgresStore) ListSnapshotsByUser(ctx context.Context, userID string) ([]domain.SnapshotSummary, error) {
	query := `SELECT key, owner, name, source_url, processed_at
	          FROM snapshots WHERE owner_user_id = $1 ORDER BY processed_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var summaries []domain.SnapshotSummary
	for rows.Next() {
		var sum domain.SnapshotSummary
		if err := rows.Scan(&sum.Key, &sum.Owner, &sum.Name, &sum.SourceURL, &sum.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// --- Quotas ---

// Usage returns the user's daily counters, resetting them first if the
// stored reset date falls behind today.
func (s *PostgresStore) Usage(ctx context.Context, userID string) (domain.QuotaUsage, error) {
	today := time.Now().UTC().Format("2006-01-02")

	query := `INSERT INTO user_quotas (user_id, repos_processed_today, messages_sent_today, last_reset_date)
	          VALUES ($1, 0, 0, $2)
	          ON CONFLICT (user_id) DO UPDATE SET
	              repos_processed_today = CASE WHEN user_quotas.last_reset_date < $2 THEN 0 ELSE user_quotas.repos_processed_today END,
	              messages_sent_today   = CASE WHEN user_quotas.last_reset_date < $2 THEN 0 ELSE user_quotas.messages_sent_today END,
	              last_reset_date       = GREATEST(user_quotas.last_reset_date, $2)
	          RETURNING repos_processed_today, messages_sent_today, last_reset_date`

	var usage domain.QuotaUsage
	err := s.db.QueryRowContext(ctx, query, userID, today).Scan(
		&usage.ReposProcessed, &usage.MessagesSent, &usage.ResetDate,
	)
	if err != nil {
		return domain.QuotaUsage{}, fmt.Errorf("get quota usage: %w", err)
	}
	return usage, nil
}

// Increment bumps the counter for the given quota kind.
func (s *PostgresStore) Increment(ctx context.Context, userID, kind string) error {
	var column string
	switch kind {
	case domain.QuotaKindRepo:
		column = "repos_processed_today"
	case domain.QuotaKindMessage:
		column = "messages_sent_today"
	default:
		return fmt.Errorf("unknown quota kind %q", kind)
	}

	today := time.Now().UTC().Format("2006-01-02")
	query := fmt.Sprintf(`INSERT INTO user_quotas (user_id, %[1]s, last_reset_date)
	          VALUES ($1, 1, $2)
	          ON CONFLICT (user_id) DO UPDATE SET
	              %[1]s = CASE WHEN user_quotas.last_reset_date < $2 THEN 1 ELSE user_quotas.%[1]s + 1 END,
	              last_reset_date = GREATEST(user_quotas.last_reset_date, $2)`, column)

	if _, err := s.db.ExecContext(ctx, query, userID, today); err != nil {
		return fmt.Errorf("increment %s quota: %w", kind, err)
	}
	return nil
}

// --- Audit Logs ---

// WriteAudit implements middleware.AuditWriter.
func (s *PostgresStore) WriteAudit(userID, action, resource, resourceID, details, ip, userAgent string) error {
	if !json.Valid([]byte(details)) {
		wrapped, _ := json.Marshal(map[string]string{"raw": details})
		details = string(wrapped)
	}
	if details == "" {
		details = "{}"
	}

	query := `INSERT INTO audit_logs (user_id, action, resource, resource_id, details, ip, user_agent)
	          VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)`
	_, err := s.db.ExecContext(context.Background(), query,
		userID, action, resource, resourceID, details, ip, userAgent,
	)
	return err
}

// ListAuditLogs returns recent audit logs with optional action filter.
func (s *PostgresStore) ListAuditLogs(ctx context.Context, limit int, action string) ([]domain.AuditLog, error) {
	query := `SELECT id, user_id, action, resource, resource_id, details::text, ip, user_agent, created_at
	          FROM audit_logs`
	args := []interface{}{}
	argIdx := 1

	if action != "" {
		query += fmt.Sprintf(" WHERE action = $%d", argIdx)
		args = append(args, action)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		var l domain.AuditLog
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.Action, &l.Resource, &l.ResourceID,
			&l.Details, &l.IP, &l.UserAgent, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
