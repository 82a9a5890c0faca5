package domain

// UserContext is the authenticated user context injected into request
// handlers by the JWT middleware. Token issuance lives in the external
// identity service; only validation happens here.
type UserContext struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Quota kinds tracked per user per day.
const (
	QuotaKindRepo    = "repo"
	QuotaKindMessage = "message"
)

// QuotaUsage is a user's consumption against the daily limits. Counters reset
// when ResetDate falls behind the current day.
type QuotaUsage struct {
	ReposProcessed int    `json:"repos_processed_today"`
	MessagesSent   int    `json:"messages_sent_today"`
	ResetDate      string `json:"last_reset_date"` // YYYY-MM-DD
}
