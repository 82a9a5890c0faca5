package handler

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/codecompass-ai/codecompass/internal/domain"
	"github.com/codecompass-ai/codecompass/internal/middleware"
	"github.com/codecompass-ai/codecompass/internal/port"
)

// RepoHandler handles snapshot listing and quota endpoints.
type RepoHandler struct {
	snapshots   port.SnapshotStore
	quotas      port.QuotaStore
	maxRepos    int
	maxMessages int
}

// NewRepoHandler creates a new repo handler.
func NewRepoHandler(snapshots port.SnapshotStore, quotas port.QuotaStore, maxRepos, maxMessages int) *RepoHandler {
	return &RepoHandler{
		snapshots:   snapshots,
		quotas:      quotas,
		maxRepos:    maxRepos,
		maxMessages: maxMessages,
	}
}

// Register sets up repo routes.
func (h *RepoHandler) Register(router fiber.Router) {
	router.Get("/repos", h.ListRepos)
	router.Get("/me/limits", h.GetLimits)
}

// ListRepos returns the caller's processed repositories, newest first.
func (h *RepoHandler) ListRepos(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	repos, err := h.snapshots.ListSnapshotsByUser(c.Context(), uc.UserID)
	if err != nil {
		slog.Error("list repos failed", "user", uc.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("An error occurred while fetching processed repositories: %v", err),
		})
	}
	if repos == nil {
		repos = []domain.SnapshotSummary{}
	}

	return c.JSON(fiber.Map{"repos": repos})
}

// GetLimits returns the caller's daily usage against the configured limits.
func (h *RepoHandler) GetLimits(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	usage, err := h.quotas.Usage(c.Context(), uc.UserID)
	if err != nil {
		slog.Error("get limits failed", "user", uc.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"repos_processed_today": usage.ReposProcessed,
		"messages_sent_today":   usage.MessagesSent,
		"max_repos_per_day":     h.maxRepos,
		"max_messages_per_day":  h.maxMessages,
	})
}
