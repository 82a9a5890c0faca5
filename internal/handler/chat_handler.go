package handler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/codecompass-ai/codecompass/internal/domain"
	"github.com/codecompass-ai/codecompass/internal/middleware"
	"github.com/codecompass-ai/codecompass/internal/port"
	"github.com/codecompass-ai/codecompass/internal/service"
)

// ChatHandler handles question answering and session endpoints.
type ChatHandler struct {
	chat     *service.ChatService
	sessions port.SessionStore
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(chat *service.ChatService, sessions port.SessionStore) *ChatHandler {
	return &ChatHandler{chat: chat, sessions: sessions}
}

// Register sets up chat routes.
func (h *ChatHandler) Register(router fiber.Router) {
	chat := router.Group("/chat")
	chat.Post("/ask", h.Ask)
	chat.Get("/sessions", h.ListSessions)
	chat.Get("/sessions/:id", h.GetSession)
}

// Ask answers a question against a processed repository.
func (h *ChatHandler) Ask(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var body struct {
		SnapshotKey string `json:"repo_id"`
		Question    string `json:"question"`
		SessionID   string `json:"session_id"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.SnapshotKey == "" || body.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Repository ID and question are required"})
	}
	c.Locals(middleware.AuditResourceIDKey, body.SnapshotKey)

	result, err := h.chat.Ask(c.Context(), service.AskRequest{
		UserID:      uc.UserID,
		SnapshotKey: body.SnapshotKey,
		SessionID:   body.SessionID,
		Question:    body.Question,
	})
	switch {
	case errors.Is(err, port.ErrQuotaExceeded):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": fmt.Sprintf("Daily message limit (%d) exceeded. Please try again tomorrow.", h.chat.MaxMessages()),
		})
	case errors.Is(err, port.ErrSnapshotNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Repository not found"})
	case err != nil:
		slog.Error("ask failed", "user", uc.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("An error occurred while processing your question: %v", err),
		})
	}

	return c.JSON(result)
}

// ListSessions returns the caller's chat sessions, optionally filtered by
// repository.
func (h *ChatHandler) ListSessions(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	sessions, err := h.sessions.ListSessions(c.Context(), uc.UserID, c.Query("snapshot_key"))
	if err != nil {
		slog.Error("list sessions failed", "user", uc.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("An error occurred while fetching chat sessions: %v", err),
		})
	}
	if sessions == nil {
		sessions = []domain.SessionSummary{}
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

// GetSession returns the full history of one session.
func (h *ChatHandler) GetSession(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	session, err := h.sessions.GetSession(c.Context(), uc.UserID, c.Params("id"))
	if errors.Is(err, port.ErrSessionNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Chat session not found"})
	}
	if err != nil {
		slog.Error("get session failed", "user", uc.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("An error occurred while fetching chat history: %v", err),
		})
	}

	return c.JSON(session)
}
