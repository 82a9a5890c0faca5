// Package handler contains the HTTP endpoints.
package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/codecompass-ai/codecompass/internal/domain"
	"github.com/codecompass-ai/codecompass/internal/middleware"
	"github.com/codecompass-ai/codecompass/internal/port"
	"github.com/codecompass-ai/codecompass/internal/service"
)

// IngestHandler handles repository processing endpoints.
type IngestHandler struct {
	ingest *service.IngestService
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(ingest *service.IngestService) *IngestHandler {
	return &IngestHandler{ingest: ingest}
}

// Register sets up ingest routes.
func (h *IngestHandler) Register(router fiber.Router) {
	router.Post("/repos/process", h.ProcessRepo)
}

// ProcessRepo runs the processing pipeline, streaming progress as SSE. The
// stream ends after the first event carrying error or complete.
func (h *IngestHandler) ProcessRepo(c fiber.Ctx) error {
	uc := middleware.GetUserContext(c)
	if uc == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var body struct {
		RepoURL   string `json:"repo_url"`
		IsPrivate bool   `json:"is_private"`
		PatToken  string `json:"pat_token"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.RepoURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "repo_url is required"})
	}
	if body.IsPrivate && body.PatToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Personal Access Token is required for private repositories."})
	}
	if ident, err := domain.ParseRepositoryURL(body.RepoURL); err == nil {
		c.Locals(middleware.AuditResourceIDKey, domain.SnapshotKey(uc.UserID, ident))
	}

	req := service.ProcessRequest{
		UserID:      uc.UserID,
		RepoURL:     body.RepoURL,
		AccessToken: body.PatToken,
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	return c.SendStreamWriter(func(w *bufio.Writer) {
		emit := func(event port.ProgressEvent) {
			data, err := json.Marshal(event)
			if err != nil {
				slog.Error("progress event marshal failed", "error", err)
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			w.Flush()
		}

		// The pipeline runs to completion even if the client goes away; a
		// half-processed repository would otherwise never finish.
		h.ingest.Process(context.Background(), req, emit)
	})
}
