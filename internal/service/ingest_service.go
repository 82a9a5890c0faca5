package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/codecompass-ai/codecompass/internal/adapter/analysis"
	"github.com/codecompass-ai/codecompass/internal/domain"
	"github.com/codecompass-ai/codecompass/internal/port"
)

// Pipeline defaults.
const (
	DefaultMaxReposPerDay = 2
	DefaultFileDelay      = 100 * time.Millisecond
)

// IngestService runs the repository processing pipeline: walk, structure
// analysis, per-file analysis, FAQ synthesis, snapshot save.
type IngestService struct {
	source    port.ContentSource
	walker    *Walker
	files     *analysis.FileAnalyzer
	structure *analysis.StructureAnalyzer
	faq       *analysis.FAQSynthesizer
	snapshots port.SnapshotStore
	quotas    port.QuotaStore

	maxRepos  int
	fileDelay time.Duration
}

// IngestConfig bundles the ingest pipeline dependencies and limits.
type IngestConfig struct {
	Source    port.ContentSource
	Walker    *Walker
	Files     *analysis.FileAnalyzer
	Structure *analysis.StructureAnalyzer
	FAQ       *analysis.FAQSynthesizer
	Snapshots port.SnapshotStore
	Quotas    port.QuotaStore
	MaxRepos  int
	FileDelay time.Duration
}

// NewIngestService creates the ingest service. Zero limits select defaults.
func NewIngestService(cfg IngestConfig) *IngestService {
	if cfg.MaxRepos <= 0 {
		cfg.MaxRepos = DefaultMaxReposPerDay
	}
	if cfg.FileDelay <= 0 {
		cfg.FileDelay = DefaultFileDelay
	}
	return &IngestService{
		source:    cfg.Source,
		walker:    cfg.Walker,
		files:     cfg.Files,
		structure: cfg.Structure,
		faq:       cfg.FAQ,
		snapshots: cfg.Snapshots,
		quotas:    cfg.Quotas,
		maxRepos:  cfg.MaxRepos,
		fileDelay: cfg.FileDelay,
	}
}

// ProcessRequest is one repository processing order.
type ProcessRequest struct {
	UserID      string
	RepoURL     string
	AccessToken string
}

// Process runs the pipeline, reporting progress through emit. All failures
// are reported as terminal events on the stream; the stream ends after the
// first event carrying Error or Complete.
func (s *IngestService) Process(ctx context.Context, req ProcessRequest, emit port.ProgressFunc) {
	usage, err := s.quotas.Usage(ctx, req.UserID)
	if err != nil {
		emit(port.ProgressEvent{Error: "Failed to check usage limits: " + err.Error()})
		return
	}
	if usage.ReposProcessed >= s.maxRepos {
		emit(port.ProgressEvent{Error: fmt.Sprintf("Daily repository processing limit (%d) exceeded. Please try again tomorrow.", s.maxRepos)})
		return
	}

	ident, err := domain.ParseRepositoryURL(req.RepoURL)
	if err != nil {
		emit(port.ProgressEvent{Error: err.Error()})
		return
	}
	key := domain.SnapshotKey(req.UserID, ident)

	emit(port.ProgressEvent{
		Progress: 5, Status: "Repository info extracted",
		Log: fmt.Sprintf("Processing %s", ident), SnapshotKey: key,
	})

	exists, err := s.snapshots.SnapshotExists(ctx, key)
	if err != nil {
		emit(port.ProgressEvent{Error: "Failed to check database: " + err.Error()})
		return
	}
	if exists {
		emit(port.ProgressEvent{
			Progress: 100, Status: "Repository already processed",
			Log: "Repository found in database", SnapshotKey: key, Complete: true,
		})
		return
	}

	emit(port.ProgressEvent{Progress: 10, Status: "Fetching repository structure", Log: "Analyzing repository structure..."})

	tree, err := s.walker.Walk(ctx, ident, req.AccessToken)
	if err != nil {
		if err == port.ErrRepoNotFound {
			emit(port.ProgressEvent{Error: "Repository not found or is empty. Check URL and PAT if private."})
		} else {
			emit(port.ProgressEvent{Error: fmt.Sprintf("Failed to fetch repository structure: %v. Ensure the URL is correct and PAT is valid for private repos.", err)})
		}
		return
	}
	emit(port.ProgressEvent{
		Progress: 20, Status: "Repository structure fetched",
		Log: fmt.Sprintf("Found %d top-level items", len(tree.Children)),
	})

	emit(port.ProgressEvent{Progress: 25, Status: "Analyzing repository architecture", Log: "Analyzing overall architecture..."})
	structure := s.structure.Analyze(ctx, ident, tree)

	emit(port.ProgressEvent{Progress: 30, Status: "Identifying code files", Log: "Collecting code files for analysis..."})
	eligible := tree.EligibleFiles()

	emit(port.ProgressEvent{
		Progress: 40, Status: fmt.Sprintf("Processing %d files", len(eligible)),
		Log: fmt.Sprintf("Starting analysis of %d code files...", len(eligible)),
	})

	processed := make(map[string]domain.FileAnalysis, len(eligible))
	for i, path := range eligible {
		progress := 40
		if len(eligible) > 0 {
			progress = 40 + (i*40)/len(eligible)
		}
		emit(port.ProgressEvent{
			Progress: progress, Status: "Processing " + path,
			Log: fmt.Sprintf("Analyzing %s...", path),
		})

		content, err := s.source.FileContent(ctx, ident, path, req.AccessToken)
		if err != nil || content == "" {
			if err != nil && err != port.ErrContentUnavailable {
				emit(port.ProgressEvent{Log: fmt.Sprintf("Error processing %s: %v", path, err)})
			}
			continue
		}

		meta := s.files.ExtractMetadata(ctx, path, content)
		summary := s.files.Summarize(ctx, path, content, meta)

		processed[path] = domain.FileAnalysis{
			Path:        path,
			Content:     s.files.Truncate(content),
			Metadata:    meta,
			Summary:     summary,
			Size:        len(content),
			ProcessedAt: time.Now().UTC(),
		}

		// Brief pause to stay under upstream rate limits.
		time.Sleep(s.fileDelay)
	}

	emit(port.ProgressEvent{Progress: 80, Status: "Generating documentation", Log: "Generating common questions and documentation..."})
	faq := s.faq.Synthesize(ctx, structure, len(processed))

	emit(port.ProgressEvent{Progress: 90, Status: "Saving to database", Log: "Saving processed data to database..."})

	snap := &domain.RepositorySnapshot{
		Key:            key,
		Owner:          ident.Owner,
		Name:           ident.Name,
		SourceURL:      req.RepoURL,
		OwnerUserID:    req.UserID,
		Tree:           tree,
		Structure:      structure,
		Files:          processed,
		FAQ:            faq,
		TotalEligible:  len(eligible),
		ProcessedFiles: len(processed),
		ProcessedAt:    time.Now().UTC(),
	}
	if err := s.snapshots.PutSnapshot(ctx, snap); err != nil {
		emit(port.ProgressEvent{Error: "Failed to save to database: " + err.Error()})
		return
	}

	if err := s.quotas.Increment(ctx, req.UserID, domain.QuotaKindRepo); err != nil {
		slog.Warn("repo quota increment failed", "user", req.UserID, "error", err)
	}

	emit(port.ProgressEvent{
		Progress: 100, Status: "Processing complete!",
		Log: "Repository successfully processed and saved!", SnapshotKey: key, Complete: true,
	})
}
