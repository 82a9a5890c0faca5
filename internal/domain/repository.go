package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// RepositoryIdentity is the (owner, name) pair identifying a repository on
// the remote host.
type RepositoryIdentity struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

func (r RepositoryIdentity) String() string {
	return r.Owner + "/" + r.Name
}

// ParseRepositoryURL extracts owner and name from a GitHub-style repository
// URL, tolerating trailing slashes and .git suffixes.
func ParseRepositoryURL(rawURL string) (RepositoryIdentity, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return RepositoryIdentity{}, fmt.Errorf("invalid repository URL: %w", err)
	}

	var parts []string
	for _, p := range strings.Split(strings.Trim(parsed.Path, "/"), "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 2 {
		return RepositoryIdentity{}, fmt.Errorf("invalid repository URL format, expected https://github.com/owner/repo")
	}

	return RepositoryIdentity{
		Owner: parts[0],
		Name:  strings.TrimSuffix(parts[1], ".git"),
	}, nil
}

// SnapshotKey derives the deterministic snapshot identifier for a repository
// processed by a given user. Scoping the key by user keeps snapshots private
// per account; the hash makes re-processing the same repo a dedup hit.
func SnapshotKey(userID string, ident RepositoryIdentity) string {
	sum := md5.Sum([]byte(userID + "/" + ident.Owner + "/" + ident.Name))
	return hex.EncodeToString(sum[:])
}

// Tree node kinds.
const (
	NodeKindFile = "file"
	NodeKindDir  = "dir"
)

// TreeNode is one entry in the repository structure tree. Directories carry
// children; files carry the eligibility tag set during the walk.
type TreeNode struct {
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	Kind     string     `json:"type"`
	Size     int64      `json:"size"`
	Eligible bool       `json:"processable,omitempty"`
	Children []TreeNode `json:"children,omitempty"`
}

// EligibleFiles returns the paths of all eligible files in depth-first order.
func (n TreeNode) EligibleFiles() []string {
	var paths []string
	var visit func(node TreeNode)
	visit = func(node TreeNode) {
		if node.Kind == NodeKindFile && node.Eligible {
			paths = append(paths, node.Path)
			return
		}
		for _, child := range node.Children {
			visit(child)
		}
	}
	visit(n)
	return paths
}

// FileMetadata is the structured metadata extracted from a single file.
type FileMetadata struct {
	Functions    []string `json:"functions"`
	Classes      []string `json:"classes"`
	Imports      []string `json:"imports"`
	MainPurpose  string   `json:"main_purpose"`
	KeyConcepts  []string `json:"key_concepts"`
	Dependencies []string `json:"dependencies"`
}

// FileAnalysis is the complete per-file analysis record. It is produced once
// per file per snapshot and never mutated afterwards.
type FileAnalysis struct {
	Path        string       `json:"path"`
	Content     string       `json:"content"` // truncated to the content budget
	Metadata    FileMetadata `json:"metadata"`
	Summary     string       `json:"summary"`
	Size        int          `json:"size"`
	ProcessedAt time.Time    `json:"processed_at"`
}

// StructureAnalysis holds the whole-repository architectural metadata.
// All fields are best-effort; Error marks a degraded analysis.
type StructureAnalysis struct {
	ArchitectureType   string   `json:"architecture_type,omitempty"`
	MainTechnologies   []string `json:"main_technologies,omitempty"`
	ProjectStructure   string   `json:"project_structure,omitempty"`
	EntryPoints        []string `json:"entry_points,omitempty"`
	BuildSystem        string   `json:"build_system,omitempty"`
	TestingApproach    string   `json:"testing_approach,omitempty"`
	DocumentationFiles []string `json:"documentation_files,omitempty"`
	KeyDirectories     []string `json:"key_directories,omitempty"`
	Error              string   `json:"error,omitempty"`
}

// QAPair is one synthesized question/answer entry.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// RepositorySnapshot aggregates everything produced by one processing run.
// Once persisted it is write-once: re-processing the same key is
// short-circuited, never merged.
type RepositorySnapshot struct {
	Key            string                  `json:"key"`
	Owner          string                  `json:"owner"`
	Name           string                  `json:"repo"`
	SourceURL      string                  `json:"source_url"`
	OwnerUserID    string                  `json:"owner_user_id"`
	Tree           TreeNode                `json:"tree"`
	Structure      StructureAnalysis       `json:"structure_summary"`
	Files          map[string]FileAnalysis `json:"files"`
	FAQ            []QAPair                `json:"common_qa"`
	TotalEligible  int                     `json:"total_files"`
	ProcessedFiles int                     `json:"processed_files"`
	ProcessedAt    time.Time               `json:"processed_at"`
}

// SortedFilePaths returns the snapshot's file paths in lexical order, the
// canonical ordering for digests and fallback selection.
func (s *RepositorySnapshot) SortedFilePaths() []string {
	paths := make([]string, 0, len(s.Files))
	for p := range s.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// SnapshotSummary is the listing view of a stored snapshot.
type SnapshotSummary struct {
	Key         string    `json:"repo_id"`
	Owner       string    `json:"owner"`
	Name        string    `json:"repo"`
	SourceURL   string    `json:"source_url"`
	ProcessedAt time.Time `json:"processed_at"`
}
