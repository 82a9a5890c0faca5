// Package service wires the ingestion pipeline and the question answering
// flow on top of the ports.
package service

import (
	"path/filepath"
	"strings"
)

// Classifier decides which files are worth analyzing, by extension.
type Classifier struct {
	extensions map[string]struct{}
}

// NewClassifier returns a classifier with the built-in code extension
// allow-list.
func NewClassifier() *Classifier {
	exts := []string{
		".py", ".js", ".jsx", ".ts", ".tsx", ".java", ".cpp", ".c", ".h", ".hpp",
		".go", ".rs", ".php", ".rb", ".swift", ".kt", ".cs", ".scala", ".clj",
		".sh", ".bash", ".ps1", ".sql", ".html", ".css", ".scss", ".sass",
		".vue", ".svelte", ".dart", ".r", ".m", ".pl", ".lua", ".json", ".yaml", ".yml",
	}
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		set[ext] = struct{}{}
	}
	return &Classifier{extensions: set}
}

// Eligible reports whether the file at path should be analyzed.
func (c *Classifier) Eligible(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := c.extensions[ext]
	return ok
}
