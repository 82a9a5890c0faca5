package service

import (
	"context"
	"fmt"

	"github.com/codecompass-ai/codecompass/internal/domain"
	"github.com/codecompass-ai/codecompass/internal/port"
)

// DefaultMaxWalkDepth bounds the tree walk.
const DefaultMaxWalkDepth = 30

// Walker builds the repository tree from the content source, tagging
// eligible files along the way.
type Walker struct {
	source     port.ContentSource
	classifier *Classifier
	maxDepth   int
}

// NewWalker creates a walker. maxDepth <= 0 selects the default.
func NewWalker(source port.ContentSource, classifier *Classifier, maxDepth int) *Walker {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxWalkDepth
	}
	return &Walker{source: source, classifier: classifier, maxDepth: maxDepth}
}

type pendingDir struct {
	node  *domain.TreeNode
	depth int
}

// Walk lists the repository breadth-limited to maxDepth levels of
// directories. Directories beyond the limit stay in the tree as empty
// nodes. An empty root listing means the repository does not exist or has
// no contents; any listing failure below the root is fatal.
func (w *Walker) Walk(ctx context.Context, ident domain.RepositoryIdentity, token string) (domain.TreeNode, error) {
	root := domain.TreeNode{Name: ident.Name, Kind: domain.NodeKindDir}

	stack := []pendingDir{{node: &root, depth: 0}}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := w.source.List(ctx, ident, current.node.Path, token)
		if err != nil {
			return domain.TreeNode{}, fmt.Errorf("list %q: %w", current.node.Path, err)
		}
		if current.depth == 0 && len(entries) == 0 {
			return domain.TreeNode{}, port.ErrRepoNotFound
		}

		// Children is sized once; pointers into it stay valid while the
		// subdirectories wait on the stack.
		current.node.Children = make([]domain.TreeNode, len(entries))
		for i, entry := range entries {
			child := domain.TreeNode{
				Name: entry.Name,
				Path: entry.Path,
				Kind: entry.Kind,
				Size: entry.Size,
			}
			if entry.Kind == domain.NodeKindFile && w.classifier.Eligible(entry.Path) {
				child.Eligible = true
			}
			current.node.Children[i] = child
		}

		if current.depth >= w.maxDepth {
			continue
		}
		// Reverse order keeps the walk depth-first in listing order.
		for i := len(entries) - 1; i >= 0; i-- {
			if current.node.Children[i].Kind == domain.NodeKindDir {
				stack = append(stack, pendingDir{node: &current.node.Children[i], depth: current.depth + 1})
			}
		}
	}

	return root, nil
}
