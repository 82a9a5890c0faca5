package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecompass-ai/codecompass/internal/domain"
	"github.com/codecompass-ai/codecompass/internal/port"
)

var walkIdent = domain.RepositoryIdentity{Owner: "acme", Name: "widgets"}

func TestWalkBuildsTaggedTree(t *testing.T) {
	source := &fakeSource{listings: map[string][]port.TreeEntry{
		"": {
			{Name: "main.py", Path: "main.py", Kind: "file", Size: 40},
			{Name: "logo.png", Path: "logo.png", Kind: "file", Size: 9000},
			{Name: "src", Path: "src", Kind: "dir"},
		},
		"src": {
			{Name: "util.py", Path: "src/util.py", Kind: "file", Size: 12},
		},
	}}
	w := NewWalker(source, NewClassifier(), 0)

	tree, err := w.Walk(context.Background(), walkIdent, "tok")
	require.NoError(t, err)
	require.Len(t, tree.Children, 3)

	assert.True(t, tree.Children[0].Eligible)
	assert.False(t, tree.Children[1].Eligible)

	src := tree.Children[2]
	require.Len(t, src.Children, 1)
	assert.Equal(t, "src/util.py", src.Children[0].Path)
	assert.True(t, src.Children[0].Eligible)

	assert.Equal(t, []string{"main.py", "src/util.py"}, tree.EligibleFiles())
	assert.Equal(t, "tok", source.lastToken)
}

func TestWalkEmptyRootIsNotFound(t *testing.T) {
	source := &fakeSource{listings: map[string][]port.TreeEntry{}}
	w := NewWalker(source, NewClassifier(), 0)

	_, err := w.Walk(context.Background(), walkIdent, "")
	assert.ErrorIs(t, err, port.ErrRepoNotFound)
}

func TestWalkListFailureIsFatal(t *testing.T) {
	source := &fakeSource{
		listings: map[string][]port.TreeEntry{
			"": {{Name: "src", Path: "src", Kind: "dir"}},
		},
		listErr: map[string]error{
			"src": &port.UpstreamError{StatusCode: 403, Body: "rate limited"},
		},
	}
	w := NewWalker(source, NewClassifier(), 0)

	_, err := w.Walk(context.Background(), walkIdent, "")
	require.Error(t, err)
	var upstream *port.UpstreamError
	assert.ErrorAs(t, err, &upstream)
}

func TestWalkPrunesBeyondMaxDepth(t *testing.T) {
	// A chain d0/d1/d2/... deeper than the limit.
	listings := map[string][]port.TreeEntry{}
	path := ""
	for depth := 0; depth < 6; depth++ {
		child := fmt.Sprintf("d%d", depth)
		if path != "" {
			child = path + "/" + child
		}
		listings[path] = []port.TreeEntry{
			{Name: fmt.Sprintf("d%d", depth), Path: child, Kind: "dir"},
			{Name: "f.py", Path: child + "-f.py", Kind: "file", Size: 1},
		}
		path = child
	}
	listings[path] = []port.TreeEntry{{Name: "deep.py", Path: path + "/deep.py", Kind: "file", Size: 1}}

	source := &fakeSource{listings: listings}
	w := NewWalker(source, NewClassifier(), 3)

	tree, err := w.Walk(context.Background(), walkIdent, "")
	require.NoError(t, err)

	// Root plus directories at depth 1..3 are listed; the dir pushed at
	// depth 4 is never expanded.
	assert.Equal(t, 4, source.listCalls)

	node := tree
	for depth := 0; depth < 4; depth++ {
		require.NotEmpty(t, node.Children, "depth %d", depth)
		node = node.Children[0]
		assert.Equal(t, domain.NodeKindDir, node.Kind)
	}
	assert.Empty(t, node.Children)
}
