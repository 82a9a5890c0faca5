package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepositoryURL(t *testing.T) {
	cases := []struct {
		url   string
		owner string
		name  string
	}{
		{"https://github.com/acme/widgets", "acme", "widgets"},
		{"https://github.com/acme/widgets/", "acme", "widgets"},
		{"https://github.com/acme/widgets.git", "acme", "widgets"},
		{"https://github.com/acme/widgets/tree/main/src", "acme", "widgets"},
	}
	for _, tc := range cases {
		ident, err := ParseRepositoryURL(tc.url)
		require.NoError(t, err, tc.url)
		assert.Equal(t, tc.owner, ident.Owner, tc.url)
		assert.Equal(t, tc.name, ident.Name, tc.url)
	}
}

func TestParseRepositoryURLRejectsShortPaths(t *testing.T) {
	for _, url := range []string{"https://github.com/acme", "https://github.com/", "https://github.com"} {
		_, err := ParseRepositoryURL(url)
		assert.Error(t, err, url)
	}
}

func TestSnapshotKeyIsDeterministicAndUserScoped(t *testing.T) {
	ident := RepositoryIdentity{Owner: "acme", Name: "widgets"}

	a := SnapshotKey("u1", ident)
	b := SnapshotKey("u1", ident)
	c := SnapshotKey("u2", ident)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 32)
}

func TestEligibleFilesDepthFirst(t *testing.T) {
	tree := TreeNode{
		Name: "root", Kind: NodeKindDir,
		Children: []TreeNode{
			{Name: "a.py", Path: "a.py", Kind: NodeKindFile, Eligible: true},
			{Name: "img.png", Path: "img.png", Kind: NodeKindFile},
			{Name: "src", Path: "src", Kind: NodeKindDir, Children: []TreeNode{
				{Name: "b.py", Path: "src/b.py", Kind: NodeKindFile, Eligible: true},
			}},
			{Name: "c.py", Path: "c.py", Kind: NodeKindFile, Eligible: true},
		},
	}

	assert.Equal(t, []string{"a.py", "src/b.py", "c.py"}, tree.EligibleFiles())
}

func TestSortedFilePaths(t *testing.T) {
	snap := RepositorySnapshot{Files: map[string]FileAnalysis{
		"z.py": {}, "a.py": {}, "m/n.py": {},
	}}
	assert.Equal(t, []string{"a.py", "m/n.py", "z.py"}, snap.SortedFilePaths())
}
