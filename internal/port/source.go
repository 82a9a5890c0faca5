package port

import (
	"context"

	"github.com/codecompass-ai/codecompass/internal/domain"
)

// TreeEntry is one item of a repository contents listing.
type TreeEntry struct {
	Name string
	Path string
	Kind string // file, dir
	Size int64
}

// ContentSource abstracts the remote repository host. Implementations are
// stateless wrappers over the host's contents API.
type ContentSource interface {
	// List returns the entries under path. A path absent upstream yields an
	// empty slice and a nil error; any other failure is an *UpstreamError.
	List(ctx context.Context, ident domain.RepositoryIdentity, path, token string) ([]TreeEntry, error)

	// FileContent returns the decoded content of a file. Missing or
	// undecodable content yields ErrContentUnavailable.
	FileContent(ctx context.Context, ident domain.RepositoryIdentity, path, token string) (string, error)
}
