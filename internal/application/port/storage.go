package port

import "context"

// FileStorage defines the durable storage contract for claim attachments.
// Store returns a URL that later resolves the same content; Delete is
// best-effort cleanup.
type FileStorage interface {
	Store(ctx context.Context, name string, content []byte) (url string, err error)
	Delete(ctx context.Context, url string) error
}
