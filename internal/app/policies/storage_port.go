package policies

import (
	"context"
	"io"
)

// ObjectStore keeps uploaded guest documents and returns a retrievable URL.
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}
