// Package objectstore reads and writes image artifacts in an object store.
//
// S3Store is the production implementation. MemoryStore backs tests and
// local dry runs. Both report a missing object as ErrNotFound so callers can
// tell "absent" apart from every other storage fault.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrNotFound is returned (wrapped) when the requested key does not exist.
var ErrNotFound = errors.New("object not found")

// Store is the subset of object storage operations the pipeline needs.
type Store interface {
	// Get returns the full object body.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put creates or overwrites key.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// List returns every key under prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// URL returns the public virtual-hosted-style URL of key.
func URL(bucket, region, key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
}

// CacheBustedURL is URL with a ?t=<unix millis> suffix so browsers and CDNs
// refetch an object that was overwritten in place.
func CacheBustedURL(bucket, region, key string, t time.Time) string {
	return URL(bucket, region, key) + "?t=" + strconv.FormatInt(t.UnixMilli(), 10)
}
