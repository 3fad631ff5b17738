// Package artifact serves the static dashboard assets (word-cloud mask
// images, the LDAvis page) from a blob store.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"time"
)

// Driver identifies a store backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"     // local directory (default)
	DriverS3         Driver = "s3"     // S3 / MinIO compatible
	DriverMemory     Driver = "memory" // tests
)

// Well-known artifact keys. The masks are silhouettes the word clouds are
// drawn into.
const (
	KeyTattooMask     = "flor_img_white.png"
	KeyChargeMask     = "florida_text_5.png"
	KeyTattooTopicsUI = "tattoo_pyLDAvis.html"
)

// ServableExtensions are the file types Restrict lets through. Data files
// sharing the store root (parquet, csv, sqlite) are never served.
var ServableExtensions = []string{".png", ".jpg", ".jpeg", ".svg", ".html"}

var (
	// ErrNotFound is returned for a key the store does not hold.
	ErrNotFound = errors.New("artifact not found")

	// ErrInvalidKey is returned for keys that escape the store root.
	ErrInvalidKey = errors.New("invalid artifact key")
)

// Info describes a stored artifact.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"sizeBytes"`
	ContentType  string    `json:"contentType,omitempty"`
	LastModified time.Time `json:"lastModified"`
	URL          string    `json:"url,omitempty"`
}

// Store reads artifacts.
type Store interface {
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Head(ctx context.Context, key string) (Info, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

// CleanKey normalises a request key and rejects traversal.
func CleanKey(key string) (string, error) {
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	clean := path.Clean(key)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return clean, nil
}

// ContentType guesses a MIME type from the key's extension.
func ContentType(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Link returns the dashboard URL of an artifact.
func Link(key string) string {
	return "/artifacts/" + strings.TrimPrefix(key, "/")
}

// Servable reports whether key has one of ServableExtensions.
func Servable(key string) bool {
	ext := strings.ToLower(path.Ext(key))
	for _, e := range ServableExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Restrict wraps a store so that only Servable keys can be read or listed.
// Other keys report ErrNotFound.
func Restrict(s Store) Store {
	if r, ok := s.(*restricted); ok {
		return r
	}
	return &restricted{Store: s}
}

type restricted struct {
	Store
}

func (r *restricted) Head(ctx context.Context, key string) (Info, error) {
	if !Servable(key) {
		return Info{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return r.Store.Head(ctx, key)
}

func (r *restricted) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	if !Servable(key) {
		return Info{}, nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return r.Store.Get(ctx, key)
}

func (r *restricted) List(ctx context.Context, prefix string) ([]Info, error) {
	infos, err := r.Store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := infos[:0:0]
	for _, info := range infos {
		if Servable(info.Key) {
			out = append(out, info)
		}
	}
	return out, nil
}
