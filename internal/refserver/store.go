// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package refserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/leadcam/internal/cache"
	"github.com/ManuGH/leadcam/internal/platform"
	"github.com/google/uuid"
)

// DefaultMaxTTL caps how long the backing store keeps a reference that is
// never revoked.
const DefaultMaxTTL = 10 * time.Minute

// Store implements platform.References on top of a BlobCache. References are
// URLs under baseURL served by Server.
type Store struct {
	blobs   cache.BlobCache
	baseURL string
	maxTTL  time.Duration
}

// NewStore creates a reference store. baseURL is e.g. "http://127.0.0.1:8089".
func NewStore(blobs cache.BlobCache, baseURL string, maxTTL time.Duration) *Store {
	if maxTTL <= 0 {
		maxTTL = DefaultMaxTTL
	}
	return &Store{blobs: blobs, baseURL: strings.TrimRight(baseURL, "/"), maxTTL: maxTTL}
}

// SetBaseURL updates the URL prefix once the server address is known.
func (s *Store) SetBaseURL(u string) { s.baseURL = strings.TrimRight(u, "/") }

func (s *Store) CreateTemporaryReference(data []byte, mimeType string) (platform.Reference, error) {
	id := uuid.NewString()
	if err := s.blobs.Put(context.Background(), id, cache.Item{MimeType: mimeType, Data: data}, s.maxTTL); err != nil {
		return "", fmt.Errorf("store reference: %w", err)
	}
	return platform.Reference(s.baseURL + "/refs/" + id), nil
}

func (s *Store) RevokeTemporaryReference(ref platform.Reference) error {
	id, ok := s.ID(ref)
	if !ok {
		return fmt.Errorf("unknown reference %q", ref)
	}
	return s.blobs.Delete(context.Background(), id)
}

// ID extracts the cache key from a reference.
func (s *Store) ID(ref platform.Reference) (string, bool) {
	_, id, ok := strings.Cut(string(ref), "/refs/")
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Read returns the bytes behind a live reference.
func (s *Store) Read(ctx context.Context, ref platform.Reference) (cache.Item, error) {
	id, ok := s.ID(ref)
	if !ok {
		return cache.Item{}, cache.ErrNotFound
	}
	return s.blobs.Get(ctx, id)
}

var _ platform.References = (*Store)(nil)
