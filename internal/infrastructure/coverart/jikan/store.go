package jikan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/goccy/go-json"

	"github.com/kirillkom/media-recommender/internal/infrastructure/storage/localfs"
)

// Blob stores the persisted cover cache. localfs.Storage satisfies it.
type Blob interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Save(ctx context.Context, key string, data io.Reader) error
}

// coverStore maps catalog titles to resolved cover URLs. Hits are persisted;
// misses are remembered only for the life of the process.
type coverStore struct {
	blob Blob
	key  string

	mu     sync.RWMutex
	urls   map[string]string
	misses map[string]struct{}

	saveMu sync.Mutex
}

func loadCoverStore(ctx context.Context, blob Blob, key string) (*coverStore, error) {
	s := &coverStore{
		blob:   blob,
		key:    key,
		urls:   make(map[string]string),
		misses: make(map[string]struct{}),
	}
	if blob == nil {
		return s, nil
	}

	rc, err := blob.Open(ctx, key)
	if err != nil {
		if errors.Is(err, localfs.ErrNotFound) {
			return s, nil
		}
		return nil, fmt.Errorf("open cover cache: %w", err)
	}
	defer rc.Close()

	if err := json.NewDecoder(rc).Decode(&s.urls); err != nil {
		return nil, fmt.Errorf("decode cover cache: %w", err)
	}
	if s.urls == nil {
		s.urls = make(map[string]string)
	}
	return s, nil
}

func (s *coverStore) get(title string) (url string, known bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if url, ok := s.urls[title]; ok {
		return url, true
	}
	_, miss := s.misses[title]
	return "", miss
}

func (s *coverStore) putMiss(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.misses[title] = struct{}{}
}

func (s *coverStore) put(ctx context.Context, title, url string) error {
	s.mu.Lock()
	s.urls[title] = url
	s.mu.Unlock()
	if s.blob == nil {
		return nil
	}

	// Snapshot under saveMu so a later write never loses to an older one.
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.mu.RLock()
	snapshot, err := json.Marshal(s.urls)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode cover cache: %w", err)
	}
	if err := s.blob.Save(ctx, s.key, bytes.NewReader(snapshot)); err != nil {
		return fmt.Errorf("save cover cache: %w", err)
	}
	return nil
}

func (s *coverStore) size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.urls)
}
