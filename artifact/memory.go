package artifact

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps artifacts in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

type memObject struct {
	data     []byte
	modified time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memObject)}
}

func (s *MemoryStore) Driver() Driver { return DriverMemory }

// Put stores data under key, replacing any previous value.
func (s *MemoryStore) Put(key string, data []byte) error {
	k, err := CleanKey(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[k] = memObject{data: bytes.Clone(data), modified: time.Now().UTC()}
	return nil
}

func (s *MemoryStore) info(k string, o memObject) Info {
	return Info{Key: k, Size: int64(len(o.data)), ContentType: ContentType(k), LastModified: o.modified, URL: Link(k)}
}

func (s *MemoryStore) Head(_ context.Context, key string) (Info, error) {
	k, err := CleanKey(key)
	if err != nil {
		return Info{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[k]
	if !ok {
		return Info{}, fmt.Errorf("%s: %w", k, ErrNotFound)
	}
	return s.info(k, o), nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	info, err := s.Head(ctx, key)
	if err != nil {
		return Info{}, nil, err
	}
	s.mu.RLock()
	data := s.objects[info.Key].data
	s.mu.RUnlock()
	return info, io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryStore) List(_ context.Context, prefix string) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Info
	for k, o := range s.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, s.info(k, o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
