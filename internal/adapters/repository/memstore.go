package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/heartfuse/internal/domain/model"
)

// record IDs are unique per user, not across users
type recordKey struct {
	user, id string
}

type storedRecord struct {
	rec model.PredictionRecord
	seq uint64
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]model.User
	records map[string][]storedRecord // by user
	byKey   map[recordKey]struct{}
	seq     uint64
	opts    options
	updater metricsUpdater
}

// NewMemoryStore constructs an empty store and starts its metrics updater.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		users:   make(map[string]model.User),
		records: make(map[string][]storedRecord),
		byKey:   make(map[recordKey]struct{}),
		opts:    defaultOptions(),
	}
	for _, opt := range opts {
		opt(&s.opts)
	}
	s.updater.start(ctx, s.opts.metricsUpdateInterval, s.Count)
	return s
}

func (s *MemoryStore) PutUser(_ context.Context, u model.User) error {
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("user id is required: %w", ErrInvalidRecord)
	}
	s.mu.Lock()
	s.users[u.ID] = u
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) User(_ context.Context, id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, fmt.Errorf("user %q: %w", id, ErrNotFound)
	}
	return u, nil
}

func (s *MemoryStore) AddRecord(_ context.Context, r model.PredictionRecord) (model.PredictionRecord, error) {
	defer observe("add", time.Now())
	if strings.TrimSpace(r.UserID) == "" {
		return model.PredictionRecord{}, fmt.Errorf("user id is required: %w", ErrInvalidRecord)
	}
	r = r.Canonical()
	if r.ID == "" {
		r.ID = s.opts.newID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := recordKey{user: r.UserID, id: r.ID}
	if _, dup := s.byKey[key]; dup {
		return model.PredictionRecord{}, ErrDuplicate
	}
	s.seq++
	s.records[r.UserID] = append(s.records[r.UserID], storedRecord{rec: r, seq: s.seq})
	s.byKey[key] = struct{}{}
	return r, nil
}

func (s *MemoryStore) Records(_ context.Context, userID string) ([]model.PredictionRecord, error) {
	defer observe("list", time.Now())
	s.mu.RLock()
	stored := make([]storedRecord, len(s.records[userID]))
	copy(stored, s.records[userID])
	s.mu.RUnlock()

	sort.Slice(stored, func(i, j int) bool {
		a, b := stored[i], stored[j]
		if !a.rec.CreatedAt.Equal(b.rec.CreatedAt) {
			return a.rec.CreatedAt.After(b.rec.CreatedAt)
		}
		return a.seq > b.seq
	})
	out := make([]model.PredictionRecord, len(stored))
	for i, sr := range stored {
		out[i] = sr.rec
	}
	return out, nil
}

func (s *MemoryStore) Record(_ context.Context, userID, id string) (model.PredictionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.byKey[recordKey{user: userID, id: id}]; ok {
		for _, sr := range s.records[userID] {
			if sr.rec.ID == id {
				return sr.rec, nil
			}
		}
	}
	return model.PredictionRecord{}, fmt.Errorf("record %q: %w", id, ErrNotFound)
}

func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byKey)
}

// Close stops the metrics updater.
func (s *MemoryStore) Close() error {
	s.updater.stop()
	return nil
}
