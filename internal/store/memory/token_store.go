// Package memory provides in-process store implementations. They back unit
// tests and the once mode when no database is configured.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/alanyoungcy/poolscout/internal/domain"
)

// TokenStore is a mutex-guarded map keyed by normalized address.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]domain.TokenRecord

	// Now is the clock used for horizon comparisons. Tests override it.
	Now func() time.Time
}

// NewTokenStore creates an empty in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		tokens: make(map[string]domain.TokenRecord),
		Now:    time.Now,
	}
}

func (s *TokenStore) Upsert(_ context.Context, rec domain.TokenRecord) (domain.TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.NormalizeAddress(rec.Address)
	rec.Address = key
	now := s.Now()
	rec.LastUpdated = now
	if existing, ok := s.tokens[key]; ok {
		// The first-seen timestamp is kept, and the age is recomputed
		// from it so the stored age never moves backwards.
		rec.DetectedAt = existing.DetectedAt
		rec.AgeMinutes = int(now.Sub(existing.DetectedAt).Minutes())
	}
	s.tokens[key] = rec
	return rec, nil
}

func (s *TokenStore) Exists(_ context.Context, address string, freshness time.Duration) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.tokens[domain.NormalizeAddress(address)]
	if !ok {
		return false, nil
	}
	return rec.DetectedAt.After(s.Now().Add(-freshness)), nil
}

func (s *TokenStore) QueryTop(_ context.Context, limit int, freshness time.Duration) ([]domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := s.Now().Add(-freshness)
	var out []domain.TokenRecord
	for _, rec := range s.tokens {
		if rec.DetectedAt.After(cutoff) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].DetectedAt.After(out[j].DetectedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *TokenStore) AgeAllWithin(_ context.Context, freshness time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.Now()
	cutoff := now.Add(-freshness)
	var n int64
	for key, rec := range s.tokens {
		if !rec.DetectedAt.After(cutoff) {
			continue
		}
		rec.AgeMinutes = int(now.Sub(rec.DetectedAt).Minutes())
		rec.LastUpdated = now
		s.tokens[key] = rec
		n++
	}
	return n, nil
}

func (s *TokenStore) ListOlderThan(_ context.Context, expiry time.Duration) ([]domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := s.Now().Add(-expiry)
	var out []domain.TokenRecord
	for _, rec := range s.tokens {
		if !rec.DetectedAt.After(cutoff) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DetectedAt.Before(out[j].DetectedAt)
	})
	return out, nil
}

func (s *TokenStore) ExpireOlderThan(_ context.Context, expiry time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.Now().Add(-expiry)
	var n int64
	for key, rec := range s.tokens {
		if !rec.DetectedAt.After(cutoff) {
			delete(s.tokens, key)
			n++
		}
	}
	return n, nil
}

// Len reports the number of stored records.
func (s *TokenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}

// Get returns the stored record for an address, if present.
func (s *TokenStore) Get(address string) (domain.TokenRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.tokens[domain.NormalizeAddress(address)]
	return rec, ok
}

var _ domain.TokenStore = (*TokenStore)(nil)
