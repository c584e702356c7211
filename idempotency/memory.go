package idempotency

import (
	"context"
	"sync"
	"time"

	"touroperator-backend/models"
)

// MemoryStore is a mutex-guarded in-process Store. It backs tests and local
// development without Postgres; the mutex gives it the same atomic-insert
// semantics the unique index gives GormStore.
type MemoryStore struct {
	mu   sync.Mutex
	recs map[string]*models.IdempotencyRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]*models.IdempotencyRecord)}
}

func scopedKey(tenant, key string) string {
	return tenant + "\x00" + key
}

func (s *MemoryStore) Insert(ctx context.Context, tenant string, rec *models.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := scopedKey(tenant, rec.Key)
	if _, ok := s.recs[k]; ok {
		return ErrDuplicate
	}
	cp := *rec
	s.recs[k] = &cp
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, tenant, key string) (*models.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[scopedKey(tenant, key)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) Reclaim(ctx context.Context, tenant, key string, staleBefore, claimedAt, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[scopedKey(tenant, key)]
	if !ok || rec.Status != models.IdempotencyProcessing || !rec.ClaimedAt.Before(staleBefore) {
		return false, nil
	}
	rec.ClaimedAt = claimedAt
	rec.ExpiresAt = expiresAt
	return true, nil
}

func (s *MemoryStore) Complete(ctx context.Context, tenant, key string, statusCode int, headers []byte, body []byte, bodyOmitted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[scopedKey(tenant, key)]
	if !ok || rec.Status != models.IdempotencyProcessing {
		return ErrNotFound
	}
	rec.Status = models.IdempotencyCompleted
	rec.ResponseStatus = statusCode
	rec.ResponseHeaders = append([]byte(nil), headers...)
	rec.ResponseBody = append([]byte(nil), body...)
	rec.BodyOmitted = bodyOmitted
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, tenant, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, scopedKey(tenant, key))
	return nil
}

func (s *MemoryStore) DeleteExpired(ctx context.Context, tenant, key string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := scopedKey(tenant, key)
	if rec, ok := s.recs[k]; ok && !rec.ExpiresAt.After(now) {
		delete(s.recs, k)
	}
	return nil
}
