package cdn

import (
	"sync"
	"time"

	"github.com/jonesrussell/storefront-admin/internal/domain"
)

// BatchStore holds the single most recent purge batch for one-click replay.
// Last write wins; the slot lives in process memory only, so a restart
// silently loses replay capability.
type BatchStore struct {
	mu   sync.Mutex
	last *domain.PurgeBatch
}

// NewBatchStore creates an empty batch store.
func NewBatchStore() *BatchStore {
	return &BatchStore{}
}

// Record overwrites the slot with a new batch. The URL slice is copied so
// callers can keep mutating theirs.
func (s *BatchStore) Record(urls []string) {
	copied := make([]string, len(urls))
	copy(copied, urls)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &domain.PurgeBatch{URLs: copied, CreatedAt: time.Now()}
}

// Last returns the recorded batch, or false when nothing has been recorded
// since the process started.
func (s *BatchStore) Last() (*domain.PurgeBatch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil, false
	}
	return s.last, true
}
