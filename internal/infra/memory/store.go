package memory

import (
	"sync"
	"time"

	"quiz-platform-service/internal/domain"
)

// QueueRecord mirrors a row of the submission queue audit table.
type QueueRecord struct {
	ID           int64
	SubmissionID int64
	EnqueuedAt   time.Time
}

// Store is an in-memory implementation of the app repositories.
// A single lock serialises writers, which makes every multi-step operation atomic.
type Store struct {
	mu    sync.RWMutex
	clock func() time.Time
	seq   map[string]int64

	users       map[int64]domain.User
	quizzes     map[int64]domain.Quiz
	questions   map[int64]domain.Question
	options     map[int64]domain.Option
	submissions map[int64]domain.Submission
	answers     map[int64]domain.Answer
	queue       []QueueRecord
}

func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock allows deterministic timestamps in tests.
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{
		clock:       now,
		seq:         make(map[string]int64),
		users:       make(map[int64]domain.User),
		quizzes:     make(map[int64]domain.Quiz),
		questions:   make(map[int64]domain.Question),
		options:     make(map[int64]domain.Option),
		submissions: make(map[int64]domain.Submission),
		answers:     make(map[int64]domain.Answer),
	}
}

// Queue returns a copy of the submission queue records.
func (s *Store) Queue() []QueueRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]QueueRecord, len(s.queue))
	copy(out, s.queue)
	return out
}

// nextLocked hands out auto-increment identifiers per table.
func (s *Store) nextLocked(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}
