package app

import (
	"sync"

	"quiz-platform-service/internal/domain"
)

// Feed fans out completed-submission events for a single quiz.
type Feed struct {
	quizID      int64
	mu          sync.RWMutex
	subscribers map[chan domain.SubmissionEvent]struct{}
}

// NewFeed is exported for infrastructure layers that keep feed registries.
func NewFeed(quizID int64) *Feed {
	return &Feed{
		quizID:      quizID,
		subscribers: make(map[chan domain.SubmissionEvent]struct{}),
	}
}

func (f *Feed) QuizID() int64 { return f.quizID }

// IsEmpty reports whether the feed has no subscribers.
func (f *Feed) IsEmpty() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subscribers) == 0
}

// Subscribe registers a buffered channel. The caller must invoke cancel to avoid leaks.
func (f *Feed) Subscribe() (<-chan domain.SubmissionEvent, func()) {
	ch := make(chan domain.SubmissionEvent, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers event to every subscriber. A full subscriber loses its
// oldest pending event rather than blocking the publisher.
func (f *Feed) Publish(event domain.SubmissionEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}
