package memory

import (
	"sync"

	"quiz-platform-service/internal/app"
)

// FeedRegistry is an in-memory implementation of app.FeedRegistry.
type FeedRegistry struct {
	mu    sync.RWMutex
	feeds map[int64]*app.Feed
}

func NewFeedRegistry() *FeedRegistry {
	return &FeedRegistry{
		feeds: make(map[int64]*app.Feed),
	}
}

func (r *FeedRegistry) GetOrCreate(quizID int64) *app.Feed {
	r.mu.Lock()
	defer r.mu.Unlock()
	if feed, ok := r.feeds[quizID]; ok {
		return feed
	}
	feed := app.NewFeed(quizID)
	r.feeds[quizID] = feed
	return feed
}

func (r *FeedRegistry) Get(quizID int64) (*app.Feed, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	feed, ok := r.feeds[quizID]
	return feed, ok
}

func (r *FeedRegistry) DeleteIfEmpty(quizID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	feed, ok := r.feeds[quizID]
	if !ok {
		return
	}
	if feed.IsEmpty() {
		delete(r.feeds, quizID)
	}
}
