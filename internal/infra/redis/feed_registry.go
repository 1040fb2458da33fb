package redis

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-platform-service/internal/app"
)

// FeedRegistry keeps results feeds in process and marks each watched quiz in
// Redis so other instances can tell a quiz has live watchers.
type FeedRegistry struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	feeds  map[int64]*app.Feed
}

func NewFeedRegistry(client *redis.Client, ttl time.Duration) *FeedRegistry {
	return &FeedRegistry{
		client: client,
		ttl:    ttl,
		feeds:  make(map[int64]*app.Feed),
	}
}

func (r *FeedRegistry) GetOrCreate(quizID int64) *app.Feed {
	r.mu.Lock()
	defer r.mu.Unlock()
	feed, ok := r.feeds[quizID]
	if !ok {
		feed = app.NewFeed(quizID)
		r.feeds[quizID] = feed
	}
	r.touch(context.Background(), quizID)
	return feed
}

// Get also refreshes the liveness marker, so publishing keeps it alive.
func (r *FeedRegistry) Get(quizID int64) (*app.Feed, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	feed, ok := r.feeds[quizID]
	if ok {
		r.touch(context.Background(), quizID)
	}
	return feed, ok
}

// KeepAlive re-marks every live feed at half the TTL until ctx is done, so
// idle subscribers do not let their marker expire.
func (r *FeedRegistry) KeepAlive(ctx context.Context) {
	if r.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(r.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *FeedRegistry) refresh(ctx context.Context) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for quizID := range r.feeds {
		r.touch(ctx, quizID)
	}
}

// touch sets the best-effort liveness marker.
func (r *FeedRegistry) touch(ctx context.Context, quizID int64) {
	_ = r.client.Set(ctx, r.key(quizID), "1", r.ttl).Err()
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
		_ = r.client.Del(context.Background(), r.key(quizID)).Err()
	}
}

func (r *FeedRegistry) key(quizID int64) string {
	return "quiz:feed:" + strconv.FormatInt(quizID, 10)
}
