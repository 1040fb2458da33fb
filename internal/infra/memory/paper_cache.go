package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-platform-service/internal/domain"
)

// PaperLoader builds a quiz paper from the backing store.
type PaperLoader interface {
	LoadPaper(ctx context.Context, quizID int64) (domain.Paper, error)
}

// PaperCache caches quiz papers with TTL to avoid rebuilding them on every request.
type PaperCache struct {
	loader PaperLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[int64]cachedPaper
	// gen is bumped by Invalidate; a load only stores its result if gen did not move.
	gen map[int64]uint64
}

type cachedPaper struct {
	paper     domain.Paper
	expiresAt time.Time
}

func NewPaperCache(loader PaperLoader, ttl time.Duration) *PaperCache {
	return &PaperCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int64]cachedPaper),
		gen:    make(map[int64]uint64),
	}
}

func (c *PaperCache) GetPaper(ctx context.Context, quizID int64) (domain.Paper, error) {
	if paper, ok := c.lookup(quizID); ok {
		return paper, nil
	}

	result, err, _ := c.sf.Do(strconv.FormatInt(quizID, 10), func() (interface{}, error) {
		if paper, ok := c.lookup(quizID); ok {
			return paper, nil
		}

		c.mu.RLock()
		gen := c.gen[quizID]
		c.mu.RUnlock()

		paper, err := c.loader.LoadPaper(ctx, quizID)
		if err != nil {
			return domain.Paper{}, err
		}

		c.mu.Lock()
		if c.gen[quizID] == gen {
			c.cache[quizID] = cachedPaper{
				paper:     paper,
				expiresAt: c.clock().Add(c.ttlWithJitter()),
			}
		}
		c.mu.Unlock()
		return paper, nil
	})
	if err != nil {
		return domain.Paper{}, err
	}
	return result.(domain.Paper), nil
}

// Invalidate drops the cached paper so the next read reloads it. A load already
// in flight still answers its callers but does not repopulate the cache.
func (c *PaperCache) Invalidate(_ context.Context, quizID int64) {
	c.mu.Lock()
	delete(c.cache, quizID)
	c.gen[quizID]++
	c.mu.Unlock()
	c.sf.Forget(strconv.FormatInt(quizID, 10))
}

func (c *PaperCache) lookup(quizID int64) (domain.Paper, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[quizID]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.Paper{}, false
	}
	return entry.paper, true
}

func (c *PaperCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
