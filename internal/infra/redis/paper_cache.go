package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-platform-service/internal/domain"
	"quiz-platform-service/internal/logger"
)

// PaperLoader builds a quiz paper from the backing store.
type PaperLoader interface {
	LoadPaper(ctx context.Context, quizID int64) (domain.Paper, error)
}

// genTTL bounds how long an invalidation counter outlives its last bump.
const genTTL = 24 * time.Hour

var errStalePaper = errors.New("paper invalidated during load")

// PaperCache keeps rendered quiz papers in Redis as JSON and falls back to a
// loader on cache miss.
// Papers are stored as: SET quiz:{quizID}:paper {json} EX {ttl}
// Invalidations bump:   INCR quiz:{quizID}:paper:gen
type PaperCache struct {
	client *redis.Client
	loader PaperLoader
	ttl    time.Duration
	log    *logger.Logger
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewPaperCache(client *redis.Client, loader PaperLoader, ttl time.Duration, log *logger.Logger) *PaperCache {
	return &PaperCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		log:    log,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *PaperCache) GetPaper(ctx context.Context, quizID int64) (domain.Paper, error) {
	key := c.paperKey(quizID)
	if paper, ok := c.lookup(ctx, key); ok {
		return paper, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if paper, ok := c.lookup(ctx, key); ok {
			return paper, nil
		}

		genKey := c.genKey(quizID)
		gen, genErr := c.generation(ctx, c.client, genKey)
		if genErr != nil {
			c.log.Warn("paper cache generation read failed", "quiz_id", quizID, "error", genErr)
		}

		paper, err := c.loader.LoadPaper(ctx, quizID)
		if err != nil {
			return domain.Paper{}, err
		}
		raw, err := json.Marshal(paper)
		if err != nil {
			return domain.Paper{}, err
		}
		if genErr == nil {
			c.store(ctx, quizID, key, genKey, gen, raw)
		}
		return paper, nil
	})
	if err != nil {
		return domain.Paper{}, err
	}
	return result.(domain.Paper), nil
}

// store writes raw only if no invalidation happened since gen was read.
func (c *PaperCache) store(ctx context.Context, quizID int64, key, genKey string, gen int64, raw []byte) {
	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := c.generation(ctx, tx, genKey)
		if err != nil {
			return err
		}
		if current != gen {
			return errStalePaper
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, c.ttlWithJitter())
			return nil
		})
		return err
	}, genKey)
	switch {
	case err == nil:
	case errors.Is(err, errStalePaper), errors.Is(err, redis.TxFailedErr):
		c.log.Debug("paper cache write skipped", "quiz_id", quizID)
	default:
		c.log.Warn("paper cache write failed", "quiz_id", quizID, "error", err)
	}
}

// Invalidate drops the cached paper and bumps its generation so an in-flight
// load does not write back a stale copy. A failure only delays freshness until the TTL.
func (c *PaperCache) Invalidate(ctx context.Context, quizID int64) {
	genKey := c.genKey(quizID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, genTTL)
		pipe.Del(ctx, c.paperKey(quizID))
		return nil
	})
	if err != nil {
		c.log.Warn("paper cache invalidate failed", "quiz_id", quizID, "error", err)
	}
	c.sf.Forget(c.paperKey(quizID))
}

// getter is the slice of the client API shared by *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (c *PaperCache) generation(ctx context.Context, cmd getter, genKey string) (int64, error) {
	gen, err := cmd.Get(ctx, genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *PaperCache) lookup(ctx context.Context, key string) (domain.Paper, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Paper{}, false
	}
	var paper domain.Paper
	if err := json.Unmarshal(raw, &paper); err != nil {
		return domain.Paper{}, false
	}
	return paper, true
}

func (c *PaperCache) paperKey(quizID int64) string {
	return "quiz:" + strconv.FormatInt(quizID, 10) + ":paper"
}

func (c *PaperCache) genKey(quizID int64) string {
	return c.paperKey(quizID) + ":gen"
}

func (c *PaperCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
