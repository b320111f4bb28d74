package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"ethics-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches quiz content from a backing store (file, DB, etc).
type QuestionLoader interface {
	LoadQuestionSet(ctx context.Context, id string) (domain.QuestionSet, error)
}

// QuestionRepository caches marshalled question sets in Redis and falls back
// to a loader on cache miss. Sets are stored as: SET questions:{id} {json}
type QuestionRepository struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) GetQuestionSet(ctx context.Context, id string) (domain.QuestionSet, error) {
	key := r.key(id)

	if set, ok := r.cached(ctx, key, id); ok {
		return set, nil
	}

	result, err, _ := r.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if set, ok := r.cached(ctx, key, id); ok {
			return set, nil
		}

		set, err := r.loader.LoadQuestionSet(ctx, id)
		if err != nil {
			return domain.QuestionSet{}, err
		}

		if data, err := json.Marshal(set); err == nil {
			_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()
		}
		return set, nil
	})
	if err != nil {
		return domain.QuestionSet{}, err
	}
	return result.(domain.QuestionSet), nil
}

func (r *QuestionRepository) cached(ctx context.Context, key, id string) (domain.QuestionSet, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.QuestionSet{}, false
	}
	var set domain.QuestionSet
	if err := json.Unmarshal(data, &set); err != nil {
		return domain.QuestionSet{}, false
	}
	set.ID = id
	return set, true
}

func (r *QuestionRepository) key(id string) string {
	return "questions:" + id
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
