package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"ethics-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches quiz content from a backing store (file, DB, etc).
type QuestionLoader interface {
	LoadQuestionSet(ctx context.Context, id string) (domain.QuestionSet, error)
}

// QuestionRepository caches question sets with TTL to avoid repeated loads.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	set       domain.QuestionSet
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedSet),
	}
}

func (r *QuestionRepository) GetQuestionSet(ctx context.Context, id string) (domain.QuestionSet, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[id]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.set, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(id, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[id]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.set, nil
		}
		r.mu.RUnlock()

		set, err := r.loader.LoadQuestionSet(ctx, id)
		if err != nil {
			return domain.QuestionSet{}, err
		}

		r.mu.Lock()
		r.cache[id] = cachedSet{
			set:       set,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return set, nil
	})
	if err != nil {
		return domain.QuestionSet{}, err
	}
	return result.(domain.QuestionSet), nil
}

// StaticQuestionLoader is a loader backed by an in-memory map (tests/demos).
type StaticQuestionLoader struct {
	sets map[string]domain.QuestionSet
}

func NewStaticQuestionLoader(sets map[string]domain.QuestionSet) *StaticQuestionLoader {
	return &StaticQuestionLoader{sets: sets}
}

func (l *StaticQuestionLoader) LoadQuestionSet(_ context.Context, id string) (domain.QuestionSet, error) {
	if set, ok := l.sets[id]; ok {
		return set, nil
	}
	return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
