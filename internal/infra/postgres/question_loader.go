package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"ethics-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionLoader loads question-set JSONB from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadQuestionSet(ctx context.Context, id string) (domain.QuestionSet, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM question_sets WHERE id=$1`, id).Scan(&raw)
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("load question set: %w", err)
	}
	var qs domain.QuestionSet
	if err := json.Unmarshal(raw, &qs); err != nil {
		return domain.QuestionSet{}, fmt.Errorf("unmarshal question set: %w", err)
	}
	qs.ID = id
	return qs, nil
}
