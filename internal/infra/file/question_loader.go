package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"ethics-quiz-service/internal/domain"
)

// QuestionLoader reads the question content JSON file from disk on every
// load; callers are expected to sit a caching repository in front of it.
type QuestionLoader struct {
	path string
}

func NewQuestionLoader(path string) *QuestionLoader {
	return &QuestionLoader{path: path}
}

func (l *QuestionLoader) LoadQuestionSet(_ context.Context, id string) (domain.QuestionSet, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return domain.QuestionSet{}, fmt.Errorf("read questions file: %w", err)
	}
	var qs domain.QuestionSet
	if err := json.Unmarshal(data, &qs); err != nil {
		return domain.QuestionSet{}, fmt.Errorf("unmarshal questions file: %w", err)
	}
	qs.ID = id
	return qs, nil
}
