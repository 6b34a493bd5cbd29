package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/solarsys/core"
	"github.com/trezcool/solarsys/core/question"
)

type questionRepository struct {
	db *questionTable
}

var _ question.Repository = (*questionRepository)(nil) // interface compliance check

func NewQuestionRepository(db *DB) *questionRepository {
	return &questionRepository{db: db.question}
}

func cloneQuestion(q question.Question) question.Question {
	q.Options = append([]string(nil), q.Options...)
	return q
}

func (repo *questionRepository) CreateQuestion(_ context.Context, q question.Question) (question.Question, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	q.ID = uuid.New().String()
	repo.db.rows = append(repo.db.rows, cloneQuestion(q))
	return q, nil
}

// compareQuestions compares a and b on a column, as the SQL ORDER BY would.
func compareQuestions(a, b question.Question, column string) int {
	switch column {
	case "created_at":
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		}
		return 0
	case "prompt":
		return strings.Compare(a.Prompt, b.Prompt)
	case "planet_id":
		return strings.Compare(a.PlanetID, b.PlanetID)
	}
	return 0
}

func (repo *questionRepository) QueryQuestions(
	_ context.Context,
	filter question.QueryFilter,
	ordering []core.DBOrdering,
) ([]question.Question, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	items := make([]question.Question, 0, len(repo.db.rows))
	for _, q := range repo.db.rows {
		if filter.PlanetID == "" || q.PlanetID == filter.PlanetID {
			items = append(items, cloneQuestion(q))
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		for _, ord := range ordering {
			c := compareQuestions(items[i], items[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
	return items, nil
}

func (repo *questionRepository) GetQuestion(_ context.Context, id string) (question.Question, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, q := range repo.db.rows {
		if q.ID == id {
			return cloneQuestion(q), nil
		}
	}
	return question.Question{}, question.ErrNotFound
}

func (repo *questionRepository) UpdateQuestion(_ context.Context, q question.Question) (question.Question, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for i, existing := range repo.db.rows {
		if existing.ID == q.ID {
			repo.db.rows[i] = cloneQuestion(q)
			return q, nil
		}
	}
	return question.Question{}, question.ErrNotFound
}

func (repo *questionRepository) DeleteQuestion(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for i, q := range repo.db.rows {
		if q.ID == id {
			repo.db.rows = append(repo.db.rows[:i], repo.db.rows[i+1:]...)
			return nil
		}
	}
	return question.ErrNotFound
}
