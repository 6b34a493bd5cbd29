package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/solarsys/core/progress"
	"github.com/trezcool/solarsys/core/quiz"
)

type attemptRepository struct {
	db       *attemptTable
	progress *progressTable
}

var _ quiz.Repository = (*attemptRepository)(nil) // interface compliance check

func NewAttemptRepository(db *DB) *attemptRepository {
	return &attemptRepository{db: db.attempt, progress: db.progress}
}

func cloneAttempt(a quiz.Attempt) quiz.Attempt {
	a.Results = append([]quiz.Result(nil), a.Results...)
	return a
}

func (repo *attemptRepository) CreateAttempt(_ context.Context, a quiz.Attempt) (quiz.Attempt, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	a.ID = uuid.New().String()
	repo.db.rows = append(repo.db.rows, cloneAttempt(a))
	return a, nil
}

// CreateAttemptWithProgress holds the progress lock across both writes.
func (repo *attemptRepository) CreateAttemptWithProgress(
	_ context.Context,
	a quiz.Attempt,
	award func(*progress.Progress) error,
) (quiz.Attempt, error) {
	repo.progress.Lock()
	defer repo.progress.Unlock()

	p, err := repo.progress.modify(a.UserID, award)
	if err != nil {
		return quiz.Attempt{}, err
	}

	repo.db.Lock()
	a.ID = uuid.New().String()
	repo.db.rows = append(repo.db.rows, cloneAttempt(a))
	repo.db.Unlock()

	repo.progress.save(p)
	return a, nil
}

func (repo *attemptRepository) QueryAttempts(_ context.Context, filter quiz.AttemptFilter) ([]quiz.Attempt, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	items := make([]quiz.Attempt, 0, len(repo.db.rows))
	for _, a := range repo.db.rows {
		if len(filter.UserIDs) > 0 && !contains(filter.UserIDs, a.UserID) {
			continue
		}
		if filter.PlanetID != "" && a.PlanetID != filter.PlanetID {
			continue
		}
		items = append(items, cloneAttempt(a))
	}
	// newest first, latest insert first on equal timestamps
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}
