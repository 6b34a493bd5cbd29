package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/solarsys/core/progress"
)

type progressRepository struct {
	db *progressTable
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *DB) *progressRepository {
	return &progressRepository{db: db.progress}
}

func cloneProgress(p progress.Progress) progress.Progress {
	p.Visited = progress.NewPlanetSet(p.Visited.Sorted()...)
	return p
}

func (repo *progressRepository) GetProgress(_ context.Context, userID string) (progress.Progress, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if p, ok := repo.db.rows[userID]; ok {
		return cloneProgress(*p), nil
	}
	return progress.Progress{}, progress.ErrNotFound
}

func (repo *progressRepository) QueryProgress(_ context.Context, userIDs ...string) ([]progress.Progress, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	items := make([]progress.Progress, 0, len(repo.db.rows))
	for id, p := range repo.db.rows {
		if len(userIDs) == 0 || contains(userIDs, id) {
			items = append(items, cloneProgress(*p))
		}
	}
	return items, nil
}

func (repo *progressRepository) UpdateProgress(
	_ context.Context,
	userID string,
	fn func(*progress.Progress) error,
) (progress.Progress, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	p, err := repo.db.modify(userID, fn)
	if err != nil {
		return progress.Progress{}, err
	}
	repo.db.save(p)
	return p, nil
}

// modify runs fn on a copy of the user's record, or of a new zero record. The caller holds the lock.
func (t *progressTable) modify(userID string, fn func(*progress.Progress) error) (progress.Progress, error) {
	var p progress.Progress
	if existing, ok := t.rows[userID]; ok {
		p = cloneProgress(*existing)
	} else {
		now := time.Now().UTC()
		p = progress.Progress{UserID: userID, Visited: progress.NewPlanetSet(), CreatedAt: now, UpdatedAt: now}
	}

	if err := fn(&p); err != nil {
		return progress.Progress{}, err
	}
	p.UserID = userID
	return p, nil
}

// save stores a copy of p. The caller holds the lock.
func (t *progressTable) save(p progress.Progress) {
	saved := cloneProgress(p)
	t.rows[p.UserID] = &saved
}
