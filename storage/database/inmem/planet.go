package inmemdb

import (
	"context"

	"github.com/trezcool/solarsys/core/planet"
)

type planetRepository struct {
	db *planetTable
}

var _ planet.Repository = (*planetRepository)(nil) // interface compliance check

func NewPlanetRepository(db *DB) *planetRepository {
	return &planetRepository{db: db.planet}
}

func (repo *planetRepository) QueryPlanets(context.Context) ([]planet.Planet, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	planets := make([]planet.Planet, len(repo.db.rows))
	copy(planets, repo.db.rows)
	return planets, nil
}

func (repo *planetRepository) GetPlanet(_ context.Context, id string) (planet.Planet, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, p := range repo.db.rows {
		if p.ID == id {
			return p, nil
		}
	}
	return planet.Planet{}, planet.ErrNotFound
}

func (repo *planetRepository) UpsertPlanets(_ context.Context, planets ...planet.Planet) error {
	repo.db.Lock()
	defer repo.db.Unlock()

outer:
	for _, p := range planets {
		for i, existing := range repo.db.rows {
			if existing.ID == p.ID {
				repo.db.rows[i] = p
				continue outer
			}
		}
		repo.db.rows = append(repo.db.rows, p)
	}
	return nil
}
