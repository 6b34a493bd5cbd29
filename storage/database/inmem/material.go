package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/solarsys/core/material"
)

type materialRepository struct {
	db *materialTable
}

var _ material.Repository = (*materialRepository)(nil) // interface compliance check

func NewMaterialRepository(db *DB) *materialRepository {
	return &materialRepository{db: db.material}
}

func (repo *materialRepository) CreateMaterial(_ context.Context, m material.Material) (material.Material, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	m.ID = uuid.New().String()
	repo.db.rows = append(repo.db.rows, m)
	return m, nil
}

func (repo *materialRepository) QueryMaterials(_ context.Context, filter material.QueryFilter) ([]material.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	items := make([]material.Material, 0, len(repo.db.rows))
	for _, m := range repo.db.rows {
		if filter.PlanetID == "" || m.PlanetID == filter.PlanetID {
			items = append(items, m)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].UpdatedAt.After(items[j].UpdatedAt) })
	return items, nil
}

func (repo *materialRepository) GetMaterial(_ context.Context, id string) (material.Material, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, m := range repo.db.rows {
		if m.ID == id {
			return m, nil
		}
	}
	return material.Material{}, material.ErrNotFound
}

func (repo *materialRepository) UpdateMaterial(_ context.Context, m material.Material) (material.Material, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for i, existing := range repo.db.rows {
		if existing.ID == m.ID {
			repo.db.rows[i] = m
			return m, nil
		}
	}
	return material.Material{}, material.ErrNotFound
}

func (repo *materialRepository) DeleteMaterial(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for i, m := range repo.db.rows {
		if m.ID == id {
			repo.db.rows = append(repo.db.rows[:i], repo.db.rows[i+1:]...)
			return nil
		}
	}
	return material.ErrNotFound
}
