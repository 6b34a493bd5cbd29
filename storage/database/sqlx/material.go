package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/solarsys/core/material"
)

const materialColumns = "id, planet_id, title, content, created_by, created_at, updated_at"

type materialRow struct {
	ID        string    `db:"id"`
	PlanetID  string    `db:"planet_id"`
	Title     string    `db:"title"`
	Content   string    `db:"content"`
	CreatedBy string    `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r materialRow) material() material.Material {
	return material.Material{
		ID:        r.ID,
		PlanetID:  r.PlanetID,
		Title:     r.Title,
		Content:   r.Content,
		CreatedBy: r.CreatedBy,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type materialRepository struct {
	db *sqlx.DB
}

var _ material.Repository = (*materialRepository)(nil) // interface compliance check

func NewMaterialRepository(db *sqlx.DB) *materialRepository {
	return &materialRepository{db: db}
}

func (repo *materialRepository) CreateMaterial(ctx context.Context, m material.Material) (material.Material, error) {
	m.ID = uuid.New().String()
	q := "INSERT INTO materials (" + materialColumns + ") VALUES " +
		"(:id, :planet_id, :title, :content, :created_by, :created_at, :updated_at)"
	if _, err := repo.db.NamedExecContext(ctx, q, materialRow(m)); err != nil {
		return material.Material{}, errors.Wrap(err, "inserting material")
	}
	return m, nil
}

func (repo *materialRepository) QueryMaterials(ctx context.Context, filter material.QueryFilter) ([]material.Material, error) {
	var rows []materialRow
	q := "SELECT " + materialColumns + " FROM materials WHERE ($1 = '' OR planet_id = $1) ORDER BY updated_at DESC, id"
	if err := repo.db.SelectContext(ctx, &rows, q, filter.PlanetID); err != nil {
		return nil, errors.Wrap(err, "selecting materials")
	}
	items := make([]material.Material, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.material())
	}
	return items, nil
}

func (repo *materialRepository) GetMaterial(ctx context.Context, id string) (material.Material, error) {
	if _, err := uuid.Parse(id); err != nil {
		return material.Material{}, material.ErrNotFound
	}
	var row materialRow
	q := "SELECT " + materialColumns + " FROM materials WHERE id = $1"
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return material.Material{}, trapNoRowsErr(err, material.ErrNotFound, "selecting material")
	}
	return row.material(), nil
}

func (repo *materialRepository) UpdateMaterial(ctx context.Context, m material.Material) (material.Material, error) {
	q := "UPDATE materials SET planet_id = $2, title = $3, content = $4, updated_at = $5 WHERE id = $1"
	if err := execOne(ctx, repo.db, material.ErrNotFound, "updating material", q,
		m.ID, m.PlanetID, m.Title, m.Content, m.UpdatedAt.UTC()); err != nil {
		return material.Material{}, err
	}
	return m, nil
}

func (repo *materialRepository) DeleteMaterial(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return material.ErrNotFound
	}
	return execOne(ctx, repo.db, material.ErrNotFound, "deleting material", "DELETE FROM materials WHERE id = $1", id)
}
