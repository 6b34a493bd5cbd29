package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/solarsys/core/planet"
)

const planetColumns = `id, name, "order", radius, distance_au, color, summary`

type planetRow struct {
	ID         string  `db:"id"`
	Name       string  `db:"name"`
	Order      int     `db:"order"`
	Radius     float64 `db:"radius"`
	DistanceAU float64 `db:"distance_au"`
	Color      string  `db:"color"`
	Summary    string  `db:"summary"`
}

func (r planetRow) planet() planet.Planet {
	return planet.Planet(r)
}

type planetRepository struct {
	db *sqlx.DB
}

var _ planet.Repository = (*planetRepository)(nil) // interface compliance check

func NewPlanetRepository(db *sqlx.DB) *planetRepository {
	return &planetRepository{db: db}
}

func (repo *planetRepository) QueryPlanets(ctx context.Context) ([]planet.Planet, error) {
	var rows []planetRow
	q := "SELECT " + planetColumns + ` FROM planets ORDER BY "order", id`
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "selecting planets")
	}
	planets := make([]planet.Planet, 0, len(rows))
	for _, r := range rows {
		planets = append(planets, r.planet())
	}
	return planets, nil
}

func (repo *planetRepository) GetPlanet(ctx context.Context, id string) (planet.Planet, error) {
	var row planetRow
	q := "SELECT " + planetColumns + " FROM planets WHERE id = $1"
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return planet.Planet{}, trapNoRowsErr(err, planet.ErrNotFound, "selecting planet")
	}
	return row.planet(), nil
}

func (repo *planetRepository) UpsertPlanets(ctx context.Context, planets ...planet.Planet) error {
	q := "INSERT INTO planets (" + planetColumns + `) VALUES
			(:id, :name, :order, :radius, :distance_au, :color, :summary)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			"order" = EXCLUDED."order",
			radius = EXCLUDED.radius,
			distance_au = EXCLUDED.distance_au,
			color = EXCLUDED.color,
			summary = EXCLUDED.summary`

	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		for _, p := range planets {
			if _, err := tx.NamedExecContext(ctx, q, planetRow(p)); err != nil {
				return errors.Wrapf(err, "upserting planet %s", p.ID)
			}
		}
		return nil
	})
}
