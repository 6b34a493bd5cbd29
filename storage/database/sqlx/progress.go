package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/solarsys/core/progress"
)

const progressColumns = "user_id, visited_planets, points, created_at, updated_at"

type progressRow struct {
	UserID         string         `db:"user_id"`
	VisitedPlanets pq.StringArray `db:"visited_planets"`
	Points         int            `db:"points"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (r progressRow) progress() progress.Progress {
	return progress.Progress{
		UserID:    r.UserID,
		Visited:   progress.NewPlanetSet(r.VisitedPlanets...),
		Points:    r.Points,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type progressRepository struct {
	db *sqlx.DB
}

var _ progress.Repository = (*progressRepository)(nil) // interface compliance check

func NewProgressRepository(db *sqlx.DB) *progressRepository {
	return &progressRepository{db: db}
}

func (repo *progressRepository) GetProgress(ctx context.Context, userID string) (progress.Progress, error) {
	var row progressRow
	q := "SELECT " + progressColumns + " FROM progress WHERE user_id::text = $1"
	if err := repo.db.GetContext(ctx, &row, q, userID); err != nil {
		return progress.Progress{}, trapNoRowsErr(err, progress.ErrNotFound, "selecting progress")
	}
	return row.progress(), nil
}

func (repo *progressRepository) QueryProgress(ctx context.Context, userIDs ...string) ([]progress.Progress, error) {
	var rows []progressRow
	q := "SELECT " + progressColumns + " FROM progress WHERE (cardinality($1::text[]) = 0 OR user_id::text = ANY($1))"
	if err := repo.db.SelectContext(ctx, &rows, q, pq.Array(userIDs)); err != nil {
		return nil, errors.Wrap(err, "selecting progress")
	}
	items := make([]progress.Progress, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.progress())
	}
	return items, nil
}

// UpdateProgress locks the user's row for the whole cycle, so concurrent updates of one
// user are serialized by PostgreSQL.
func (repo *progressRepository) UpdateProgress(
	ctx context.Context,
	userID string,
	fn func(*progress.Progress) error,
) (progress.Progress, error) {
	var p progress.Progress
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var err error
		p, err = updateProgressTx(ctx, tx, userID, fn)
		return err
	})
	if err != nil {
		return progress.Progress{}, err
	}
	return p, nil
}

// updateProgressTx creates the user's row when missing and runs fn on it under a row lock held until tx ends.
func updateProgressTx(
	ctx context.Context,
	tx *sqlx.Tx,
	userID string,
	fn func(*progress.Progress) error,
) (progress.Progress, error) {
	now := time.Now().UTC()
	ensure := `INSERT INTO progress (user_id, visited_planets, points, created_at, updated_at)
		VALUES ($1, '{}', 0, $2, $2)
		ON CONFLICT (user_id) DO NOTHING`
	if _, err := tx.ExecContext(ctx, ensure, userID, now); err != nil {
		return progress.Progress{}, errors.Wrap(err, "ensuring progress")
	}

	var row progressRow
	q := "SELECT " + progressColumns + " FROM progress WHERE user_id = $1 FOR UPDATE"
	if err := tx.GetContext(ctx, &row, q, userID); err != nil {
		return progress.Progress{}, errors.Wrap(err, "locking progress")
	}

	p := row.progress()
	if err := fn(&p); err != nil {
		return progress.Progress{}, err
	}
	p.UserID = userID

	update := "UPDATE progress SET visited_planets = $2, points = $3, updated_at = $4 WHERE user_id = $1"
	if _, err := tx.ExecContext(ctx, update, userID, pq.StringArray(p.Visited.Sorted()), p.Points, p.UpdatedAt.UTC()); err != nil {
		return progress.Progress{}, errors.Wrap(err, "updating progress")
	}
	return p, nil
}
