package sqlxrepos

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/trezcool/solarsys/core/progress"
	"github.com/trezcool/solarsys/core/quiz"
)

const attemptColumns = "id, user_id, planet_id, score, total, results, created_at"

type attemptRow struct {
	ID        string         `db:"id"`
	UserID    string         `db:"user_id"`
	PlanetID  string         `db:"planet_id"`
	Score     int            `db:"score"`
	Total     int            `db:"total"`
	Results   types.JSONText `db:"results"`
	CreatedAt time.Time      `db:"created_at"`
}

func newAttemptRow(a quiz.Attempt) (attemptRow, error) {
	results := a.Results
	if results == nil {
		results = []quiz.Result{}
	}
	raw, err := json.Marshal(results)
	if err != nil {
		return attemptRow{}, errors.Wrap(err, "encoding results")
	}
	return attemptRow{
		ID:        a.ID,
		UserID:    a.UserID,
		PlanetID:  a.PlanetID,
		Score:     a.Score,
		Total:     a.Total,
		Results:   types.JSONText(raw),
		CreatedAt: a.CreatedAt.UTC(),
	}, nil
}

func (r attemptRow) attempt() (quiz.Attempt, error) {
	var results []quiz.Result
	if err := r.Results.Unmarshal(&results); err != nil {
		return quiz.Attempt{}, errors.Wrapf(err, "decoding results of attempt %s", r.ID)
	}
	return quiz.Attempt{
		ID:        r.ID,
		UserID:    r.UserID,
		PlanetID:  r.PlanetID,
		Score:     r.Score,
		Total:     r.Total,
		Results:   results,
		CreatedAt: r.CreatedAt.UTC(),
	}, nil
}

type attemptRepository struct {
	db *sqlx.DB
}

var _ quiz.Repository = (*attemptRepository)(nil) // interface compliance check

func NewAttemptRepository(db *sqlx.DB) *attemptRepository {
	return &attemptRepository{db: db}
}

const insertAttempt = "INSERT INTO quiz_attempts (" + attemptColumns + ") VALUES " +
	"(:id, :user_id, :planet_id, :score, :total, :results, :created_at)"

func (repo *attemptRepository) CreateAttempt(ctx context.Context, a quiz.Attempt) (quiz.Attempt, error) {
	a.ID = uuid.New().String()
	row, err := newAttemptRow(a)
	if err != nil {
		return quiz.Attempt{}, err
	}
	if _, err = repo.db.NamedExecContext(ctx, insertAttempt, row); err != nil {
		return quiz.Attempt{}, errors.Wrap(err, "inserting attempt")
	}
	return a, nil
}

// CreateAttemptWithProgress inserts a and updates its user's locked progress row in one transaction.
func (repo *attemptRepository) CreateAttemptWithProgress(
	ctx context.Context,
	a quiz.Attempt,
	award func(*progress.Progress) error,
) (quiz.Attempt, error) {
	a.ID = uuid.New().String()
	row, err := newAttemptRow(a)
	if err != nil {
		return quiz.Attempt{}, err
	}

	err = inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, insertAttempt, row); err != nil {
			return errors.Wrap(err, "inserting attempt")
		}
		_, err := updateProgressTx(ctx, tx, a.UserID, award)
		return err
	})
	if err != nil {
		return quiz.Attempt{}, err
	}
	return a, nil
}

func (repo *attemptRepository) QueryAttempts(ctx context.Context, filter quiz.AttemptFilter) ([]quiz.Attempt, error) {
	var (
		where = []string{"TRUE"}
		args  []interface{}
	)
	if len(filter.UserIDs) > 0 {
		where = append(where, "user_id::text IN (?)")
		args = append(args, filter.UserIDs)
	}
	if filter.PlanetID != "" {
		where = append(where, "planet_id = ?")
		args = append(args, filter.PlanetID)
	}

	q, args, err := sqlx.In(
		"SELECT "+attemptColumns+" FROM quiz_attempts WHERE "+strings.Join(where, " AND ")+
			" ORDER BY created_at DESC, id",
		args...,
	)
	if err != nil {
		return nil, errors.Wrap(err, "building attempts query")
	}

	var rows []attemptRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting attempts")
	}
	items := make([]quiz.Attempt, 0, len(rows))
	for _, r := range rows {
		a, err := r.attempt()
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, nil
}
