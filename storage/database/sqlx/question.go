package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/solarsys/core"
	"github.com/trezcool/solarsys/core/question"
)

const questionColumns = "id, planet_id, prompt, options, correct_index, explanation, created_by, created_at"

type questionRow struct {
	ID           string         `db:"id"`
	PlanetID     string         `db:"planet_id"`
	Prompt       string         `db:"prompt"`
	Options      pq.StringArray `db:"options"`
	CorrectIndex int            `db:"correct_index"`
	Explanation  string         `db:"explanation"`
	CreatedBy    string         `db:"created_by"`
	CreatedAt    time.Time      `db:"created_at"`
}

func newQuestionRow(q question.Question) questionRow {
	return questionRow{
		ID:           q.ID,
		PlanetID:     q.PlanetID,
		Prompt:       q.Prompt,
		Options:      pq.StringArray(q.Options),
		CorrectIndex: q.CorrectIndex,
		Explanation:  q.Explanation,
		CreatedBy:    q.CreatedBy,
		CreatedAt:    q.CreatedAt.UTC(),
	}
}

func (r questionRow) question() question.Question {
	return question.Question{
		ID:           r.ID,
		PlanetID:     r.PlanetID,
		Prompt:       r.Prompt,
		Options:      []string(r.Options),
		CorrectIndex: r.CorrectIndex,
		Explanation:  r.Explanation,
		CreatedBy:    r.CreatedBy,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

// questionOrderBy renders the ordering on the known columns only, id breaking ties.
func questionOrderBy(ordering []core.DBOrdering) string {
	known := make(map[string]string, len(question.OrderingColumns))
	for _, col := range question.OrderingColumns {
		known[col] = col
	}
	ordering = core.CleanOrderings(ordering, known)
	ordering = append(ordering, core.DBOrdering{Field: "id", Ascending: true})
	return core.OrderBy(ordering)
}

type questionRepository struct {
	db *sqlx.DB
}

var _ question.Repository = (*questionRepository)(nil) // interface compliance check

func NewQuestionRepository(db *sqlx.DB) *questionRepository {
	return &questionRepository{db: db}
}

func (repo *questionRepository) CreateQuestion(ctx context.Context, q question.Question) (question.Question, error) {
	q.ID = uuid.New().String()
	stmt := "INSERT INTO questions (" + questionColumns + ") VALUES " +
		"(:id, :planet_id, :prompt, :options, :correct_index, :explanation, :created_by, :created_at)"
	if _, err := repo.db.NamedExecContext(ctx, stmt, newQuestionRow(q)); err != nil {
		return question.Question{}, errors.Wrap(err, "inserting question")
	}
	return q, nil
}

func (repo *questionRepository) QueryQuestions(
	ctx context.Context,
	filter question.QueryFilter,
	ordering []core.DBOrdering,
) ([]question.Question, error) {
	var rows []questionRow
	q := "SELECT " + questionColumns + " FROM questions WHERE ($1 = '' OR planet_id = $1) ORDER BY " +
		questionOrderBy(ordering)
	if err := repo.db.SelectContext(ctx, &rows, q, filter.PlanetID); err != nil {
		return nil, errors.Wrap(err, "selecting questions")
	}
	items := make([]question.Question, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.question())
	}
	return items, nil
}

func (repo *questionRepository) GetQuestion(ctx context.Context, id string) (question.Question, error) {
	if _, err := uuid.Parse(id); err != nil {
		return question.Question{}, question.ErrNotFound
	}
	var row questionRow
	q := "SELECT " + questionColumns + " FROM questions WHERE id = $1"
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return question.Question{}, trapNoRowsErr(err, question.ErrNotFound, "selecting question")
	}
	return row.question(), nil
}

func (repo *questionRepository) UpdateQuestion(ctx context.Context, q question.Question) (question.Question, error) {
	row := newQuestionRow(q)
	stmt := `UPDATE questions
		SET planet_id = $2, prompt = $3, options = $4, correct_index = $5, explanation = $6
		WHERE id = $1`
	if err := execOne(ctx, repo.db, question.ErrNotFound, "updating question", stmt,
		row.ID, row.PlanetID, row.Prompt, row.Options, row.CorrectIndex, row.Explanation); err != nil {
		return question.Question{}, err
	}
	return q, nil
}

func (repo *questionRepository) DeleteQuestion(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return question.ErrNotFound
	}
	return execOne(ctx, repo.db, question.ErrNotFound, "deleting question", "DELETE FROM questions WHERE id = $1", id)
}
