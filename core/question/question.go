package question

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/solarsys/core"
)

var (
	ErrNotFound      = core.NewNotFoundError("question")
	ErrInvalidPlanet = core.NewFieldError("planetId", "invalid planet")

	errTooFewOptions = core.NewFieldError("options", "options must contain at least 2 items")
	errBadIndex      = core.NewFieldError("correctIndex", correctIndexText)
	errBlankPrompt   = core.NewFieldError("prompt", "this field cannot be blank")

	// OrderingColumns maps the orderable API fields to their columns.
	OrderingColumns = map[string]string{
		"createdAt": "created_at",
		"prompt":    "prompt",
		"planetId":  "planet_id",
	}
	defaultOrdering = []core.DBOrdering{{Field: "created_at", Ascending: false}}
	gradingOrdering = []core.DBOrdering{{Field: "created_at", Ascending: true}}
)

// Question is a multiple-choice question about a planet.
// 0 <= CorrectIndex < len(Options) and len(Options) >= 2 always hold.
type Question struct {
	ID           string    `json:"id"`
	PlanetID     string    `json:"planetId"`
	Prompt       string    `json:"prompt"`
	Options      []string  `json:"options"`
	CorrectIndex int       `json:"correctIndex"`
	Explanation  string    `json:"explanation"`
	CreatedBy    string    `json:"createdBy"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
}

// View is the projection of a Question sent to clients.
type View struct {
	ID           string    `json:"id"`
	PlanetID     string    `json:"planetId"`
	Prompt       string    `json:"prompt"`
	Options      []string  `json:"options"`
	CorrectIndex *int      `json:"correctIndex,omitempty"`
	Explanation  string    `json:"explanation"`
	CreatedBy    string    `json:"createdBy"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ForViewer projects q, hiding the correct answer unless canSeeAnswers.
func ForViewer(q Question, canSeeAnswers bool) View {
	v := View{
		ID:          q.ID,
		PlanetID:    q.PlanetID,
		Prompt:      q.Prompt,
		Options:     q.Options,
		Explanation: q.Explanation,
		CreatedBy:   q.CreatedBy,
		CreatedAt:   q.CreatedAt,
	}
	if canSeeAnswers {
		ci := q.CorrectIndex
		v.CorrectIndex = &ci
	}
	return v
}

func ForViewerSlice(questions []Question, canSeeAnswers bool) []View {
	views := make([]View, 0, len(questions))
	for _, q := range questions {
		views = append(views, ForViewer(q, canSeeAnswers))
	}
	return views
}

type NewQuestion struct {
	PlanetID     string   `json:"planetId" validate:"required,notblank"`
	Prompt       string   `json:"prompt" validate:"required,notblank"`
	Options      []string `json:"options" validate:"required,min=2"`
	CorrectIndex *int     `json:"correctIndex" validate:"required"`
	Explanation  string   `json:"explanation"`
}

func (nq *NewQuestion) Validate(validate *validator.Validate) error {
	nq.PlanetID = core.CleanString(nq.PlanetID)
	nq.Prompt = core.CleanString(nq.Prompt)
	nq.Explanation = core.CleanString(nq.Explanation)
	return validate.Struct(nq)
}

// UpdateQuestion holds a partial update: nil fields are left unchanged.
type UpdateQuestion struct {
	PlanetID     *string  `json:"planetId"`
	Prompt       *string  `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex *int     `json:"correctIndex"`
	Explanation  *string  `json:"explanation"`
}

type QueryFilter struct {
	PlanetID string `query:"planetId"`
}

func (qf *QueryFilter) Clean() {
	qf.PlanetID = core.CleanString(qf.PlanetID)
}

type (
	Repository interface {
		CreateQuestion(ctx context.Context, q Question) (Question, error)
		// QueryQuestions sorts by the given column orderings, in store order for ties.
		QueryQuestions(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Question, error)
		GetQuestion(ctx context.Context, id string) (Question, error)
		UpdateQuestion(ctx context.Context, q Question) (Question, error)
		DeleteQuestion(ctx context.Context, id string) error
	}

	// PlanetChecker tells whether a planet exists.
	PlanetChecker interface {
		Exists(ctx context.Context, id string) (bool, error)
	}

	Service struct {
		repo    Repository
		planets PlanetChecker
	}
)

func NewService(repo Repository, planets PlanetChecker) *Service {
	return &Service{repo: repo, planets: planets}
}

// List returns the questions matching filter, newest first unless ordering says otherwise.
// Unknown ordering fields are ignored.
func (svc *Service) List(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Question, error) {
	filter.Clean()
	ordering = core.CleanOrderings(ordering, OrderingColumns)
	if len(ordering) == 0 {
		ordering = defaultOrdering
	}
	items, err := svc.repo.QueryQuestions(ctx, filter, ordering)
	return items, errors.Wrap(err, "querying questions")
}

// ForGrading returns the planet's questions in store order.
func (svc *Service) ForGrading(ctx context.Context, planetID string) ([]Question, error) {
	items, err := svc.repo.QueryQuestions(ctx, QueryFilter{PlanetID: planetID}, gradingOrdering)
	return items, errors.Wrap(err, "querying questions for grading")
}

func (svc *Service) Get(ctx context.Context, id string) (Question, error) {
	return svc.repo.GetQuestion(ctx, id)
}

func (svc *Service) checkPlanet(ctx context.Context, planetID string) error {
	ok, err := svc.planets.Exists(ctx, planetID)
	if err != nil {
		return errors.Wrap(err, "checking planet")
	}
	if !ok {
		return ErrInvalidPlanet
	}
	return nil
}

// Create stores a validated NewQuestion authored by authorID.
func (svc *Service) Create(ctx context.Context, nq NewQuestion, authorID string) (Question, error) {
	if err := svc.checkPlanet(ctx, nq.PlanetID); err != nil {
		return Question{}, err
	}
	q, err := svc.repo.CreateQuestion(ctx, Question{
		PlanetID:     nq.PlanetID,
		Prompt:       nq.Prompt,
		Options:      nq.Options,
		CorrectIndex: *nq.CorrectIndex,
		Explanation:  nq.Explanation,
		CreatedBy:    authorID,
		CreatedAt:    time.Now().UTC(),
	})
	return q, errors.Wrap(err, "creating question")
}

// Update applies the set fields of uq. The planet is re-validated when changed and
// the correct index is checked against the resulting options.
func (svc *Service) Update(ctx context.Context, id string, uq UpdateQuestion) (Question, error) {
	q, err := svc.repo.GetQuestion(ctx, id)
	if err != nil {
		return Question{}, err
	}

	if uq.PlanetID != nil {
		planetID := core.CleanString(*uq.PlanetID)
		if err := svc.checkPlanet(ctx, planetID); err != nil {
			return Question{}, err
		}
		q.PlanetID = planetID
	}
	if uq.Prompt != nil {
		if q.Prompt = core.CleanString(*uq.Prompt); q.Prompt == "" {
			return Question{}, errBlankPrompt
		}
	}
	if uq.Options != nil {
		if len(uq.Options) < 2 {
			return Question{}, errTooFewOptions
		}
		q.Options = uq.Options
	}
	if uq.CorrectIndex != nil {
		q.CorrectIndex = *uq.CorrectIndex
	}
	if uq.Explanation != nil {
		q.Explanation = core.CleanString(*uq.Explanation)
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return Question{}, errBadIndex
	}
	return svc.repo.UpdateQuestion(ctx, q)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteQuestion(ctx, id)
}
