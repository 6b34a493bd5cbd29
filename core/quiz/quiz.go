package quiz

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/solarsys/core"
	"github.com/trezcool/solarsys/core/progress"
	"github.com/trezcool/solarsys/core/question"
	"github.com/trezcool/solarsys/core/user"
)

// Submission modes
const (
	ModeStudent        = "student"
	ModeTeacherPreview = "teacher_preview"
)

var (
	ErrInvalidPlanet        = core.NewFieldError("planetId", "invalid planet")
	ErrNoQuestionsAvailable = core.NewValidationError(errors.New("no questions available for this planet"))
)

// Attempt is one graded submission of a student. It is never modified once stored.
type Attempt struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	PlanetID  string    `json:"planetId"`
	Score     int       `json:"score"`
	Total     int       `json:"total"`
	Results   []Result  `json:"results"`
	CreatedAt time.Time `json:"createdAt"` // UTC
}

// AttemptSummary is the attempt part of a submission response. ID is null for previews.
type AttemptSummary struct {
	ID        null.String `json:"id"`
	PlanetID  string      `json:"planetId"`
	Score     int         `json:"score"`
	Total     int         `json:"total"`
	CreatedAt time.Time   `json:"createdAt"`
}

type Submission struct {
	PlanetID string   `json:"planetId" validate:"required,notblank"`
	Answers  []Answer `json:"answers" validate:"required"`
}

func (s *Submission) Validate(validate *validator.Validate) error {
	s.PlanetID = core.CleanString(s.PlanetID)
	return validate.Struct(s)
}

type SubmitResult struct {
	Attempt     AttemptSummary `json:"attempt"`
	Results     []Result       `json:"results"`
	PointsAdded int            `json:"pointsAdded"`
	Mode        string         `json:"mode"`
}

type AttemptFilter struct {
	UserIDs  []string
	PlanetID string
}

type (
	Repository interface {
		CreateAttempt(ctx context.Context, a Attempt) (Attempt, error)
		// CreateAttemptWithProgress stores a and applies award to its user's progress record
		// as one unit of work. Nothing is stored when either step fails.
		CreateAttemptWithProgress(ctx context.Context, a Attempt, award func(*progress.Progress) error) (Attempt, error)
		// QueryAttempts returns the matching attempts, newest first.
		QueryAttempts(ctx context.Context, filter AttemptFilter) ([]Attempt, error)
	}

	QuestionSource interface {
		ForGrading(ctx context.Context, planetID string) ([]question.Question, error)
	}

	PlanetChecker interface {
		Exists(ctx context.Context, id string) (bool, error)
	}

	Ledger interface {
		QuizAward(ctx context.Context, planetID string, score, total int) (func(*progress.Progress) error, error)
		QuizPoints(score int) int
	}

	Service struct {
		repo      Repository
		questions QuestionSource
		planets   PlanetChecker
		ledger    Ledger
	}
)

func NewService(repo Repository, questions QuestionSource, planets PlanetChecker, ledger Ledger) *Service {
	return &Service{repo: repo, questions: questions, planets: planets, ledger: ledger}
}

// Submit grades a validated submission. Students get a stored attempt and points,
// teachers only get a preview.
func (svc *Service) Submit(ctx context.Context, usr user.User, sub Submission) (SubmitResult, error) {
	ok, err := svc.planets.Exists(ctx, sub.PlanetID)
	if err != nil {
		return SubmitResult{}, errors.Wrap(err, "checking planet")
	}
	if !ok {
		return SubmitResult{}, ErrInvalidPlanet
	}

	questions, err := svc.questions.ForGrading(ctx, sub.PlanetID)
	if err != nil {
		return SubmitResult{}, errors.Wrap(err, "loading questions")
	}
	if len(questions) == 0 {
		return SubmitResult{}, ErrNoQuestionsAvailable
	}

	g := Grade(questions, sub.Answers)
	now := time.Now().UTC()

	if usr.IsTeacher() {
		return SubmitResult{
			Attempt: AttemptSummary{
				PlanetID:  sub.PlanetID,
				Score:     g.Score,
				Total:     g.Total,
				CreatedAt: now,
			},
			Results: g.Results,
			Mode:    ModeTeacherPreview,
		}, nil
	}

	award, err := svc.ledger.QuizAward(ctx, sub.PlanetID, g.Score, g.Total)
	if err != nil {
		return SubmitResult{}, errors.Wrap(err, "checking quiz result")
	}
	attempt, err := svc.repo.CreateAttemptWithProgress(ctx, Attempt{
		UserID:    usr.ID,
		PlanetID:  sub.PlanetID,
		Score:     g.Score,
		Total:     g.Total,
		Results:   g.Results,
		CreatedAt: now,
	}, award)
	if err != nil {
		return SubmitResult{}, errors.Wrap(err, "storing attempt")
	}

	return SubmitResult{
		Attempt: AttemptSummary{
			ID:        null.StringFrom(attempt.ID),
			PlanetID:  attempt.PlanetID,
			Score:     attempt.Score,
			Total:     attempt.Total,
			CreatedAt: attempt.CreatedAt,
		},
		Results:     g.Results,
		PointsAdded: svc.ledger.QuizPoints(g.Score),
		Mode:        ModeStudent,
	}, nil
}

// UserAttempts returns the user's attempts, newest first.
func (svc *Service) UserAttempts(ctx context.Context, userID string) ([]Attempt, error) {
	return svc.Query(ctx, AttemptFilter{UserIDs: []string{userID}})
}

func (svc *Service) Query(ctx context.Context, filter AttemptFilter) ([]Attempt, error) {
	items, err := svc.repo.QueryAttempts(ctx, filter)
	return items, errors.Wrap(err, "querying attempts")
}
