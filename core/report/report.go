package report

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/solarsys/core/progress"
	"github.com/trezcool/solarsys/core/quiz"
	"github.com/trezcool/solarsys/core/user"
)

type (
	StudentSource interface {
		QueryStudents(ctx context.Context, ids ...string) ([]user.User, error)
	}

	ProgressSource interface {
		Get(ctx context.Context, userID string) (progress.Progress, error)
	}

	AttemptSource interface {
		Query(ctx context.Context, filter quiz.AttemptFilter) ([]quiz.Attempt, error)
	}

	PlanetNamer interface {
		Names(ctx context.Context) (map[string]string, error)
	}

	// Service is a read-only projection over progress and attempts.
	Service struct {
		students StudentSource
		ledger   ProgressSource
		progRepo progress.Repository
		attempts AttemptSource
		planets  PlanetNamer
	}
)

func NewService(
	students StudentSource,
	ledger ProgressSource,
	progRepo progress.Repository,
	attempts AttemptSource,
	planets PlanetNamer,
) *Service {
	return &Service{
		students: students,
		ledger:   ledger,
		progRepo: progRepo,
		attempts: attempts,
		planets:  planets,
	}
}

type MyProgress struct {
	progress.View
	Stats Stats `json:"stats"`
}

// MyProgress returns the user's progress with their quiz stats.
func (svc *Service) MyProgress(ctx context.Context, userID string) (MyProgress, error) {
	prog, err := svc.ledger.Get(ctx, userID)
	if err != nil {
		return MyProgress{}, errors.Wrap(err, "getting progress")
	}
	attempts, err := svc.attempts.Query(ctx, quiz.AttemptFilter{UserIDs: []string{userID}})
	if err != nil {
		return MyProgress{}, errors.Wrap(err, "querying attempts")
	}
	return MyProgress{View: prog.View(), Stats: ComputeUserStats(attempts)}, nil
}

type StudentFilter struct {
	UserID string `query:"userId"`
}

func (f StudentFilter) ids() []string {
	if f.UserID == "" {
		return nil
	}
	return []string{f.UserID}
}

// AllStudents ranks every student, or the one of the filter. Students without a progress
// record show zero progress last updated at their registration.
func (svc *Service) AllStudents(ctx context.Context, filter StudentFilter) ([]StudentRow, error) {
	students, err := svc.students.QueryStudents(ctx, filter.ids()...)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	rows := make([]StudentRow, 0, len(students))
	if len(students) == 0 {
		return rows, nil
	}

	ids := make([]string, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
	}

	records, err := svc.progRepo.QueryProgress(ctx, ids...)
	if err != nil {
		return nil, errors.Wrap(err, "querying progress")
	}
	progByUser := make(map[string]progress.Progress, len(records))
	for _, p := range records {
		progByUser[p.UserID] = p
	}

	attempts, err := svc.attempts.Query(ctx, quiz.AttemptFilter{UserIDs: ids})
	if err != nil {
		return nil, errors.Wrap(err, "querying attempts")
	}
	attemptsByUser := make(map[string][]quiz.Attempt, len(students))
	for _, a := range attempts {
		attemptsByUser[a.UserID] = append(attemptsByUser[a.UserID], a)
	}

	for _, s := range students {
		prog, ok := progByUser[s.ID]
		if !ok {
			prog = progress.Progress{UserID: s.ID, Visited: progress.NewPlanetSet(), UpdatedAt: s.CreatedAt}
		}
		rows = append(rows, StudentRow{
			View:    prog.View(),
			Stats:   ComputeUserStats(attemptsByUser[s.ID]),
			Student: s.Identity(),
		})
	}
	RankStudents(rows)
	return rows, nil
}

type ScoreFilter struct {
	PlanetID string `query:"planetId"`
	UserID   string `query:"userId"`
}

type PlanetRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ScoreRow is a student's attempt with the identities it refers to.
type ScoreRow struct {
	quiz.Attempt
	Student user.Identity `json:"student"`
	Planet  PlanetRef     `json:"planet"`
}

// Scores returns the students' attempts matching filter, newest first.
// An unknown planet is named after its ID.
func (svc *Service) Scores(ctx context.Context, filter ScoreFilter) ([]ScoreRow, error) {
	students, err := svc.students.QueryStudents(ctx, StudentFilter{UserID: filter.UserID}.ids()...)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	rows := make([]ScoreRow, 0)
	if len(students) == 0 {
		return rows, nil
	}

	byID := make(map[string]user.User, len(students))
	studentIDs := make([]string, 0, len(students))
	for _, s := range students {
		byID[s.ID] = s
		studentIDs = append(studentIDs, s.ID)
	}

	attempts, err := svc.attempts.Query(ctx, quiz.AttemptFilter{UserIDs: studentIDs, PlanetID: filter.PlanetID})
	if err != nil {
		return nil, errors.Wrap(err, "querying attempts")
	}
	names, err := svc.planets.Names(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "naming planets")
	}

	for _, a := range attempts {
		name, ok := names[a.PlanetID]
		if !ok {
			name = a.PlanetID
		}
		rows = append(rows, ScoreRow{
			Attempt: a,
			Student: byID[a.UserID].Identity(),
			Planet:  PlanetRef{ID: a.PlanetID, Name: name},
		})
	}
	return rows, nil
}
