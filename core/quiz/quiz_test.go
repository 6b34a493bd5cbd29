package quiz_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/solarsys/core"
	"github.com/trezcool/solarsys/core/planet"
	"github.com/trezcool/solarsys/core/progress"
	"github.com/trezcool/solarsys/core/question"
	"github.com/trezcool/solarsys/core/quiz"
	"github.com/trezcool/solarsys/core/user"
	inmemdb "github.com/trezcool/solarsys/storage/database/inmem"
	testutil "github.com/trezcool/solarsys/tests"
)

type fixture struct {
	svc       *quiz.Service
	planets   *planet.Service
	ledger    *progress.Ledger
	attempts  quiz.Repository
	progress  progress.Repository
	questions question.Repository
	users     user.Repository
}

func setup(t *testing.T) fixture {
	db := inmemdb.Open()
	planetRepo := inmemdb.NewPlanetRepository(db)
	testutil.SeedPlanets(t, planetRepo)
	planetSvc := planet.NewService(planetRepo)

	f := fixture{
		planets:   planetSvc,
		attempts:  inmemdb.NewAttemptRepository(db),
		progress:  inmemdb.NewProgressRepository(db),
		questions: inmemdb.NewQuestionRepository(db),
		users:     inmemdb.NewUserRepository(db),
	}
	f.ledger = progress.NewLedger(f.progress, planetSvc, core.PointsConfig{VisitBonus: 5, PerCorrectAnswer: 10})
	f.svc = quiz.NewService(f.attempts, question.NewService(f.questions, planetSvc), planetSvc, f.ledger)
	return f
}

// brokenLedger hands out awards that fail when applied to a record.
type brokenLedger struct {
	*progress.Ledger
	err error
}

func (l brokenLedger) QuizAward(context.Context, string, int, int) (func(*progress.Progress) error, error) {
	return func(*progress.Progress) error { return l.err }, nil
}

func TestService_Submit(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	teacher := testutil.CreateUser(t, f.users, "Grace", "grace@test.io", "", user.RoleTeacher)
	student := testutil.CreateUser(t, f.users, "Ada", "ada@test.io", "", user.RoleStudent)

	t0 := time.Now().Add(-time.Hour)
	// created out of order: grading follows creation time
	q2 := testutil.CreateQuestion(t, f.questions, "mars", "Q2", []string{"a", "b"}, 1, teacher.ID, t0.Add(time.Minute))
	q1 := testutil.CreateQuestion(t, f.questions, "mars", "Q1", []string{"a", "b"}, 0, teacher.ID, t0)

	t.Run("invalid planet", func(t *testing.T) {
		_, err := f.svc.Submit(ctx, student, quiz.Submission{PlanetID: "pluto"})
		assert.Equal(t, quiz.ErrInvalidPlanet, err)
	})

	t.Run("no questions", func(t *testing.T) {
		_, err := f.svc.Submit(ctx, student, quiz.Submission{PlanetID: "venus"})
		assert.Equal(t, quiz.ErrNoQuestionsAvailable, err)
	})

	t.Run("student", func(t *testing.T) {
		res, err := f.svc.Submit(ctx, student, quiz.Submission{
			PlanetID: "mars",
			Answers: []quiz.Answer{
				{QuestionID: q1.ID, SelectedIndex: null.IntFrom(0)},
				{QuestionID: q2.ID, SelectedIndex: null.IntFrom(1)},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, quiz.ModeStudent, res.Mode)
		assert.Equal(t, 20, res.PointsAdded)
		assert.Equal(t, 2, res.Attempt.Score)
		require.Len(t, res.Results, 2)
		assert.Equal(t, q1.ID, res.Results[0].QuestionID)
		assert.Equal(t, q2.ID, res.Results[1].QuestionID)

		attempts, err := f.attempts.QueryAttempts(ctx, quiz.AttemptFilter{UserIDs: []string{student.ID}})
		require.NoError(t, err)
		require.Len(t, attempts, 1)
		assert.Equal(t, res.Attempt.ID.String, attempts[0].ID)
		assert.Equal(t, res.Results, attempts[0].Results)

		prog, err := f.progress.GetProgress(ctx, student.ID)
		require.NoError(t, err)
		assert.Equal(t, 20, prog.Points)
		assert.True(t, prog.Visited.Has("mars"))
	})

	t.Run("retakes always award points", func(t *testing.T) {
		res, err := f.svc.Submit(ctx, student, quiz.Submission{
			PlanetID: "mars",
			Answers:  []quiz.Answer{{QuestionID: q1.ID, SelectedIndex: null.IntFrom(0)}},
		})
		require.NoError(t, err)
		assert.Equal(t, 10, res.PointsAdded)

		prog, err := f.progress.GetProgress(ctx, student.ID)
		require.NoError(t, err)
		assert.Equal(t, 30, prog.Points)
		assert.Equal(t, 1, prog.Visited.Len())
	})

	t.Run("teacher preview", func(t *testing.T) {
		res, err := f.svc.Submit(ctx, teacher, quiz.Submission{
			PlanetID: "mars",
			Answers:  []quiz.Answer{{QuestionID: q2.ID, SelectedIndex: null.IntFrom(1)}},
		})
		require.NoError(t, err)
		assert.Equal(t, quiz.ModeTeacherPreview, res.Mode)
		assert.False(t, res.Attempt.ID.Valid)
		assert.Equal(t, 1, res.Attempt.Score)
		assert.Zero(t, res.PointsAdded)

		attempts, err := f.attempts.QueryAttempts(ctx, quiz.AttemptFilter{UserIDs: []string{teacher.ID}})
		require.NoError(t, err)
		assert.Empty(t, attempts)

		_, err = f.progress.GetProgress(ctx, teacher.ID)
		assert.Equal(t, progress.ErrNotFound, err)
	})
}

func TestService_Submit_progressFailure(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	teacher := testutil.CreateUser(t, f.users, "Grace", "grace@test.io", "", user.RoleTeacher)
	student := testutil.CreateUser(t, f.users, "Ada", "ada@test.io", "", user.RoleStudent)
	q := testutil.CreateQuestion(t, f.questions, "mars", "Q1", []string{"a", "b"}, 0, teacher.ID, time.Now())

	_, err := f.ledger.RecordVisit(ctx, student.ID, "earth")
	require.NoError(t, err)

	errStore := errors.New("progress store down")
	svc := quiz.NewService(f.attempts, question.NewService(f.questions, f.planets), f.planets, brokenLedger{f.ledger, errStore})
	_, err = svc.Submit(ctx, student, quiz.Submission{
		PlanetID: "mars",
		Answers:  []quiz.Answer{{QuestionID: q.ID, SelectedIndex: null.IntFrom(0)}},
	})
	assert.Equal(t, errStore, errors.Cause(err))

	attempts, err := f.attempts.QueryAttempts(ctx, quiz.AttemptFilter{UserIDs: []string{student.ID}})
	require.NoError(t, err)
	assert.Empty(t, attempts)

	prog, err := f.progress.GetProgress(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, prog.Points)
	assert.False(t, prog.Visited.Has("mars"))

	// the same submission goes through once the store recovers
	res, err := f.svc.Submit(ctx, student, quiz.Submission{
		PlanetID: "mars",
		Answers:  []quiz.Answer{{QuestionID: q.ID, SelectedIndex: null.IntFrom(0)}},
	})
	require.NoError(t, err)
	assert.Equal(t, 10, res.PointsAdded)

	attempts, err = f.attempts.QueryAttempts(ctx, quiz.AttemptFilter{UserIDs: []string{student.ID}})
	require.NoError(t, err)
	assert.Len(t, attempts, 1)

	prog, err = f.progress.GetProgress(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, prog.Points)
}

func TestService_UserAttempts(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	now := time.Now().UTC()
	for i, planetID := range []string{"earth", "mars", "earth"} {
		_, err := f.attempts.CreateAttempt(ctx, quiz.Attempt{
			UserID: "u1", PlanetID: planetID, Score: i, Total: 3, CreatedAt: now.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	_, err := f.attempts.CreateAttempt(ctx, quiz.Attempt{UserID: "u2", PlanetID: "earth", Total: 1, CreatedAt: now})
	require.NoError(t, err)

	attempts, err := f.svc.UserAttempts(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, attempts, 3)
	assert.Equal(t, []int{2, 1, 0}, []int{attempts[0].Score, attempts[1].Score, attempts[2].Score})

	attempts, err = f.svc.Query(ctx, quiz.AttemptFilter{PlanetID: "earth"})
	require.NoError(t, err)
	assert.Len(t, attempts, 3)
}
