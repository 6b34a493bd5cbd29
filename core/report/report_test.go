package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/solarsys/core"
	"github.com/trezcool/solarsys/core/planet"
	"github.com/trezcool/solarsys/core/progress"
	"github.com/trezcool/solarsys/core/question"
	"github.com/trezcool/solarsys/core/quiz"
	"github.com/trezcool/solarsys/core/report"
	"github.com/trezcool/solarsys/core/user"
	inmemdb "github.com/trezcool/solarsys/storage/database/inmem"
	testutil "github.com/trezcool/solarsys/tests"
)

type fixture struct {
	svc      *report.Service
	ledger   *progress.Ledger
	users    user.Repository
	attempts quiz.Repository
}

func setup(t *testing.T) fixture {
	db := inmemdb.Open()
	planetRepo := inmemdb.NewPlanetRepository(db)
	testutil.SeedPlanets(t, planetRepo)
	planetSvc := planet.NewService(planetRepo)
	progressRepo := inmemdb.NewProgressRepository(db)

	f := fixture{
		ledger:   progress.NewLedger(progressRepo, planetSvc, core.PointsConfig{VisitBonus: 5, PerCorrectAnswer: 10}),
		users:    inmemdb.NewUserRepository(db),
		attempts: inmemdb.NewAttemptRepository(db),
	}
	quizSvc := quiz.NewService(f.attempts, question.NewService(inmemdb.NewQuestionRepository(db), planetSvc), planetSvc, f.ledger)
	f.svc = report.NewService(user.NewService(f.users, nil), f.ledger, progressRepo, quizSvc, planetSvc)
	return f
}

func (f fixture) attempt(t *testing.T, userID, planetID string, score, total int, at time.Time) {
	_, err := f.attempts.CreateAttempt(context.Background(), quiz.Attempt{
		UserID: userID, PlanetID: planetID, Score: score, Total: total, Results: []quiz.Result{}, CreatedAt: at,
	})
	require.NoError(t, err)
}

func TestService_MyProgress(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	now := time.Now().UTC()

	mine, err := f.svc.MyProgress(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", mine.UserID)
	assert.Equal(t, report.Stats{}, mine.Stats)

	_, err = f.ledger.RecordVisit(ctx, "u1", "earth")
	require.NoError(t, err)
	f.attempt(t, "u1", "earth", 1, 2, now)
	f.attempt(t, "u1", "earth", 3, 4, now.Add(time.Minute))
	f.attempt(t, "u2", "earth", 4, 4, now)

	mine, err = f.svc.MyProgress(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, mine.Points)
	assert.Equal(t, 2, mine.Stats.TotalAttempts)
	assert.InDelta(t, 0.625, mine.Stats.AvgCorrectRatio, 1e-9)
	assert.InDelta(t, 0.75, mine.Stats.BestCorrectRatio, 1e-9)
}

func TestService_AllStudents(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	t0 := time.Now().Add(-time.Hour)

	testutil.CreateUser(t, f.users, "Grace", "grace@test.io", "", user.RoleTeacher)
	ada := testutil.CreateUser(t, f.users, "Ada", "ada@test.io", "", user.RoleStudent, t0)
	alan := testutil.CreateUser(t, f.users, "Alan", "alan@test.io", "", user.RoleStudent, t0.Add(time.Minute))
	linus := testutil.CreateUser(t, f.users, "Linus", "linus@test.io", "", user.RoleStudent, t0.Add(2*time.Minute))

	// ada and alan tie on points and planets, alan updated last
	for _, v := range []struct{ userID, planetID string }{
		{ada.ID, "earth"}, {ada.ID, "mars"}, {alan.ID, "venus"}, {alan.ID, "earth"},
	} {
		_, err := f.ledger.RecordVisit(ctx, v.userID, v.planetID)
		require.NoError(t, err)
	}
	f.attempt(t, ada.ID, "mars", 1, 1, time.Now())

	rows, err := f.svc.AllStudents(ctx, report.StudentFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{alan.ID, ada.ID, linus.ID}, []string{rows[0].UserID, rows[1].UserID, rows[2].UserID})
	assert.Equal(t, "Alan", rows[0].Student.Name)
	assert.Equal(t, 1, rows[1].Stats.TotalAttempts)
	assert.Zero(t, rows[2].Points)
	assert.True(t, rows[2].UpdatedAt.Equal(linus.CreatedAt))

	rows, err = f.svc.AllStudents(ctx, report.StudentFilter{UserID: ada.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 10, rows[0].Points)

	rows, err = f.svc.AllStudents(ctx, report.StudentFilter{UserID: "nobody"})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestService_Scores(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	now := time.Now().UTC()

	teacher := testutil.CreateUser(t, f.users, "Grace", "grace@test.io", "", user.RoleTeacher)
	ada := testutil.CreateUser(t, f.users, "Ada", "ada@test.io", "", user.RoleStudent)
	alan := testutil.CreateUser(t, f.users, "Alan", "alan@test.io", "", user.RoleStudent)

	f.attempt(t, ada.ID, "earth", 1, 2, now)
	f.attempt(t, alan.ID, "mars", 2, 2, now.Add(time.Minute))
	f.attempt(t, ada.ID, "ceres", 0, 1, now.Add(2*time.Minute))
	f.attempt(t, teacher.ID, "earth", 1, 1, now.Add(3*time.Minute))

	rows, err := f.svc.Scores(ctx, report.ScoreFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "ceres", rows[0].PlanetID)
	assert.Equal(t, report.PlanetRef{ID: "ceres", Name: "ceres"}, rows[0].Planet)
	assert.Equal(t, report.PlanetRef{ID: "mars", Name: "Mars"}, rows[1].Planet)
	assert.Equal(t, alan.Identity(), rows[1].Student)

	rows, err = f.svc.Scores(ctx, report.ScoreFilter{PlanetID: "earth"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, ada.ID, rows[0].UserID)

	rows, err = f.svc.Scores(ctx, report.ScoreFilter{UserID: alan.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "mars", rows[0].PlanetID)

	rows, err = f.svc.Scores(ctx, report.ScoreFilter{UserID: teacher.ID})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
