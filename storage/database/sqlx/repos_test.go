package sqlxrepos_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/solarsys/core"
	"github.com/trezcool/solarsys/core/planet"
	"github.com/trezcool/solarsys/core/progress"
	"github.com/trezcool/solarsys/core/question"
	"github.com/trezcool/solarsys/core/quiz"
	"github.com/trezcool/solarsys/core/user"
	appfs "github.com/trezcool/solarsys/fs"
	"github.com/trezcool/solarsys/storage/database"
	sqlxrepos "github.com/trezcool/solarsys/storage/database/sqlx"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres tests in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("solarsys_test"),
		postgres.WithUsername("solarsys"),
		postgres.WithPassword("solarsys"),
		postgres.BasicWaitStrategies(),
	)
	if ctr != nil {
		t.Cleanup(func() { require.NoError(t, ctr.Terminate(context.Background())) })
	}
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := database.OpenURL("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(db))
	planets, err := database.LoadPlanets(appfs.FS)
	require.NoError(t, err)
	require.NoError(t, planet.NewService(sqlxrepos.NewPlanetRepository(db)).Seed(ctx, planets))
	return db
}

func createUser(t *testing.T, repo user.Repository, email, role string) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr, err := repo.CreateUser(context.Background(), user.User{
		Name:         "Test " + role,
		Email:        email,
		Role:         role,
		PasswordHash: []byte("hash"),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	require.NoError(t, err)
	return usr
}

func TestRepositories(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := sqlxrepos.NewUserRepository(db)

	t.Run("users", func(t *testing.T) {
		usr := createUser(t, users, "ada@test.io", user.RoleStudent)

		_, err := users.CreateUser(ctx, user.User{Email: "ada@test.io", Role: user.RoleStudent, PasswordHash: []byte("x")})
		assert.Equal(t, user.ErrEmailExists, err)

		got, err := users.GetUser(ctx, user.GetFilter{Email: "ada@test.io"})
		require.NoError(t, err)
		assert.Equal(t, usr.ID, got.ID)
		assert.False(t, got.LastLogin.Valid)

		_, err = users.GetUser(ctx, user.GetFilter{ID: "not-a-uuid"})
		assert.Equal(t, user.ErrNotFound, err)

		got.LastLogin = null.TimeFrom(time.Now().UTC())
		_, err = users.UpdateUser(ctx, got)
		require.NoError(t, err)
		got, err = users.GetUser(ctx, user.GetFilter{ID: usr.ID})
		require.NoError(t, err)
		assert.True(t, got.LastLogin.Valid)

		createUser(t, users, "grace@test.io", user.RoleTeacher)
		students, err := users.QueryUsers(ctx, user.QueryFilter{Role: user.RoleStudent})
		require.NoError(t, err)
		require.Len(t, students, 1)
		assert.Equal(t, usr.ID, students[0].ID)
	})

	t.Run("planets", func(t *testing.T) {
		repo := sqlxrepos.NewPlanetRepository(db)
		planets, err := repo.QueryPlanets(ctx)
		require.NoError(t, err)
		require.Len(t, planets, 8)
		assert.Equal(t, "mercury", planets[0].ID)

		_, err = repo.GetPlanet(ctx, "pluto")
		assert.Equal(t, planet.ErrNotFound, err)
	})

	t.Run("questions and attempts", func(t *testing.T) {
		teacher := createUser(t, users, "ms.frizzle@test.io", user.RoleTeacher)
		student := createUser(t, users, "arnold@test.io", user.RoleStudent)
		questions := sqlxrepos.NewQuestionRepository(db)

		base := time.Now().UTC().Truncate(time.Millisecond)
		for i, prompt := range []string{"Q1", "Q2"} {
			_, err := questions.CreateQuestion(ctx, question.Question{
				PlanetID:     "mars",
				Prompt:       prompt,
				Options:      []string{"a", "b", "c"},
				CorrectIndex: i,
				CreatedBy:    teacher.ID,
				CreatedAt:    base.Add(time.Duration(i) * time.Second),
			})
			require.NoError(t, err)
		}

		asc := []core.DBOrdering{{Field: "created_at", Ascending: true}}
		items, err := questions.QueryQuestions(ctx, question.QueryFilter{PlanetID: "mars"}, asc)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "Q1", items[0].Prompt)
		assert.Equal(t, []string{"a", "b", "c"}, items[0].Options)

		attempts := sqlxrepos.NewAttemptRepository(db)
		grading := quiz.Grade(items, []quiz.Answer{{QuestionID: items[0].ID, SelectedIndex: null.IntFrom(0)}})
		_, err = attempts.CreateAttempt(ctx, quiz.Attempt{
			UserID:    student.ID,
			PlanetID:  "mars",
			Score:     grading.Score,
			Total:     grading.Total,
			Results:   grading.Results,
			CreatedAt: time.Now().UTC(),
		})
		require.NoError(t, err)

		got, err := attempts.QueryAttempts(ctx, quiz.AttemptFilter{UserIDs: []string{student.ID}, PlanetID: "mars"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 1, got[0].Score)
		assert.Equal(t, grading.Results, got[0].Results)

		got, err = attempts.QueryAttempts(ctx, quiz.AttemptFilter{PlanetID: "venus"})
		require.NoError(t, err)
		assert.Empty(t, got)

		// a failing award rolls the attempt back
		errAward := errors.New("award failed")
		_, err = attempts.CreateAttemptWithProgress(ctx, quiz.Attempt{
			UserID: student.ID, PlanetID: "venus", Total: 1, CreatedAt: time.Now().UTC(),
		}, func(*progress.Progress) error { return errAward })
		assert.Equal(t, errAward, err)

		got, err = attempts.QueryAttempts(ctx, quiz.AttemptFilter{PlanetID: "venus"})
		require.NoError(t, err)
		assert.Empty(t, got)
		progRepo := sqlxrepos.NewProgressRepository(db)
		_, err = progRepo.GetProgress(ctx, student.ID)
		assert.Equal(t, progress.ErrNotFound, err)

		a, err := attempts.CreateAttemptWithProgress(ctx, quiz.Attempt{
			UserID: student.ID, PlanetID: "venus", Score: 1, Total: 1, CreatedAt: time.Now().UTC(),
		}, func(p *progress.Progress) error {
			p.Points += 10
			p.Visited.Add("venus")
			return nil
		})
		require.NoError(t, err)

		got, err = attempts.QueryAttempts(ctx, quiz.AttemptFilter{PlanetID: "venus"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, a.ID, got[0].ID)
		p, err := progRepo.GetProgress(ctx, student.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, p.Points)
		assert.Equal(t, []string{"venus"}, p.Visited.Sorted())
	})

	t.Run("progress", func(t *testing.T) {
		student := createUser(t, users, "wanda@test.io", user.RoleStudent)
		repo := sqlxrepos.NewProgressRepository(db)
		ledger := progress.NewLedger(repo, planet.NewService(sqlxrepos.NewPlanetRepository(db)), core.PointsConfig{
			VisitBonus:       5,
			PerCorrectAnswer: 10,
		})

		_, err := repo.GetProgress(ctx, student.ID)
		assert.Equal(t, progress.ErrNotFound, err)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := ledger.RecordVisit(ctx, student.ID, "earth")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		p, err := repo.GetProgress(ctx, student.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, p.Points)
		assert.Equal(t, []string{"earth"}, p.Visited.Sorted())

		mine, err := repo.QueryProgress(ctx, student.ID)
		require.NoError(t, err)
		assert.Len(t, mine, 1)

		all, err := repo.QueryProgress(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}
