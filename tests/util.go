// Package testutil holds the fixtures shared by the test suites.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/solarsys/core"
	"github.com/trezcool/solarsys/core/planet"
	"github.com/trezcool/solarsys/core/question"
	"github.com/trezcool/solarsys/core/user"
	appfs "github.com/trezcool/solarsys/fs"
	"github.com/trezcool/solarsys/storage/database"
)

// NewConfig returns the default config in test mode.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true
	return conf
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// SeedPlanets stores the embedded reference planets.
func SeedPlanets(t *testing.T, repo planet.Repository) []planet.Planet {
	t.Helper()
	planets, err := database.LoadPlanets(appfs.FS)
	if err != nil {
		t.Fatalf("SeedPlanets() failed: %v", err)
	}
	if err = planet.NewService(repo).Seed(context.Background(), planets); err != nil {
		t.Fatalf("SeedPlanets() failed: %v", err)
	}
	return planets
}

func CreateQuestion(
	t *testing.T,
	repo question.Repository,
	planetID, prompt string,
	options []string,
	correctIndex int,
	authorID string,
	createdAt ...time.Time,
) question.Question {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	q, err := repo.CreateQuestion(context.Background(), question.Question{
		PlanetID:     planetID,
		Prompt:       prompt,
		Options:      options,
		CorrectIndex: correctIndex,
		Explanation:  prompt + " explained",
		CreatedBy:    authorID,
		CreatedAt:    tstamp,
	})
	if err != nil {
		t.Fatalf("CreateQuestion() failed: %v", err)
	}
	return q
}
