package progress

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/solarsys/core"
)

var (
	ErrNotFound      = core.NewNotFoundError("progress")
	ErrInvalidPlanet = core.NewFieldError("planetId", "invalid planet")

	errPlanetRequired = core.NewFieldError("planetId", "this field is required")
	errInvalidScore   = errors.New("score must be between 0 and total")
)

// Progress is the per-user ledger of visited planets and points.
// Points never decrease.
type Progress struct {
	UserID    string
	Visited   PlanetSet
	Points    int
	CreatedAt time.Time // UTC
	UpdatedAt time.Time // UTC
}

// View is the projection of a Progress sent to clients.
type View struct {
	UserID         string    `json:"userId"`
	VisitedPlanets PlanetSet `json:"visitedPlanets"`
	Points         int       `json:"points"`
	UpdatedAt      time.Time `json:"updatedAt"`
	VisitedCount   int       `json:"visitedCount"`
}

func (p Progress) View() View {
	visited := p.Visited
	if visited == nil {
		visited = NewPlanetSet()
	}
	return View{
		UserID:         p.UserID,
		VisitedPlanets: visited,
		Points:         p.Points,
		UpdatedAt:      p.UpdatedAt,
		VisitedCount:   visited.Len(),
	}
}

type (
	Repository interface {
		GetProgress(ctx context.Context, userID string) (Progress, error)
		// QueryProgress returns the records of the given users, or all records when none is given.
		QueryProgress(ctx context.Context, userIDs ...string) ([]Progress, error)
		// UpdateProgress creates the user's record when missing, then runs fn on it with exclusive
		// access for the whole read-modify-write cycle and saves what fn leaves.
		// Nothing is saved when fn fails.
		UpdateProgress(ctx context.Context, userID string, fn func(*Progress) error) (Progress, error)
	}

	// PlanetChecker tells whether a planet exists.
	PlanetChecker interface {
		Exists(ctx context.Context, id string) (bool, error)
	}
)
