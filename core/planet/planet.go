package planet

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/solarsys/core"
)

var ErrNotFound = core.NewNotFoundError("planet")

// Planet is read-only reference data seeded at startup.
type Planet struct {
	ID         string  `json:"id" yaml:"id"`
	Name       string  `json:"name" yaml:"name"`
	Order      int     `json:"order" yaml:"order"`
	Radius     float64 `json:"radius" yaml:"radius"`
	DistanceAU float64 `json:"distanceAU" yaml:"distanceAU"`
	Color      string  `json:"color" yaml:"color"`
	Summary    string  `json:"summary" yaml:"summary"`
}

type (
	Repository interface {
		QueryPlanets(ctx context.Context) ([]Planet, error)
		GetPlanet(ctx context.Context, id string) (Planet, error)
		// UpsertPlanets inserts the planets or overwrites the existing ones with the same ID.
		UpsertPlanets(ctx context.Context, planets ...Planet) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all planets sorted by their order from the sun.
func (svc *Service) List(ctx context.Context) ([]Planet, error) {
	planets, err := svc.repo.QueryPlanets(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying planets")
	}
	sort.SliceStable(planets, func(i, j int) bool { return planets[i].Order < planets[j].Order })
	return planets, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Planet, error) {
	return svc.repo.GetPlanet(ctx, id)
}

// Exists reports whether a planet with the given ID is known.
func (svc *Service) Exists(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	if _, err := svc.repo.GetPlanet(ctx, id); err != nil {
		if errors.Cause(err) == ErrNotFound {
			return false, nil
		}
		return false, errors.Wrap(err, "finding planet")
	}
	return true, nil
}

// Seed upserts the reference planets.
func (svc *Service) Seed(ctx context.Context, planets []Planet) error {
	if len(planets) == 0 {
		return nil
	}
	return errors.Wrap(svc.repo.UpsertPlanets(ctx, planets...), "upserting planets")
}

// Names maps planet IDs to their display names.
func (svc *Service) Names(ctx context.Context) (map[string]string, error) {
	planets, err := svc.repo.QueryPlanets(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying planets")
	}
	names := make(map[string]string, len(planets))
	for _, p := range planets {
		names[p.ID] = p.Name
	}
	return names, nil
}
