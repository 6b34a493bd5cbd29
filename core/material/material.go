package material

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/solarsys/core"
)

var (
	ErrNotFound      = core.NewNotFoundError("material")
	ErrInvalidPlanet = core.NewFieldError("planetId", "invalid planet")

	errBlankTitle   = core.NewFieldError("title", "this field cannot be blank")
	errBlankContent = core.NewFieldError("content", "this field cannot be blank")
)

type Material struct {
	ID        string    `json:"id"`
	PlanetID  string    `json:"planetId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"` // UTC
	UpdatedAt time.Time `json:"updatedAt"` // UTC
}

type NewMaterial struct {
	PlanetID string `json:"planetId" validate:"required,notblank"`
	Title    string `json:"title" validate:"required,notblank"`
	Content  string `json:"content" validate:"required,notblank"`
}

func (nm *NewMaterial) Validate(validate *validator.Validate) error {
	nm.PlanetID = core.CleanString(nm.PlanetID)
	nm.Title = core.CleanString(nm.Title)
	return validate.Struct(nm)
}

// UpdateMaterial holds a partial update: nil fields are left unchanged.
type UpdateMaterial struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

type QueryFilter struct {
	PlanetID string `query:"planetId"`
}

func (qf *QueryFilter) Clean() {
	qf.PlanetID = core.CleanString(qf.PlanetID)
}

type (
	Repository interface {
		CreateMaterial(ctx context.Context, m Material) (Material, error)
		// QueryMaterials returns the materials sorted by most recently updated first.
		QueryMaterials(ctx context.Context, filter QueryFilter) ([]Material, error)
		GetMaterial(ctx context.Context, id string) (Material, error)
		UpdateMaterial(ctx context.Context, m Material) (Material, error)
		DeleteMaterial(ctx context.Context, id string) error
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

func (svc *Service) List(ctx context.Context, filter QueryFilter) ([]Material, error) {
	filter.Clean()
	items, err := svc.repo.QueryMaterials(ctx, filter)
	return items, errors.Wrap(err, "querying materials")
}

func (svc *Service) Get(ctx context.Context, id string) (Material, error) {
	return svc.repo.GetMaterial(ctx, id)
}

// Create stores a validated NewMaterial authored by authorID.
func (svc *Service) Create(ctx context.Context, nm NewMaterial, authorID string) (Material, error) {
	ok, err := svc.planets.Exists(ctx, nm.PlanetID)
	if err != nil {
		return Material{}, errors.Wrap(err, "checking planet")
	}
	if !ok {
		return Material{}, ErrInvalidPlanet
	}

	now := time.Now().UTC()
	m, err := svc.repo.CreateMaterial(ctx, Material{
		PlanetID:  nm.PlanetID,
		Title:     nm.Title,
		Content:   nm.Content,
		CreatedBy: authorID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return m, errors.Wrap(err, "creating material")
}

// Update applies the set fields of um and always bumps UpdatedAt.
func (svc *Service) Update(ctx context.Context, id string, um UpdateMaterial) (Material, error) {
	m, err := svc.repo.GetMaterial(ctx, id)
	if err != nil {
		return Material{}, err
	}
	if um.Title != nil {
		if m.Title = core.CleanString(*um.Title); m.Title == "" {
			return Material{}, errBlankTitle
		}
	}
	if um.Content != nil {
		if core.CleanString(*um.Content) == "" {
			return Material{}, errBlankContent
		}
		m.Content = *um.Content
	}
	m.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateMaterial(ctx, m)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteMaterial(ctx, id)
}
