package database

import (
	"io/fs"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/solarsys/core/planet"
)

const planetsSeedFile = "seeds/planets.yaml"

type planetSeeds struct {
	Planets []planet.Planet `yaml:"planets"`
}

// LoadPlanets reads the reference planets from fsys.
func LoadPlanets(fsys fs.FS) ([]planet.Planet, error) {
	data, err := fs.ReadFile(fsys, planetsSeedFile)
	if err != nil {
		return nil, errors.Wrap(err, "reading planet seeds")
	}

	var seeds planetSeeds
	if err = yaml.Unmarshal(data, &seeds); err != nil {
		return nil, errors.Wrap(err, "parsing planet seeds")
	}
	for i, p := range seeds.Planets {
		if p.ID == "" || p.Name == "" {
			return nil, errors.Errorf("planet seed #%d: id and name are required", i+1)
		}
	}
	return seeds.Planets, nil
}
