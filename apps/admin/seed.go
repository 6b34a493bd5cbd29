package main

import (
	"context"
	"fmt"

	appfs "github.com/trezcool/solarsys/fs"
	"github.com/trezcool/solarsys/storage/database"
)

func (cli *commandLine) seed() error {
	planets, err := database.LoadPlanets(appfs.FS)
	if err != nil {
		return err
	}
	if err = cli.planetSvc.Seed(context.Background(), planets); err != nil {
		return err
	}
	fmt.Printf("%d planets seeded\n", len(planets))
	return nil
}
