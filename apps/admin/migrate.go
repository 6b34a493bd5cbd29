package main

import (
	"github.com/trezcool/goose"

	appfs "github.com/trezcool/solarsys/fs"
	"github.com/trezcool/solarsys/storage/database"
)

var gooseRunFunc = goose.RunFS // mockable

func (cli *commandLine) migrate(args []string) error {
	return gooseRunFunc(args[0], cli.db, appfs.FS, database.MigrationsDir, args[1:]...)
}
