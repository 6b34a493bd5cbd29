package main

import (
	"context"

	"github.com/trezcool/solarsys/core/user"
)

// addUser registers a user. Students get their progress record right away.
func (cli *commandLine) addUser(name, email, role, pwd string) error {
	ctx := context.Background()
	nu := user.NewUser{Name: name, Email: email, Password: pwd, Role: role}
	if err := nu.Validate(cli.validate); err != nil {
		return err
	}

	usr, err := cli.usrSvc.Create(ctx, nu)
	if err != nil {
		return err
	}
	if usr.IsStudent() {
		if _, err = cli.ledger.Ensure(ctx, usr.ID); err != nil {
			return err
		}
	}
	return nil
}
