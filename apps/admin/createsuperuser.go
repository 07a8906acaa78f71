package main

import (
	"context"

	"github.com/infobank/intranet/core"
	"github.com/infobank/intranet/core/user"
)

// createSuperuser updates or creates an active admin account.
func (cli *commandLine) createSuperuser(email, nombre, apellido, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		usr = user.User{
			Nombre:   core.CleanString(nombre),
			Apellido: core.CleanString(apellido),
			Email:    email,
		}
	}
	usr.Rol = user.RolAdmin
	usr.Estado = user.EstadoActivo
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if usr.ID == "" {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	}
	return err
}
