package cli

import (
	"context"

	"github.com/dmitrijs2005/taskboard/internal/common"
)

// getSimpleText and getPassword are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Signup creates an account. It does not log in.
func (a *App) Signup(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter your name", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	err = a.authService.Signup(ctx, email, password, name)
	a.track(err)
	if err != nil {
		return err
	}

	a.printf("Account created. Please log in.\n")
	return nil
}

// Login authenticates and loads the task list into the local mirror.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.authService.Login(ctx, email, password)
	a.track(err)
	if err != nil {
		return err
	}
	a.user = u
	a.printf("Logged in as %s.\n", u.Name)

	return a.Refresh(ctx)
}

// Logout forgets the session locally even if the server cannot be told.
func (a *App) Logout(ctx context.Context) error {
	a.taskService.Wait()

	err := a.authService.Logout(ctx)
	a.track(err)
	a.user = nil
	if err != nil {
		return err
	}
	a.printf("Logged out.\n")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	if a.user == nil {
		a.printf("Not logged in.\n")
		return nil
	}
	a.printf("%s <%s> (id %d)\n", a.user.Name, a.user.Email, a.user.ID)
	return nil
}
