package cli

import (
	"context"
	"os"
)

func (a *App) Login(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.auth.Login(ctx, username, string(password)); err != nil {
		return err
	}
	printlnFn("Logged in as", username)

	go a.backgroundSync(ctx)
	return nil
}

func (a *App) Register(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Choose a username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.auth.Register(ctx, username, string(password)); err != nil {
		return err
	}
	printlnFn("Account created, logged in as", username)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if n, err := a.store.Oplog.Count(ctx); err == nil && n > 0 {
		printlnFn(n, "pending operation(s) will be discarded")
	}
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.gw.SetTokens("", "")
	a.cwd = nil
	a.path = nil
	printlnFn("Logged out")
	return nil
}
