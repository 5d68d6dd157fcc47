package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/manup/agenda/internal/common"
)

// getSimpleText, getPassword and getMultiline are indirections used to
// facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getMultiline  = GetMultiline
)

var errNotLoggedIn = errors.New("not logged in, use 'login' first")

// Register prompts for email, display name and password and creates an
// account. The password is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, "Enter display name (optional)", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.api.Register(ctx, email, password, name); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Account created. You can now log in.")
	return nil
}

// Login prompts for credentials and keeps the session on success.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	account, err := a.api.Login(ctx, email, password)
	if err != nil {
		return err
	}

	a.account = account
	fmt.Fprintf(a.out, "Welcome, %s!\n", account.DisplayName)
	return nil
}

func (a *App) Logout(context.Context) error {
	a.api.Logout()
	a.account = nil
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) RequestReset(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter the email of your account", a.out)
	if err != nil {
		return err
	}

	msg, err := a.api.RequestReset(ctx, email)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

// CompleteReset asks for the token from the reset email and a new
// password, entered twice.
func (a *App) CompleteReset(ctx context.Context) error {
	token, err := getSimpleText(a.reader, "Enter reset token", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword("Enter new password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword("Repeat new password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if string(password) != string(confirm) {
		return errors.New("passwords do not match")
	}

	msg, err := a.api.CompleteReset(ctx, token, password)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, msg)
	return nil
}

func (a *App) Me(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	acc, err := a.api.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s <%s>\nmember since %s\n", acc.DisplayName, acc.Email, acc.CreatedAt.Local().Format("2006-01-02"))
	return nil
}
