package cli

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02 15:04"

func (a *App) Appointments(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	items, err := a.api.Appointments(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No appointments.")
		return nil
	}
	for _, it := range items {
		mark := " "
		if it.Status == "completed" {
			mark = "x"
		}
		fmt.Fprintf(a.out, "[%s] %s  %s  %s\n", mark, it.ScheduledAt.Local().Format(dateLayout), it.Title, it.ID)
	}
	return nil
}

func (a *App) AddAppointment(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}

	title, err := getSimpleText(a.reader, "Title", a.out)
	if err != nil {
		return err
	}
	when, err := getSimpleText(a.reader, "Date and time (YYYY-MM-DD HH:MM)", a.out)
	if err != nil {
		return err
	}
	at, err := time.ParseInLocation(dateLayout, when, time.Local)
	if err != nil {
		return fmt.Errorf("invalid date %q", when)
	}
	desc, err := getMultiline(a.reader, "Description (optional)", a.out)
	if err != nil {
		return err
	}

	ap, err := a.api.AddAppointment(ctx, title, at, desc)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Appointment %s added.\n", ap.ID)
	return nil
}

func (a *App) setStatus(ctx context.Context, id, status string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	if id == "" {
		return errors.New("usage: <command> <id>")
	}
	ap, err := a.api.SetAppointmentStatus(ctx, id, status)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s is now %s.\n", ap.Title, ap.Status)
	return nil
}

func (a *App) Complete(ctx context.Context, id string) error {
	return a.setStatus(ctx, id, "completed")
}

func (a *App) Reopen(ctx context.Context, id string) error {
	return a.setStatus(ctx, id, "pending")
}

func (a *App) Delete(ctx context.Context, id string) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	if id == "" {
		return errors.New("usage: delete <id>")
	}
	if err := a.api.DeleteAppointment(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Deleted.")
	return nil
}
