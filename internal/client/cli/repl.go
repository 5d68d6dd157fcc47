package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	RequestReset(ctx context.Context) error
	CompleteReset(ctx context.Context) error
	Me(ctx context.Context) error
	Appointments(ctx context.Context) error
	AddAppointment(ctx context.Context) error
	Complete(ctx context.Context, id string) error
	Reopen(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Posts(ctx context.Context) error
	MorePosts(ctx context.Context) error
	AddPost(ctx context.Context) error
	BMI(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, login, reset-request, reset-complete, posts, more, bmi, exit"
	helpLoggedIn  = "Available commands: me, appointments, add-appointment, complete <id>, reopen <id>, delete <id>, posts, more, post, bmi, logout, exit"
)

// runREPL reads one command per line from scanner and dispatches it to a.
// The prompt shows statusFn(). Command errors are printed and the loop
// goes on; it ends on EOF, "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("agenda> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		arg := ""
		if len(parts) > 1 {
			arg = parts[1]
		}

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "reset-request":
			err = a.RequestReset(ctx)
		case "reset-complete":
			err = a.CompleteReset(ctx)
		case "me":
			err = a.Me(ctx)

		case "appointments", "l", "list":
			err = a.Appointments(ctx)
		case "add-appointment", "add":
			err = a.AddAppointment(ctx)
		case "complete":
			err = a.Complete(ctx, arg)
		case "reopen":
			err = a.Reopen(ctx, arg)
		case "delete":
			err = a.Delete(ctx, arg)

		case "posts":
			err = a.Posts(ctx)
		case "more":
			err = a.MorePosts(ctx)
		case "post":
			err = a.AddPost(ctx)

		case "bmi":
			err = a.BMI(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
