package cli

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
)

func (a *App) getStatus() string {
	s := ""
	if a.account != nil {
		s = a.account.Email + " "
	}
	s += string(a.mode())
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root checks connectivity once, starts the status watcher and runs the
// REPL on stdin until the user exits.
func (a *App) Root(ctx context.Context) {
	log.Println("Welcome to the ManUp agenda CLI (type 'help' for commands)")

	a.checkOnline(ctx)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}
