package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/taskboard/internal/client/client"
	"github.com/dmitrijs2005/taskboard/internal/common"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives. App implements it.
type execIface interface {
	isLoggedIn() bool
	drainFailures()

	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error

	List(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Board(ctx context.Context) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, args []string) error
	Move(ctx context.Context, args []string) error
	Toggle(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Refresh(ctx context.Context) error
	Dashboard(ctx context.Context) error
	Users(ctx context.Context) error
}

const (
	helpAnonymous = "Available commands: signup, login, whoami, exit"
	helpUser      = "Available commands: (l)ist [status=.. priority=.. assignee=.. creator=..], show <id>, board, " +
		"add, edit <id>, move <id> <status>, toggle <id>, delete <id>, refresh, dashboard, users, whoami, logout, exit"
)

// runREPL reads one command per line from reader and dispatches it to a.
// Task commands need a session. Command errors are printed and the loop
// goes on; it ends on EOF, "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		a.drainFailures()
		printlnFn(fmt.Sprintf("tb%s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}

		if needsSession(cmd) && !a.isLoggedIn() {
			printlnFn("Please log in first.")
			continue
		}

		if err := dispatch(ctx, a, cmd, args); err != nil {
			printlnFn("Error:", describe(err))
		}
	}
}

func needsSession(cmd string) bool {
	switch cmd {
	case "help", "signup", "login", "whoami":
		return false
	}
	return true
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			printlnFn(helpUser)
		} else {
			printlnFn(helpAnonymous)
		}
		return nil
	case "signup":
		return a.Signup(ctx)
	case "login":
		return a.Login(ctx)
	case "logout":
		return a.Logout(ctx)
	case "whoami":
		return a.WhoAmI(ctx)
	case "l", "list":
		return a.List(ctx, args)
	case "show":
		return a.Show(ctx, args)
	case "board":
		return a.Board(ctx)
	case "add":
		return a.Add(ctx)
	case "edit":
		return a.Edit(ctx, args)
	case "move":
		return a.Move(ctx, args)
	case "toggle":
		return a.Toggle(ctx, args)
	case "delete", "rm":
		return a.Delete(ctx, args)
	case "refresh":
		return a.Refresh(ctx)
	case "dashboard":
		return a.Dashboard(ctx)
	case "users":
		return a.Users(ctx)
	}
	printlnFn("Unknown command:", cmd)
	return nil
}

// describe turns an error into the line shown to the user.
func describe(err error) string {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Error()
	case errors.Is(err, client.ErrUnavailable):
		return "server unavailable, try again later"
	case errors.Is(err, common.ErrNotFound):
		return "no such task in the local list, try 'refresh'"
	}
	return err.Error()
}
