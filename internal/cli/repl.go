package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for REPL output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. Shell implements
// it; tests use a stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Guest(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	Save(ctx context.Context) error
	Mine(ctx context.Context) error
	Assigned(ctx context.Context) error
	Show(ctx context.Context, recordID string) error
	Assign(ctx context.Context, recordID, email string) error
	Status(ctx context.Context, recordID, status string) error
	Inbox(ctx context.Context) error
	Read(ctx context.Context, id string) error
	Download(ctx context.Context, recordID, path string) error
}

// usage maps commands with arguments to their synopsis.
var usage = map[string]string{
	"show":     "show <id>",
	"assign":   "assign <id> <email>",
	"status":   "status <id> <status>",
	"read":     "read <id>",
	"download": "download <id> <path>",
}

var arity = map[string]int{
	"show":     1,
	"assign":   2,
	"status":   2,
	"read":     1,
	"download": 2,
}

// runREPL reads commands from reader until EOF, "exit" or "quit". Handler
// errors are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("po %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if n, ok := arity[cmd]; ok && len(args) != n {
			printlnFn("Usage:", usage[cmd])
			continue
		}

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: save, mine, assigned, show, assign, status, inbox, read, download, whoami, logout, exit")
			} else {
				printlnFn("Available commands: register, login, guest, exit")
			}

		case "register":
			cmdErr = a.Register(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "guest":
			cmdErr = a.Guest(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "whoami":
			cmdErr = a.Whoami(ctx)
		case "save":
			cmdErr = a.Save(ctx)
		case "mine":
			cmdErr = a.Mine(ctx)
		case "assigned":
			cmdErr = a.Assigned(ctx)
		case "show":
			cmdErr = a.Show(ctx, args[0])
		case "assign":
			cmdErr = a.Assign(ctx, args[0], args[1])
		case "status":
			cmdErr = a.Status(ctx, args[0], args[1])
		case "inbox":
			cmdErr = a.Inbox(ctx)
		case "read":
			cmdErr = a.Read(ctx, args[0])
		case "download":
			cmdErr = a.Download(ctx, args[0], args[1])

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
		if err != nil {
			return
		}
	}
}
