package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App satisfies
// it; tests substitute a stub.
type execIface interface {
	isLoggedIn(ctx context.Context) bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context) error
	ChangeDir(ctx context.Context, name string) error
	Mkdir(ctx context.Context, name string) error
	Put(ctx context.Context, path string) error
	Get(ctx context.Context, id, dest string) error
	Rename(ctx context.Context, id, name string) error
	Move(ctx context.Context, id, target string) error
	Remove(ctx context.Context, id string) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
}

// runREPL reads commands line by line and dispatches them. It exits on
// EOF or "exit"/"quit". Handler errors are printed, never fatal: the
// shell stays up through offline periods and server hiccups.
//
// The reader is the same one the login/register prompts read from, so
// input typed ahead of a prompt is not lost to a second buffer.
//
// Commands:
//
//	Not logged in:
//	  - help         — show available commands
//	  - register     — create an account
//	  - login        — authenticate
//	  - exit | quit  — leave the program
//
//	Logged in:
//	  - ls                 — list the current folder
//	  - cd <name|..>       — enter a folder, or go back up
//	  - mkdir <name>       — create a folder here
//	  - put <path>         — upload a local file here
//	  - get <id> [dest]    — download a file
//	  - rename <id> <name> — rename a file or folder
//	  - mv <id> <dir|/>    — move into a folder by name, / = root
//	  - rm | rmdir <id>    — delete a file or folder
//	  - sync               — run a full sync now
//	  - status             — connection, user, pending operations
//	  - logout             — log out and wipe local data
//	  - exit | quit        — leave the program
func runREPL(ctx context.Context, a execIface, statusFn func(context.Context) string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("driftbox> %s > ", statusFn(ctx)))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if err := dispatch(ctx, a, cmd, args); err != nil {
			if err == errExit {
				printlnFn("Bye!")
				return
			}
			printlnFn("Error:", err)
		}
	}
}

var errExit = fmt.Errorf("exit")

func dispatch(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "help":
		if a.isLoggedIn(ctx) {
			printlnFn("Available commands: ls, cd, mkdir, put, get, rename, mv, rm, rmdir, sync, status, logout, exit")
		} else {
			printlnFn("Available commands: register, login, exit")
		}
		return nil
	case "register":
		return a.Register(ctx)
	case "login":
		return a.Login(ctx)
	case "logout":
		return a.Logout(ctx)
	case "l", "ls":
		return a.List(ctx)
	case "cd":
		if len(args) != 1 {
			return fmt.Errorf("usage: cd <name|..>")
		}
		return a.ChangeDir(ctx, args[0])
	case "mkdir":
		if len(args) != 1 {
			return fmt.Errorf("usage: mkdir <name>")
		}
		return a.Mkdir(ctx, args[0])
	case "put":
		if len(args) != 1 {
			return fmt.Errorf("usage: put <path>")
		}
		return a.Put(ctx, args[0])
	case "get":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("usage: get <id> [dest]")
		}
		dest := ""
		if len(args) == 2 {
			dest = args[1]
		}
		return a.Get(ctx, args[0], dest)
	case "rename":
		if len(args) != 2 {
			return fmt.Errorf("usage: rename <id> <name>")
		}
		return a.Rename(ctx, args[0], args[1])
	case "mv":
		if len(args) != 2 {
			return fmt.Errorf("usage: mv <id> <dir|/>")
		}
		return a.Move(ctx, args[0], args[1])
	case "rm", "rmdir":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <id>", cmd)
		}
		return a.Remove(ctx, args[0])
	case "sync":
		return a.Sync(ctx)
	case "status":
		return a.Status(ctx)
	case "exit", "quit":
		return errExit
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}
