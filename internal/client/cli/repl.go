package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Post(ctx context.Context) error
	List(ctx context.Context) error
	Watch(ctx context.Context) error
	Retry(ctx context.Context, tempID string) error
	Dismiss(ctx context.Context, tempID string) error
	Clear(ctx context.Context) error
	Status(ctx context.Context) error
	confirmExit() bool
}

const helpText = "Available commands: post, (l)ist, watch, retry <id>, dismiss <id>, clear, status, exit"

// runREPL starts a simple read-eval-print loop for the postkeeper CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Commands that prompt for more input read
// from the same reader. The loop exits on EOF or when the user types "exit"
// or "quit" and confirms leaving while uploads are running.
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	help             show available commands
//	post             compose a post (title, content, tags, files)
//	l | list         list pending posts with progress
//	watch            follow uploads until they settle
//	retry <id>       re-upload the failed files of a post
//	dismiss <id>     drop a pending post
//	clear            drop every completed post
//	status           show connectivity and upload state
//	exit | quit      leave the program
//
// Errors returned by command handlers are ignored here; handlers report
// their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("pk %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			printlnFn(helpText)

		case "post":
			_ = a.Post(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "watch":
			_ = a.Watch(ctx)

		case "retry":
			if len(args) == 0 {
				printlnFn("Usage: retry <id>")
				continue
			}
			_ = a.Retry(ctx, args[0])

		case "dismiss":
			if len(args) == 0 {
				printlnFn("Usage: dismiss <id>")
				continue
			}
			_ = a.Dismiss(ctx, args[0])

		case "clear":
			_ = a.Clear(ctx)

		case "status":
			_ = a.Status(ctx)

		case "exit", "quit":
			if !a.confirmExit() {
				continue
			}
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
