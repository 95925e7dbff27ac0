// File: cmd/notefill/main.go
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/mitchellh/go-homedir"

	"github.com/xkilldash9x/notefill/cmd"
	"github.com/xkilldash9x/notefill/internal/observability"
)

const panicLogFile = "~/.notefill/panic.log"

const banner = `
  notefill  多账号纪念币预约表单填写
  ---------------------------------
  connect --all | fill --all | status | help | exit

`

// Define function variables for dependency injection/mocking in tests.
var (
	osWriteFile = os.WriteFile
	osExit      = os.Exit
)

// shell is the part of cmd.Shell the prompt loop needs.
type shell interface {
	Exec(ctx context.Context, args []string) error
	Close()
}

func main() {
	defer handlePanic()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// If arguments are passed, execute the command directly and exit.
	if len(os.Args) > 1 {
		if err := cmd.Execute(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				osExit(0)
			} else {
				osExit(1)
			}
		}
		return
	}

	// -- Interactive Mode --
	fmt.Print(banner)
	if err := runShell(ctx, os.Stdin, os.Stdout, cmd.NewShell("")); err != nil {
		fmt.Fprintln(os.Stderr, "Error reading from stdin:", err)
		osExit(1)
	}
}

// runShell reads command lines until EOF, "exit" or an interrupt. Every line
// runs against the same shell so connections persist between lines.
func runShell(ctx context.Context, in io.Reader, out io.Writer, sh shell) error {
	defer sh.Close()
	scanner := bufio.NewScanner(in)

	for ctx.Err() == nil {
		fmt.Fprint(out, "notefill > ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					fmt.Fprintf(out, "Error: command panicked: %v\n", r)
				}
			}()
			if err := sh.Exec(ctx, strings.Fields(line)); err != nil {
				fmt.Fprintln(out, "Error:", err)
			}
		}()
	}

	if err := scanner.Err(); err != nil {
		return err
	}
	fmt.Fprintln(out, "已断开所有连接，浏览器保持打开。")
	return nil
}

// handlePanic records a crash in the panic log and exits non-zero.
func handlePanic() {
	r := recover()
	if r == nil {
		return
	}
	observability.Sync()

	panicMessage := fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack())
	path, err := homedir.Expand(panicLogFile)
	if err == nil {
		_ = os.MkdirAll(filepath.Dir(path), 0o755)
		err = osWriteFile(path, []byte(panicMessage), 0o644)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to write panic log: %v\n", err)
		fmt.Fprintf(os.Stderr, "Panic details:\n%s\n", panicMessage)
		osExit(1)
		return
	}

	fmt.Fprintf(os.Stderr, "\nCRASH DETECTED. Details logged to %s\n", path)
	osExit(2)
}
