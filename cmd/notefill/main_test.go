// File: cmd/notefill/main_test.go
package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Setup Helpers ---

// resetMocks restores the original function implementations.
func resetMocks() {
	osWriteFile = os.WriteFile
	osExit = os.Exit
}

type recordingShell struct {
	lines  [][]string
	fail   map[string]error
	panics map[string]bool
	closed bool
}

func (s *recordingShell) Exec(_ context.Context, args []string) error {
	s.lines = append(s.lines, args)
	if s.panics[args[0]] {
		panic("boom")
	}
	return s.fail[args[0]]
}

func (s *recordingShell) Close() { s.closed = true }

func TestRunShell(t *testing.T) {
	sh := &recordingShell{fail: map[string]error{"fill": errors.New("not connected")}, panics: map[string]bool{"inspect": true}}
	in := strings.NewReader("connect --all\n\n  fill 2  \ninspect 1\nstatus\nexit\nstatus\n")
	var out bytes.Buffer

	require.NoError(t, runShell(context.Background(), in, &out, sh))

	assert.Equal(t, [][]string{{"connect", "--all"}, {"fill", "2"}, {"inspect", "1"}, {"status"}}, sh.lines)
	assert.True(t, sh.closed)
	assert.Contains(t, out.String(), "Error: not connected")
	assert.Contains(t, out.String(), "command panicked: boom")
}

func TestRunShell_StopsWhenCanceled(t *testing.T) {
	sh := &recordingShell{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, runShell(ctx, strings.NewReader("status\n"), &bytes.Buffer{}, sh))
	assert.Empty(t, sh.lines)
	assert.True(t, sh.closed)
}

func TestHandlePanic(t *testing.T) {
	defer resetMocks()
	t.Setenv("HOME", t.TempDir())

	var written []byte
	var code int
	osWriteFile = func(name string, data []byte, perm os.FileMode) error {
		written = data
		return nil
	}
	osExit = func(c int) { code = c }

	func() {
		defer handlePanic()
		panic("kaboom")
	}()

	assert.Contains(t, string(written), "panic: kaboom")
	assert.Equal(t, 2, code)
}

func TestHandlePanic_WriteFails(t *testing.T) {
	defer resetMocks()
	var code int
	osWriteFile = func(string, []byte, os.FileMode) error { return errors.New("read-only") }
	osExit = func(c int) { code = c }

	func() {
		defer handlePanic()
		panic("kaboom")
	}()
	assert.Equal(t, 1, code)
}
