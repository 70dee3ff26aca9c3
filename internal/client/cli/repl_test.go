package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	calls [][]string
	err   error
}

func (f *fakeExec) Execute(ctx context.Context, args []string) error {
	f.calls = append(f.calls, args)
	return f.err
}

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, fmt.Sprint(a...))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })
	return &lines
}

func TestRunREPL_DispatchesLines(t *testing.T) {
	captureOutput(t)

	input := bufio.NewReader(strings.NewReader(strings.Join([]string{
		"list --month 2024-03",
		"",
		"   ",
		"add -t Dune -k book",
		"sync",
		"exit",
		"list",
	}, "\n")))

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "status" }, input)

	assert.Equal(t, [][]string{
		{"list", "--month", "2024-03"},
		{"add", "-t", "Dune", "-k", "book"},
		{"sync"},
	}, exec.calls)
}

func TestRunREPL_ErrorsKeepLooping(t *testing.T) {
	out := captureOutput(t)

	input := bufio.NewReader(strings.NewReader("get 1\nget 2"))
	exec := &fakeExec{err: errors.New("boom")}

	runREPL(context.Background(), exec, func() string { return "s" }, input)

	assert.Len(t, exec.calls, 2, "last line without newline still runs")
	assert.Contains(t, *out, "Error: boom")
}

func TestRunREPL_QuitAndNestedShell(t *testing.T) {
	out := captureOutput(t)

	input := bufio.NewReader(strings.NewReader("shell\nquit\n"))
	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "s" }, input)

	assert.Empty(t, exec.calls)
	assert.Contains(t, *out, "Already in the shell")
	assert.Contains(t, *out, "Bye!")
}

func TestRunREPL_StopsOnCancelledContext(t *testing.T) {
	captureOutput(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec := &fakeExec{}
	runREPL(ctx, exec, func() string { return "s" }, bufio.NewReader(strings.NewReader("list\n")))

	assert.Empty(t, exec.calls)
}
