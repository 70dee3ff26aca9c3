package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword reads from the terminal without echo. Tests replace it.
var readPassword = term.ReadPassword

// Prompt helpers used by the commands, swapped in tests.
var (
	askField    = AskField
	askNotes    = AskNotes
	askPassword = AskPassword
)

// AskField prints "label: " to w and returns the trimmed answer read from r.
// A last line without a trailing newline is still accepted.
func AskField(r *bufio.Reader, label string, w io.Writer) (string, error) {
	if _, err := fmt.Fprintf(w, "%s: ", label); err != nil {
		return "", err
	}
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// AskNotes reads the free-form notes of an entry, one line at a time. An
// empty line, a lone "." or the end of input finishes them. Line breaks
// inside the notes are kept; surrounding whitespace is not.
func AskNotes(r *bufio.Reader, label string, w io.Writer) (string, error) {
	if _, err := fmt.Fprintf(w, "%s (end with an empty line or \".\"):\n", label); err != nil {
		return "", err
	}

	var lines []string
	for {
		line, err := r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" || line == "." {
			break
		}
		lines = append(lines, line)
		if err != nil {
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// AskPassword asks for the admin password without echoing it. The caller
// should wipe the returned slice once it is done with it.
func AskPassword(w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprint(w, "Admin password: "); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return pw, nil
}
