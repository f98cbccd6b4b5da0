package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// input reads lines on demand. A line is only read from the underlying
// reader after it was requested, so a password can be read from the same
// terminal without racing the line reader.
type input struct {
	want    chan struct{}
	lines   chan string
	pending bool
	eof     bool

	// fd is the terminal to read passwords from, or -1.
	fd int
}

func newInput(r io.Reader) *input {
	in := &input{
		want:  make(chan struct{}),
		lines: make(chan string, 1),
		fd:    -1,
	}
	if f, ok := r.(*os.File); ok && isTerminal(int(f.Fd())) {
		in.fd = int(f.Fd())
	}

	sc := bufio.NewScanner(r)
	go func() {
		defer close(in.lines)
		for range in.want {
			if !sc.Scan() {
				return
			}
			in.lines <- sc.Text()
		}
	}()
	return in
}

// request asks for the next line and returns the channel it arrives on.
func (in *input) request() <-chan string {
	if !in.pending && !in.eof {
		in.want <- struct{}{}
		in.pending = true
	}
	return in.lines
}

// received must be called after a receive from the request channel.
func (in *input) received(ok bool) {
	in.pending = false
	if !ok {
		in.eof = true
	}
}

// readLine blocks until the next line, io.EOF or ctx is done.
func (in *input) readLine(ctx context.Context) (string, error) {
	select {
	case line, ok := <-in.request():
		in.received(ok)
		if !ok {
			return "", io.EOF
		}
		return strings.TrimSpace(line), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (in *input) close() {
	if !in.eof {
		close(in.want)
		in.eof = true
	}
}

// ask prints prompt and reads one line.
func (s *Shell) ask(ctx context.Context, prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	return s.in.readLine(ctx)
}

// askPassword reads a password without echo when attached to a terminal.
func (s *Shell) askPassword(ctx context.Context, prompt string) (string, error) {
	if s.in.fd < 0 {
		return s.ask(ctx, prompt)
	}
	fmt.Fprint(s.out, prompt)
	pw, err := readPassword(s.in.fd)
	fmt.Fprintln(s.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

// confirm asks a yes/no question; anything but y or yes is a no.
func (s *Shell) confirm(ctx context.Context, question string) bool {
	answer, err := s.ask(ctx, question+" [y/N] ")
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes", "s", "sim":
		return true
	}
	return false
}
