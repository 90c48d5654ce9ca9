package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// Shell reads commands from a terminal and runs them on a Session.
type Shell struct {
	rl      *readline.Instance
	session *Session
}

// NewShell creates a readline shell. The session must write to Stdout.
func NewShell(prompt string) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{rl: rl}, nil
}

// Stdout returns a writer that coordinates with the prompt.
func (sh *Shell) Stdout() io.Writer {
	return sh.rl.Stdout()
}

// Stderr returns a writer that coordinates with the prompt.
func (sh *Shell) Stderr() io.Writer {
	return sh.rl.Stderr()
}

// Attach sets the session commands are run on.
func (sh *Shell) Attach(s *Session) {
	sh.session = s
}

// Run reads and executes lines until quit, EOF or ctx is done.
func (sh *Shell) Run(ctx context.Context) {
	defer sh.rl.Close()

	sh.session.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := sh.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(sh.rl.Stdout(), "Exiting...")
			return
		}

		err = sh.session.Execute(ctx, strings.TrimSpace(line))
		if errors.Is(err, ErrQuit) {
			fmt.Fprintln(sh.rl.Stdout(), "Exiting...")
			return
		}
		if err != nil {
			fmt.Fprintf(sh.rl.Stderr(), "Error: %v\n", err)
		}
	}
}
