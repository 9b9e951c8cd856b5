package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// CommandRecognizer runs an external speech-to-text program and treats every
// non-empty line it prints as a finalized segment.
type CommandRecognizer struct {
	Command string
	Args    []string
}

// NewCommandRecognizer returns nil when command is blank, so callers fall
// back to typed input only.
func NewCommandRecognizer(command string, args []string) Recognizer {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil
	}
	return &CommandRecognizer{Command: command, Args: args}
}

func (c *CommandRecognizer) Start(ctx context.Context, opts Options) (<-chan Result, error) {
	cmd := exec.CommandContext(ctx, c.Command, c.Args...)
	cmd.Env = os.Environ()
	if opts.Language != "" {
		cmd.Env = append(cmd.Env, "DICTATION_LANGUAGE="+opts.Language)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("open recognizer output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start recognizer %q: %w", c.Command, err)
	}

	results := make(chan Result)
	go func() {
		defer close(results)

		send := func(r Result) bool {
			select {
			case results <- r:
				return true
			case <-ctx.Done():
				return false
			}
		}

		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if !send(Result{Text: line, Final: true}) {
				break
			}
		}

		err := cmd.Wait()
		if ctx.Err() != nil {
			return
		}

		if scanErr := scanner.Err(); scanErr != nil && !errors.Is(scanErr, os.ErrClosed) {
			send(Result{Err: fmt.Errorf("read recognizer output: %w", scanErr)})
			return
		}
		if err != nil {
			send(Result{Err: fmt.Errorf("recognizer exited: %w", err)})
		}
	}()

	return results, nil
}
