package bootstrap

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
)

// ExecRunner runs the program as a child process with the launcher's
// standard streams. SIGINT and SIGTERM are forwarded to the child, and
// canceling ctx sends it SIGTERM.
type ExecRunner struct{}

// Run starts cmd and waits for it to exit.
func (ExecRunner) Run(ctx context.Context, cmd Command) (int, error) {
	c := exec.Command(cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = cmd.Env
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr

	if err := c.Start(); err != nil {
		return -1, err
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	done := make(chan error, 1)
	go func() { done <- c.Wait() }()

	for {
		select {
		case sig := <-sigs:
			_ = c.Process.Signal(sig)

		case <-ctx.Done():
			_ = c.Process.Signal(syscall.SIGTERM)
			ctx = context.Background()

		case err := <-done:
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				return exitErr.ExitCode(), nil
			}

			if err != nil {
				return -1, err
			}

			return 0, nil
		}
	}
}
