package ytdlp

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Invocation is the outcome of a process that ran to completion, successfully or not.
type Invocation struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// A Runner executes args[0] with args[1:] and captures its output. A non-zero exit status is not an error, it is
// reported in Invocation.ExitCode. An error means the process could not be started, or was stopped because ctx
// ended, in which case ctx.Err() is returned.
type Runner interface {
	Run(ctx context.Context, args []string) (Invocation, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, args []string) (Invocation, error)

func (f RunnerFunc) Run(ctx context.Context, args []string) (Invocation, error) {
	return f(ctx, args)
}

// ExecRunner runs real processes. The process is killed as soon as ctx ends.
type ExecRunner struct {
	// WaitDelay bounds how long output copying may continue after the process is killed, e.g. because it left a
	// child holding the pipes open.
	WaitDelay time.Duration
}

func (r ExecRunner) Run(ctx context.Context, args []string) (Invocation, error) {
	if len(args) == 0 {
		return Invocation{}, errors.New("empty command")
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = time.Second
	}

	// Run always reaps the process, including after the context kills it.
	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Invocation{}, ctxErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Invocation{
			ExitCode: exitErr.ExitCode(),
			Stdout:   stdout.String(),
			Stderr:   stderr.String(),
		}, nil
	} else if err != nil {
		return Invocation{}, err
	}
	return Invocation{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}
