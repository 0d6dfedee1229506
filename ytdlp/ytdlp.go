// Package ytdlp resolves links to direct stream URLs by running yt-dlp in URL-printing mode.
package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alanbriolat/stream-resolver"
	"github.com/alanbriolat/stream-resolver/async"
	"github.com/alanbriolat/stream-resolver/generic"
	"github.com/alanbriolat/stream-resolver/internal/cmdline"
)

const (
	DefaultProgram = "yt-dlp"
	DefaultTimeout = 20 * time.Second
	// FormatSelector picks the best VP9 or H.264 video-only stream plus an m4a audio stream, or failing that the
	// best combined stream.
	FormatSelector = `bestvideo[vcodec~="(vp09|avc1)"]+m4a/best`
)

// Blacklist holds the flags a caller can't override, because Resolve depends on them for its output format.
var Blacklist = cmdline.NewBlacklist("-g", "--get-url", "--no-warnings").WithValueFlags("-f", "--format")

type Option func(*Resolver)

// WithProgram sets the executable to run, either a name to look up in PATH or a path.
func WithProgram(program string) Option {
	return func(r *Resolver) {
		r.program = program
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Resolver) {
		r.timeout = timeout
	}
}

func WithRunner(runner Runner) Option {
	return func(r *Resolver) {
		r.runner = runner
	}
}

// WithLogger sets the logger to use instead of the one carried by the context.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// Resolver is safe for concurrent use; every call runs its own process.
type Resolver struct {
	program string
	timeout time.Duration
	runner  Runner
	logger  *zap.Logger
}

func New(opts ...Option) *Resolver {
	r := &Resolver{
		program: DefaultProgram,
		timeout: DefaultTimeout,
		runner:  ExecRunner{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Args builds the full yt-dlp command line for link, with the caller's extraArgs sanitized against Blacklist.
func (r *Resolver) Args(link string, hint stream_resolver.Resolution, extraArgs string) ([]string, error) {
	args := []string{
		r.program,
		"-g",
		"-f", FormatSelector,
		"-S", fmt.Sprintf("res:%d", hint.Ceiling()),
		"--no-warnings",
	}
	if extraArgs != "" {
		tokens, err := cmdline.Tokenize(extraArgs)
		if err != nil {
			return nil, err
		}
		args = append(args, cmdline.Sanitize(tokens, r.program, Blacklist)...)
	}
	return append(args, link), nil
}

// Resolve runs yt-dlp for link, returning the video and audio stream URLs. An empty link returns a zero
// stream_resolver.StreamPair without running anything. Failures are *stream_resolver.ExtractionError, except that
// if ctx itself ends first its error is returned.
func (r *Resolver) Resolve(ctx context.Context, link string, hint stream_resolver.Resolution, extraArgs string) (stream_resolver.StreamPair, error) {
	if link == "" {
		return stream_resolver.StreamPair{}, nil
	}

	args, err := r.Args(link, hint, extraArgs)
	if err != nil {
		return stream_resolver.StreamPair{}, stream_resolver.NewExtractionError(stream_resolver.ErrToolFailed, err.Error())
	}

	logger := r.logger
	if logger == nil {
		logger = stream_resolver.Logger(ctx)
	}
	logger = logger.With(zap.String("resolution", uuid.NewString()))
	logger.Debug("Running yt-dlp command", zap.String("command", cmdline.Render(args)))

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	started := time.Now()
	invocation, err := r.runner.Run(runCtx, args)
	if err != nil {
		err = r.mapRunError(ctx, runCtx, err)
		logger.Debug("yt-dlp did not complete", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return stream_resolver.StreamPair{}, err
	}
	logger.Debug("yt-dlp exited", zap.Int("exitCode", invocation.ExitCode), zap.Duration("elapsed", time.Since(started)))

	return parseOutput(invocation)
}

// ResolveAsync runs Resolve in its own goroutine. Cancelling ctx kills the process, after which the result is
// still delivered.
func (r *Resolver) ResolveAsync(ctx context.Context, link string, hint stream_resolver.Resolution, extraArgs string) <-chan generic.Result[stream_resolver.StreamPair] {
	return async.RunResult(func() (stream_resolver.StreamPair, error) {
		return r.Resolve(ctx, link, hint, extraArgs)
	})
}

func (r *Resolver) mapRunError(ctx context.Context, runCtx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return stream_resolver.NewExtractionError(stream_resolver.ErrProcessTimeout, "")
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return stream_resolver.NewExtractionError(stream_resolver.ErrToolNotInstalled, "")
	default:
		return stream_resolver.NewExtractionError(stream_resolver.ErrToolFailed, err.Error())
	}
}

func parseOutput(invocation Invocation) (stream_resolver.StreamPair, error) {
	if invocation.ExitCode != 0 {
		return stream_resolver.StreamPair{}, stream_resolver.NewExtractionError(stream_resolver.ErrToolFailed, strings.TrimSpace(invocation.Stderr))
	}
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(invocation.Stdout), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	switch len(lines) {
	case 0:
		return stream_resolver.StreamPair{}, stream_resolver.NewExtractionError(stream_resolver.ErrNoStreams, "")
	case 1:
		return stream_resolver.StreamPair{Video: lines[0], Audio: lines[0]}, nil
	default:
		return stream_resolver.StreamPair{Video: lines[0], Audio: lines[1]}, nil
	}
}
