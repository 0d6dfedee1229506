package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alanbriolat/stream-resolver"
	"github.com/alanbriolat/stream-resolver/async"
	"github.com/alanbriolat/stream-resolver/generic"
	_ "github.com/alanbriolat/stream-resolver/providers"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &cli.App{
		Name:      "resolve-stream",
		Usage:     "print direct video and audio stream URLs for links",
		ArgsUsage: "LINK...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "provider",
				Usage:   "use the `NAME`d provider instead of the first match",
				EnvVars: []string{"RESOLVE_STREAM_PROVIDER"},
			},
			&cli.IntFlag{
				Name:    "width",
				Value:   1920,
				Usage:   "target playback width",
				EnvVars: []string{"RESOLVE_STREAM_WIDTH"},
			},
			&cli.IntFlag{
				Name:    "height",
				Value:   1080,
				Usage:   "target playback height",
				EnvVars: []string{"RESOLVE_STREAM_HEIGHT"},
			},
			&cli.StringFlag{
				Name:    "extra",
				Usage:   "extra yt-dlp `ARGS`, as a single shell-quoted string",
				EnvVars: []string{"RESOLVE_STREAM_EXTRA"},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log debug output",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "don't show progress",
			},
			&cli.BoolFlag{
				Name:  "list-providers",
				Usage: "list providers in priority order and exit",
			},
		},
		Before: func(c *cli.Context) error {
			config := zap.NewDevelopmentConfig()
			config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
			if !c.Bool("verbose") {
				config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
			}
			logger, err := config.Build()
			if err != nil {
				log.Fatalf("can't initialize zap logger: %v", err)
			}
			zap.RedirectStdLog(logger)
			zap.ReplaceGlobals(logger)
			return nil
		},
		After: func(c *cli.Context) error {
			_ = zap.L().Sync()
			return nil
		},
		Action: func(c *cli.Context) error {
			if c.Bool("list-providers") {
				for _, name := range stream_resolver.DefaultProviderRegistry.List() {
					fmt.Fprintln(c.App.Writer, name)
				}
				return nil
			}
			if c.NArg() == 0 {
				return cli.Exit("no links given", 2)
			}
			req := request{
				provider:  c.String("provider"),
				hint:      stream_resolver.Resolution{Width: c.Int("width"), Height: c.Int("height")},
				extraArgs: c.String("extra"),
			}
			return resolveAll(stream_resolver.WithLogger(c.Context, zap.L()), c, req, c.Args().Slice())
		},
		HideHelpCommand: true,
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		zap.S().Fatal(err.Error())
	}
}

type request struct {
	provider  string
	hint      stream_resolver.Resolution
	extraArgs string
}

// resolveAll resolves every link concurrently, then prints the results in argument order.
func resolveAll(ctx context.Context, c *cli.Context, req request, links []string) error {
	logger := stream_resolver.Logger(ctx).Sugar()

	results := make([]<-chan generic.Result[stream_resolver.StreamPair], len(links))
	for i, link := range links {
		link := link
		results[i] = async.RunResult(func() (stream_resolver.StreamPair, error) {
			return resolve(ctx, req, link)
		})
	}

	stopSpinner := func() {}
	if !c.Bool("quiet") {
		stopSpinner = spinner(ctx, len(links))
	}

	var result error
	pairs := make([]generic.Result[stream_resolver.StreamPair], len(links))
	for i := range links {
		pairs[i] = <-results[i]
	}
	stopSpinner()

	for i, link := range links {
		pair, err := pairs[i].Parts()
		if err != nil {
			logger.Errorf("Failed to resolve %s: %v", link, err)
			result = multierror.Append(result, fmt.Errorf("%s: %w", link, err))
			continue
		}
		if pair.IsZero() {
			logger.Warnf("Nothing to resolve for %q", link)
			continue
		}
		fmt.Fprintln(c.App.Writer, pair.Video)
		fmt.Fprintln(c.App.Writer, pair.Audio)
	}
	return result
}

func resolve(ctx context.Context, req request, link string) (stream_resolver.StreamPair, error) {
	if link == "" {
		return stream_resolver.StreamPair{}, nil
	}
	var match *stream_resolver.Match
	var err error
	if req.provider != "" {
		match, err = stream_resolver.DefaultProviderRegistry.MatchWith(req.provider, link)
	} else {
		match, err = stream_resolver.DefaultProviderRegistry.Match(link)
	}
	if err != nil {
		return stream_resolver.StreamPair{}, fmt.Errorf("match failed: %w", err)
	}
	stream_resolver.Logger(ctx).Debug("Matched link", zap.String("link", link), zap.String("provider", match.ProviderName))
	return match.Source.Resolve(ctx, req.hint, req.extraArgs)
}

// spinner shows activity on stderr until the returned function is called.
func spinner(ctx context.Context, count int) func() {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(fmt.Sprintf("resolving %d link(s)", count)),
		progressbar.OptionSpinnerType(14),
	)
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = bar.Add(1)
			case <-done:
				_ = bar.Clear()
				return
			case <-ctx.Done():
				_ = bar.Clear()
				return
			}
		}
	}()
	return func() {
		close(done)
		<-stopped
	}
}
