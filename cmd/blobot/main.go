// Command blobot runs the blobot robot server and its script tooling.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/teslashibe/go-blobot/internal/config"
	"github.com/teslashibe/go-blobot/internal/log"
	"github.com/teslashibe/go-blobot/pkg/animation"
	"github.com/teslashibe/go-blobot/pkg/robot"
)

const (
	flagLogLevel  = "log-level"
	flagDuration  = "duration"
	flagFrameRate = "fps"
	flagPort      = "port"
	flagStatic    = "static"
	flagURL       = "url"
	flagStream    = "stream"
	flagRaw       = "raw"
	flagPrint     = "print"
	flagValue     = "value"
	flagWatch     = "watch"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "blobot:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "blobot",
		Usage: "animate a small robot from commands and scripts",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagLogLevel,
				Value:   config.DefaultLogLevel,
				Usage:   "debug, info, warn or error",
				EnvVars: []string{config.EnvLogLevel},
			},
			&cli.DurationFlag{
				Name:    flagDuration,
				Value:   robot.DefaultDuration,
				Usage:   "length of every motion animation",
				EnvVars: []string{config.EnvDuration},
			},
			&cli.Float64Flag{
				Name:    flagFrameRate,
				Value:   animation.DefaultFrameRate,
				Usage:   "render loop ticks per second",
				EnvVars: []string{config.EnvFrameRate},
			},
		},
		Before: func(c *cli.Context) error {
			log.SetOutput(os.Stderr, c.String(flagLogLevel))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API, websockets and renderer",
				Action: serveAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    flagPort,
						Value:   config.DefaultPort,
						Usage:   "HTTP port",
						EnvVars: []string{config.EnvPort},
					},
					&cli.StringFlag{
						Name:    flagStatic,
						Usage:   "serve the renderer from `DIR`",
						EnvVars: []string{config.EnvStaticDir},
					},
				},
			},
			{
				Name:      "run",
				Usage:     "execute a script against a local robot and print every motion",
				ArgsUsage: "FILE",
				Action:    runAction,
			},
			{
				Name:      "check",
				Usage:     "parse a script and report the first error",
				ArgsUsage: "FILE",
				Action:    checkAction,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  flagPrint,
						Usage: "print the program in canonical form",
					},
				},
			},
			{
				Name:      "submit",
				Usage:     "send a script to a running server",
				ArgsUsage: "FILE",
				Action:    submitAction,
				Flags: []cli.Flag{
					urlFlag(),
					&cli.BoolFlag{
						Name:  flagWatch,
						Usage: "resubmit the script every time FILE is saved",
					},
				},
			},
			{
				Name:      "move",
				Usage:     "trigger one motion on a running server (forward, backward, left, right, reset)",
				ArgsUsage: "ACTION",
				Action:    moveAction,
				Flags: []cli.Flag{
					urlFlag(),
					&cli.Float64Flag{
						Name:  flagValue,
						Usage: "distance or degrees, default per action",
					},
				},
			},
			{
				Name:   "state",
				Usage:  "print the state of a running server",
				Action: stateAction,
				Flags:  []cli.Flag{urlFlag()},
			},
			{
				Name:   "watch",
				Usage:  "stream state or events from a running server",
				Action: watchAction,
				Flags: []cli.Flag{
					urlFlag(),
					&cli.StringFlag{
						Name:  flagStream,
						Value: "state",
						Usage: "state or events",
					},
					&cli.BoolFlag{
						Name:  flagRaw,
						Usage: "print raw JSON messages",
					},
				},
			},
		},
	}
}

func urlFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    flagURL,
		Value:   config.DefaultServerURL,
		Usage:   "base URL of a blobot server",
		EnvVars: []string{config.EnvServerURL},
	}
}
