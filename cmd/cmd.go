package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/rubiojr/livepreview/config"
)

// errFailed reports a preview or suggestion that produced user-facing
// diagnostics; they are already printed, so only the exit status remains.
var errFailed = errors.New("failed")

// Execute runs the livepreview CLI with the given version string.
// Import component sets via blank imports before calling this function
// so they register via init().
func Execute(version string) {
	a := &app{in: os.Stdin, out: os.Stdout, errOut: os.Stderr, cfg: config.Load()}
	if err := a.command(version).Run(context.Background(), os.Args); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

// app carries the I/O streams and settings shared by every command.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	cfg    config.Config
	styles styles
	// interactive reports whether stderr is a terminal.
	interactive bool
}

func (a *app) command(version string) *cli.Command {
	return &cli.Command{
		Name:                   "livepreview",
		Usage:                  "Render JSX snippets against a component registry",
		Version:                version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "no-color",
				Aliases: []string{"C"},
				Usage:   "Disable ANSI color output",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log pipeline state transitions",
			},
			&cli.StringFlag{
				Name:  "registry",
				Usage: "YAML file with extra components",
				Value: a.cfg.RegistryPath,
			},
		},
		Before: a.before,
		Commands: []*cli.Command{
			{
				Name:      "preview",
				Usage:     "Render a snippet",
				ArgsUsage: "[file|-]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: html, json or text",
						Value:   "html",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Evaluation time limit",
						Value: a.cfg.Timeout,
					},
					&cli.IntFlag{
						Name:  "max-steps",
						Usage: "Evaluation step budget",
						Value: a.cfg.MaxSteps,
					},
				},
				Action: a.previewAction,
			},
			{
				Name:      "extract",
				Usage:     "Print the components and handlers a snippet references",
				ArgsUsage: "[file|-]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Print JSON"},
				},
				Action: a.extractAction,
			},
			{
				Name:      "components",
				Usage:     "List registry components or describe one",
				ArgsUsage: "[name]",
				Action:    a.componentsAction,
			},
			{
				Name:      "suggest",
				Usage:     "Suggest components for a description",
				ArgsUsage: "<text...>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "ai", Usage: "Ask the remote backend or the AI model"},
					&cli.BoolFlag{Name: "pick", Aliases: []string{"p"}, Usage: "Choose a match interactively and preview it"},
					&cli.StringFlag{Name: "catalog", Usage: "Extra suggestion catalog (YAML or JSON)", Value: a.cfg.CatalogPath},
					&cli.StringFlag{Name: "backend", Usage: "Remote suggestion backend URL", Value: a.cfg.BackendURL},
				},
				Action: a.suggestAction,
			},
			{
				Name:      "history",
				Usage:     "Show saved suggestion inputs or complete a prefix",
				ArgsUsage: "[text]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "clear", Usage: "Delete the saved history"},
				},
				Action: a.historyAction,
			},
			{
				Name:  "serve",
				Usage: "Serve the HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "port", Usage: "Listen port", Value: a.cfg.Port},
					&cli.StringFlag{Name: "catalog", Usage: "Extra suggestion catalog (YAML or JSON)", Value: a.cfg.CatalogPath},
					&cli.StringFlag{Name: "backend", Usage: "Remote suggestion backend URL", Value: a.cfg.BackendURL},
				},
				Action: a.serveAction,
			},
		},
	}
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	level := slog.LevelInfo
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level})))

	// Set NO_COLOR if --no-color flag, non-interactive, or NO_COLOR already set.
	if f, ok := a.errOut.(*os.File); ok {
		a.interactive = term.IsTerminal(int(f.Fd()))
	}
	color := a.interactive && !cmd.Bool("no-color") && os.Getenv("NO_COLOR") == ""
	a.styles = newStyles(color)
	return ctx, nil
}

func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}
