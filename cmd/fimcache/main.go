// Package main is the entry point for the fimcache CLI application.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/NikitaCOEUR/fimcache/internal/auth"
	fimcli "github.com/NikitaCOEUR/fimcache/internal/cli"
	"github.com/NikitaCOEUR/fimcache/internal/trace"
	"github.com/NikitaCOEUR/fimcache/pkg/version"
	"github.com/urfave/cli/v3"
)

func main() {
	authPath, err := auth.DefaultPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	projectFlag := &cli.StringFlag{
		Name:    "project",
		Aliases: []string{"p"},
		Usage:   "Project directory (defaults to the current directory)",
		Sources: cli.EnvVars("FIMCACHE_PROJECT"),
	}

	// dirArg returns the first argument or the current directory
	dirArg := func(cmd *cli.Command) string {
		if cmd.Args().Len() > 0 {
			return cmd.Args().Get(0)
		}
		return "."
	}

	app := &cli.Command{
		Name:                  "fimcache",
		Usage:                 "Fill-in-the-middle code completion with a project declaration index",
		Version:               version.String(),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("FIMCACHE_LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "complete",
				Usage: "Request a completion at a cursor position",
				Flags: []cli.Flag{
					projectFlag,
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "File being edited", Required: true},
					&cli.IntFlag{Name: "line", Aliases: []string{"l"}, Usage: "Cursor line (zero-based)"},
					&cli.IntFlag{Name: "column", Aliases: []string{"c"}, Usage: "Cursor column in characters (zero-based)"},
					&cli.BoolFlag{Name: "multi", Usage: "Query up to three providers concurrently"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return fimcli.Complete(ctx, fimcli.CompleteParams{
						ProjectDir: cmd.String("project"),
						AuthPath:   authPath,
						LogLevel:   cmd.String("log-level"),
						FilePath:   cmd.String("file"),
						Line:       int(cmd.Int("line")),
						Column:     int(cmd.Int("column")),
						MultiModel: cmd.Bool("multi"),
					})
				},
			},
			{
				Name:  "select",
				Usage: "Show the declarations injected for a cursor prefix",
				Flags: []cli.Flag{
					projectFlag,
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "File being edited", Required: true},
					&cli.StringFlag{Name: "prefix", Usage: "Text before the cursor"},
					&cli.IntFlag{Name: "max-chars", Usage: "Signature budget (defaults to index.max_chars)"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return fimcli.Select(ctx, fimcli.SelectParams{
						ProjectDir: cmd.String("project"),
						AuthPath:   authPath,
						LogLevel:   cmd.String("log-level"),
						FilePath:   cmd.String("file"),
						Prefix:     cmd.String("prefix"),
						MaxChars:   int(cmd.Int("max-chars")),
					})
				},
			},
			{
				Name:  "serve",
				Usage: "Run a completion session speaking JSON lines over stdin and stdout",
				Flags: []cli.Flag{
					projectFlag,
					&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Re-index files when they change on disk"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return fimcli.Serve(ctx, fimcli.ServeParams{
						ProjectDir: cmd.String("project"),
						AuthPath:   authPath,
						LogLevel:   cmd.String("log-level"),
						Watch:      cmd.Bool("watch"),
					})
				},
			},
			{
				Name:  "status",
				Usage: "Show the configuration status of a project",
				Flags: []cli.Flag{
					projectFlag,
					&cli.BoolFlag{Name: "index", Aliases: []string{"i"}, Usage: "Also index the project and report its size"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return fimcli.Status(ctx, fimcli.StatusParams{
						ProjectDir: cmd.String("project"),
						AuthPath:   authPath,
						Index:      cmd.Bool("index"),
					})
				},
			},
			{
				Name:      "allow",
				Usage:     "Trust a project config and the endpoints it declares",
				ArgsUsage: "[dir]",
				Action: func(_ context.Context, cmd *cli.Command) error {
					return fimcli.AllowWithParams(fimcli.AllowParams{
						AuthPath:    authPath,
						PathToAllow: dirArg(cmd),
						LogLevel:    cmd.String("log-level"),
					})
				},
			},
			{
				Name:      "revoke",
				Usage:     "Revoke the trust of a project",
				ArgsUsage: "[dir]",
				Action: func(_ context.Context, cmd *cli.Command) error {
					return fimcli.Revoke(authPath, dirArg(cmd))
				},
			},
			{
				Name:  "list",
				Usage: "List all authorized projects",
				Action: func(_ context.Context, _ *cli.Command) error {
					return fimcli.List(authPath)
				},
			},
			{
				Name:  "init",
				Usage: "Create a sample project config in the current folder or the global config",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "global",
						Aliases: []string{"g"},
						Usage:   "Create global config file instead of local",
					},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					return fimcli.Init(cmd.Bool("global"))
				},
			},
			{
				Name:      "validate",
				Usage:     "Validate a fimcache configuration file",
				ArgsUsage: "[config-file]",
				Action: func(_ context.Context, cmd *cli.Command) error {
					configPath := ""
					if cmd.Args().Len() > 0 {
						configPath = cmd.Args().Get(0)
					}
					return fimcli.Validate(configPath)
				},
			},
			{
				Name:      "schema",
				Usage:     "Display or export the JSON Schema for fimcache configuration files",
				ArgsUsage: "[output-file]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (prints to stdout if not specified)",
					},
				},
				Action: func(_ context.Context, cmd *cli.Command) error {
					outputPath := cmd.String("output")
					if outputPath == "" && cmd.Args().Len() > 0 {
						outputPath = cmd.Args().Get(0)
					}
					return fimcli.Schema(outputPath, nil)
				},
			},
		},
	}

	stopTrace := trace.Init()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err = app.Run(ctx, os.Args)
	stop()
	// os.Exit skips deferred calls, so the trace is flushed here
	stopTrace()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
