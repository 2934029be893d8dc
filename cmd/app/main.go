package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/pinnote/internal"
	"github.com/starford/pinnote/internal/noteservice"
)

var version = "dev"

var errUsage = errors.New("missing argument")

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg, err := internal.LoadConfig(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// cliLogger writes to stderr. Store chatter is hidden unless --verbose.
func cliLogger(cmd *cli.Command) *slog.Logger {
	level := slog.LevelError
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openService loads the config and the notes directory for a one-shot
// command, printing the load warning if some notes were skipped.
func openService(cmd *cli.Command) (*noteservice.Service, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	svc, report, err := internal.OpenService(cfg, cliLogger(cmd))
	if err != nil {
		return nil, err
	}
	if w := report.Warning(); w != "" {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	return svc, nil
}

func titleArg(cmd *cli.Command) (string, error) {
	if cmd.Args().Len() < 1 {
		return "", fmt.Errorf("%w: title", errUsage)
	}
	return cmd.Args().First(), nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}
	if !cmd.Bool("verbose") {
		opts = append(opts, internal.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		}))))
	}
	return internal.RunMCP(ctx, opts...)
}

func runAdd(ctx context.Context, cmd *cli.Command) error {
	raw, err := titleArg(cmd)
	if err != nil {
		return err
	}
	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	_, res, err := svc.CreateNote(ctx, raw)
	if err != nil {
		return err
	}
	if res.Modified {
		fmt.Fprintf(os.Stderr, "warning: title was modified from %q to %q\n", raw, res.Title)
	}
	fmt.Println(res.Title)
	return nil
}

func runList(ctx context.Context, cmd *cli.Command) error {
	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	for _, item := range svc.ListNotes(ctx, cmd.Args().First()) {
		marker := " "
		if item.Pinned {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, item.Title)
	}
	return nil
}

func runShow(ctx context.Context, cmd *cli.Command) error {
	title, err := titleArg(cmd)
	if err != nil {
		return err
	}
	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	note, err := svc.GetNote(ctx, title)
	if err != nil {
		return err
	}
	if cmd.Bool("raw") {
		fmt.Print(note.Content)
		return nil
	}
	fmt.Print(note.Body)
	return nil
}

func runSave(ctx context.Context, cmd *cli.Command) error {
	title, err := titleArg(cmd)
	if err != nil {
		return err
	}
	var content []byte
	if file := cmd.String("file"); file != "" {
		content, err = os.ReadFile(file)
	} else {
		content, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("read content: %w", err)
	}
	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	_, err = svc.UpdateNote(ctx, title, string(content), "")
	return err
}

func runRemove(ctx context.Context, cmd *cli.Command) error {
	title, err := titleArg(cmd)
	if err != nil {
		return err
	}
	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	return svc.DeleteNote(ctx, title)
}

func runPin(ctx context.Context, cmd *cli.Command) error {
	title, err := titleArg(cmd)
	if err != nil {
		return err
	}
	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	pinned, err := svc.TogglePin(ctx, title)
	if err != nil {
		return err
	}
	if pinned {
		fmt.Println("pinned:", title)
	} else {
		fmt.Println("unpinned:", title)
	}
	return nil
}

func runRelocate(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 1 {
		return fmt.Errorf("%w: directory", errUsage)
	}
	svc, err := openService(cmd)
	if err != nil {
		return err
	}
	report, err := svc.Relocate(ctx, cmd.Args().First())
	if err != nil {
		return err
	}
	if w := report.Warning(); w != "" {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	fmt.Printf("%s: %d notes\n", report.Root, report.Loaded)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "pinnote",
		Usage:   "Plain-file notes with pinning, search and an HTTP/MCP front-end",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log store activity to stderr",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API with live events",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: runMCP,
			},
			{
				Name:      "add",
				Usage:     "Create an empty note",
				ArgsUsage: "<title>",
				Action:    runAdd,
			},
			{
				Name:      "list",
				Aliases:   []string{"ls"},
				Usage:     "List notes, pinned first",
				ArgsUsage: "[filter]",
				Action:    runList,
			},
			{
				Name:      "show",
				Usage:     "Print a note",
				ArgsUsage: "<title>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "raw",
						Usage: "Print the stored content including the pin line",
					},
				},
				Action: runShow,
			},
			{
				Name:      "save",
				Usage:     "Replace a note's content from --file or stdin",
				ArgsUsage: "<title>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Read content from this file instead of stdin",
					},
				},
				Action: runSave,
			},
			{
				Name:      "rm",
				Usage:     "Delete a note",
				ArgsUsage: "<title>",
				Action:    runRemove,
			},
			{
				Name:      "pin",
				Usage:     "Toggle a note's pinned state",
				ArgsUsage: "<title>",
				Action:    runPin,
			},
			{
				Name:      "relocate",
				Usage:     "Point pinnote at another notes directory and remember it",
				ArgsUsage: "<dir>",
				Action:    runRelocate,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
