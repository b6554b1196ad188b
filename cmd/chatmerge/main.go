package main

import (
	"fmt"
	"log"
	"os"
	"slices"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/chatmerge/internal/app"
	"github.com/tildaslashalef/chatmerge/internal/commands"
)

// Version information - populated at build time
var (
	Version    = "dev"
	BuildTime  = "unknown"
	CommitHash = "unknown"
	Author     = "unknown"
	Email      = "unknown"
)

// commands that run before the application exists
var standalone = []string{"init", "help", "h"}

func main() {
	cliApp := &cli.App{
		Name:  "chatmerge",
		Usage: "Reconcile two chat archive datasets",
		Description: "chatmerge compares a slave chat archive with a master one, lets you decide which " +
			"chats, users and messages to take from the slave, and asks the archive backend to merge them.",
		Version: fmt.Sprintf("%s (%s)", Version, CommitHash),
		Compiled: func() time.Time {
			t, err := time.Parse(time.RFC3339, BuildTime)
			if err != nil {
				return time.Now()
			}
			return t
		}(),
		Authors: []*cli.Author{
			{
				Name:  Author,
				Email: Email,
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Usage:   "Directory holding .env, the history database and the log file (default: ~/.chatmerge)",
				EnvVars: []string{"CHATMERGE_CONFIG_DIR"},
			},
		},
		Before: func(c *cli.Context) error {
			if slices.Contains(standalone, c.Args().First()) {
				return nil
			}

			application, err := app.New(c.String("config-dir"))
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			// Store the app instance in the context for later use
			c.App.Metadata = map[string]interface{}{
				"app": application,
			}

			return nil
		},
		After: func(c *cli.Context) error {
			if app, ok := c.App.Metadata["app"].(*app.App); ok {
				return app.Shutdown()
			}
			return nil
		},
		Commands: []*cli.Command{
			commands.InitCommand(),
			commands.MergeCommand(),
			commands.PlanCommand(),
			commands.ApplyCommand(),
			commands.HistoryCommand(),
			commands.MigrateCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
