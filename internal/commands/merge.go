package commands

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/chatmerge/internal/app"
	mergetui "github.com/tildaslashalef/chatmerge/internal/commands/merge"
	"github.com/tildaslashalef/chatmerge/internal/dataset"
	"github.com/tildaslashalef/chatmerge/internal/loggy"
	"github.com/tildaslashalef/chatmerge/internal/utils"
)

// datasetFlags are the --master and --slave flags shared by merge and plan
func datasetFlags(extra ...cli.Flag) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:     "master",
			Aliases:  []string{"m"},
			Usage:    "Dataset that receives the merge",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "slave",
			Aliases:  []string{"s"},
			Usage:    "Dataset merged into the master",
			Required: true,
		},
	}
	return append(flags, extra...)
}

// MergeCommand returns the CLI command for the interactive merge wizard
func MergeCommand() *cli.Command {
	return &cli.Command{
		Name:  "merge",
		Usage: "Interactively merge one chat archive dataset into another",
		Description: "Walks through the chats, users and messages that differ between the two " +
			"datasets and lets you pick what to take from the slave. The resulting request is " +
			"sent to the backend unless --dry-run is given.",
		Flags: datasetFlags(
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Build the merge request without sending it",
			},
		),
		Action: mergeAction,
	}
}

func mergeAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	opts := mergetui.Options{
		Master: dataset.Ref(c.String("master")),
		Slave:  dataset.Ref(c.String("slave")),
		DryRun: c.Bool("dry-run"),
	}

	ok, err := application.Backend.VerifyToken(c.Context)
	if err != nil {
		return fmt.Errorf("failed to reach backend: %w", err)
	}
	if !ok {
		return fmt.Errorf("backend rejected the token, check CHATMERGE_BACKEND_TOKEN")
	}

	loggy.Info("Starting merge wizard", "master", opts.Master, "slave", opts.Slave, "dry_run", opts.DryRun)

	model, err := mergetui.NewService(application).Run(c.Context, opts)
	if err != nil {
		return err
	}

	session := model.Session()
	switch {
	case session == nil:
	case model.Request() == nil:
		utils.PrintWarning("Merge aborted, nothing was sent.")
	case opts.DryRun || !application.Config.Merge.ExecuteOnConfirm:
		utils.PrintInfo(fmt.Sprintf("Merge plan %s built but not executed.", model.Request().ID))
	default:
		utils.PrintSuccess(fmt.Sprintf("Merged %s into %s (%d chats merged, %d added).",
			opts.Slave, opts.Master, session.ChatsMerged, session.ChatsAdded))
	}
	return nil
}
