package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/chatmerge/internal/app"
	"github.com/tildaslashalef/chatmerge/internal/history"
	"github.com/tildaslashalef/chatmerge/internal/merge"
	"github.com/tildaslashalef/chatmerge/internal/ulid"
	"github.com/tildaslashalef/chatmerge/internal/utils"
)

// ApplyCommand returns the CLI command that executes a saved merge request
func ApplyCommand() *cli.Command {
	return &cli.Command{
		Name:  "apply",
		Usage: "Execute a merge request written by `plan --out`",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "plan",
				Aliases:  []string{"p"},
				Usage:    "Path of the YAML merge request",
				Required: true,
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Send the request without asking for confirmation",
			},
		},
		Action: applyAction,
	}
}

func applyAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	req, err := merge.ReadYAMLFile(c.String("plan"))
	if err != nil {
		return err
	}
	if req.Master == "" || req.Slave == "" {
		return fmt.Errorf("merge request in %s names no datasets", c.String("plan"))
	}
	if req.ID == "" {
		req.ID = ulid.RequestID()
	}

	printPlan(&Plan{Request: req}, nil)

	if !c.Bool("yes") {
		utils.PrintWarning("Nothing sent. Rerun with --yes to execute this merge.")
		return nil
	}

	session := history.NewSession(ulid.NewSessionID(), utils.GenerateSessionLabel(), req.Master, req.Slave)

	resp, err := application.Backend.ExecuteMerge(c.Context, req)
	if err != nil {
		session.MarkFailed(err)
		application.RecordSession(context.WithoutCancel(c.Context), session)
		utils.PrintError(fmt.Sprintf("Merge failed: %s", err))
		return err
	}

	if err := session.MarkFinished(req, 0, true); err != nil {
		application.Logger.Warn("Failed to encode merge request for history", "error", err)
	}
	application.RecordSession(c.Context, session)

	msg := fmt.Sprintf("Merged %s into %s", req.Slave, req.Master)
	if resp.Message != "" {
		msg += ": " + resp.Message
	}
	utils.PrintSuccess(msg)
	return nil
}
