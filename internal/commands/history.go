package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/chatmerge/internal/app"
	"github.com/tildaslashalef/chatmerge/internal/dataset"
	"github.com/tildaslashalef/chatmerge/internal/history"
	"github.com/tildaslashalef/chatmerge/internal/ulid"
	"github.com/tildaslashalef/chatmerge/internal/utils"
)

// HistoryCommand returns the CLI command for recorded merge sessions
func HistoryCommand() *cli.Command {
	return &cli.Command{
		Name:    "history",
		Aliases: []string{"hist"},
		Usage:   "List recorded merge sessions",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of sessions to show",
				Value:   20,
			},
			&cli.StringFlag{
				Name:  "master",
				Usage: "Only sessions merging into this dataset",
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Only sessions with this status (completed, planned, failed, aborted)",
			},
		},
		Action: historyListAction,
		Subcommands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "Print the merge request of a session as YAML",
				ArgsUsage: "<session-id>",
				Action:    historyShowAction,
			},
			{
				Name:      "delete",
				Usage:     "Delete a recorded session",
				ArgsUsage: "<session-id>",
				Action:    historyDeleteAction,
			},
		},
	}
}

func historyListAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	sessions, err := application.History.List(c.Context, history.ListOptions{
		MasterDataset: dataset.Ref(c.String("master")),
		Status:        history.Status(c.String("status")),
		Limit:         c.Int("limit"),
	})
	if err != nil {
		return fmt.Errorf("failed to list merge sessions: %w", err)
	}

	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			s.ID.String(),
			s.Label,
			fmt.Sprintf("%s ← %s", s.MasterDataset, s.SlaveDataset),
			colorStatus(s.Status),
			strconv.Itoa(s.ChatsMerged),
			strconv.Itoa(s.ChatsAdded),
			strconv.Itoa(s.ChatsSkipped),
			s.CompletedAt.Local().Format(time.DateTime),
		})
	}

	opts := utils.DefaultTableOptions()
	opts.Title = "Merge history"
	opts.NumericColumns = []int{5, 6, 7}
	utils.PrintTable([]string{"ID", "Label", "Datasets", "Status", "Merged", "Added", "Skipped", "Finished"}, rows, opts)
	return nil
}

// sessionIDArg parses the session id argument of a history subcommand
func sessionIDArg(c *cli.Context) (ulid.ULID, error) {
	arg := c.Args().First()
	if arg == "" {
		return ulid.ULID{}, fmt.Errorf("session id is required")
	}
	id, err := ulid.ParseSessionID(arg)
	if err != nil {
		return ulid.ULID{}, fmt.Errorf("invalid session id: %w", err)
	}
	return id, nil
}

func historyShowAction(c *cli.Context) error {
	id, err := sessionIDArg(c)
	if err != nil {
		return err
	}
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	session, err := application.History.Get(c.Context, id)
	if err != nil {
		return fmt.Errorf("failed to get merge session %s: %w", id, err)
	}

	utils.PrintHeading(session.Label)
	utils.PrintKeyValue("Status", colorStatus(session.Status))
	utils.PrintKeyValue("Datasets", fmt.Sprintf("%s ← %s", session.MasterDataset, session.SlaveDataset))
	utils.PrintKeyValue("Duration", session.Duration().Round(time.Millisecond).String())
	if session.ErrorMessage != "" {
		utils.PrintKeyValue("Error", session.ErrorMessage)
	}

	if len(session.Request) == 0 {
		return nil
	}
	req, err := application.History.Request(c.Context, id)
	if err != nil {
		return err
	}
	data, err := req.ToYAML()
	if err != nil {
		return err
	}
	utils.PrintDivider()
	fmt.Fprint(utils.Output, string(data))
	return nil
}

func historyDeleteAction(c *cli.Context) error {
	id, err := sessionIDArg(c)
	if err != nil {
		return err
	}
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	if err := application.History.Delete(c.Context, id); err != nil {
		return fmt.Errorf("failed to delete merge session %s: %w", id, err)
	}
	utils.PrintSuccess("Deleted merge session " + id.String())
	return nil
}

func colorStatus(s history.Status) string {
	switch s {
	case history.StatusCompleted:
		return color.GreenString(string(s))
	case history.StatusPlanned:
		return color.CyanString(string(s))
	case history.StatusFailed:
		return color.RedString(string(s))
	default:
		return color.YellowString(string(s))
	}
}
