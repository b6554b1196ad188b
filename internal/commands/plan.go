package commands

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/chatmerge/internal/app"
	"github.com/tildaslashalef/chatmerge/internal/dataset"
	"github.com/tildaslashalef/chatmerge/internal/diff"
	"github.com/tildaslashalef/chatmerge/internal/history"
	"github.com/tildaslashalef/chatmerge/internal/loggy"
	"github.com/tildaslashalef/chatmerge/internal/merge"
	"github.com/tildaslashalef/chatmerge/internal/utils"
	"github.com/tildaslashalef/chatmerge/internal/wizard"
)

const (
	resolveAll  = "all"
	resolveNone = "none"
)

// Plan is the outcome of a non-interactive session
type Plan struct {
	Request *merge.Request
	// Conflicts holds one row per single-message conflict seen in merged chats
	Conflicts [][]string
}

// PlanOptions drive a non-interactive merge session
type PlanOptions struct {
	Master    dataset.Ref
	Slave     dataset.Ref
	SelectAll bool
	Resolve   string
}

// PlanCommand returns the CLI command that builds a merge request without the TUI
func PlanCommand() *cli.Command {
	return &cli.Command{
		Name:  "plan",
		Usage: "Build a merge request non-interactively",
		Description: "Runs the same steps as the merge wizard without asking. With --select-all every " +
			"changed and new chat and every changed user is taken from the slave; --resolve decides " +
			"whether the additions and conflicts of each merged chat are all taken or all left out.",
		Flags: datasetFlags(
			&cli.BoolFlag{
				Name:  "select-all",
				Usage: "Select every chat and user that can be taken from the slave",
			},
			&cli.StringFlag{
				Name:  "resolve",
				Usage: "How to resolve message sections of merged chats: all or none",
				Value: resolveNone,
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Write the request to this YAML file",
			},
		),
		Action: planAction,
	}
}

func planAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	opts := PlanOptions{
		Master:    dataset.Ref(c.String("master")),
		Slave:     dataset.Ref(c.String("slave")),
		SelectAll: c.Bool("select-all"),
		Resolve:   c.String("resolve"),
	}

	w := application.NewWizard(c.Context, opts.Master, opts.Slave)
	defer w.Close()

	session := history.NewSession(w.ID(), utils.GenerateSessionLabel(), opts.Master, opts.Slave)

	plan, err := RunPlan(w, opts)
	if err != nil {
		session.MarkFailed(err)
		application.RecordSession(context.WithoutCancel(c.Context), session)
		return err
	}

	req := plan.Request
	warnings := w.Warnings()
	if err := session.MarkFinished(req, len(warnings), false); err != nil {
		loggy.Warn("Failed to encode merge request for history", "error", err)
	}
	application.RecordSession(c.Context, session)

	printPlan(plan, warnings)

	if out := c.String("out"); out != "" {
		if err := req.WriteYAMLFile(out); err != nil {
			return err
		}
		utils.PrintSuccess(fmt.Sprintf("Merge request written to %s", out))
		utils.PrintInfo("Run `chatmerge apply --plan " + out + "` to execute it.")
	}
	return nil
}

// RunPlan drives w from start to finish with the decisions in opts
func RunPlan(w *wizard.Wizard, opts PlanOptions) (*Plan, error) {
	if opts.Resolve != resolveAll && opts.Resolve != resolveNone {
		return nil, fmt.Errorf("invalid --resolve %q: must be %s or %s", opts.Resolve, resolveAll, resolveNone)
	}

	if err := w.Start(); err != nil {
		return nil, err
	}
	if opts.SelectAll {
		if err := w.ToggleAllChats(); err != nil {
			return nil, err
		}
	}
	if err := w.ConfirmChats(); err != nil {
		return nil, err
	}

	if opts.SelectAll {
		if err := w.ToggleAllUsers(); err != nil {
			return nil, err
		}
	}
	if err := w.ConfirmUsers(); err != nil {
		return nil, err
	}

	plan := &Plan{}
	for {
		stage, ok := w.Stage().(wizard.SelectMessages)
		if !ok {
			break
		}
		plan.Conflicts = append(plan.Conflicts, conflictRows(stage.Pair.ChatID(), stage.Messages)...)
		if opts.Resolve == resolveAll {
			if err := w.ToggleAllMessages(); err != nil {
				return nil, err
			}
		}
		if err := w.ConfirmMessages(); err != nil {
			return nil, err
		}
	}

	req, err := w.Request()
	if err != nil {
		return nil, err
	}
	plan.Request = req
	return plan, nil
}

// conflictRows lists the Change sections of a chat that hold one message per side,
// with the edit marked inline
func conflictRows(chatID int64, msgs diff.Model[dataset.MessageRow]) [][]string {
	var rows [][]string
	for i, e := range msgs {
		if e.Type != diff.Change {
			continue
		}
		left, okLeft := e.Left.(diff.Flat[dataset.MessageRow])
		right, okRight := e.Right.(diff.Flat[dataset.MessageRow])
		if !okLeft || !okRight || len(left) != 1 || len(right) != 1 {
			continue
		}

		spans := utils.InlineDiff(utils.SingleLine(left[0].Message.Text), utils.SingleLine(right[0].Message.Text))
		deleted, inserted := utils.DiffStats(spans)
		rows = append(rows, []string{
			strconv.FormatInt(chatID, 10),
			strconv.Itoa(i + 1),
			utils.FormatInlineDiff(spans),
			fmt.Sprintf("-%d +%d", deleted, inserted),
		})
	}
	return rows
}

// summaryRows flattens the decision counts of req into table rows
func summaryRows(req *merge.Request) [][]string {
	sum := merge.Summarize(req)

	var rows [][]string
	add := func(kind string, counts map[string]int) {
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			rows = append(rows, []string{kind, k, strconv.Itoa(counts[k])})
		}
	}

	add("chat", stringKeys(sum.Chats))
	add("user", stringKeys(sum.Users))
	add("message section", stringKeys(sum.Messages))
	return rows
}

func stringKeys[K ~string](m map[K]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

// printPlan prints the decision table, the conflicting edits and any warnings
func printPlan(plan *Plan, warnings []wizard.Warning) {
	req := plan.Request
	opts := utils.DefaultTableOptions()
	opts.Title = fmt.Sprintf("Merge plan: %s ← %s", req.Master, req.Slave)
	opts.NumericColumns = []int{3}
	utils.PrintTable([]string{"Kind", "Decision", "Count"}, summaryRows(req), opts)

	if len(plan.Conflicts) > 0 {
		opts := utils.DefaultTableOptions()
		opts.Title = "Conflicting edits"
		utils.PrintTable([]string{"Chat", "Section", "Master → slave", "Runes"}, plan.Conflicts, opts)
	}

	if len(warnings) > 0 {
		md := "## Warnings\n\n"
		for _, w := range warnings {
			md += "- " + w.Message + "\n"
		}
		printMarkdown(md)
	}

	utils.PrintKeyValue("Request", req.ID)
}

func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		fmt.Fprint(utils.Output, md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprint(utils.Output, md)
		return
	}
	fmt.Fprint(utils.Output, out)
}
