package merge

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/tildaslashalef/chatmerge/internal/dataset"
	"github.com/tildaslashalef/chatmerge/internal/diff"
	"github.com/tildaslashalef/chatmerge/internal/merge"
	"github.com/tildaslashalef/chatmerge/internal/utils"
	"github.com/tildaslashalef/chatmerge/internal/wizard"
)

// listView is a rendered entry list and the line the cursor entry starts on
type listView struct {
	content    string
	cursorLine int
}

// entryLabels name diff types the way each list talks about them
var entryLabels = map[diff.Type]string{
	diff.NoChange: "same",
	diff.Change:   "changed",
	diff.Add:      "new",
	diff.DontAdd:  "unused",
	diff.Keep:     "master only",
}

func (s Styles) badge(t diff.Type) string {
	label := fmt.Sprintf("%-11s", entryLabels[t])
	switch t {
	case diff.Change:
		return s.Change.Render(label)
	case diff.Add:
		return s.Add.Render(label)
	case diff.DontAdd:
		return s.DontAdd.Render(label)
	case diff.Keep:
		return s.Keep.Render(label)
	default:
		return s.NoChange.Render(label)
	}
}

func checkbox(t diff.Type, selected bool) string {
	switch {
	case !t.Toggleable():
		return "   "
	case selected:
		return "[x]"
	default:
		return "[ ]"
	}
}

func (s Styles) pointer(active bool) string {
	if active {
		return s.Cursor.Render("▸ ")
	}
	return "  "
}

func clip(line string, width int) string {
	if width <= 0 {
		return line
	}
	return truncate.StringWithTail(line, uint(width), "…")
}

// renderChats renders the chat model, one line per entry
func renderChats(chats diff.Model[dataset.ChatRow], sel diff.Selection, cursor, width int, s Styles) listView {
	var (
		b    strings.Builder
		line int
	)
	for i, e := range chats {
		if i == cursor {
			line = i
		}
		fmt.Fprintf(&b, "%s%s %s %s\n", s.pointer(i == cursor), checkbox(e.Type, sel.Has(i)), s.badge(e.Type),
			clip(chatSummary(e), width-20))
	}
	return listView{content: b.String(), cursorLine: line}
}

func chatSummary(e diff.Entry[dataset.ChatRow]) string {
	left, hasLeft := diff.First(e.Left)
	right, hasRight := diff.First(e.Right)

	switch {
	case hasLeft && hasRight:
		name := left.Chat.Name
		if right.Chat.Name != left.Chat.Name {
			name = left.Chat.Name + " → " + right.Chat.Name
		}
		return fmt.Sprintf("%s (%d → %d messages)", name, left.Chat.MessageCount, right.Chat.MessageCount)
	case hasLeft:
		return fmt.Sprintf("%s (%d messages)", left.Chat.Name, left.Chat.MessageCount)
	case hasRight:
		return fmt.Sprintf("%s (%d messages)", right.Chat.Name, right.Chat.MessageCount)
	default:
		return ""
	}
}

// renderUsers renders the user model; changed users list their differing fields
func renderUsers(users diff.Model[dataset.UserRow], sel diff.Selection, cursor, width int, s Styles) listView {
	var (
		b     strings.Builder
		lines int
		at    int
	)
	for i, e := range users {
		if i == cursor {
			at = lines
		}
		left, hasLeft := diff.First(e.Left)
		right, hasRight := diff.First(e.Right)

		name := ""
		switch {
		case hasLeft:
			name = left.User.PrettyName()
		case hasRight:
			name = right.User.PrettyName()
		}
		fmt.Fprintf(&b, "%s%s %s %s\n", s.pointer(i == cursor), checkbox(e.Type, sel.Has(i)), s.badge(e.Type), clip(name, width-20))
		lines++

		if hasLeft && hasRight && e.Type == diff.Change {
			for _, change := range userChanges(left.User, right.User) {
				fmt.Fprintf(&b, "%s%s\n", strings.Repeat(" ", 20), s.Subtle.Render(clip(change, width-20)))
				lines++
			}
		}
	}
	return listView{content: b.String(), cursorLine: at}
}

func userChanges(master, slave dataset.User) []string {
	var out []string
	field := func(name, a, b string) {
		if b != "" && a != b {
			out = append(out, fmt.Sprintf("%s: %q → %q", name, a, b))
		}
	}
	field("first name", master.FirstName, slave.FirstName)
	field("last name", master.LastName, slave.LastName)
	field("username", master.Username, slave.Username)
	field("phone", master.Phone, slave.Phone)
	return out
}

// renderMessages renders one section per entry with both sides below its header
func renderMessages(msgs diff.Model[dataset.MessageRow], sel diff.Selection, cursor int, names map[int64]string, width int, s Styles) listView {
	var (
		b     strings.Builder
		lines int
		at    int
	)
	emit := func(line string) {
		b.WriteString(line)
		b.WriteByte('\n')
		lines++
	}

	for i, e := range msgs {
		if i == cursor {
			at = lines
		}
		emit(fmt.Sprintf("%s%s %s %s", s.pointer(i == cursor), checkbox(e.Type, sel.Has(i)), s.badge(e.Type),
			s.Subtle.Render(fmt.Sprintf("section %d", i+1))))

		if inline, ok := inlineConflict(e, s); ok {
			emit("      " + clip(inline, width-6))
			continue
		}

		if !diff.IsEmpty(e.Left) {
			emit("      " + s.Subtle.Render("master"))
			for _, l := range renderUnits(e.Left, names, width-8, s) {
				emit("        " + l)
			}
		}
		if !diff.IsEmpty(e.Right) {
			emit("      " + s.Subtle.Render("slave"))
			for _, l := range renderUnits(e.Right, names, width-8, s) {
				emit("        " + l)
			}
		}
	}
	return listView{content: b.String(), cursorLine: at}
}

// inlineConflict renders a one-message-per-side conflict as a single diffed line
func inlineConflict(e diff.Entry[dataset.MessageRow], s Styles) (string, bool) {
	if e.Type != diff.Change {
		return "", false
	}
	left, okLeft := e.Left.(diff.Flat[dataset.MessageRow])
	right, okRight := e.Right.(diff.Flat[dataset.MessageRow])
	if !okLeft || !okRight || len(left) != 1 || len(right) != 1 {
		return "", false
	}

	var b strings.Builder
	for _, span := range utils.InlineDiff(utils.SingleLine(left[0].Message.Text), utils.SingleLine(right[0].Message.Text)) {
		switch span.Op {
		case utils.DiffDelete:
			b.WriteString(s.Deleted.Render(span.Text))
		case utils.DiffInsert:
			b.WriteString(s.Inserted.Render(span.Text))
		default:
			b.WriteString(span.Text)
		}
	}
	return b.String(), true
}

// renderUnits renders every visible message of a side, marking the elided middle
func renderUnits(u diff.Units[dataset.MessageRow], names map[int64]string, width int, s Styles) []string {
	rows := func(rs []dataset.MessageRow) []string {
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, messageLine(r.Message, names, width))
		}
		return out
	}

	return diff.MatchUnits(u,
		func(f diff.Flat[dataset.MessageRow]) []string {
			return rows(f)
		},
		func(a diff.Abbreviated[dataset.MessageRow]) []string {
			out := rows(a.Leading())
			out = append(out, s.Subtle.Render(fmt.Sprintf("⋯ %d more messages ⋯", a.Elided())))
			return append(out, rows(a.Trailing())...)
		},
	)
}

func messageLine(m dataset.Message, names map[int64]string, width int) string {
	from, ok := names[m.FromID]
	if !ok {
		from = fmt.Sprintf("#%d", m.FromID)
	}
	stamp := ""
	if !m.Time.IsZero() {
		stamp = m.Time.Format("2006-01-02 15:04") + " "
	}
	return clip(fmt.Sprintf("%s%s: %s", stamp, from, utils.SingleLine(m.Text)), width)
}

// userNames maps every user id of the session to a display name, slave names last
func userNames(users diff.Model[dataset.UserRow]) map[int64]string {
	names := make(map[int64]string)
	for _, e := range users {
		for _, side := range []diff.Units[dataset.UserRow]{e.Left, e.Right} {
			for _, row := range diff.Visible(side) {
				names[row.User.ID] = row.User.PrettyName()
			}
		}
	}
	return names
}

// planMarkdown describes a finished request, its warnings and the backend's answer
func planMarkdown(req *merge.Request, warnings []wizard.Warning, note string, width int) string {
	title := fmt.Sprintf("Merge plan: %s ← %s", req.Master, req.Slave)

	var b strings.Builder
	b.WriteString(merge.Summarize(req).Markdown(title))

	if note != "" {
		b.WriteString(wordwrap.String(note, width))
		b.WriteString("\n\n")
	}

	if len(warnings) > 0 {
		b.WriteString("## Warnings\n\n")
		for _, w := range warnings {
			fmt.Fprintf(&b, "- %s\n", w.Message)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "_Request %s_\n", req.ID)
	return b.String()
}
