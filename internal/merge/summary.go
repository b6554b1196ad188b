package merge

import (
	"fmt"
	"sort"
	"strings"
)

// Summary counts the decisions of a request
type Summary struct {
	Users    map[UserDecision]int
	Chats    map[ChatDecision]int
	Messages map[MessageDecision]int
}

// Summarize counts the decisions of r
func Summarize(r *Request) Summary {
	s := Summary{
		Users:    make(map[UserDecision]int),
		Chats:    make(map[ChatDecision]int),
		Messages: make(map[MessageDecision]int),
	}
	if r == nil {
		return s
	}

	for _, u := range r.Users {
		s.Users[u.Decision]++
	}
	for _, c := range r.Chats {
		s.Chats[c.Decision]++
		for _, m := range c.Messages {
			s.Messages[m.Decision]++
		}
	}
	return s
}

// Markdown renders the summary as a markdown document
func (s Summary) Markdown(title string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", title)
	writeSection(&b, "Chats", s.Chats)
	writeSection(&b, "Users", s.Users)
	writeSection(&b, "Message sections", s.Messages)

	return b.String()
}

func writeSection[K ~string](b *strings.Builder, name string, counts map[K]int) {
	fmt.Fprintf(b, "## %s\n\n", name)
	if len(counts) == 0 {
		b.WriteString("_none_\n\n")
		return
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	b.WriteString("| Decision | Count |\n|---|---|\n")
	for _, k := range keys {
		fmt.Fprintf(b, "| %s | %d |\n", k, counts[K(k)])
	}
	b.WriteString("\n")
}
