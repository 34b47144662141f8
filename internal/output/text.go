package output

import (
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/mesh-intelligence/bibshelf/pkg/types"
)

// DefaultWidth is used when the terminal size is unknown.
const DefaultWidth = 80

// TerminalWidth returns the column count of f when it is a terminal, else
// DefaultWidth.
func TerminalWidth(f *os.File) int {
	if !IsTerminal(f) {
		return DefaultWidth
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	return w
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func Plural(count int, singular string, plural string) string {
	if count != 1 {
		return plural
	}
	return singular
}

func Indent(spaces int, multilineText string) string {
	indent := strings.Repeat(" ", spaces)
	lines := strings.Split(multilineText, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

// Columns lays words out in as many equal columns as fit in width, filling
// down each column first, like ls.
func Columns(words []string, width int) string {
	if len(words) == 0 {
		return ""
	}
	widest := 0
	for _, w := range words {
		widest = max(widest, utf8.RuneCountInString(w))
	}
	colWidth := widest + 2
	cols := max(1, width/colWidth)
	rows := (len(words) + cols - 1) / cols

	var b strings.Builder
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := c*rows + r
			if i >= len(words) {
				break
			}
			b.WriteString(words[i])
			if (c+1)*rows+r < len(words) {
				b.WriteString(strings.Repeat(" ", colWidth-utf8.RuneCountInString(words[i])))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// EntryNames returns the names of entries in order.
func EntryNames(entries []*types.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

// Diagnostic renders a diagnostic with its severity colored.
func Diagnostic(d types.Diagnostic) string {
	switch d.Severity {
	case types.SeverityError:
		return TerminalFormatAsError(d.String())
	case types.SeverityWarning:
		return TerminalFormatAsWarning(d.String())
	default:
		return TerminalFormatAsDim(d.String())
	}
}
