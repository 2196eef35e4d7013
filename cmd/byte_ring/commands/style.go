package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	passStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	titleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

func checkLine(ok bool, name string) string {
	mark := passStyle.Render("PASS")
	if !ok {
		mark = failStyle.Render("FAIL")
	}
	return fmt.Sprintf("%s %s", mark, name)
}

// summary renders aligned key/value rows under a title.
func summary(title string, rows [][2]string) string {
	width := 0
	for _, row := range rows {
		width = max(width, len(row[0]))
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteByte('\n')
	for _, row := range rows {
		key := labelStyle.Width(width + 2).Render(row[0])
		b.WriteString(key)
		b.WriteString(row[1])
		b.WriteByte('\n')
	}
	return b.String()
}
