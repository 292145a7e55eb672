package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dmitrijs2005/taskboard/internal/server/models"
	"github.com/dmitrijs2005/taskboard/internal/views"
)

const (
	columnWidth = 26
	barWidth    = 30
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Bold(true)
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))

	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1).
			Width(columnWidth)

	priorityStyles = map[models.Priority]lipgloss.Style{
		models.PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		models.PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		models.PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	}
)

func renderPriority(p models.Priority) string {
	if st, ok := priorityStyles[p]; ok {
		return st.Render(string(p))
	}
	return string(p)
}

func renderTaskList(tasks []*models.Task) string {
	if len(tasks) == 0 {
		return mutedStyle.Render("No tasks.") + "\n"
	}

	var b strings.Builder
	for _, t := range tasks {
		fmt.Fprintf(&b, "#%-4d %-12s %-8s %s", t.ID, t.Status.Label(), renderPriority(t.Priority), t.Name)
		if t.DueDate != nil {
			b.WriteString(mutedStyle.Render("  due " + models.FormatDueDate(*t.DueDate)))
		}
		if t.Assignee != nil {
			b.WriteString(mutedStyle.Render("  @" + t.Assignee.Name))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func renderTask(t *models.Task) string {
	due, assignee := "-", "-"
	if t.DueDate != nil {
		due = models.FormatDueDate(*t.DueDate)
	}
	if t.Assignee != nil {
		assignee = t.Assignee.Name
	}

	rows := [][2]string{
		{"Status", t.Status.Label()},
		{"Priority", renderPriority(t.Priority)},
		{"Due", due},
		{"Assignee", assignee},
		{"Creator", t.Creator.Name},
		{"Created", t.CreatedAt.Local().Format("2006-01-02 15:04")},
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("#%d %s", t.ID, t.Name)))
	b.WriteByte('\n')
	for _, r := range rows {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-9s", r[0]+":")), r[1])
	}
	if t.Description != "" {
		b.WriteByte('\n')
		b.WriteString(t.Description)
		b.WriteByte('\n')
	}
	return b.String()
}

// renderBoard lays the columns side by side.
func renderBoard(board views.Board) string {
	cols := make([]string, 0, len(board.Columns))
	for _, c := range board.Columns {
		lines := []string{headerStyle.Render(fmt.Sprintf("%s (%d)", c.Title, len(c.Tasks)))}
		if len(c.Tasks) == 0 {
			lines = append(lines, mutedStyle.Render("empty"))
		}
		for _, t := range c.Tasks {
			lines = append(lines, fmt.Sprintf("#%d %s", t.ID, t.Name))
		}
		cols = append(cols, columnStyle.Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func renderDashboard(d views.Dashboard) string {
	sections := []struct {
		title  string
		series views.Series
	}{
		{"By status", d.ByStatus},
		{"By priority", d.ByPriority},
		{"By assignee", d.ByAssignee},
		{"By month created", d.ByMonth},
	}

	parts := []string{headerStyle.Render(fmt.Sprintf("Total tasks: %d", d.Total))}
	for _, s := range sections {
		parts = append(parts, renderSeries(s.title, s.series))
	}
	return strings.Join(parts, "\n\n")
}

// renderSeries draws one horizontal bar per point, scaled to the largest.
func renderSeries(title string, s views.Series) string {
	lines := []string{labelStyle.Render(title)}
	if len(s.Points) == 0 {
		return strings.Join(append(lines, mutedStyle.Render("  no data")), "\n")
	}

	maxCount, labelWidth := 0, 0
	for _, p := range s.Points {
		maxCount = max(maxCount, p.Count)
		labelWidth = max(labelWidth, lipgloss.Width(p.Label))
	}

	for _, p := range s.Points {
		n := 0
		if maxCount > 0 {
			n = p.Count * barWidth / maxCount
		}
		if p.Count > 0 && n == 0 {
			n = 1
		}
		label := p.Label + strings.Repeat(" ", labelWidth-lipgloss.Width(p.Label))
		lines = append(lines, fmt.Sprintf("  %s %s %d", label, barStyle.Render(strings.Repeat("█", n)), p.Count))
	}
	return strings.Join(lines, "\n")
}
