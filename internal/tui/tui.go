// Package tui renders the read-only agenda view: today's bookings,
// mirrored calendar events, and anything waiting on the user.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tempoplan/tempo/internal/calendar"
	"github.com/tempoplan/tempo/internal/dateutil"
	"github.com/tempoplan/tempo/internal/task"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	tableStyle = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
	helpStyle  = lipgloss.NewStyle().Faint(true)
)

type refreshMsg struct {
	tasks  []*task.Task
	events []calendar.Event
	err    error
}

// Model is the bubbletea model behind the agenda view.
type Model struct {
	repo  task.Repository
	cal   calendar.Adapter
	loc   *time.Location
	day   time.Time
	table table.Model
	err   error
}

// NewModel creates the agenda model showing the given day.
func NewModel(repo task.Repository, cal calendar.Adapter, loc *time.Location) Model {
	if loc == nil {
		loc = time.Local
	}
	columns := []table.Column{
		{Title: "Time", Width: 7},
		{Title: "Item", Width: 46},
		{Title: "Len", Width: 5},
		{Title: "Kind", Width: 8},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(14),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("14"))
	t.SetStyles(styles)

	return Model{
		repo:  repo,
		cal:   cal,
		loc:   loc,
		day:   dateutil.TruncateToDay(time.Now().In(loc)),
		table: t,
	}
}

func (m Model) Init() tea.Cmd {
	return m.refresh()
}

func (m Model) refresh() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		tasks, err := m.repo.ListTasks(ctx)
		if err != nil {
			return refreshMsg{err: err}
		}
		var events []calendar.Event
		if m.cal != nil {
			if events, err = m.cal.ListUpcoming(ctx, 20); err != nil {
				return refreshMsg{tasks: tasks, err: err}
			}
		}
		return refreshMsg{tasks: tasks, events: events}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		m.err = msg.err
		m.table.SetRows(toRows(buildItems(msg.tasks, msg.events, m.day)))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.refresh()
		case "tab", "right", "l":
			m.day = m.day.AddDate(0, 0, 1)
			return m, m.refresh()
		case "shift+tab", "left", "h":
			m.day = m.day.AddDate(0, 0, -1)
			return m, m.refresh()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	header := titleStyle.Render(fmt.Sprintf("Agenda — %s", m.day.Format("Monday, January 2")))
	body := tableStyle.Render(m.table.View())
	help := helpStyle.Render("←/→ day · r refresh · q quit")
	if m.err != nil {
		help = helpStyle.Render("error: "+m.err.Error()) + "\n" + help
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, help)
}

// Run starts the agenda view and blocks until the user quits.
func Run(repo task.Repository, cal calendar.Adapter, loc *time.Location) error {
	p := tea.NewProgram(NewModel(repo, cal, loc), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
