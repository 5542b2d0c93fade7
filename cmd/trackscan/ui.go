// # cmd/trackscan/ui.go
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"trackscan/internal/util"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	eventStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	sourceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

const maxRecentChanges = 100

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	list       list.Model
	eventCount int
	implCount  int
	fileCount  int
	bySource   map[string]int
	heapMB     uint64
	lastUpdate time.Time
}

type updateMsg struct {
	eventCount int
	implCount  int
	fileCount  int
	bySource   map[string]int
	added      []string
	removed    []string
	heapMB     uint64
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
	case updateMsg:
		m.eventCount = msg.eventCount
		m.implCount = msg.implCount
		m.fileCount = msg.fileCount
		m.bySource = msg.bySource
		m.heapMB = msg.heapMB
		m.lastUpdate = time.Now()

		stamp := m.lastUpdate.Format("15:04:05")
		fresh := []list.Item{}
		for _, name := range msg.added {
			fresh = append(fresh, item{title: "🆕 " + name, desc: "added at " + stamp})
		}
		for _, name := range msg.removed {
			fresh = append(fresh, item{title: "🗑️  " + name, desc: "removed at " + stamp})
		}
		if len(fresh) > 0 {
			items := append(fresh, m.list.Items()...)
			if len(items) > maxRecentChanges {
				items = items[:maxRecentChanges]
			}
			m.list.SetItems(items)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %v | %d files | %d call sites | heap %dMB",
		m.lastUpdate.Format("15:04:05"), m.fileCount, m.implCount, m.heapMB))

	var summary string
	if m.eventCount == 0 {
		summary = successStyle.Render("No tracking events detected")
	} else {
		parts := make([]string, 0, len(m.bySource))
		for _, name := range util.SortedStringKeys(m.bySource) {
			parts = append(parts, fmt.Sprintf("%s:%d", name, m.bySource[name]))
		}
		summary = fmt.Sprintf("%s | %s",
			eventStyle.Render(fmt.Sprintf("%d Events", m.eventCount)),
			sourceStyle.Render(strings.Join(parts, " ")))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Tracking Schema Monitor"), status, summary)
	return docStyle.Render(header + "\n" + m.list.View())
}

func initialModel() model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Recent Changes"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return model{
		list:       l,
		lastUpdate: time.Now(),
	}
}
