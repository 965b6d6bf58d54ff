package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sentiment-desk/internal/dashboard"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Loader returns the dashboard view for a ticker.
type Loader func(ctx context.Context, ticker string) (*dashboard.View, error)

type viewLoadedMsg struct {
	view *dashboard.View
	err  error
}

var (
	keyQuit   = key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"))
	keyReload = key.NewBinding(key.WithKeys("r"))
)

// Model is the bubbletea dashboard for one ticker.
type Model struct {
	ticker string
	load   Loader

	view    *dashboard.View
	err     error
	loading bool

	table  table.Model
	width  int
	height int
}

func NewModel(ticker string, load Loader) *Model {
	t := table.New(
		table.WithColumns(headlineColumns(100)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.BorderForeground(borderColor).BorderBottom(true).Bold(true)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("#F9FAFB")).Background(accentColor)
	t.SetStyles(styles)

	return &Model{
		ticker:  strings.ToUpper(ticker),
		load:    load,
		loading: true,
		table:   t,
		width:   100,
		height:  40,
	}
}

// SetSize sizes the layout before the first WindowSizeMsg arrives.
func (m *Model) SetSize(width, height int) {
	if width > 0 {
		m.width = width
	}
	if height > 0 {
		m.height = height
	}
	m.table.SetColumns(headlineColumns(m.width))
	if h := m.height - 22; h >= 3 {
		m.table.SetHeight(h)
	} else {
		m.table.SetHeight(3)
	}
}

func (m *Model) Init() tea.Cmd {
	return m.reload()
}

func (m *Model) reload() tea.Cmd {
	ticker, load := m.ticker, m.load
	return func() tea.Msg {
		view, err := load(context.Background(), ticker)
		return viewLoadedMsg{view: view, err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil
	case viewLoadedMsg:
		m.loading = false
		m.view, m.err = msg.view, msg.err
		if m.view != nil {
			m.table.SetRows(headlineRows(m.view))
		}
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keyQuit):
			return m, tea.Quit
		case key.Matches(msg, keyReload):
			m.loading = true
			return m, m.reload()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) View() string {
	header := titleStyle.Render(fmt.Sprintf("%s sentiment dashboard", m.ticker))
	help := helpStyle.Render("↑/↓ scroll • r reload • q quit")

	switch {
	case m.loading && m.view == nil:
		return lipgloss.JoinVertical(lipgloss.Left, header, mutedStyle.Render("Loading..."), help)
	case errors.Is(m.err, dashboard.ErrNotGenerated):
		msg := fmt.Sprintf("No data for %s yet. Run `pipeline run --ticker %s` first.", m.ticker, m.ticker)
		return lipgloss.JoinVertical(lipgloss.Left, header, errorStyle.Render(msg), help)
	case m.err != nil:
		return lipgloss.JoinVertical(lipgloss.Left, header, errorStyle.Render(m.err.Error()), help)
	}

	v := m.view
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Latest close", latestClose(v)),
		card("Change", change(v)),
		card("Avg confidence", fmt.Sprintf("%.2f", v.MeanConfidence)),
		card("Dominant", dominant(v)),
	)

	barWidth := 20
	if m.width > 110 {
		barWidth = 30
	}
	charts := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render("Sentiment distribution\n"+distributionChart(v.Labels, barWidth)),
		panelStyle.Render("Avg confidence by sentiment\n"+confidenceChart(v.Labels, barWidth)),
	)

	price := "Close price\n" + mutedStyle.Render("no price data")
	if len(v.Prices) > 0 {
		first, last := v.Prices[0], v.Prices[len(v.Prices)-1]
		price = fmt.Sprintf("Close price %s → %s\n%s  %s → %s",
			first.Day(), last.Day(), sparkline(v.CloseSeries()), first.Close.StringFixed(2), last.Close.StringFixed(2))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		cards,
		panelStyle.Render(price),
		charts,
		panelStyle.Render(m.table.View()),
		help,
	)
}

func card(label, value string) string {
	return cardStyle.Render(cardLabelStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func latestClose(v *dashboard.View) string {
	if v.LatestClose == nil {
		return "n/a"
	}
	return "$" + v.LatestClose.StringFixed(2)
}

func change(v *dashboard.View) string {
	if v.ChangePct == nil {
		return "n/a"
	}
	style := lipgloss.NewStyle().Foreground(positiveColor)
	if *v.ChangePct < 0 {
		style = lipgloss.NewStyle().Foreground(negativeColor)
	}
	return style.Render(fmt.Sprintf("%+.2f%% (σ %.2f%%)", *v.ChangePct, v.Volatility))
}

func dominant(v *dashboard.View) string {
	if v.Dominant == "" {
		return "n/a"
	}
	style := lipgloss.NewStyle().Foreground(labelColor(v.Dominant))
	return style.Render(fmt.Sprintf("%s (%d)", v.Dominant, v.DominantCount))
}

func headlineColumns(width int) []table.Column {
	titleWidth := width - 10 - 16 - 9 - 6 - 12
	if titleWidth < 20 {
		titleWidth = 20
	}
	return []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Title", Width: titleWidth},
		{Title: "Source", Width: 16},
		{Title: "Label", Width: 9},
		{Title: "Conf", Width: 6},
	}
}

func headlineRows(v *dashboard.View) []table.Row {
	rows := make([]table.Row, 0, len(v.Headlines))
	for _, h := range v.Headlines {
		rows = append(rows, table.Row{
			h.Day(),
			h.Title,
			h.Source,
			string(h.Sentiment.Label),
			fmt.Sprintf("%.2f", h.Sentiment.Confidence),
		})
	}
	return rows
}
