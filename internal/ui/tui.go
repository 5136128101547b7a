package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/openarchive/unisearch/internal/search"
	"github.com/openarchive/unisearch/internal/service"
)

// liveSuggestLimit is how many completions the interactive screen shows
// under the input.
const liveSuggestLimit = 5

// resultPageSize is the page size used for interactive searches.
const resultPageSize = 10

type searchDoneMsg struct {
	resp *service.SearchResponse
	err  error
}

type suggestMsg struct {
	forInput    string
	suggestions []search.Suggestion
}

// searchModel is the bubbletea model for the interactive search screen.
type searchModel struct {
	svc    *service.Service
	input  textinput.Model
	styles Styles

	suggestions []search.Suggestion
	resp        *service.SearchResponse
	err         error
	searching   bool
	width       int
}

func newSearchModel(svc *service.Service) searchModel {
	input := textinput.New()
	input.Placeholder = "search the archive (AND, OR, NOT, \"quoted phrases\")"
	input.Focus()
	input.CharLimit = 200

	return searchModel{
		svc:    svc,
		input:  input,
		styles: DefaultStyles(),
	}
}

func (m searchModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m searchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			query := strings.TrimSpace(m.input.Value())
			if query == "" {
				return m, nil
			}
			m.searching = true
			m.err = nil
			return m, m.runSearch(query)
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, tea.Batch(cmd, m.fetchSuggestions(m.input.Value()))

	case searchDoneMsg:
		m.searching = false
		m.resp = msg.resp
		m.err = msg.err
		return m, nil

	case suggestMsg:
		// Drop stale completions from a superseded input value.
		if msg.forInput == m.input.Value() {
			m.suggestions = msg.suggestions
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m searchModel) runSearch(query string) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.svc.Search(context.Background(), service.SearchRequest{
			Query: query,
			Limit: resultPageSize,
		})
		return searchDoneMsg{resp: resp, err: err}
	}
}

func (m searchModel) fetchSuggestions(prefix string) tea.Cmd {
	return func() tea.Msg {
		suggestions, err := m.svc.Suggest(context.Background(), prefix, liveSuggestLimit)
		if err != nil {
			return suggestMsg{forInput: prefix}
		}
		return suggestMsg{forInput: prefix, suggestions: suggestions}
	}
}

func (m searchModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Header.Render("unisearch"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	for _, s := range m.suggestions {
		b.WriteString(m.styles.Dim.Render("  ⤷ "))
		b.WriteString(m.styles.Label.Render(s.Text))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	switch {
	case m.searching:
		b.WriteString(m.styles.Dim.Render("searching..."))
	case m.err != nil:
		b.WriteString(m.styles.Error.Render(m.err.Error()))
	case m.resp != nil:
		b.WriteString(m.renderResults())
	default:
		b.WriteString(m.styles.Dim.Render("type a query and press enter"))
	}

	b.WriteString("\n\n")
	b.WriteString(m.styles.Dim.Render("enter: search  esc: quit"))
	return b.String()
}

func (m searchModel) renderResults() string {
	if m.resp.TotalResults == 0 {
		return m.styles.Dim.Render("no results")
	}

	var b strings.Builder
	b.WriteString(m.styles.Label.Render(
		fmt.Sprintf("%d result(s) in %dms", m.resp.TotalResults, m.resp.SearchTimeMS)))
	b.WriteString("\n")

	for _, item := range m.resp.Results {
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			m.styles.Score.Render(fmt.Sprintf("%.2f", item.Score)),
			m.styles.Source.Render(fmt.Sprintf("%-8s", item.SourceType)),
			m.styles.Title.Render(item.Title)))
	}
	return b.String()
}

// RunInteractive starts the interactive search screen and blocks until
// the user quits.
func RunInteractive(svc *service.Service) error {
	program := tea.NewProgram(newSearchModel(svc), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
