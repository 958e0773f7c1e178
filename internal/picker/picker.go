package picker

import (
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// ErrNoTTY is returned when stdin is not an interactive terminal.
var ErrNoTTY = errors.New("interactive picker needs a terminal")

// ErrCancelled is returned when the user dismissed the menu.
var ErrCancelled = errors.New("selection cancelled")

// visibleRows caps how many options render at once.
const visibleRows = 15

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	checkedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
	noMatchStyle = lipgloss.NewStyle().Faint(true).Italic(true)
)

// Pick shows a single-select menu and returns the chosen option.
func Pick(title string, options []string) (string, error) {
	chosen, err := run(title, options, false)
	if err != nil {
		return "", err
	}
	return chosen[0], nil
}

// PickMany shows a multi-select menu (space toggles, enter accepts).
// Accepting with nothing toggled selects the option under the cursor.
func PickMany(title string, options []string) ([]string, error) {
	return run(title, options, true)
}

func run(title string, options []string, multi bool) ([]string, error) {
	if len(options) == 0 {
		return nil, ErrCancelled
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, ErrNoTTY
	}

	m := newModel(title, options, multi)
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return nil, fmt.Errorf("running picker: %w", err)
	}

	result := final.(model)
	if result.cancelled || len(result.chosen) == 0 {
		return nil, ErrCancelled
	}
	return result.chosen, nil
}

type model struct {
	title   string
	options []string
	multi   bool

	filter   string
	filtered []string
	cursor   int
	offset   int
	toggled  map[string]bool

	chosen    []string
	cancelled bool
}

func newModel(title string, options []string, multi bool) model {
	return model{
		title:    title,
		options:  options,
		multi:    multi,
		filtered: options,
		toggled:  make(map[string]bool),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.cancelled = true
		return m, tea.Quit

	case tea.KeyEnter:
		m.accept()
		return m, tea.Quit

	case tea.KeyUp:
		m.move(-1)
	case tea.KeyDown:
		m.move(1)

	case tea.KeyBackspace:
		if m.filter != "" {
			m.filter = m.filter[:len(m.filter)-1]
			m.refilter()
		}

	case tea.KeySpace:
		if m.multi {
			m.toggle()
		} else {
			m.filter += " "
			m.refilter()
		}

	case tea.KeyRunes:
		m.filter += string(key.Runes)
		m.refilter()
	}

	return m, nil
}

func (m *model) accept() {
	if m.multi {
		for _, opt := range m.options {
			if m.toggled[opt] {
				m.chosen = append(m.chosen, opt)
			}
		}
		if len(m.chosen) > 0 {
			return
		}
	}
	if len(m.filtered) > 0 {
		m.chosen = []string{m.filtered[m.cursor]}
	}
}

func (m *model) toggle() {
	if len(m.filtered) == 0 {
		return
	}
	opt := m.filtered[m.cursor]
	m.toggled[opt] = !m.toggled[opt]
}

func (m *model) move(delta int) {
	if len(m.filtered) == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = len(m.filtered) - 1
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visibleRows {
		m.offset = m.cursor - visibleRows + 1
	}
}

func (m *model) refilter() {
	needle := strings.ToLower(m.filter)
	m.filtered = m.filtered[:0:0]
	for _, opt := range m.options {
		if strings.Contains(strings.ToLower(opt), needle) {
			m.filtered = append(m.filtered, opt)
		}
	}
	m.cursor = 0
	m.offset = 0
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	if m.filter != "" {
		b.WriteString(dimStyle.Render("  /" + m.filter))
	}
	b.WriteString("\n\n")

	if len(m.filtered) == 0 {
		b.WriteString(noMatchStyle.Render("  nothing matches"))
		b.WriteString("\n")
	}

	end := m.offset + visibleRows
	if end > len(m.filtered) {
		end = len(m.filtered)
	}
	for i := m.offset; i < end; i++ {
		opt := m.filtered[i]

		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}

		check := ""
		if m.multi {
			if m.toggled[opt] {
				check = checkedStyle.Render("[x] ")
			} else {
				check = "[ ] "
			}
		}

		b.WriteString(cursor + check + opt + "\n")
	}

	help := "enter: select • esc: cancel"
	if m.multi {
		help = "space: toggle • " + help
	}
	b.WriteString("\n" + dimStyle.Render(help) + "\n")
	return b.String()
}
