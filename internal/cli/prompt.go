package cli

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// isInteractive reports whether stdin is a terminal.
func isInteractive() bool {
	return isatty.IsTerminal(os.Stdin.Fd())
}

var (
	promptStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	promptKeyStyle = lipgloss.NewStyle().Foreground(colorGray)
)

// confirmModel is a minimal yes/no prompt.
type confirmModel struct {
	question string
	answer   bool
	decided  bool
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "y", "Y", "enter":
			m.answer = true
			m.decided = true
			return m, tea.Quit
		case "n", "N", "q", "esc", "ctrl+c":
			m.answer = false
			m.decided = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.decided {
		return ""
	}
	return promptStyle.Render("? ") + m.question + promptKeyStyle.Render(" [y/N] ")
}

// confirm asks a yes/no question on the terminal. Enter and y both accept.
func confirm(question string) (bool, error) {
	final, err := tea.NewProgram(confirmModel{question: question}).Run()
	if err != nil {
		return false, err
	}
	m, ok := final.(confirmModel)
	return ok && m.answer, nil
}
