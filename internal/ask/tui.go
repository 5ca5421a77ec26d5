package ask

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	contextStyle  = lipgloss.NewStyle().Faint(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("84"))
	helpStyle     = lipgloss.NewStyle().Faint(true).MarginTop(1)
)

// TerminalUI renders query widgets as inline bubbletea programs.
type TerminalUI struct{}

func NewTerminalUI() *TerminalUI { return &TerminalUI{} }

func (u *TerminalUI) NewList(title, description string, options []string) ListWidget {
	return &tuiList{title: title, description: description, options: options}
}

func (u *TerminalUI) NewInput(title, placeholder string) InputWidget {
	return &tuiInput{title: title, placeholder: placeholder}
}

// --- list widget ---

type tuiList struct {
	title       string
	description string
	options     []string

	onAccept func([]int)
	onHide   func()
	onActive func(int)

	mu     sync.Mutex
	prog   *tea.Program
	closed bool
}

func (w *tuiList) OnAccept(fn func([]int))     { w.onAccept = fn }
func (w *tuiList) OnHide(fn func())            { w.onHide = fn }
func (w *tuiList) OnActiveChange(fn func(int)) { w.onActive = fn }

// Show runs the list program; it blocks until the widget leaves the
// screen. Events are delivered in accept-then-hide order, and only after
// the program has exited: an accept handler may open another widget
// (the free-text prompt), which must not start while this program still
// owns stdin and the terminal.
func (w *tuiList) Show() error {
	model := &listModel{
		widget: w,
		chosen: make(map[int]bool),
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.emitHide()
		return nil
	}
	w.prog = tea.NewProgram(model)
	w.mu.Unlock()

	// The widget auto-focuses its first entry on display.
	w.emitActive(0)

	_, err := w.prog.Run()
	if model.didAccept {
		w.emitAccept(model.acceptIdx)
	}
	w.emitHide()
	return err
}

// Close force-dismisses the widget.
func (w *tuiList) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	if w.prog != nil {
		w.prog.Quit()
	}
}

func (w *tuiList) emitActive(index int) {
	if w.onActive != nil {
		w.onActive(index)
	}
}

func (w *tuiList) emitAccept(indices []int) {
	if w.onAccept != nil {
		w.onAccept(indices)
	}
}

func (w *tuiList) emitHide() {
	if w.onHide != nil {
		w.onHide()
	}
}

type listModel struct {
	widget *tuiList
	cursor int
	chosen map[int]bool

	// Acceptance is recorded here and delivered by Show after the
	// program exits, never from inside Update.
	didAccept bool
	acceptIdx []int
}

func (m *listModel) Init() tea.Cmd { return nil }

func (m *listModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.widget.emitActive(m.cursor)
		}
	case "down", "j":
		if m.cursor < len(m.widget.options)-1 {
			m.cursor++
			m.widget.emitActive(m.cursor)
		}
	case " ":
		m.chosen[m.cursor] = !m.chosen[m.cursor]
	case "enter":
		m.didAccept = true
		m.acceptIdx = m.accepted()
		return m, tea.Quit
	case "esc", "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

// accepted returns the toggled entries, or the cursor entry when
// nothing was toggled.
func (m *listModel) accepted() []int {
	var indices []int
	for i := range m.widget.options {
		if m.chosen[i] {
			indices = append(indices, i)
		}
	}
	if len(indices) == 0 {
		indices = []int{m.cursor}
	}
	return indices
}

func (m *listModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.widget.title) + "\n")
	if m.widget.description != "" {
		b.WriteString(contextStyle.Render(m.widget.description) + "\n")
	}
	b.WriteString("\n")

	for i, opt := range m.widget.options {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("❯ ")
		}
		mark := "○"
		line := opt
		if m.chosen[i] {
			mark = selectedStyle.Render("●")
			line = selectedStyle.Render(opt)
		}
		fmt.Fprintf(&b, "%s%s %s\n", cursor, mark, line)
	}

	b.WriteString(helpStyle.Render("↑/↓ move · space toggle · enter accept · esc dismiss"))
	return b.String()
}

// --- input widget ---

type tuiInput struct {
	title       string
	placeholder string

	onAccept func(string)
	onHide   func()

	mu     sync.Mutex
	prog   *tea.Program
	closed bool
}

func (w *tuiInput) OnAccept(fn func(string)) { w.onAccept = fn }
func (w *tuiInput) OnHide(fn func())         { w.onHide = fn }

func (w *tuiInput) Show() error {
	ti := textinput.New()
	ti.Placeholder = w.placeholder
	ti.Focus()

	model := &inputModel{widget: w, input: ti}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		w.emitHide()
		return nil
	}
	w.prog = tea.NewProgram(model)
	w.mu.Unlock()

	_, err := w.prog.Run()
	w.emitHide()
	return err
}

func (w *tuiInput) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	if w.prog != nil {
		w.prog.Quit()
	}
}

func (w *tuiInput) emitAccept(text string) {
	if w.onAccept != nil {
		w.onAccept(text)
	}
}

func (w *tuiInput) emitHide() {
	if w.onHide != nil {
		w.onHide()
	}
}

type inputModel struct {
	widget *tuiInput
	input  textinput.Model
}

func (m *inputModel) Init() tea.Cmd { return textinput.Blink }

func (m *inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			m.widget.emitAccept(m.input.Value())
			return m, tea.Quit
		case "esc", "ctrl+c":
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *inputModel) View() string {
	return titleStyle.Render(m.widget.title) + "\n" + m.input.View() + "\n" +
		helpStyle.Render("enter accept · esc dismiss")
}
