package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pdxmph/tasks-tui/internal/controller"
	"github.com/pdxmph/tasks-tui/internal/remote"
)

type pane int

const (
	paneTasks pane = iota
	paneCategories
)

type mode int

const (
	modeNormal mode = iota
	modeAddTask
	modeAddCategory
	modeConfirmDeleteCategory
)

// allCategories is the first row of the category pane
const allCategories = "All"

// syncedMsg reports that an action finished and the controller state moved
type syncedMsg struct{}

// noticeExpiredMsg asks for a redraw once notice seq has timed out
type noticeExpiredMsg struct {
	seq uint64
}

// Model represents the main application state
type Model struct {
	ctrl *controller.Controller
	ctx  context.Context
	snap controller.Snapshot

	width  int
	height int

	focus      pane
	taskCursor int
	catCursor  int // 0 is the "All" row
	mode       mode

	input   textinput.Model
	spinner spinner.Model

	// pending counts dispatched actions whose syncedMsg has not arrived
	pending  int
	spinning bool

	// after schedules msg after d; tests replace it to avoid sleeping
	after func(d time.Duration, msg tea.Msg) tea.Cmd
}

// Styles
var (
	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230"))

	completedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Strikethrough(true)

	categoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))

	focusedBorderStyle = borderStyle.
				BorderForeground(lipgloss.Color("62"))
)

// New creates a new application model. Actions run with ctx, so cancelling
// it abandons in-flight calls and retries.
func New(ctx context.Context, ctrl *controller.Controller) Model {
	ti := textinput.New()
	ti.Width = 40
	ti.CharLimit = 200
	ti.Prompt = "> "
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("230"))
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))

	return Model{
		ctrl:     ctrl,
		ctx:      ctx,
		snap:     ctrl.Snapshot(),
		input:    ti,
		spinner:  sp,
		pending:  1, // bootstrap, started by Init
		spinning: true,
		after: func(d time.Duration, msg tea.Msg) tea.Cmd {
			return tea.Tick(d, func(time.Time) tea.Msg { return msg })
		},
	}
}

// Init loads tasks and categories
func (m Model) Init() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return tea.Batch(
		func() tea.Msg {
			ctrl.Bootstrap(ctx)
			return syncedMsg{}
		},
		m.spinner.Tick,
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.width > 0 {
			m.input.Width = m.width/2 - 6
		}
		return m, nil

	case syncedMsg:
		if m.pending > 0 {
			m.pending--
		}
		return m, m.sync()

	case noticeExpiredMsg:
		if msg.seq == m.snap.NoticeSeq {
			return m, m.sync()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.mode {
		case modeAddTask, modeAddCategory:
			return m.updateInput(msg)
		case modeConfirmDeleteCategory:
			return m.updateConfirm(msg)
		}
		return m.updateNormal(msg)
	}

	return m, nil
}

func (m Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab":
		if m.focus == paneTasks {
			m.focus = paneCategories
		} else {
			m.focus = paneTasks
		}

	case "j", "down":
		if m.focus == paneTasks {
			if m.taskCursor < len(m.visibleTasks())-1 {
				m.taskCursor++
			}
		} else if m.catCursor < len(m.snap.Categories) {
			m.catCursor++
			m.selectCursorCategory()
		}

	case "k", "up":
		if m.focus == paneTasks {
			if m.taskCursor > 0 {
				m.taskCursor--
			}
		} else if m.catCursor > 0 {
			m.catCursor--
			m.selectCursorCategory()
		}

	case "a":
		m.mode = modeAddTask
		m.input.Reset()
		m.input.SetValue(m.snap.TaskDraft)
		m.input.Placeholder = "New task in " + m.targetCategory()
		m.input.Focus()
		return m, textinput.Blink

	case "c":
		m.mode = modeAddCategory
		m.input.Reset()
		m.input.SetValue(m.snap.CategoryDraft)
		m.input.Placeholder = "New category name"
		m.input.Focus()
		return m, textinput.Blink

	case " ", "x":
		if task, ok := m.currentTask(); ok {
			return m, m.run(func(ctx context.Context) { m.ctrl.CompleteTask(ctx, task.ID) })
		}

	case "d":
		if task, ok := m.currentTask(); ok {
			return m, m.run(func(ctx context.Context) { m.ctrl.DeleteTask(ctx, task.ID) })
		}

	case "D":
		if _, ok := m.currentCategory(); ok {
			m.mode = modeConfirmDeleteCategory
		}

	case "r":
		return m, m.run(func(ctx context.Context) {
			m.ctrl.CheckHealth(ctx)
			m.ctrl.Refresh(ctx)
		})
	}

	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.storeDraft()
		m.mode = modeNormal
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		m.storeDraft()
		adding := m.mode
		m.mode = modeNormal
		m.input.Blur()
		if adding == modeAddTask {
			return m, m.run(m.ctrl.AddTask)
		}
		return m, m.run(m.ctrl.AddCategory)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeNormal

	switch msg.String() {
	case "y", "Y":
		cat, ok := m.currentCategory()
		if !ok {
			return m, nil
		}
		m.catCursor = 0
		return m, m.run(func(ctx context.Context) { m.ctrl.DeleteCategory(ctx, cat.ID) })
	}

	return m, nil
}

// run dispatches an action off the update loop
func (m *Model) run(action func(context.Context)) tea.Cmd {
	m.pending++
	ctx := m.ctx

	cmd := func() tea.Msg {
		action(ctx)
		return syncedMsg{}
	}

	if m.spinning {
		return cmd
	}
	m.spinning = true
	return tea.Batch(cmd, m.spinner.Tick)
}

// sync copies the controller state and schedules the notice timeout
func (m *Model) sync() tea.Cmd {
	m.snap = m.ctrl.Snapshot()
	m.clampCursors()

	if m.snap.Notice == "" {
		return nil
	}
	wait := time.Until(m.snap.NoticeExpiresAt)
	if wait < 0 {
		wait = 0
	}
	return m.after(wait, noticeExpiredMsg{seq: m.snap.NoticeSeq})
}

func (m *Model) storeDraft() {
	if m.mode == modeAddTask {
		m.ctrl.SetTaskDraft(m.input.Value())
		m.snap.TaskDraft = m.input.Value()
	} else {
		m.ctrl.SetCategoryDraft(m.input.Value())
		m.snap.CategoryDraft = m.input.Value()
	}
}

// selectCursorCategory files new tasks under the highlighted category
func (m *Model) selectCursorCategory() {
	if cat, ok := m.currentCategory(); ok {
		m.ctrl.SelectCategory(cat.Name)
		m.snap.SelectedCategory = cat.Name
	}
	m.taskCursor = 0
}

func (m *Model) clampCursors() {
	if m.catCursor > len(m.snap.Categories) {
		m.catCursor = len(m.snap.Categories)
	}
	if n := len(m.visibleTasks()); m.taskCursor >= n {
		m.taskCursor = max(n-1, 0)
	}
}

func (m Model) busy() bool {
	return m.pending > 0 || m.snap.Busy
}

// visibleTasks returns the tasks of the highlighted category, or all tasks
func (m Model) visibleTasks() []remote.Task {
	cat, ok := m.currentCategory()
	if !ok {
		return m.snap.Tasks
	}

	var tasks []remote.Task
	for _, t := range m.snap.Tasks {
		if t.Category == cat.Name {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

func (m Model) currentTask() (remote.Task, bool) {
	tasks := m.visibleTasks()
	if m.taskCursor < 0 || m.taskCursor >= len(tasks) {
		return remote.Task{}, false
	}
	return tasks[m.taskCursor], true
}

func (m Model) currentCategory() (remote.Category, bool) {
	i := m.catCursor - 1
	if i < 0 || i >= len(m.snap.Categories) {
		return remote.Category{}, false
	}
	return m.snap.Categories[i], true
}

func (m Model) targetCategory() string {
	if m.snap.SelectedCategory == "" {
		return "(no category)"
	}
	return m.snap.SelectedCategory
}

// View renders the two panes, the status line and the help line
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.mode == modeConfirmDeleteCategory {
		return m.renderConfirm()
	}

	catWidth := m.width / 3
	taskWidth := m.width - catWidth - 4
	paneHeight := m.height - 4

	catBorder, taskBorder := borderStyle, focusedBorderStyle
	if m.focus == paneCategories {
		catBorder, taskBorder = focusedBorderStyle, borderStyle
	}

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		catBorder.Width(catWidth).Height(paneHeight).Render(m.renderCategories(catWidth, paneHeight)),
		taskBorder.Width(taskWidth).Height(paneHeight).Render(m.renderTasks(taskWidth, paneHeight)),
	)

	return lipgloss.JoinVertical(lipgloss.Left, content, m.renderStatus(), m.renderHelp())
}

func (m Model) renderCategories(width, height int) string {
	var lines []string
	lines = append(lines, fmt.Sprintf("Categories (%d)", len(m.snap.Categories)))
	lines = append(lines, strings.Repeat("─", max(width-2, 0)))

	rows := append([]string{allCategories}, categoryNames(m.snap.Categories)...)
	for i, name := range rows {
		if i >= height-2 {
			break
		}
		line := "  " + name
		if i > 0 && name == m.snap.SelectedCategory {
			line = "* " + name
		}
		if i == m.catCursor {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderTasks(width, height int) string {
	tasks := m.visibleTasks()

	var lines []string
	header := fmt.Sprintf("Tasks (%d)", len(tasks))
	if cat, ok := m.currentCategory(); ok {
		header += " [" + cat.Name + "]"
	}
	lines = append(lines, header)
	lines = append(lines, strings.Repeat("─", max(width-2, 0)))

	if m.mode == modeAddTask || m.mode == modeAddCategory {
		lines = append(lines, m.input.View(), "")
		height -= 2
	}

	visibleHeight := height - 2
	startIdx := 0
	if m.taskCursor >= visibleHeight {
		startIdx = m.taskCursor - visibleHeight + 1
	}

	for i := startIdx; i < len(tasks) && i < startIdx+visibleHeight; i++ {
		t := tasks[i]

		box := "[ ] "
		text := t.Description
		if t.Completed {
			box = "[x] "
			text = completedStyle.Render(text)
		}
		line := box + text + " " + categoryStyle.Render(t.Category)
		if t.Completed && t.CompletionDate != nil {
			line += " " + labelStyle.Render(t.CompletionDate.Local().Format("2006-01-02"))
		}

		if i == m.taskCursor && m.focus == paneTasks {
			line = selectedStyle.Render(box + t.Description)
		}
		lines = append(lines, line)
	}

	if len(tasks) == 0 {
		lines = append(lines, labelStyle.Render("No tasks"))
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderStatus() string {
	var parts []string
	if m.busy() {
		parts = append(parts, m.spinner.View()+" syncing")
	}
	if m.snap.Notice != "" {
		parts = append(parts, noticeStyle.Render(m.snap.Notice))
	}
	if m.snap.Health != "" {
		parts = append(parts, labelStyle.Render("service: "+m.snap.Health))
	}
	return " " + strings.Join(parts, " • ")
}

// renderHelp renders the help line
func (m Model) renderHelp() string {
	switch m.mode {
	case modeAddTask, modeAddCategory:
		return " Enter: save • Esc: cancel"
	}

	help := " j/k: navigate • tab: switch pane • a: add task • c: add category"
	if m.focus == paneTasks {
		help += " • x: complete • d: delete"
	} else {
		help += " • D: delete category"
	}
	return help + " • r: refresh • q: quit"
}

func (m Model) renderConfirm() string {
	cat, _ := m.currentCategory()

	lines := []string{
		fmt.Sprintf("Delete category %q?", cat.Name),
		"",
		"Tasks filed under it are kept.",
		"",
		"y: confirm • any other key: cancel",
	}

	box := borderStyle.Padding(1, 2).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func categoryNames(categories []remote.Category) []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	return names
}
