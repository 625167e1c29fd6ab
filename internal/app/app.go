// Package app is the interactive progress UI over the pipeline stages. It
// drives the same orchestrator the CLI commands use; the only difference is
// how outcomes are displayed.
package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/lcharvet/energiedw/internal/etl"
	"github.com/lcharvet/energiedw/internal/orchestrator"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	menuStyle     = lipgloss.NewStyle().PaddingLeft(2)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("79"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	headerStyle   = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	statusStyles  = map[etl.Status]lipgloss.Style{
		etl.StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("46")),
		etl.StatusMissing: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		etl.StatusSkipped: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		etl.StatusFailed:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

type unitLine struct {
	stage   string
	unit    string
	status  etl.Status
	rows    int64
	errMsg  string
	elapsed time.Duration
}

type menuItem struct {
	label string
	from  string
	until string
}

// AppModel is the bubbletea model for the pipeline UI.
type AppModel struct {
	pipeline *orchestrator.Pipeline

	State           AppState
	menuItems       []menuItem
	menuCursor      int
	spinner         spinner.Model
	overallProgress progress.Model

	mu             sync.RWMutex
	units          []unitLine
	overallTotal   int64
	overallCurrent int64
	currentTask    string
	taskStartTime  time.Time

	lastError error
	Quitting  bool

	termWidth  int
	termHeight int

	uiMsgChan chan tea.Msg
}

// NewAppModel builds the UI over a ready pipeline.
func NewAppModel(pipeline *orchestrator.Pipeline) *AppModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &AppModel{
		pipeline: pipeline,
		State:    ShowMenu,
		menuItems: []menuItem{
			{label: "Run Full Pipeline", from: etl.StageIngest, until: etl.StageLoad},
			{label: "Ingest Sources", from: etl.StageIngest, until: etl.StageIngest},
			{label: "Clean Sources", from: etl.StageClean, until: etl.StageClean},
			{label: "Build Warehouse Tables", from: etl.StageBuild, until: etl.StageBuild},
			{label: "Load Warehouse", from: etl.StageLoad, until: etl.StageLoad},
			{label: "Exit"},
		},
		spinner:         s,
		overallProgress: progress.New(progress.WithDefaultGradient()),
	}
}

func (m *AppModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.State {
		case ShowMenu:
			cmds = append(cmds, m.handleMenuKey(msg))
		case ShowError:
			if msg.Type == tea.KeyEnter || msg.Type == tea.KeyEsc || msg.String() == "q" {
				m.State = ShowMenu
				m.lastError = nil
			}
		case Exiting:
			return m, nil
		default:
			if msg.String() == "ctrl+c" || msg.String() == "q" {
				m.Quitting = true
				m.State = Exiting
				return m, tea.Quit
			}
		}
	case tea.WindowSizeMsg:
		m.termWidth = msg.Width
		m.termHeight = msg.Height
		if w := m.termWidth - 4; w > 0 {
			m.overallProgress.Width = w
		}
	case StageProgressMsg:
		m.mu.Lock()
		m.overallCurrent = msg.Current
		m.overallTotal = msg.Total
		m.mu.Unlock()
		var percent float64
		if msg.Total > 0 {
			percent = float64(msg.Current) / float64(msg.Total)
		}
		cmds = append(cmds, m.overallProgress.SetPercent(percent))
	case UnitResultMsg:
		m.mu.Lock()
		errMsg := ""
		if msg.Result.Err != nil {
			errMsg = msg.Result.Err.Error()
		}
		m.units = append(m.units, unitLine{
			stage:   msg.Stage,
			unit:    msg.Result.Unit,
			status:  msg.Result.Status,
			rows:    msg.Result.Rows,
			errMsg:  errMsg,
			elapsed: msg.Result.Elapsed,
		})
		m.mu.Unlock()
	case TaskFinishedMsg:
		log.Printf("Task '%s' finished. Duration: %s", msg.Tag, msg.EndTime.Sub(msg.StartTime).Round(time.Millisecond))
		m.State = ShowMenu
		m.uiMsgChan = nil
		if msg.Err != nil {
			m.lastError = fmt.Errorf("task '%s' failed: %w", msg.Tag, msg.Err)
			m.State = ShowError
		}
	case GeneralErrorMsg:
		m.lastError = msg.Err
		m.State = ShowError
		m.uiMsgChan = nil
	case spinner.TickMsg:
		if m.State == RunningStages {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	case progress.FrameMsg:
		if m.State == RunningStages {
			progModel, frameCmd := m.overallProgress.Update(msg)
			if newModel, ok := progModel.(progress.Model); ok {
				m.overallProgress = newModel
				cmds = append(cmds, frameCmd)
			}
		}
	}

	if m.uiMsgChan != nil {
		cmds = append(cmds, m.waitForActivityCmd(m.uiMsgChan))
	}

	return m, tea.Batch(cmds...)
}

func (m *AppModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("--- energiedw pipeline ---"))
	b.WriteString("\n\n")

	switch m.State {
	case ShowMenu:
		b.WriteString(m.viewMenu())
	case RunningStages:
		b.WriteString(m.viewProgress())
	case ShowError:
		b.WriteString(m.viewError())
	case Exiting:
		b.WriteString(infoStyle.Render("Exiting..."))
	}

	b.WriteString("\n\n")
	switch m.State {
	case ShowMenu:
		b.WriteString(infoStyle.Render("Use up/down arrows and Enter to select. 'q' or Ctrl+C to quit."))
	case RunningStages:
		b.WriteString(infoStyle.Render("Pipeline running... 'q' or Ctrl+C to force quit."))
	case ShowError:
		b.WriteString(infoStyle.Render("Press Enter or Esc to return to menu. 'q' or Ctrl+C to quit."))
	}

	return b.String()
}

func (m *AppModel) viewMenu() string {
	var b strings.Builder
	b.WriteString("Select an action:\n")
	for i, item := range m.menuItems {
		var line string
		if m.menuCursor == i {
			line = "> " + selectedStyle.Render(item.label)
		} else {
			line = "  " + item.label
		}
		b.WriteString(menuStyle.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *AppModel) viewProgress() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s Running: %s\n", m.spinner.View(), m.currentTask))
	b.WriteString(m.overallProgress.View())
	b.WriteString(fmt.Sprintf(" (%d/%d)\n\n", m.overallCurrent, m.overallTotal))

	maxLines := m.termHeight - 10
	if maxLines < 1 {
		maxLines = 1
	}
	startIdx := 0
	if len(m.units) > maxLines {
		startIdx = len(m.units) - maxLines
	}

	if len(m.units) > 0 {
		b.WriteString(headerStyle.Render(fmt.Sprintf("%-8s | %-35s | %-8s | %10s | %s", "Stage", "Unit", "Status", "Rows", "Elapsed")))
		b.WriteString("\n")
		for i := startIdx; i < len(m.units); i++ {
			u := m.units[i]
			style, ok := statusStyles[u.status]
			if !ok {
				style = infoStyle
			}
			line := fmt.Sprintf("%-8s | %-35s | %-8s | %10d | %s",
				u.stage, truncate(u.unit, 35), style.Render(string(u.status)), u.rows, u.elapsed.Round(time.Millisecond))
			b.WriteString(line)
			if u.errMsg != "" {
				b.WriteString("\n")
				b.WriteString(errorStyle.Render(truncate("  -> "+u.errMsg, max(m.termWidth-1, 20))))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *AppModel) viewError() string {
	var b strings.Builder
	b.WriteString(errorStyle.Render("An error occurred:"))
	b.WriteString("\n\n")
	if m.lastError != nil {
		b.WriteString(wrapText(m.lastError.Error(), max(m.termWidth-4, 20)))
	} else {
		b.WriteString("Unknown error.")
	}
	b.WriteString("\n")
	return b.String()
}

func (m *AppModel) handleMenuKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if m.menuCursor > 0 {
			m.menuCursor--
		}
	case "down", "j":
		if m.menuCursor < len(m.menuItems)-1 {
			m.menuCursor++
		}
	case "enter":
		item := m.menuItems[m.menuCursor]
		if item.from == "" {
			m.Quitting = true
			m.State = Exiting
			return tea.Quit
		}
		m.lastError = nil
		m.mu.Lock()
		m.units = nil
		m.overallCurrent = 0
		m.overallTotal = 0
		m.currentTask = item.label
		m.mu.Unlock()
		m.taskStartTime = time.Now()
		m.uiMsgChan = make(chan tea.Msg)
		m.State = RunningStages
		log.Printf("Menu selection: %s", item.label)
		return tea.Batch(m.startPipelineTask(m.uiMsgChan, item), m.waitForActivityCmd(m.uiMsgChan))
	case "ctrl+c", "q":
		m.Quitting = true
		m.State = Exiting
		return tea.Quit
	}
	return nil
}

func (m *AppModel) waitForActivityCmd(uiMsgChan chan tea.Msg) tea.Cmd {
	if uiMsgChan == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-uiMsgChan
		if !ok {
			return nil
		}
		return msg
	}
}

// startPipelineTask runs the selected stage range in a goroutine, feeding
// unit outcomes back through the UI channel via the pipeline's OnUnit hook.
func (m *AppModel) startPipelineTask(uiMsgChan chan tea.Msg, item menuItem) tea.Cmd {
	return func() tea.Msg {
		stages, err := orchestrator.StageRange(item.from, item.until)
		if err != nil {
			go func() {
				uiMsgChan <- GeneralErrorMsg{Err: err}
				close(uiMsgChan)
			}()
			return nil
		}

		var total int64
		for _, stage := range stages {
			total += int64(m.pipeline.UnitCount(stage))
		}

		go func() {
			startTime := m.taskStartTime
			var current int64
			m.pipeline.OnUnit = func(stage string, r etl.UnitResult) {
				current++
				uiMsgChan <- UnitResultMsg{Stage: stage, Result: r}
				uiMsgChan <- StageProgressMsg{Stage: stage, Current: current, Total: total}
			}
			runErr := m.pipeline.Run(context.Background(), orchestrator.Options{From: item.from, Until: item.until})
			m.pipeline.OnUnit = nil
			uiMsgChan <- TaskFinishedMsg{Tag: item.label, Err: runErr, StartTime: startTime, EndTime: time.Now()}
			close(uiMsgChan)
		}()
		return StageProgressMsg{Stage: stages[0], Current: 0, Total: total}
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func truncate(s string, width int) string {
	if width <= 3 || len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}

func wrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return text
	}
	var result strings.Builder
	var currentLine strings.Builder
	for _, word := range strings.Fields(text) {
		if currentLine.Len() > 0 && currentLine.Len()+len(word)+1 > maxWidth {
			result.WriteString(currentLine.String())
			result.WriteString("\n")
			currentLine.Reset()
		}
		if currentLine.Len() > 0 {
			currentLine.WriteString(" ")
		}
		currentLine.WriteString(word)
	}
	result.WriteString(currentLine.String())
	return result.String()
}
