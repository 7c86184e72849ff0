package update

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/steebapp/steebd/internal/reminder"
	"github.com/steebapp/steebd/internal/scheduler"
	"github.com/steebapp/steebd/internal/views"
)

func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.deps.Due != nil {
		cmds = append(cmds, waitForDueCmd(m.deps.Due.C()))
	}
	if m.deps.Reminder != nil {
		cmds = append(cmds, checkReminderCmd(m.deps.Reminder))
	}
	return tea.Batch(cmds...)
}

func waitForDueCmd(ch <-chan scheduler.DueEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return TaskDueMsg{Event: ev}
	}
}

func checkReminderCmd(r *reminder.Scheduler) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if r.Check(ctx) != reminder.StateShouldRemind {
			return nil
		}
		return ReminderPromptMsg{Prompt: r.PromptInfo()}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(typed)
	case spinner.TickMsg:
		if m.spinnerActive {
			var cmd tea.Cmd
			m.syncSpinner, cmd = m.syncSpinner.Update(typed)
			return m, cmd
		}
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case SyncDoneMsg:
		m.spinnerActive = false
		m.reloadTasks()
		m.Status = StatusBar{Text: "sincronización completada"}
		return m, nil
	case TaskDueMsg:
		m.Status = StatusBar{Text: fmt.Sprintf("ahora: %s", typed.Event.Title)}
		m.notify("Tarea programada", typed.Event.Title)
		if m.deps.Due != nil {
			return m, waitForDueCmd(m.deps.Due.C())
		}
		return m, nil
	case ReminderPromptMsg:
		m.ReminderPrompt = ReminderPromptState{Active: true, PendingCount: typed.Prompt.PendingCount}
		if m.deps.Reminder != nil {
			m.deps.Reminder.MarkShown()
		}
		m.notify("Recordatorio", fmt.Sprintf("%d tarea(s) pendiente(s)", typed.Prompt.PendingCount))
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.ReminderPrompt.Active {
		return m.handleReminderPromptKey(msg), nil
	}
	if m.Palette.Active {
		return m.handlePaletteKey(msg)
	}
	if m.AddMode {
		return m.handleQuickAddKey(msg)
	}

	switch msg.String() {
	case "/":
		m.Palette.Active = true
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Focus()
		return m, nil
	case m.Keys.Tasks:
		m.CurrentView = ViewTasks
		return m, nil
	case m.Keys.Calendar:
		m.CurrentView = ViewCalendar
		m.Calendar.Cursor = 0
		return m, nil
	case m.Keys.Stats:
		m.CurrentView = ViewStats
		return m, nil
	case m.Keys.Add:
		m.AddMode = true
		m.quickAddInput.SetValue("")
		m.quickAddInput.Focus()
		return m, nil
	case m.Keys.Help:
		m.HelpVisible = !m.HelpVisible
		return m, nil
	case "S":
		return m.startSync()
	case "ctrl+c", m.Keys.Quit:
		m.Quitting = true
		return m, tea.Quit
	}

	switch m.CurrentView {
	case ViewCalendar:
		return m.handleCalendarKey(msg), nil
	default:
		return m.handleTasksKey(msg), nil
	}
}

func (m Model) handleReminderPromptKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "y":
		// The user did the work yesterday and just never ticked it off.
		m.ReminderPrompt.Active = false
		if m.deps.Reminder != nil {
			var ids []string
			for _, t := range m.deps.Reminder.YesterdayPending() {
				ids = append(ids, t.ID)
			}
			m.deps.Reminder.Confirm(ids)
			m.reloadTasks()
			m.Status = StatusBar{Text: fmt.Sprintf("%d tarea(s) acreditada(s) a ayer", len(ids))}
		}
	case "enter":
		m.ReminderPrompt.Active = false
		m.CurrentView = ViewTasks
		if m.deps.Reminder != nil {
			m.deps.Reminder.Dismiss()
		}
	case "esc", "q":
		m.ReminderPrompt.Active = false
		if m.deps.Reminder != nil {
			m.deps.Reminder.Dismiss()
		}
	}
	return m
}

func (m Model) startSync() (tea.Model, tea.Cmd) {
	if m.deps.Sync == nil {
		m.Status = StatusBar{Text: "sin sincronización configurada", IsError: true}
		return m, nil
	}
	if m.spinnerActive {
		return m, nil
	}
	m.spinnerActive = true
	m.Status = StatusBar{Text: "sincronizando..."}
	m.deps.Sync.Kick()
	return m, tea.Batch(
		m.syncSpinner.Tick,
		tea.Tick(2*time.Second, func(time.Time) tea.Msg { return SyncDoneMsg{} }),
	)
}

func (m Model) View() string {
	header := "steeb"
	if name := m.deps.Profile.DisplayName(); name != "" {
		header = fmt.Sprintf("steeb | hola, %s", name)
	}
	header += fmt.Sprintf(" | vista: %s", m.CurrentView)

	var left, right string
	switch m.CurrentView {
	case ViewCalendar:
		left = m.renderCalendarPanel()
		right = m.renderDetailPanel()
	case ViewStats:
		left = m.renderStatsPanel()
		right = m.renderHelpIfVisible()
	default:
		left = m.renderTasksPanel()
		right = m.renderDetailPanel() + "\n" + views.RenderCommandPalette(m.Palette.Active, m.commandInput.View()) + m.renderHelpIfVisible()
	}

	status := m.Status.Text
	if m.Status.IsError && status != "" {
		status = "error: " + status
	}

	syncLine := ""
	if m.deps.Sync != nil {
		st := m.deps.Sync.Status()
		state := "desconectado"
		if st.Online {
			state = "en línea"
		}
		syncLine = fmt.Sprintf("sync: %s | pendientes: %d", state, st.Pending)
		if !st.LastSync.IsZero() {
			syncLine += " | última: " + st.LastSync.Format("15:04")
		}
		if m.spinnerActive {
			syncLine = m.syncSpinner.View() + " " + syncLine
		}
	}

	overlay := ""
	if m.ReminderPrompt.Active {
		overlay = views.RenderReminderPrompt(views.ReminderPromptData{PendingCount: m.ReminderPrompt.PendingCount})
	}

	return views.RenderApp(views.AppData{
		Header:     header,
		LeftPane:   left,
		RightPane:  right,
		StatusLine: status,
		SyncLine:   syncLine,
		Overlay:    overlay,
		Footer: fmt.Sprintf("teclas: %s tareas | %s agenda | %s stats | %s añadir | / comando | S sync | %s ayuda | %s salir",
			m.Keys.Tasks, m.Keys.Calendar, m.Keys.Stats, m.Keys.Add, m.Keys.Help, m.Keys.Quit),
	})
}

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return "\n" + views.RenderHelpPanel([]string{
		"j/k       mover cursor",
		"espacio   completar tarea",
		"x         borrar tarea",
		"tab       mostrar subtareas",
		"s         completar siguiente subtarea",
		"a         añadir tarea",
		"/         paleta de comandos",
		"S         sincronizar ahora",
		"h/l       cambiar semana (agenda)",
	})
}
