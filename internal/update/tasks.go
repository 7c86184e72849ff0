package update

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/steebapp/steebd/internal/commands"
	"github.com/steebapp/steebd/internal/model"
	"github.com/steebapp/steebd/internal/stats"
	"github.com/steebapp/steebd/internal/views"
)

func (m Model) handleTasksKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "j", "down":
		if m.Cursor < len(m.Tasks)-1 {
			m.Cursor++
		}
	case "k", "up":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case " ":
		if task, ok := m.selectedTask(); ok {
			m.deps.Store.Toggle(task.ID)
			m.reloadTasks()
			m.Status = StatusBar{Text: "tarea actualizada: " + task.Title}
		}
	case "x":
		if task, ok := m.selectedTask(); ok {
			m.deps.Store.Delete(task.ID)
			m.reloadTasks()
			m.Status = StatusBar{Text: "tarea borrada: " + task.Title}
		}
	case "tab":
		if task, ok := m.selectedTask(); ok {
			m.Expanded[task.ID] = !m.Expanded[task.ID]
		}
	case "s":
		if task, ok := m.selectedTask(); ok {
			if st, found := nextSubtaskToToggle(task); found {
				m.deps.Store.ToggleSubtask(task.ID, st.ID)
				m.reloadTasks()
				m.Status = StatusBar{Text: "subtarea: " + st.Title}
			}
		}
	case "f":
		m.FilterTag = ""
		m.reloadTasks()
		m.Status = StatusBar{Text: "filtro quitado"}
	}
	return m
}

// nextSubtaskToToggle picks the first pending subtask, or the first completed
// one when everything is done so the key can also uncheck.
func nextSubtaskToToggle(task model.Task) (model.Subtask, bool) {
	for _, st := range task.Subtasks {
		if !st.Completed {
			return st, true
		}
	}
	if len(task.Subtasks) > 0 {
		return task.Subtasks[0], true
	}
	return model.Subtask{}, false
}

func (m Model) handleQuickAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.AddMode = false
		m.quickAddInput.Blur()
		return m, nil
	case "enter":
		raw := strings.TrimSpace(m.quickAddInput.Value())
		m.AddMode = false
		m.quickAddInput.Blur()
		if raw == "" {
			return m, nil
		}
		cmd, err := commands.Parse("add " + raw)
		if err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
			return m, nil
		}
		m = m.addFromArgs(*cmd.Add)
		return m, nil
	}
	var cmd tea.Cmd
	m.quickAddInput, cmd = m.quickAddInput.Update(msg)
	return m, cmd
}

func (m Model) addFromArgs(args commands.AddArgs) Model {
	task, err := m.deps.Store.Add(model.Task{
		Title:         args.Title,
		Type:          args.Type,
		Priority:      args.Priority,
		ScheduledDate: args.ScheduledDate,
		Tags:          args.Tags,
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m
	}
	if m.deps.Due != nil {
		if err := m.deps.Due.ScheduleTask(task, m.deps.Now().Location(), m.deps.Now()); err != nil {
			m.Status = StatusBar{Text: err.Error(), IsError: true}
		}
	}
	m.reloadTasks()
	m.Status = StatusBar{Text: "añadida: " + task.Title}
	return m
}

func (m Model) renderTasksPanel() string {
	items := make([]views.TaskItemData, 0, len(m.Tasks))
	for _, t := range m.Tasks {
		item := views.TaskItemData{
			ID:            t.ID,
			Title:         t.Title,
			Type:          string(t.Type),
			Priority:      string(t.Priority),
			Completed:     t.Completed,
			ScheduledDate: t.ScheduledDate,
			ScheduledTime: t.ScheduledTime,
			Principal:     t.IsPrincipal(),
			Notes:         t.Notes,
			Expanded:      m.Expanded[t.ID],
		}
		for _, st := range t.Subtasks {
			item.Subtasks = append(item.Subtasks, views.SubtaskData{Title: st.Title, Completed: st.Completed})
		}
		items = append(items, item)
	}

	selectedID := ""
	if task, ok := m.selectedTask(); ok {
		selectedID = task.ID
	}
	return views.RenderTasksPanel(views.TasksPanelData{
		QuickAddView: m.quickAddInput.View(),
		AddMode:      m.AddMode,
		Items:        items,
		SelectedID:   selectedID,
		FilterTag:    m.FilterTag,
	})
}

func (m Model) renderDetailPanel() string {
	task, ok := m.selectedTask()
	if !ok {
		return views.RenderDetailPanel(views.DetailPanelData{})
	}
	notes := ""
	if task.Notes != "" {
		notes = views.RenderMarkdown(task.Notes)
	}
	return views.RenderDetailPanel(views.DetailPanelData{
		SelectedID:    task.ID,
		Type:          string(task.Type),
		Priority:      string(task.Priority),
		ScheduledDate: task.ScheduledDate,
		ScheduledTime: task.ScheduledTime,
		Tags:          task.Tags,
		NotesView:     notes,
	})
}

func (m Model) renderStatsPanel() string {
	sum := m.deps.Stats.Summary(m.deps.Store.Snapshot())
	today := m.deps.Now().Format(model.DateLayout)

	week := make([]views.DayBarData, 0, len(sum.WeeklyActivity))
	for _, day := range sum.WeeklyActivity {
		week = append(week, views.DayBarData{
			Label:     weekdayLabel(day.Weekday),
			Percent:   day.Percent,
			Scheduled: day.Scheduled,
			Completed: day.Completed,
			IsToday:   day.Date == today,
		})
	}
	return views.RenderStatsPanel(views.StatsPanelData{
		Total:          sum.Total,
		Completed:      sum.Completed,
		Pending:        sum.Pending,
		CompletionRate: sum.CompletionRate,
		ProgressView:   m.rateProgress.ViewAs(float64(sum.CompletionRate) / 100),
		CurrentStreak:  sum.CurrentStreak,
		BestStreak:     sum.BestStreak,
		TimeSpent:      stats.FormatMinutes(sum.MinutesSpent),
		TodayProgress:  sum.TodayProgress,
		ActiveDays:     sum.ActiveDays,
		Week:           week,
	})
}

// notify sends a desktop notification best-effort; a failed send never
// disturbs the UI.
func (m Model) notify(title, body string) {
	_ = m.deps.Notifier.Send(Notification{Title: title, Body: body})
}
