package update

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/steebapp/steebd/internal/model"
	"github.com/steebapp/steebd/internal/views"
)

func (m Model) handleCalendarKey(msg tea.KeyMsg) Model {
	items := m.agendaItems()
	switch msg.String() {
	case "j", "down":
		if m.Calendar.Cursor < len(items)-1 {
			m.Calendar.Cursor++
		}
	case "k", "up":
		if m.Calendar.Cursor > 0 {
			m.Calendar.Cursor--
		}
	case "l", "right":
		m.Calendar.FocusDate = m.Calendar.FocusDate.AddDate(0, 0, 7)
		m.Calendar.Cursor = 0
	case "h", "left":
		m.Calendar.FocusDate = m.Calendar.FocusDate.AddDate(0, 0, -7)
		m.Calendar.Cursor = 0
	case " ":
		if m.Calendar.Cursor < len(items) {
			m.deps.Store.Toggle(items[m.Calendar.Cursor].ID)
			m.reloadTasks()
		}
	}
	return m
}

// agendaItems lists the focus week's tasks, Monday through Sunday.
func (m Model) agendaItems() []model.Task {
	start := weekStart(m.Calendar.FocusDate)
	from := start.Format(model.DateLayout)
	to := start.AddDate(0, 0, 6).Format(model.DateLayout)
	return m.deps.Store.InRange(from, to)
}

func weekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	return t.AddDate(0, 0, -offset)
}

func (m Model) renderCalendarPanel() string {
	tasks := m.agendaItems()
	items := make([]views.AgendaItemData, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, views.AgendaItemData{
			ID:        t.ID,
			Title:     t.Title,
			Date:      t.ScheduledDate,
			Time:      t.ScheduledTime,
			Completed: t.Completed,
		})
	}
	var selected *views.AgendaItemData
	if m.Calendar.Cursor < len(items) {
		selected = &items[m.Calendar.Cursor]
	}
	return views.RenderCalendarPanel(views.CalendarPanelData{
		FocusDate: weekStart(m.Calendar.FocusDate).Format(model.DateLayout),
		Items:     items,
		Selected:  selected,
	})
}

func weekdayLabel(d time.Weekday) string {
	switch d {
	case time.Monday:
		return "lun"
	case time.Tuesday:
		return "mar"
	case time.Wednesday:
		return "mié"
	case time.Thursday:
		return "jue"
	case time.Friday:
		return "vie"
	case time.Saturday:
		return "sáb"
	default:
		return "dom"
	}
}
