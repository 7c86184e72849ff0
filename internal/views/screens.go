package views

import (
	"fmt"
	"sort"
	"strings"
)

type SubtaskData struct {
	Title     string
	Completed bool
}

type TaskItemData struct {
	ID            string
	Title         string
	Type          string
	Priority      string
	Completed     bool
	ScheduledDate string
	ScheduledTime string
	Principal     bool
	Notes         string
	Subtasks      []SubtaskData
	Expanded      bool
}

type TasksPanelData struct {
	QuickAddView string
	AddMode      bool
	Items        []TaskItemData
	SelectedID   string
	FilterTag    string
}

type DayBarData struct {
	Label     string // lun, mar, ...
	Percent   int
	Scheduled int
	Completed int
	IsToday   bool
}

type StatsPanelData struct {
	Total          int
	Completed      int
	Pending        int
	CompletionRate int
	ProgressView   string
	CurrentStreak  int
	BestStreak     int
	TimeSpent      string
	TodayProgress  int
	ActiveDays     int
	Week           []DayBarData
}

type AgendaItemData struct {
	ID        string
	Title     string
	Date      string
	Time      string
	Completed bool
}

type CalendarPanelData struct {
	FocusDate string
	Items     []AgendaItemData
	Selected  *AgendaItemData
}

type ReminderPromptData struct {
	PendingCount int
}

type DetailPanelData struct {
	SelectedID    string
	Type          string
	Priority      string
	ScheduledDate string
	ScheduledTime string
	Tags          []string
	NotesView     string
}

func RenderTasksPanel(data TasksPanelData) string {
	var b strings.Builder
	b.WriteString("tareas:\n")
	if data.AddMode {
		b.WriteString("nueva: " + data.QuickAddView + "\n")
	}
	if data.FilterTag != "" {
		b.WriteString("filtro: #" + data.FilterTag + "\n")
	}
	b.WriteString("acciones: [a]añadir [espacio]completar [x]borrar [tab]subtareas [j/k]mover\n")

	byType := make(map[string][]TaskItemData)
	var typeOrder []string
	for _, item := range data.Items {
		if _, ok := byType[item.Type]; !ok {
			typeOrder = append(typeOrder, item.Type)
		}
		byType[item.Type] = append(byType[item.Type], item)
	}
	if len(typeOrder) == 0 {
		b.WriteString("\n(sin tareas)")
		return strings.TrimSpace(b.String())
	}

	for _, typ := range typeOrder {
		b.WriteString(fmt.Sprintf("\n%s:\n", typ))
		for _, item := range byType[typ] {
			b.WriteString(renderTaskLine(item, data.SelectedID))
		}
	}
	return strings.TrimSpace(b.String())
}

func renderTaskLine(item TaskItemData, selectedID string) string {
	var b strings.Builder
	cursor := " "
	if item.ID == selectedID {
		cursor = ">"
	}
	status := "[ ]"
	if item.Completed {
		status = "[x]"
	}
	b.WriteString(fmt.Sprintf("%s %s %s%s", cursor, status, priorityBadge(item.Priority), item.Title))
	if item.Principal {
		b.WriteString(" *")
	}
	if item.ScheduledDate != "" {
		b.WriteString(" @" + item.ScheduledDate)
		if item.ScheduledTime != "" {
			b.WriteString(" " + item.ScheduledTime)
		}
	}
	b.WriteString("\n")
	if item.Expanded {
		for _, st := range item.Subtasks {
			mark := "[ ]"
			if st.Completed {
				mark = "[x]"
			}
			b.WriteString(fmt.Sprintf("    %s %s\n", mark, st.Title))
		}
		if item.Notes != "" {
			b.WriteString("    nota: " + item.Notes + "\n")
		}
	}
	return b.String()
}

func priorityBadge(priority string) string {
	switch priority {
	case "urgent":
		return "!! "
	case "high":
		return "! "
	default:
		return ""
	}
}

func RenderStatsPanel(data StatsPanelData) string {
	var b strings.Builder
	b.WriteString("estadísticas:\n")
	b.WriteString(fmt.Sprintf("total: %d | hechas: %d | pendientes: %d\n", data.Total, data.Completed, data.Pending))
	b.WriteString(fmt.Sprintf("completado: %d%% %s\n", data.CompletionRate, data.ProgressView))
	b.WriteString(fmt.Sprintf("racha actual: %d día(s) | mejor racha: %d día(s)\n", data.CurrentStreak, data.BestStreak))
	b.WriteString(fmt.Sprintf("hoy: %d%% | días activos: %d | tiempo estimado: %s\n", data.TodayProgress, data.ActiveDays, data.TimeSpent))

	if len(data.Week) > 0 {
		b.WriteString("\nsemana:\n")
		for _, day := range data.Week {
			marker := " "
			if day.IsToday {
				marker = "*"
			}
			b.WriteString(fmt.Sprintf("%s %s %s %3d%% (%d/%d)\n",
				marker, day.Label, weekBar(day.Percent), day.Percent, day.Completed, day.Scheduled))
		}
	}
	return strings.TrimSpace(b.String())
}

func weekBar(percent int) string {
	const width = 10
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * width / 100
	return "[" + strings.Repeat("█", filled) + strings.Repeat("·", width-filled) + "]"
}

func RenderCalendarPanel(data CalendarPanelData) string {
	var b strings.Builder
	b.WriteString("agenda:\n")
	b.WriteString(fmt.Sprintf("semana de: %s\n", data.FocusDate))
	b.WriteString("acciones: [h/l]semana [j/k]mover [espacio]completar\n")

	grouped := make(map[string][]AgendaItemData)
	var days []string
	for _, item := range data.Items {
		if _, ok := grouped[item.Date]; !ok {
			days = append(days, item.Date)
		}
		grouped[item.Date] = append(grouped[item.Date], item)
	}
	sort.Strings(days)
	if len(days) == 0 {
		b.WriteString("\n(agenda vacía)")
		return strings.TrimSpace(b.String())
	}

	for _, day := range days {
		b.WriteString(fmt.Sprintf("\n%s:\n", day))
		items := grouped[day]
		sort.SliceStable(items, func(i, j int) bool { return items[i].Time < items[j].Time })
		for _, item := range items {
			cursor := " "
			if data.Selected != nil && data.Selected.ID == item.ID {
				cursor = ">"
			}
			status := "[ ]"
			if item.Completed {
				status = "[x]"
			}
			when := item.Time
			if when == "" {
				when = "--:--"
			}
			b.WriteString(fmt.Sprintf("%s %s %s %s\n", cursor, status, when, item.Title))
		}
	}
	return strings.TrimSpace(b.String())
}

func RenderDetailPanel(data DetailPanelData) string {
	if strings.TrimSpace(data.SelectedID) == "" {
		return "detalle:\n(nada seleccionado)"
	}
	var b strings.Builder
	b.WriteString("detalle:\n")
	b.WriteString("id: " + data.SelectedID + "\n")
	b.WriteString("tipo: " + data.Type + "\n")
	if data.Priority != "" {
		b.WriteString("prioridad: " + data.Priority + "\n")
	}
	if data.ScheduledDate != "" {
		b.WriteString("fecha: " + data.ScheduledDate)
		if data.ScheduledTime != "" {
			b.WriteString(" " + data.ScheduledTime)
		}
		b.WriteString("\n")
	}
	if len(data.Tags) > 0 {
		b.WriteString("etiquetas: " + strings.Join(data.Tags, ",") + "\n")
	}
	if data.NotesView != "" {
		b.WriteString("\nnotas:\n" + data.NotesView)
	}
	return strings.TrimSpace(b.String())
}

func RenderReminderPrompt(data ReminderPromptData) string {
	return fmt.Sprintf(
		"recordatorio: ayer no completaste ninguna tarea\ntienes %d tarea(s) pendiente(s)\n[y] sí las hice  [enter] ver tareas  [esc] descartar",
		data.PendingCount,
	)
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("comando: /%s", input)
}

func RenderHelpPanel(bindings []string) string {
	return "ayuda:\n" + strings.Join(bindings, "\n")
}
