package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/steebapp/steebd/internal/model"
)

// FormatTasksAsText renders the task list as a readable plain-text document
// grouped by type, with a trailing statistics block.
func FormatTasksAsText(tasks []model.Task, now time.Time) string {
	var b strings.Builder
	b.WriteString("STEEB - Lista de Tareas\n")
	b.WriteString(fmt.Sprintf("Generado: %s\n", now.Format("2006-01-02 15:04")))
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	byType := make(map[model.TaskType][]model.Task)
	for _, task := range tasks {
		taskType := task.Type
		if !taskType.IsValid() {
			taskType = model.TypeExtra
		}
		byType[taskType] = append(byType[taskType], task)
	}

	for _, taskType := range model.Types() {
		group := byType[taskType]
		if len(group) == 0 {
			continue
		}
		b.WriteString(strings.ToUpper(string(taskType)) + "\n")
		b.WriteString(strings.Repeat("-", 20) + "\n")
		for i, task := range group {
			status := "[ ]"
			if task.Completed {
				status = "[x]"
			}
			line := fmt.Sprintf("%d. %s %s", i+1, status, task.Title)
			if task.Priority != "" {
				line += fmt.Sprintf(" [%s]", task.Priority)
			}
			if task.ScheduledDate != "" {
				line += fmt.Sprintf(" (%s)", task.ScheduledDate)
			}
			if task.IsPrincipal() {
				line += " *principal*"
			}
			b.WriteString(line + "\n")
			if task.Notes != "" {
				b.WriteString("   nota: " + task.Notes + "\n")
			}
			for _, st := range task.Subtasks {
				mark := "[ ]"
				if st.Completed {
					mark = "[x]"
				}
				b.WriteString("   " + mark + " " + st.Title + "\n")
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	total := len(tasks)
	completed := 0
	for _, task := range tasks {
		if task.Completed {
			completed++
		}
	}
	pending := total - completed
	rate := 0
	if total > 0 {
		rate = int(float64(completed)/float64(total)*100 + 0.5)
	}
	b.WriteString("ESTADISTICAS\n")
	b.WriteString(strings.Repeat("-", 20) + "\n")
	b.WriteString(fmt.Sprintf("Total de tareas: %d\n", total))
	b.WriteString(fmt.Sprintf("Completadas: %d\n", completed))
	b.WriteString(fmt.Sprintf("Pendientes: %d\n", pending))
	b.WriteString(fmt.Sprintf("Porcentaje completado: %d%%\n", rate))

	return b.String()
}

// ExportToFile writes the text rendering to dir as
// steeb-tareas-YYYY-MM-DD.txt and returns the written path.
func ExportToFile(dir string, tasks []model.Task, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	name := fmt.Sprintf("steeb-tareas-%s.txt", now.Format(model.DateLayout))
	path := filepath.Join(dir, name)
	content := FormatTasksAsText(tasks, now)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}

// FileExporter binds ExportToFile to a directory and clock.
type FileExporter struct {
	Dir string
	Now func() time.Time
}

func (e FileExporter) Export(tasks []model.Task) (string, error) {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	return ExportToFile(e.Dir, tasks, now())
}
