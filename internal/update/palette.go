package update

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/steebapp/steebd/internal/backup"
	"github.com/steebapp/steebd/internal/commands"
	"github.com/steebapp/steebd/internal/model"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Palette.Active = false
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Blur()
		return m, nil
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	}
	var cmd tea.Cmd
	m.commandInput, cmd = m.commandInput.Update(msg)
	m.Palette.Input = m.commandInput.Value()
	return m, cmd
}

func (m Model) executePaletteCommand() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	if cmd.Type == commands.TypeSync {
		return m.startSync()
	}

	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			next := m.addFromArgs(a)
			if next.Status.IsError {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: next.Status.Text}
			}
			m = next
			return commands.Result{Message: next.Status.Text}, nil
		},
		Done: func(t commands.TargetArgs) (commands.Result, error) {
			task, ok := m.findTask(t.Target)
			if !ok {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "no hay tarea que coincida con " + t.Target}
			}
			m.deps.Store.Toggle(task.ID)
			m.reloadTasks()
			return commands.Result{Message: "actualizada: " + task.Title}, nil
		},
		Delete: func(t commands.TargetArgs) (commands.Result, error) {
			task, ok := m.findTask(t.Target)
			if !ok {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "no hay tarea que coincida con " + t.Target}
			}
			m.deps.Store.Delete(task.ID)
			m.reloadTasks()
			return commands.Result{Message: "borrada: " + task.Title}, nil
		},
		Show: func(s commands.ShowArgs) (commands.Result, error) {
			switch s.Subject {
			case "stats":
				m.CurrentView = ViewStats
			case "agenda", "calendar":
				m.CurrentView = ViewCalendar
			default:
				m.CurrentView = ViewTasks
			}
			if s.Tag != "" {
				m.FilterTag = s.Tag
				m.reloadTasks()
				return commands.Result{Message: "filtro: #" + s.Tag}, nil
			}
			return commands.Result{Message: "vista: " + string(m.CurrentView)}, nil
		},
		Export: func() (commands.Result, error) {
			if m.deps.Exporter == nil {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeHandlerMissing, Message: "exportación no configurada"}
			}
			path, err := m.deps.Exporter.Export(m.deps.Store.Snapshot())
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "exportado a " + path}, nil
		},
		Backup: func() (commands.Result, error) {
			return m.runBackup(func() backup.Outcome { return m.deps.Backup.Backup() }, "copia guardada")
		},
		Restore: func() (commands.Result, error) {
			res, err := m.runBackup(func() backup.Outcome { return m.deps.Backup.Restore() }, "copia restaurada")
			if err == nil {
				m.reloadTasks()
			}
			return res, err
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
	} else {
		m.Status = StatusBar{Text: res.Message}
	}
	return m, nil
}

func (m Model) runBackup(op func() backup.Outcome, okMsg string) (commands.Result, error) {
	if m.deps.Backup == nil {
		return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeHandlerMissing, Message: "copia de seguridad no configurada"}
	}
	out := op()
	switch out.Result {
	case backup.ResultOk:
		return commands.Result{Message: fmt.Sprintf("%s (%d claves)", okMsg, out.Keys)}, nil
	case backup.ResultTimedOut:
		return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "la copia no respondió a tiempo"}
	default:
		return commands.Result{}, out.Err
	}
}

// findTask matches an id prefix first, then a case-insensitive title
// substring.
func (m Model) findTask(target string) (model.Task, bool) {
	target = strings.TrimSpace(target)
	if target == "" {
		return model.Task{}, false
	}
	for _, t := range m.deps.Store.Snapshot() {
		if strings.HasPrefix(t.ID, target) {
			return t, true
		}
	}
	lower := strings.ToLower(target)
	for _, t := range m.deps.Store.Snapshot() {
		if strings.Contains(strings.ToLower(t.Title), lower) {
			return t, true
		}
	}
	return model.Task{}, false
}
