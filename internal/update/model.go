// Package update holds the bubbletea model for the steebd terminal UI.
package update

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/steebapp/steebd/internal/backup"
	"github.com/steebapp/steebd/internal/model"
	"github.com/steebapp/steebd/internal/reminder"
	"github.com/steebapp/steebd/internal/scheduler"
	"github.com/steebapp/steebd/internal/stats"
	"github.com/steebapp/steebd/internal/store"
	syncpkg "github.com/steebapp/steebd/internal/sync"
)

type View string

const (
	ViewTasks    View = "Tareas"
	ViewCalendar View = "Agenda"
	ViewStats    View = "Stats"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Tasks    string
	Calendar string
	Stats    string
	Add      string
	Help     string
	Quit     string
}

// SyncControl is the slice of the sync loop the UI drives.
type SyncControl interface {
	Kick()
	Status() syncpkg.Status
}

// BackupControl is the slice of the backup client the UI drives.
type BackupControl interface {
	Backup() backup.Outcome
	Restore() backup.Outcome
}

// Exporter writes the human-readable task file.
type Exporter interface {
	Export(tasks []model.Task) (string, error)
}

// Deps are the collaborators injected into the model. Store and Stats are
// required; the rest may be nil and the corresponding feature goes dormant.
type Deps struct {
	Store    *store.TaskStore
	Stats    *stats.Engine
	Reminder *reminder.Scheduler
	Backup   BackupControl
	Sync     SyncControl
	Due      *scheduler.Engine
	Exporter Exporter
	Profile  model.UserProfile
	Notifier DesktopNotifier
	Now      func() time.Time
}

type PaletteState struct {
	Active bool
	Input  string
}

type ReminderPromptState struct {
	Active       bool
	PendingCount int
}

type CalendarState struct {
	FocusDate time.Time
	Cursor    int
}

type Model struct {
	deps Deps

	CurrentView    View
	Tasks          []model.Task
	Cursor         int
	Expanded       map[string]bool
	FilterTag      string
	AddMode        bool
	Calendar       CalendarState
	Palette        PaletteState
	ReminderPrompt ReminderPromptState
	HelpVisible    bool
	Status         StatusBar
	Keys           GlobalKeyMap
	Quitting       bool

	quickAddInput textinput.Model
	commandInput  textinput.Model
	syncSpinner   spinner.Model
	rateProgress  progress.Model
	spinnerActive bool
}

// Messages.

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type TaskDueMsg struct {
	Event scheduler.DueEvent
}

type ReminderPromptMsg struct {
	Prompt reminder.Prompt
}

type SyncDoneMsg struct{}

func NewModel(deps Deps) Model {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Notifier == nil {
		deps.Notifier = NoopDesktopNotifier{}
	}
	m := Model{
		deps:        deps,
		CurrentView: ViewTasks,
		Expanded:    make(map[string]bool),
		Calendar:    CalendarState{FocusDate: deps.Now()},
		Keys: GlobalKeyMap{
			Tasks:    "1",
			Calendar: "2",
			Stats:    "3",
			Add:      "a",
			Help:     "?",
			Quit:     "q",
		},
	}
	m.initBubbleComponents()
	m.reloadTasks()
	return m
}

func (m *Model) initBubbleComponents() {
	m.quickAddInput = textinput.New()
	m.quickAddInput.Prompt = "> "
	m.quickAddInput.Placeholder = "título @fecha !prioridad #etiqueta +tipo"
	m.quickAddInput.CharLimit = 256
	m.quickAddInput.Width = 48

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.syncSpinner = spinner.New()
	m.syncSpinner.Spinner = spinner.Dot

	m.rateProgress = progress.New(progress.WithDefaultGradient())
	m.rateProgress.Width = 24
}

// reloadTasks refreshes the cached snapshot and clamps the cursor.
func (m *Model) reloadTasks() {
	if m.FilterTag != "" {
		var filtered []model.Task
		for _, t := range m.deps.Store.Snapshot() {
			if t.HasTag(m.FilterTag) {
				filtered = append(filtered, t)
			}
		}
		m.Tasks = filtered
	} else {
		m.Tasks = m.deps.Store.Snapshot()
	}
	if m.Cursor >= len(m.Tasks) {
		m.Cursor = len(m.Tasks) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

func (m Model) selectedTask() (model.Task, bool) {
	if len(m.Tasks) == 0 || m.Cursor >= len(m.Tasks) {
		return model.Task{}, false
	}
	return m.Tasks[m.Cursor], true
}
