package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/steebapp/steebd/internal/backup"
	"github.com/steebapp/steebd/internal/config"
	"github.com/steebapp/steebd/internal/reminder"
	"github.com/steebapp/steebd/internal/remote"
	"github.com/steebapp/steebd/internal/scheduler"
	"github.com/steebapp/steebd/internal/stats"
	"github.com/steebapp/steebd/internal/storage"
	"github.com/steebapp/steebd/internal/store"
	syncpkg "github.com/steebapp/steebd/internal/sync"
	"github.com/steebapp/steebd/internal/update"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "steebd failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	config.InitLogger()
	log := config.Logger

	kv, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer kv.Close()

	snapshot := storage.NewSnapshot(kv, log)
	outbox := syncpkg.NewOutbox()
	taskStore := store.NewTaskStore(snapshot, outbox, log)

	deps := update.Deps{
		Store: taskStore,
		Stats: stats.NewEngine(),
		Exporter: storage.FileExporter{
			Dir: cfg.ExportDir,
		},
	}
	if cfg.DesktopNotifications {
		deps.Notifier = update.ExecDesktopNotifier{}
	}

	var syncer *syncpkg.Syncer
	if cfg.RemoteConfigured() {
		identity, err := remote.IdentityFromToken(cfg.SupabaseToken)
		if err != nil {
			return fmt.Errorf("resolve identity: %w", err)
		}
		docs, err := remote.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseToken)
		if err != nil {
			return err
		}
		taskStore.SetOwner(identity.UserID)

		syncer = syncpkg.NewSyncer(docs, outbox, taskStore, log, cfg.SyncInterval)
		syncer.Subscribe(identity.UserID)
		defer syncer.Stop()
		deps.Sync = syncer
	} else {
		log.Info("remote sync disabled, running local-only")
	}

	worker := backup.NewWorker(kv, storage.PreserveKeys(), cfg.BackupInterval, log)
	worker.Start()
	defer worker.Stop()
	deps.Backup = backup.NewClient(worker, cfg.BackupTimeout)

	due := scheduler.NewEngine(32)
	due.Start()
	defer due.Stop()
	now := time.Now()
	for _, task := range taskStore.Snapshot() {
		if err := due.ScheduleTask(task, now.Location(), now); err != nil {
			log.WithError(err).WithField("task_id", task.ID).Warn("could not schedule due notification")
		}
	}
	deps.Due = due

	remind := reminder.NewScheduler(kv, taskStore, log)
	if err := remind.Start(cfg.ReminderTime); err != nil {
		return err
	}
	defer remind.Stop()
	deps.Reminder = remind

	if profile, ok := snapshot.LoadProfile(context.Background()); ok {
		deps.Profile = profile
	}

	program := tea.NewProgram(update.NewModel(deps))
	remind.OnPrompt(func(p reminder.Prompt) {
		program.Send(update.ReminderPromptMsg{Prompt: p})
	})

	_, err = program.Run()
	return err
}
