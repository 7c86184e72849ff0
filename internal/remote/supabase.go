package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"

	"github.com/steebapp/steebd/internal/model"
)

const tasksTable = "tasks"

// SupabaseStore talks to the hosted Postgres through PostgREST. The user's
// JWT rides on every request so row-level security scopes queries to the
// owner.
type SupabaseStore struct {
	client *supabase.Client
}

// NewSupabaseStore builds a client for the given project. token is the
// user's access token; pass "" to fall back to the anon key.
func NewSupabaseStore(url, anonKey, token string) (*SupabaseStore, error) {
	opts := &supabase.ClientOptions{}
	if token != "" {
		opts.Headers = map[string]string{"Authorization": "Bearer " + token}
	}
	client, err := supabase.NewClient(url, anonKey, opts)
	if err != nil {
		return nil, fmt.Errorf("remote: create supabase client: %w", err)
	}
	return &SupabaseStore{client: client}, nil
}

func (s *SupabaseStore) ListTasks(ctx context.Context, ownerID string) ([]model.Task, error) {
	if ownerID == "" {
		return nil, ErrNoOwner
	}
	resp, _, err := s.client.From(tasksTable).
		Select("*", "", false).
		Eq("user_id", ownerID).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("remote: list tasks: %w", err)
	}

	var docs []TaskDocument
	if err := json.Unmarshal(resp, &docs); err != nil {
		return nil, fmt.Errorf("remote: decode tasks: %w", err)
	}
	tasks := make([]model.Task, 0, len(docs))
	for _, doc := range docs {
		tasks = append(tasks, doc.ToTask())
	}
	return tasks, nil
}

func (s *SupabaseStore) UpsertTask(ctx context.Context, task model.Task) error {
	doc, err := DocumentFromTask(task)
	if err != nil {
		return err
	}
	_, _, err = s.client.From(tasksTable).
		Upsert(doc, "id", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("remote: upsert task %s: %w", task.ID, err)
	}
	return nil
}

func (s *SupabaseStore) DeleteTask(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return ErrNoOwner
	}
	_, _, err := s.client.From(tasksTable).
		Delete("", "").
		Eq("user_id", ownerID).
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("remote: delete task %s: %w", id, err)
	}
	return nil
}
