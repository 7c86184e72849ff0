package sync

import (
	"sync"

	"github.com/steebapp/steebd/internal/model"
)

// OpKind is the kind of a pending remote operation.
type OpKind string

const (
	OpUpsert OpKind = "upsert"
	OpDelete OpKind = "delete"
)

// Op is one pending write destined for the remote store.
type Op struct {
	Kind    OpKind
	OwnerID string
	TaskID  string
	Task    model.Task
}

// Outbox queues local writes until the syncer can push them. Ops coalesce by
// task id: a second upsert replaces the first, and a delete supersedes any
// queued upsert. Order between distinct tasks follows first enqueue.
type Outbox struct {
	mu    sync.Mutex
	ops   map[string]Op
	order []string
}

func NewOutbox() *Outbox {
	return &Outbox{ops: make(map[string]Op)}
}

func (o *Outbox) EnqueueUpsert(task model.Task) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.ops[task.ID]; !exists {
		o.order = append(o.order, task.ID)
	}
	o.ops[task.ID] = Op{Kind: OpUpsert, OwnerID: task.OwnerID, TaskID: task.ID, Task: task}
}

func (o *Outbox) EnqueueDelete(ownerID, id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.ops[id]; !exists {
		o.order = append(o.order, id)
	}
	o.ops[id] = Op{Kind: OpDelete, OwnerID: ownerID, TaskID: id}
}

// Has reports whether a write for the task is still waiting to be pushed.
func (o *Outbox) Has(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.ops[id]
	return ok
}

func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.ops)
}

// Take removes and returns all queued ops in enqueue order. Callers that fail
// to push an op hand it back with Requeue.
func (o *Outbox) Take() []Op {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Op, 0, len(o.ops))
	for _, id := range o.order {
		out = append(out, o.ops[id])
	}
	o.ops = make(map[string]Op)
	o.order = nil
	return out
}

// Requeue puts a failed op back unless a newer op for the same task arrived
// in the meantime.
func (o *Outbox) Requeue(op Op) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.ops[op.TaskID]; exists {
		return
	}
	o.order = append(o.order, op.TaskID)
	o.ops[op.TaskID] = op
}
