package backup

import "time"

// Result classifies the end of a backup or restore exchange.
type Result string

const (
	ResultOk          Result = "ok"
	ResultTimedOut    Result = "timed_out"
	ResultWorkerError Result = "worker_error"
)

// Outcome is the caller-facing reply.
type Outcome struct {
	Result Result
	Keys   int
	Err    error
}

// Client sends requests to a Worker with a hard deadline. A wedged or dead
// worker shows up as ResultTimedOut rather than a hang.
type Client struct {
	worker  *Worker
	timeout time.Duration
}

// NewClient wraps the worker. timeout <= 0 defaults to five seconds.
func NewClient(worker *Worker, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{worker: worker, timeout: timeout}
}

// Backup asks the worker to copy the protected keys into the backup
// partition.
func (c *Client) Backup() Outcome {
	return c.exchange(msgBackupData)
}

// Restore copies the backup partition back over the live keys.
func (c *Client) Restore() Outcome {
	return c.exchange(msgRestoreData)
}

func (c *Client) exchange(kind msgKind) Outcome {
	req := request{kind: kind, reply: make(chan response, 1)}
	deadline := time.NewTimer(c.timeout)
	defer deadline.Stop()

	select {
	case c.worker.requests <- req:
	case <-deadline.C:
		return Outcome{Result: ResultTimedOut}
	}

	select {
	case resp := <-req.reply:
		if resp.err != nil {
			return Outcome{Result: ResultWorkerError, Err: resp.err}
		}
		return Outcome{Result: ResultOk, Keys: resp.keys}
	case <-deadline.C:
		return Outcome{Result: ResultTimedOut}
	}
}
