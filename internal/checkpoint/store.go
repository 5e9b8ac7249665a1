// Package checkpoint persists per-session pipeline state and execution
// cursors so sessions survive process restarts and can be resumed from the
// last completed node.
package checkpoint

import (
	"context"
	"errors"

	"github.com/storieswithjai/ghostflow/pkg/flow"
)

// ErrNotFound is returned when no checkpoint exists for a session key.
var ErrNotFound = errors.New("checkpoint not found")

// Checkpoint is the durable record for one session: the latest state
// snapshot plus the cursor naming the nodes pending execution.
type Checkpoint struct {
	State  flow.State
	Cursor flow.Cursor
}

// Store persists checkpoints keyed by session key.
type Store interface {
	// Get returns the checkpoint for a session, or ErrNotFound.
	Get(ctx context.Context, sessionKey string) (Checkpoint, error)

	// Put stores the checkpoint, creating or replacing it.
	Put(ctx context.Context, sessionKey string, cp Checkpoint) error

	// PatchFields merges the update into the stored state and returns the
	// new snapshot. The cursor is left untouched; this is the path for
	// human-injected decisions between pauses.
	PatchFields(ctx context.Context, sessionKey string, u flow.Update) (flow.State, error)
}
