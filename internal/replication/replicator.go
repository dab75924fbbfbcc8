// Package replication copies the record files to an external backup after
// local writes. Every outcome is best effort: failures are classified, logged
// and counted, never returned to the request that caused the write.
package replication

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Stage identifies the step in which a replication failed.
type Stage string

const (
	// StageIndex covers opening the repository and adding files to the index.
	StageIndex  Stage = "stage"
	StageCommit Stage = "commit"
	StagePush   Stage = "push"
	StageUpload Stage = "upload"
)

// ErrNothingToCommit is reported at StageCommit when the staged files did not
// change since the last commit.
var ErrNothingToCommit = errors.New("nothing to commit")

// Error classifies a replication failure by stage.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("replication %s failed: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func stageError(stage Stage, err error) error {
	return &Error{Stage: stage, Err: err}
}

// StageOf returns the stage recorded in err, or "" when err is not a
// replication *Error.
func StageOf(err error) Stage {
	var re *Error
	if errors.As(err, &re) {
		return re.Stage
	}
	return ""
}

// Change describes one local write to propagate.
type Change struct {
	Message string
	// Paths are relative to the data directory.
	Paths []string
	At    time.Time
}

// Replicator propagates changed files to a backup target.
type Replicator interface {
	Name() string
	Replicate(ctx context.Context, change Change) error
}

// NoopReplicator is used when replication is disabled.
type NoopReplicator struct{}

func (NoopReplicator) Name() string { return "none" }

func (NoopReplicator) Replicate(context.Context, Change) error { return nil }
