// Package events declares the typed events the engine publishes while
// assembling an incrementally delivered response.
package events

import "time"

// SessionStart is emitted when the first chunk of a stream is executed.
type SessionStart struct {
	OperationName string
	OperationType string
}

// ChunkMerged is emitted after one incremental chunk has been spliced into
// the raw tree and the result re-completed.
type ChunkMerged struct {
	Sequence int
	Path     string
	Label    string
	HasNext  bool
	Pending  int
	Duration time.Duration
}

// SessionFinish is emitted when the stream completes or is aborted.
type SessionFinish struct {
	Chunks   int
	Errors   []error
	Aborted  bool
	Duration time.Duration
}
