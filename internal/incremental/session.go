package incremental

import (
	"context"
	"sync"
	"time"

	eventbus "github.com/unfoldgql/unfold/internal/eventbus"
	events "github.com/unfoldgql/unfold/internal/events"
	executor "github.com/unfoldgql/unfold/internal/executor"
	language "github.com/unfoldgql/unfold/internal/language"
	schema "github.com/unfoldgql/unfold/internal/schema"
)

// State tracks where a session is in its chunk-arrival lifecycle.
type State int

const (
	StateAwaitingFirstChunk State = iota
	StatePartial
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateAwaitingFirstChunk:
		return "awaiting-first-chunk"
	case StatePartial:
		return "partial"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Session assembles one request's response from a strictly ordered sequence
// of chunks. The result tree it owns is mutated in place by every merge; a
// single writer applies chunks while any number of readers hold the same
// tree and await its placeholders.
type Session struct {
	exec      *executor.Executor
	doc       *language.QueryDocument
	variables map[string]any
	registry  *executor.Registry

	mu             sync.Mutex
	state          State
	raw            map[string]any
	rawNull        bool
	data           any
	completionErrs []*executor.Error
	chunkErrs      []*executor.Error
	extensions     map[string]any
	chunks         int
	started        time.Time
	ready          chan struct{}
}

// NewSession prepares a session for one operation against sch. No work
// happens until the first chunk is applied.
func NewSession(sch *schema.Schema, doc *language.QueryDocument, variables map[string]any) *Session {
	return &Session{
		exec:      executor.NewExecutor(sch),
		doc:       doc,
		variables: variables,
		registry:  executor.NewRegistry(),
		ready:     make(chan struct{}),
	}
}

// State reports the session's lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ready is closed once the first chunk has been executed and Result yields a
// publishable snapshot.
func (s *Session) Ready() <-chan struct{} { return s.ready }

// Pending returns the response paths still awaiting incremental data.
func (s *Session) Pending() []executor.Path { return s.registry.Pending() }

// Registry exposes the session's placeholder registry for callers that await
// individual positions.
func (s *Session) Registry() *executor.Registry { return s.registry }

// Result returns the current snapshot. The Data tree is the same object
// across calls: positions resolve in place as chunks merge.
func (s *Session) Result() *executor.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	errs := make([]*executor.Error, 0, len(s.chunkErrs)+len(s.completionErrs))
	errs = append(errs, s.chunkErrs...)
	errs = append(errs, s.completionErrs...)
	return &executor.Result{Data: s.data, Errors: errs, Extensions: s.extensions}
}

// Apply merges one chunk, in transport arrival order. The first chunk runs
// the executor over its data; every later chunk is spliced into the raw tree
// and the result re-completed so the placeholders its path covers resolve.
// Applying a chunk after the stream completed is a protocol violation.
func (s *Session) Apply(ctx context.Context, chunk *Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateComplete:
		return executor.Errorf(executor.KindProtocol, chunk.Path,
			"chunk received after the stream completed")
	case StateAwaitingFirstChunk:
		return s.applyFirstLocked(ctx, chunk)
	default:
		return s.applyPatchChunkLocked(ctx, chunk)
	}
}

func (s *Session) applyFirstLocked(ctx context.Context, chunk *Chunk) error {
	if chunk.Path != nil || chunk.HasItems || len(chunk.Incremental) > 0 {
		return executor.Errorf(executor.KindProtocol, chunk.Path,
			"first chunk must carry top-level data only, not a patch")
	}

	s.started = time.Now()
	op, _ := language.SingleOperation(s.doc)
	if op != nil {
		eventbus.Publish(ctx, events.SessionStart{
			OperationName: op.Name,
			OperationType: string(op.Operation),
		})
	}

	var initial any
	switch data := chunk.Data.(type) {
	case map[string]any:
		s.raw = data
		initial = data
	case nil:
		s.rawNull = true
	default:
		// The executor rejects a non-object response root; feed it through
		// so the error carries the proper kind.
		s.rawNull = true
		initial = data
	}

	res, err := s.exec.Execute(s.doc, s.variables, initial, nil, s.registry)
	if err != nil {
		s.state = StateComplete
		close(s.ready)
		return err
	}
	s.data = res.Data
	s.completionErrs = res.Errors
	s.absorbChunkMeta(chunk)
	s.chunks = 1

	if chunk.HasNext {
		s.state = StatePartial
	} else {
		s.finishLocked(ctx, false)
	}
	close(s.ready)
	return nil
}

func (s *Session) applyPatchChunkLocked(ctx context.Context, chunk *Chunk) error {
	start := time.Now()

	if err := s.spliceLocked(chunk, true); err != nil {
		return err
	}

	res, err := s.exec.Execute(s.doc, s.variables, s.rawValue(), s.data, s.registry)
	if err != nil {
		return err
	}
	s.data = res.Data
	s.completionErrs = res.Errors
	s.chunks++

	eventbus.Publish(ctx, events.ChunkMerged{
		Sequence: s.chunks,
		Path:     chunk.Path.String(),
		Label:    chunk.Label,
		HasNext:  chunk.HasNext,
		Pending:  len(s.registry.Pending()),
		Duration: time.Since(start),
	})

	if !chunk.HasNext {
		s.finishLocked(ctx, false)
	}
	return nil
}

// spliceLocked applies a chunk's own patch and then every nested incremental
// entry, each addressed by its own path from the data root.
func (s *Session) spliceLocked(chunk *Chunk, top bool) error {
	if chunk.HasData || chunk.HasItems {
		if chunk.Path == nil {
			return executor.Errorf(executor.KindProtocol, nil,
				"incremental chunk requires a path")
		}
		if s.raw == nil {
			return executor.Errorf(executor.KindProtocol, chunk.Path,
				"cannot patch a null response")
		}
		switch {
		case chunk.HasItems:
			if err := spliceItems(s.raw, chunk.Path, chunk.Items); err != nil {
				return err
			}
		case chunk.Data == nil:
			// data:null reports a payload that bubbled to null server-side;
			// the addressed position becomes null so the re-completion pass
			// resolves any placeholder there to null.
			if err := spliceNull(s.raw, chunk.Path); err != nil {
				return err
			}
		default:
			patch, _ := chunk.Data.(map[string]any)
			if err := spliceData(s.raw, chunk.Path, patch); err != nil {
				return err
			}
		}
	} else if top && len(chunk.Incremental) == 0 && chunk.HasNext {
		// A payload-less chunk is valid only as the stream terminator: the
		// multipart writer ends a stream with {"hasNext":false,"incremental":[]}.
		return executor.Errorf(executor.KindProtocol, chunk.Path,
			"incremental chunk carries neither data nor items")
	}

	s.absorbChunkMeta(chunk)

	for _, sub := range chunk.Incremental {
		if err := s.spliceLocked(sub, false); err != nil {
			return err
		}
	}
	return nil
}

// rawValue returns the accumulated raw tree as a plain value, mapping an
// unset tree to untyped nil.
func (s *Session) rawValue() any {
	if s.raw == nil {
		return nil
	}
	return s.raw
}

func (s *Session) absorbChunkMeta(chunk *Chunk) {
	s.chunkErrs = append(s.chunkErrs, chunk.Errors...)
	if len(chunk.Extensions) > 0 {
		if s.extensions == nil {
			s.extensions = make(map[string]any, len(chunk.Extensions))
		}
		deepMerge(s.extensions, chunk.Extensions)
	}
}

func (s *Session) finishLocked(ctx context.Context, aborted bool) {
	s.state = StateComplete
	s.registry.FailAll(executor.Errorf(executor.KindProtocol, nil,
		"stream completed before this position was delivered"))

	var errs []error
	for _, e := range s.chunkErrs {
		errs = append(errs, e)
	}
	for _, e := range s.completionErrs {
		errs = append(errs, e)
	}
	eventbus.Publish(ctx, events.SessionFinish{
		Chunks:   s.chunks,
		Errors:   errs,
		Aborted:  aborted,
		Duration: time.Since(s.started),
	})
}

// Close aborts the session before completion: outstanding placeholders fail
// with cause so waiters are not stranded. Closing a completed session is a
// no-op.
func (s *Session) Close(ctx context.Context, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateComplete {
		return
	}
	if cause == nil {
		cause = executor.Errorf(executor.KindProtocol, nil, "stream aborted")
	}
	s.registry.FailAll(cause)
	if s.state == StateAwaitingFirstChunk {
		close(s.ready)
	}
	s.state = StateComplete
	var elapsed time.Duration
	if !s.started.IsZero() {
		elapsed = time.Since(s.started)
	}
	eventbus.Publish(ctx, events.SessionFinish{
		Chunks:   s.chunks,
		Aborted:  true,
		Duration: elapsed,
	})
}
