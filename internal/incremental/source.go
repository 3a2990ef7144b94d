package incremental

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"

	executor "github.com/unfoldgql/unfold/internal/executor"
)

// Source is the transport boundary: it yields raw chunk payloads in arrival
// order and io.EOF when the underlying stream closes. The transport itself
// (HTTP multipart, SSE, ...) lives outside this package.
type Source interface {
	Next(ctx context.Context) ([]byte, error)
}

// Run drains src to completion, decoding and applying each chunk in order.
// It returns the final snapshot. A transport that closes before the stream
// signalled completion ends the session; outstanding placeholders fail so
// their waiters observe the abort.
func (s *Session) Run(ctx context.Context, src Source) (*executor.Result, error) {
	for {
		raw, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.Close(ctx, err)
			return s.Result(), err
		}

		chunk, err := DecodeChunk(raw)
		if err != nil {
			s.Close(ctx, err)
			return s.Result(), err
		}
		if err := s.Apply(ctx, chunk); err != nil {
			s.Close(ctx, err)
			return s.Result(), err
		}
		if s.State() == StateComplete {
			return s.Result(), nil
		}
	}
	// Transport closed without hasNext=false: treat as end of stream.
	s.Close(ctx, nil)
	return s.Result(), nil
}

// ScanLines is a Source reading one JSON chunk per line (NDJSON), used by the
// CLI and tests.
type ScanLines struct {
	scanner *bufio.Scanner
}

func NewScanLines(r io.Reader) *ScanLines {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &ScanLines{scanner: sc}
}

func (s *ScanLines) Next(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		out := make([]byte, len(line))
		copy(out, line)
		return out, nil
	}
	if err := s.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}
