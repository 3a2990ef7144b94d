package incremental

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	executor "github.com/unfoldgql/unfold/internal/executor"
)

func TestRun_DrainsNDJSONStream(t *testing.T) {
	stream := strings.Join([]string{
		`{"data":{"a":{"b":1},"nums":[]},"hasNext":true}`,
		``,
		`{"items":[10],"path":["nums",0],"hasNext":true}`,
		`{"incremental":[{"data":{"c":2},"path":["a"]},{"items":[20],"path":["nums",1]}],"hasNext":false}`,
	}, "\n")

	s := newTestSession(t, `{ a { b c } nums }`)
	res, err := s.Run(context.Background(), NewScanLines(strings.NewReader(stream)))
	require.NoError(t, err)
	require.Equal(t, StateComplete, s.State())

	want := map[string]any{
		"a":    map[string]any{"b": 1, "c": 2},
		"nums": []any{10, 20},
	}
	if diff := cmp.Diff(want, res.Data); diff != "" {
		t.Fatalf("Data mismatch (-want +got):\n%s", diff)
	}
	require.Empty(t, res.Errors)
}

func TestRun_EOFBeforeCompletionAborts(t *testing.T) {
	stream := `{"data":{"a":{"b":1}},"hasNext":true}`

	s := newTestSession(t, `{ a { b c } }`)
	_, err := s.Run(context.Background(), NewScanLines(strings.NewReader(stream)))
	require.NoError(t, err, "a closing transport ends the session without a transport error")
	require.Equal(t, StateComplete, s.State())

	// The undelivered position failed rather than hanging its waiters.
	ph := s.Registry().Lookup(executor.Path{"a", "c"})
	require.Nil(t, ph, "aborted sessions keep no pending placeholders")
}

func TestRun_MalformedChunkStopsTheStream(t *testing.T) {
	stream := strings.Join([]string{
		`{"data":{"a":{"b":1}},"hasNext":true}`,
		`{"this is": not json`,
	}, "\n")

	s := newTestSession(t, `{ a { b c } }`)
	_, err := s.Run(context.Background(), NewScanLines(strings.NewReader(stream)))
	require.Error(t, err)
	var engineErr *executor.Error
	require.ErrorAs(t, err, &engineErr)
	require.Equal(t, executor.KindProtocol, engineErr.Kind)
	require.Equal(t, StateComplete, s.State(), "fatal protocol errors end the session")
}
