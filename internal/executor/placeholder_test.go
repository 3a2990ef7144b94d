package executor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPlaceholder_ResolveOnce(t *testing.T) {
	reg := NewRegistry()
	ph := reg.create(Path{"a", "c"})

	_, ok := ph.Value()
	require.False(t, ok, "pending placeholder must not report a value")

	reg.resolve(ph, 42)
	v, ok := ph.Value()
	require.True(t, ok)
	require.Equal(t, 42, v)

	require.Panics(t, func() { ph.resolve(99) }, "second resolution must panic")
}

func TestPlaceholder_AwaitResolution(t *testing.T) {
	reg := NewRegistry()
	ph := reg.create(Path{"x"})

	go func() {
		time.Sleep(10 * time.Millisecond)
		reg.resolve(ph, "done")
	}()

	v, err := ph.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, "done", v)

	// Await after resolution returns immediately with the same value.
	v, err = ph.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, "done", v)
}

func TestPlaceholder_AwaitContextCancelled(t *testing.T) {
	ph := NewRegistry().create(Path{"x"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ph.Await(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPlaceholder_FailIsIdempotent(t *testing.T) {
	ph := newPlaceholder(Path{"x"})
	cause := errors.New("stream aborted")

	ph.fail(cause)
	ph.fail(errors.New("second cause is ignored"))

	_, err := ph.Await(context.Background())
	require.ErrorIs(t, err, cause)

	_, ok := ph.Value()
	require.False(t, ok, "failed placeholder must not report a value")
}

func TestPlaceholder_MarshalJSON(t *testing.T) {
	reg := NewRegistry()
	ph := reg.create(Path{"a"})

	out, err := json.Marshal(ph)
	require.NoError(t, err)
	require.JSONEq(t, `null`, string(out), "pending placeholder serializes as null")

	reg.resolve(ph, map[string]any{"b": 1})
	out, err = json.Marshal(ph)
	require.NoError(t, err)
	require.JSONEq(t, `{"b":1}`, string(out))
}

func TestRegistry_PendingOrderAndLookup(t *testing.T) {
	reg := NewRegistry()
	reg.create(Path{"b"})
	pa := reg.create(Path{"a", "items", 2})
	reg.create(Path{"a"})

	pending := reg.Pending()
	require.Len(t, pending, 3)
	require.Equal(t, "a", pending[0].String())
	require.Equal(t, "a.items[2]", pending[1].String())
	require.Equal(t, "b", pending[2].String())

	require.Same(t, pa, reg.Lookup(Path{"a", "items", 2}))
	require.Nil(t, reg.Lookup(Path{"nope"}))

	reg.resolve(pa, nil)
	require.Nil(t, reg.Lookup(Path{"a", "items", 2}), "resolved placeholders leave the registry")
}

func TestRegistry_FailAll(t *testing.T) {
	reg := NewRegistry()
	p1 := reg.create(Path{"a"})
	p2 := reg.create(Path{"b"})
	cause := errors.New("transport closed")

	reg.FailAll(cause)

	require.Empty(t, reg.Pending())
	for _, ph := range []*Placeholder{p1, p2} {
		_, err := ph.Await(context.Background())
		require.ErrorIs(t, err, cause)
	}
}
