package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type pingEvent struct{ N int }
type otherEvent struct{}

func TestPublishDispatchesByType(t *testing.T) {
	Use(New())
	defer Use(nil)

	var pings []pingEvent
	var others int
	Subscribe(func(_ context.Context, e pingEvent) { pings = append(pings, e) })
	Subscribe(func(_ context.Context, _ otherEvent) { others++ })

	ctx := context.Background()
	Publish(ctx, pingEvent{N: 1})
	Publish(ctx, pingEvent{N: 2})

	require.Equal(t, []pingEvent{{N: 1}, {N: 2}}, pings)
	require.Zero(t, others, "handlers only see their own event type")
}

func TestUnsubscribe(t *testing.T) {
	Use(New())
	defer Use(nil)

	var got int
	unsubscribe := Subscribe(func(_ context.Context, _ pingEvent) { got++ })

	Publish(context.Background(), pingEvent{})
	unsubscribe()
	Publish(context.Background(), pingEvent{})

	require.Equal(t, 1, got)
}

func TestNilBusDropsEvents(t *testing.T) {
	Use(nil)

	require.NotPanics(t, func() {
		Subscribe(func(_ context.Context, _ pingEvent) {})
		Publish(context.Background(), pingEvent{})
	})
}
