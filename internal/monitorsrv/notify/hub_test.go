package notify

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	return &Hub{subs: make(map[*subscriber]struct{})}
}

func TestBroadcastDelivers(t *testing.T) {
	h := newTestHub()
	sub := newSubscriber(nil)
	h.add(sub)

	h.broadcast([]byte(`{"resultId":1}`), zerolog.Nop())

	select {
	case msg := <-sub.send:
		assert.Equal(t, `{"resultId":1}`, string(msg))
	default:
		t.Fatal("expected a buffered event")
	}
	assert.Len(t, h.snapshot(), 1)
}

// A subscriber can disconnect between snapshot and send. The stale reference
// must be skipped without panicking and without erroring.
func TestSendToUnsubscribedIsSafe(t *testing.T) {
	h := newTestHub()
	sub := newSubscriber(nil)
	h.add(sub)

	stale := h.snapshot()
	require.Len(t, stale, 1)
	h.remove(sub)

	require.NotPanics(t, func() {
		err := trySend(stale[0], []byte(`{"resultId":2}`))
		assert.NoError(t, err)
	})
}

func TestRemoveIsIdempotent(t *testing.T) {
	h := newTestHub()
	sub := newSubscriber(nil)
	h.add(sub)

	require.NotPanics(t, func() {
		h.remove(sub)
		h.remove(sub)
	})
	assert.Empty(t, h.snapshot())

	select {
	case <-sub.done:
	default:
		t.Fatal("done should be closed after remove")
	}
}

func TestBroadcastDropsFullSubscriber(t *testing.T) {
	h := newTestHub()
	sub := newSubscriber(nil)
	for i := 0; i < sendBuffer; i++ {
		sub.send <- []byte("backlog")
	}
	h.add(sub)

	h.broadcast([]byte(`{"resultId":3}`), zerolog.Nop())

	assert.Empty(t, h.snapshot())
	select {
	case <-sub.done:
	default:
		t.Fatal("dropped subscriber should be signalled done")
	}
}
