package game

import (
	"encoding/json"
	"testing"

	"go.uber.org/zap"
)

type viewPayload struct {
	Viewer string `json:"viewer"`
	Move   int    `json:"move"`
}

func buildFor(move int) func(viewerID string) interface{} {
	return func(viewerID string) interface{} {
		return viewPayload{Viewer: viewerID, Move: move}
	}
}

func TestBroadcastRendersPerViewer(t *testing.T) {
	h := NewHub(zap.NewNop().Sugar())
	black := h.subscribe("sess-1", "black-user")
	white := h.subscribe("sess-1", "white-user")
	other := h.subscribe("sess-2", "black-user")

	h.Broadcast("sess-1", buildFor(1))

	for sub, wantViewer := range map[*subscriber]string{black: "black-user", white: "white-user"} {
		select {
		case raw := <-sub.send:
			var got viewPayload
			if err := json.Unmarshal(raw, &got); err != nil {
				t.Fatalf("bad payload: %v", err)
			}
			if got.Viewer != wantViewer || got.Move != 1 {
				t.Fatalf("expected a %s view, got %+v", wantViewer, got)
			}
		default:
			t.Fatalf("subscriber %s received nothing", wantViewer)
		}
	}

	select {
	case <-other.send:
		t.Fatalf("a different session must not receive the broadcast")
	default:
	}
}

func TestBroadcastDropsWhenQueueIsFull(t *testing.T) {
	h := NewHub(zap.NewNop().Sugar())
	sub := h.subscribe("sess-1", "black-user")

	for i := 0; i < subscriberBuffer+5; i++ {
		h.Broadcast("sess-1", buildFor(i))
	}

	// The queue holds the first messages; the overflow was dropped, not
	// blocked on.
	if len(sub.send) != subscriberBuffer {
		t.Fatalf("expected a full queue of %d, got %d", subscriberBuffer, len(sub.send))
	}
}

func TestUnsubscribeRemovesAndCloses(t *testing.T) {
	h := NewHub(zap.NewNop().Sugar())
	sub := h.subscribe("sess-1", "black-user")
	h.unsubscribe("sess-1", sub)

	if _, open := <-sub.send; open {
		t.Fatalf("expected the send channel to be closed")
	}

	// Broadcasting to a fully unsubscribed session is a no-op.
	h.Broadcast("sess-1", buildFor(1))

	// Double unsubscribe must not panic on the closed channel.
	h.unsubscribe("sess-1", sub)
}
