package game

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

const subscriberBuffer = 32

// subscriber is one socket's outbound queue. The write pump drains it;
// a full queue means the socket is too slow and gets dropped.
type subscriber struct {
	userID string
	send   chan []byte
	once   sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.send) })
}

// Hub fans session events out to every subscribed socket. Broadcast is
// called with the session lock held upstream, so nothing here may block.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}
	log  *zap.SugaredLogger
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		subs: make(map[string]map[*subscriber]struct{}),
		log:  log,
	}
}

func (h *Hub) subscribe(sessionID, userID string) *subscriber {
	sub := &subscriber{userID: userID, send: make(chan []byte, subscriberBuffer)}
	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[*subscriber]struct{})
	}
	h.subs[sessionID][sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) unsubscribe(sessionID string, sub *subscriber) {
	h.mu.Lock()
	if set, ok := h.subs[sessionID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sessionID)
		}
	}
	h.mu.Unlock()
	sub.close()
}

// Broadcast renders the message per viewer and queues it on every
// subscriber of the session. Slow subscribers lose the message instead
// of stalling the game; they recover by resyncing.
func (h *Hub) Broadcast(sessionID string, build func(viewerID string) interface{}) {
	h.mu.RLock()
	set := h.subs[sessionID]
	subs := make([]*subscriber, 0, len(set))
	for sub := range set {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	rendered := make(map[string][]byte)
	for _, sub := range subs {
		payload, ok := rendered[sub.userID]
		if !ok {
			data, err := json.Marshal(build(sub.userID))
			if err != nil {
				h.log.Errorw("broadcast marshal failed", "session", sessionID, "error", err)
				return
			}
			payload = data
			rendered[sub.userID] = data
		}
		select {
		case sub.send <- payload:
		default:
			h.log.Warnw("dropping slow subscriber message", "session", sessionID, "user", sub.userID)
		}
	}
}
