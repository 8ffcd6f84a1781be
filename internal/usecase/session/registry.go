package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"baduk_arena/internal/domain/game"
	"baduk_arena/internal/engine"
	"baduk_arena/internal/errors"
	"baduk_arena/internal/statuses"
)

// SessionStore is what the registry needs from persistence. The concrete
// repository keeps live snapshots in redis and archives finished games to
// mongo; the registry does not care.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (game.Snapshot, error)
	Save(ctx context.Context, snap game.Snapshot) error
	Archive(ctx context.Context, snap game.Snapshot) error
}

type entry struct {
	lock chan struct{}
	sess *game.Session
}

// Registry owns every live session and guarantees at most one concurrent
// mutation per session id. All access goes through WithSession.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	store   SessionStore
	log     *zap.SugaredLogger

	// LockWait bounds how long a second caller blocks on a busy session
	// before the wait is reported as a fatal session error.
	LockWait time.Duration
	// EndedGrace keeps finished sessions cached for late resyncs before
	// they are archived and evicted.
	EndedGrace time.Duration
	// OrphanAfter force-ends active sessions nobody has touched.
	OrphanAfter time.Duration
}

func NewRegistry(store SessionStore, log *zap.SugaredLogger) *Registry {
	return &Registry{
		entries:     make(map[string]*entry),
		store:       store,
		log:         log,
		LockWait:    10 * time.Second,
		EndedGrace:  time.Minute,
		OrphanAfter: 30 * time.Minute,
	}
}

// Put registers a freshly created session and persists its first snapshot.
func (r *Registry) Put(ctx context.Context, sess *game.Session) error {
	r.mu.Lock()
	r.entries[sess.ID] = &entry{lock: make(chan struct{}, 1), sess: sess}
	r.mu.Unlock()
	return r.persist(ctx, sess)
}

func (r *Registry) entryFor(sessionID string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[sessionID]
	if !ok {
		e = &entry{lock: make(chan struct{}, 1)}
		r.entries[sessionID] = e
	}
	return e
}

// WithSession acquires the per-session lock, loads the session from the
// store on a cache miss, runs fn, and persists the result. A persist
// failure is retried once with backoff; if it fails again the in-memory
// mutation is rolled back so memory and store never diverge.
func (r *Registry) WithSession(ctx context.Context, sessionID string, fn func(*game.Session) error) error {
	e := r.entryFor(sessionID)

	select {
	case e.lock <- struct{}{}:
	case <-time.After(r.LockWait):
		r.log.Errorw("session lock wait exceeded", "session", sessionID)
		return errors.ErrSessionBusy
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-e.lock }()

	if e.sess == nil {
		snap, err := r.store.Load(ctx, sessionID)
		if err != nil {
			// The placeholder must not outlive a failed load: ids are
			// caller-supplied, and a stale empty entry is a leak the
			// sweep can never reclaim.
			r.dropEmpty(sessionID, e)
			return err
		}
		e.sess = game.Restore(snap)
	}

	backup := e.sess.Snapshot()
	fnErr := fn(e.sess)
	if fnErr != nil {
		if _, recoverable := errors.AsMoveError(fnErr); !recoverable {
			return fnErr
		}
		// Rejected moves leave the session untouched except for foul
		// bookkeeping; persisting is cheap and keeps the store honest.
	}

	if err := r.persist(ctx, e.sess); err != nil {
		e.sess = game.Restore(backup)
		r.log.Errorw("snapshot persist failed, rolled back", "session", sessionID, "error", err)
		return errors.ErrPersistenceFailed
	}
	return fnErr
}

func (r *Registry) persist(ctx context.Context, sess *game.Session) error {
	snap := sess.Snapshot()
	err := r.store.Save(ctx, snap)
	if err == nil {
		return nil
	}
	time.Sleep(200 * time.Millisecond)
	return r.store.Save(ctx, snap)
}

// Peek returns a point-in-time snapshot without mutating anything.
func (r *Registry) Peek(ctx context.Context, sessionID string) (game.Snapshot, error) {
	var snap game.Snapshot
	err := r.WithSession(ctx, sessionID, func(s *game.Session) error {
		snap = s.Snapshot()
		return nil
	})
	return snap, err
}

// MarkDisconnected and MarkConnected feed the disconnect grace window the
// sweep enforces.
func (r *Registry) MarkDisconnected(ctx context.Context, sessionID, userID string) {
	_ = r.WithSession(ctx, sessionID, func(s *game.Session) error {
		if _, ok := s.ColorOf(userID); ok && !s.Ended() {
			s.DisconnectedSince[userID] = time.Now()
		}
		return nil
	})
}

func (r *Registry) MarkConnected(ctx context.Context, sessionID, userID string) {
	_ = r.WithSession(ctx, sessionID, func(s *game.Session) error {
		delete(s.DisconnectedSince, userID)
		return nil
	})
}

func (r *Registry) liveIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}

// dropEmpty removes a never-loaded placeholder, but only while the map
// still holds that exact entry; a concurrent Put owns the slot otherwise.
func (r *Registry) dropEmpty(sessionID string, e *entry) {
	r.mu.Lock()
	if cur, ok := r.entries[sessionID]; ok && cur == e {
		delete(r.entries, sessionID)
	}
	r.mu.Unlock()
}

// evict drops a session from the in-memory map. The store copy remains.
func (r *Registry) evict(sessionID string) {
	r.mu.Lock()
	delete(r.entries, sessionID)
	r.mu.Unlock()
}

// archiveAndEvict persists the final snapshot to the archive and frees
// the cache slot.
func (r *Registry) archiveAndEvict(ctx context.Context, sess *game.Session) {
	if err := r.store.Archive(ctx, sess.Snapshot()); err != nil {
		r.log.Errorw("archive failed", "session", sess.ID, "error", err)
		return
	}
	r.evict(sess.ID)
	r.log.Infow("session archived", "session", sess.ID)
}

// sweepEntry applies the time-based lifecycle rules to one session and
// reports a forfeiting user id when a clock or grace window ran out.
func (r *Registry) sweepEntry(sess *game.Session, now time.Time, disconnectGrace time.Duration) (forfeitUser string, archive bool) {
	if sess.Ended() {
		if sess.EndedAt != nil && now.Sub(*sess.EndedAt) > r.EndedGrace {
			return "", true
		}
		return "", false
	}
	if sess.Status == statuses.StatusActive && now.Sub(sess.LastActivity) > r.OrphanAfter {
		sess.End(engine.None, statuses.WinReasonAbandoned, now)
		return "", false
	}
	for userID, since := range sess.DisconnectedSince {
		if now.Sub(since) > disconnectGrace {
			return userID, false
		}
	}
	return "", false
}
