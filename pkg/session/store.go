package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/contestkit/pkg/broadcast"
	"github.com/dmitrymomot/contestkit/pkg/logger"
	"github.com/dmitrymomot/contestkit/pkg/storage"
)

// Store holds the authentication token, mirrors it to durable storage and
// tracks whether durable state has been restored.
//
// Reads and writes of the token are synchronous and in-memory. Durable
// writes happen on a background writer that only persists the latest value.
type Store struct {
	storage storage.Storage
	cfg     Config
	log     *slog.Logger
	changes *broadcast.MemoryBroadcaster[State]

	mu          sync.Mutex
	token       string
	hydrated    bool
	hydratedCh  chan struct{}
	version     uint64 // bumped by every token change
	persisted   uint64 // last version handed to storage
	persistedCh chan struct{}
	closed      bool

	persistMu   sync.Mutex
	restoreOnce sync.Once
	closeOnce   sync.Once
	wake        chan struct{}
	done        chan struct{}
	workerDone  chan struct{}
}

// New creates a Store with no token and Hydrated=false.
// A nil storage falls back to in-memory storage.
func New(s storage.Storage, opts ...Option) *Store {
	if s == nil {
		s = storage.NewMemoryStorage()
	}

	st := &Store{
		storage:     s,
		cfg:         DefaultConfig(),
		log:         slog.Default(),
		hydratedCh:  make(chan struct{}),
		persistedCh: make(chan struct{}),
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
		workerDone:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(st)
	}
	st.log = st.log.With(logger.Component("session"), logger.Namespace(st.cfg.Namespace))
	st.changes = broadcast.NewMemoryBroadcaster[State](st.cfg.SubscriberBuffer)
	_ = st.changes.Broadcast(context.Background(), broadcast.Message[State]{Data: State{}})

	go st.writer()

	return st
}

// Token returns the current token and whether one is set.
func (s *Store) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

// SetToken stores token in memory immediately and schedules persistence.
// The empty string is the null token: SetToken("") is ClearToken, and an
// empty token is never persisted or reported as set.
func (s *Store) SetToken(token string) {
	s.mu.Lock()
	if s.token == token {
		s.mu.Unlock()
		return
	}
	s.token = token
	s.version++
	state := s.stateLocked()
	closed := s.closed
	s.mu.Unlock()

	_ = s.changes.Broadcast(context.Background(), broadcast.Message[State]{Data: state})

	if closed {
		s.persist()
		return
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// ClearToken drops the token and removes the persisted envelope.
func (s *Store) ClearToken() {
	s.SetToken("")
}

// Restore reads the persisted envelope and marks the store hydrated.
// Only the first call has an effect; concurrent callers wait for it and later
// calls return the current state. Storage failures are logged and leave the
// store hydrated without a token. A token set while the read is in progress
// takes precedence over the restored one.
func (s *Store) Restore(ctx context.Context) State {
	s.restoreOnce.Do(func() { s.restore(ctx) })
	return s.State()
}

func (s *Store) restore(ctx context.Context) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RestoreTimeout)
	defer cancel()

	// Durable state must reflect writes issued before the restore.
	if err := s.Flush(ctx); err != nil {
		s.log.WarnContext(ctx, "pending writes not flushed before restore", logger.Error(err))
	}

	// The restored token only applies while memory holds nothing newer than storage.
	s.mu.Lock()
	version := s.version
	durable := s.persisted >= version
	s.mu.Unlock()

	token, err := s.read(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "restore failed, continuing without token",
			logger.Event("restore"),
			logger.Error(err),
		)
	}

	s.mu.Lock()
	if durable && s.version == version {
		s.token = token
	}
	s.hydrated = true
	close(s.hydratedCh)
	state := s.stateLocked()
	s.mu.Unlock()

	_ = s.changes.Broadcast(context.Background(), broadcast.Message[State]{Data: state})

	s.log.DebugContext(ctx, "session restored",
		logger.Event("restore"),
		slog.Bool("authenticated", state.Authenticated),
		logger.Duration(time.Since(start)),
	)
}

func (s *Store) read(ctx context.Context) (string, error) {
	raw, ok, err := s.storage.Read(ctx, s.cfg.Namespace)
	if err != nil || !ok {
		return "", err
	}
	return decodeEnvelope(raw)
}

// IsHydrated reports whether Restore has completed.
func (s *Store) IsHydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

// Hydrated returns a channel closed once the store is hydrated.
func (s *Store) Hydrated() <-chan struct{} {
	return s.hydratedCh
}

// State returns a copy of the current token and hydration flags.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Subscribe delivers the current state, then every change, until ctx is done.
func (s *Store) Subscribe(ctx context.Context) broadcast.Subscriber[State] {
	return s.changes.Subscribe(ctx)
}

// Changes signals state changes; it lets gates watch the session.
func (s *Store) Changes(ctx context.Context) <-chan struct{} {
	return broadcast.Signal(ctx, s.changes)
}

// Flush waits until every token change issued so far has been handed to storage.
func (s *Store) Flush(ctx context.Context) error {
	for {
		s.mu.Lock()
		if s.persisted >= s.version {
			s.mu.Unlock()
			return nil
		}
		ch := s.persistedCh
		closed := s.closed
		s.mu.Unlock()

		if closed {
			s.persist()
			continue
		}
		select {
		case s.wake <- struct{}{}:
		default:
		}

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close persists pending changes, stops the writer and ends all subscriptions.
// The store stays usable afterwards; writes then persist synchronously.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		close(s.done)
		<-s.workerDone
		_ = s.changes.Close()
	})
	return nil
}

func (s *Store) writer() {
	defer close(s.workerDone)
	for {
		select {
		case <-s.wake:
			s.persist()
		case <-s.done:
			s.persist()
			return
		}
	}
}

// persist writes the latest token. Bursts of changes collapse into one write.
func (s *Store) persist() {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	token, version := s.token, s.version
	pending := version > s.persisted
	s.mu.Unlock()

	if !pending {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
	defer cancel()

	var err error
	if token == "" {
		err = s.storage.Remove(ctx, s.cfg.Namespace)
	} else {
		var raw string
		if raw, err = encodeEnvelope(token); err == nil {
			err = s.storage.Write(ctx, s.cfg.Namespace, raw)
		}
	}
	if err != nil {
		// Memory keeps the token; only durability across restarts is lost.
		s.log.Warn("persist failed", logger.Error(err))
	}

	s.mu.Lock()
	if version > s.persisted {
		s.persisted = version
		close(s.persistedCh)
		s.persistedCh = make(chan struct{})
	}
	s.mu.Unlock()
}

// Must be called with s.mu held.
func (s *Store) stateLocked() State {
	return State{
		Token:         s.token,
		Authenticated: s.token != "",
		Hydrated:      s.hydrated,
	}
}
