package research

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bitmason/graphion/pkg/config"
	"github.com/bitmason/graphion/pkg/llm"
	"github.com/bitmason/graphion/pkg/retrieval"
)

// ResearchIDPrefix marks ids in the cancellable deep-research space.
const ResearchIDPrefix = "research_"

// Snapshot is the read-only view of one session the HTTP surface renders.
type Snapshot struct {
	ID          string
	State       State
	StartedAt   time.Time
	CompletedAt time.Time
}

type session struct {
	id          string
	cancel      context.CancelFunc
	startedAt   time.Time
	completedAt time.Time
	state       State
}

// Manager owns the session registry: it starts runner goroutines, publishes
// their state snapshots, enforces the capacity cap, and evicts finished
// sessions past the retention window.
type Manager struct {
	runner    *Runner
	timeout   time.Duration
	retention time.Duration
	capacity  int
	logger    *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewManager builds the registry around a runner.
func NewManager(gateway llm.Generator, retriever retrieval.Retriever, cfg *config.ResearchConfig) *Manager {
	if cfg == nil {
		cfg = config.DefaultResearchConfig()
	}
	return &Manager{
		runner:    NewRunner(gateway, retriever, cfg),
		timeout:   cfg.Timeout,
		retention: cfg.Retention,
		capacity:  cfg.MaxSessions,
		logger:    slog.With("component", "research_manager"),
		sessions:  make(map[string]*session),
	}
}

// StartRequest carries the per-session parameters a caller may override.
// Zero timeouts fall back to the configured defaults.
type StartRequest struct {
	Query         string
	Namespace     string
	MaxIterations int
	Timeout       time.Duration
	StepTimeout   time.Duration
}

// Start registers a new session and launches its loop in the background. It
// returns the session id immediately.
func (m *Manager) Start(req StartRequest) (string, error) {
	id := ResearchIDPrefix + randomHex(6)
	st := NewState(req.Query, req.Namespace, req.MaxIterations)
	st.StepTimeout = req.StepTimeout

	timeout := m.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	sess := &session{
		id:        id,
		cancel:    cancel,
		startedAt: time.Now(),
		state:     st,
	}

	m.mu.Lock()
	m.evictExpiredLocked()
	if len(m.sessions) >= m.capacity {
		m.mu.Unlock()
		cancel()
		return "", ErrTooManySessions
	}
	m.sessions[id] = sess
	m.mu.Unlock()

	go func() {
		defer cancel()
		m.runner.Run(ctx, &st, func(snap State) {
			m.publish(id, snap)
		})
	}()

	m.logger.Info("Research session started", "session_id", id, "namespace", st.Namespace)
	return id, nil
}

// Run executes one session synchronously outside the registry, invoking
// observe after every step transition. The streaming HTTP variant uses it to
// emit progress frames; these runs are not cancellable by id.
func (m *Manager) Run(ctx context.Context, req StartRequest, observe func(State)) State {
	st := NewState(req.Query, req.Namespace, req.MaxIterations)
	st.StepTimeout = req.StepTimeout

	timeout := m.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	m.runner.Run(ctx, &st, observe)
	return st
}

// Snapshot returns the latest published view of a session.
func (m *Manager) Snapshot(id string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}
	return Snapshot{
		ID:          sess.id,
		State:       sess.state,
		StartedAt:   sess.startedAt,
		CompletedAt: sess.completedAt,
	}, nil
}

// Cancel stops a running session. Cancelling a finished session is a no-op;
// ids outside the deep-research space are rejected.
func (m *Manager) Cancel(id string) error {
	if !strings.HasPrefix(id, ResearchIDPrefix) {
		return ErrNotCancellable
	}

	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}
	if sess.state.CurrentStep.Terminal() {
		return nil
	}
	sess.cancel()
	m.logger.Info("Research session cancelled", "session_id", id)
	return nil
}

// CancelAll stops every non-terminal session. Used during shutdown.
func (m *Manager) CancelAll() {
	m.mu.RLock()
	var cancels []context.CancelFunc
	for _, sess := range m.sessions {
		if !sess.state.CurrentStep.Terminal() {
			cancels = append(cancels, sess.cancel)
		}
	}
	m.mu.RUnlock()

	for _, cancel := range cancels {
		cancel()
	}
	if len(cancels) > 0 {
		m.logger.Info("Cancelled in-flight research sessions", "count", len(cancels))
	}
}

// ActiveCount reports sessions that have not reached a terminal step.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, sess := range m.sessions {
		if !sess.state.CurrentStep.Terminal() {
			n++
		}
	}
	return n
}

// publish stores the runner's latest state copy under the session.
func (m *Manager) publish(id string, snap State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return
	}
	sess.state = snap
	if snap.CurrentStep.Terminal() && sess.completedAt.IsZero() {
		sess.completedAt = time.Now()
	}
}

// evictExpiredLocked drops finished sessions whose retention window passed.
// Caller holds m.mu.
func (m *Manager) evictExpiredLocked() {
	if m.retention <= 0 {
		return
	}
	cutoff := time.Now().Add(-m.retention)
	for id, sess := range m.sessions {
		if sess.state.CurrentStep.Terminal() && !sess.completedAt.IsZero() && sess.completedAt.Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}

// randomHex returns n random bytes hex-encoded (2n characters).
func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		return strings.Repeat("0", 2*n)
	}
	return hex.EncodeToString(buf)
}
