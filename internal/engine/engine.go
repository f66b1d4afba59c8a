// Package engine implements the workflow execution engine: the state
// machine that tracks a trainee's position in a playbook graph and persists
// every transition through the session store before reporting success.
//
// The engine holds no session state across requests. Each operation loads
// the record, mutates an in-flight copy, and writes it back whole; the
// injected store decides durability. Advance is the only mutator of
// workflow progress and the only operation that blocks on the per-session
// write lock.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/haven-sec/rehearse/internal/playbook"
	"github.com/haven-sec/rehearse/internal/session"
	"github.com/haven-sec/rehearse/internal/store"
	"github.com/haven-sec/rehearse/internal/types"
)

// Engine drives workflow sessions. Construct it with New; the zero value is
// not usable.
type Engine struct {
	store     store.SessionStore
	playbooks playbook.Store
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time

	// locks serializes Advance per session id so two concurrent advances
	// never interleave their read-modify-write cycles. Reads never touch it.
	locks sync.Map // types.ID -> *sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithTracer sets the tracer used to span engine operations.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

// WithClock overrides the timestamp source. Tests use it for deterministic
// action log entries.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine bound to a session store and a playbook store. The
// backend choice is made by the caller once at process start; the engine
// never branches on which implementation it received.
func New(sessions store.SessionStore, playbooks playbook.Store, opts ...Option) *Engine {
	e := &Engine{
		store:     sessions,
		playbooks: playbooks,
		logger:    slog.Default(),
		tracer:    noop.NewTracerProvider().Tracer("engine"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize returns the session for an incident, creating one bound to the
// playbook's start node if none exists. It is idempotent: an existing
// session comes back unchanged regardless of the playbook or role supplied.
func (e *Engine) Initialize(ctx context.Context, incidentID types.ID, playbookID string, role types.UserRole) (*session.WorkflowSession, error) {
	ctx, span := e.tracer.Start(ctx, "engine.Initialize")
	defer span.End()

	existing, err := e.store.GetSession(ctx, incidentID)
	if err == nil {
		return existing, nil
	}
	if !types.IsNotFound(err) {
		return nil, err
	}

	pb, err := e.playbooks.GetPlaybook(ctx, playbookID)
	if err != nil {
		return nil, err
	}

	created, err := e.store.CreateSession(ctx, incidentID, pb.ID, pb.StartNodeID, role)
	if err != nil {
		// A concurrent Initialize may have won the race; the conflict is
		// then the session we were asked for.
		if types.IsConflict(err) {
			return e.store.GetSession(ctx, incidentID)
		}
		return nil, err
	}

	e.logger.InfoContext(ctx, "session created",
		"session_id", created.ID.String(),
		"incident_id", incidentID.String(),
		"playbook_id", pb.ID,
		"start_node", pb.StartNodeID,
		"role", role.String())
	return created, nil
}

// GetSession returns the current session for an incident without blocking
// on any write lock. Concurrent with an in-flight Advance it may observe
// either the pre- or post-transition state.
func (e *Engine) GetSession(ctx context.Context, incidentID types.ID) (*session.WorkflowSession, error) {
	return e.store.GetSession(ctx, incidentID)
}

// Advance applies the chosen option to the session and writes the result
// through the store before returning it. It is the only mutator in the
// system. Failures leave the stored session untouched; the engine performs
// no retry, since blindly retrying a non-idempotent write could duplicate
// action log entries.
func (e *Engine) Advance(ctx context.Context, sessionID types.ID, optionLabel string) (*session.WorkflowSession, error) {
	ctx, span := e.tracer.Start(ctx, "engine.Advance")
	defer span.End()

	lock := e.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	current, err := e.store.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	pb, err := e.playbooks.GetPlaybook(ctx, current.PlaybookID)
	if err != nil {
		return nil, err
	}

	next, err := advance(current, pb, optionLabel, e.now())
	if err != nil {
		e.logger.WarnContext(ctx, "transition rejected",
			"session_id", sessionID.String(),
			"node", current.CurrentNodeID,
			"label", optionLabel,
			"error", err.Error())
		return nil, err
	}

	updated, err := e.store.UpdateSession(ctx, next)
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "session advanced",
		"session_id", sessionID.String(),
		"from_node", current.CurrentNodeID,
		"to_node", updated.CurrentNodeID,
		"label", optionLabel)
	return updated, nil
}

// Pause suspends an Active session. Progress is preserved; Advance rejects
// transitions until Resume.
func (e *Engine) Pause(ctx context.Context, sessionID types.ID) (*session.WorkflowSession, error) {
	return e.setStatus(ctx, sessionID, types.SessionStatusActive, types.SessionStatusPaused)
}

// Resume reactivates a Paused session.
func (e *Engine) Resume(ctx context.Context, sessionID types.ID) (*session.WorkflowSession, error) {
	return e.setStatus(ctx, sessionID, types.SessionStatusPaused, types.SessionStatusActive)
}

// Complete marks an Active session finished. Completed sessions are kept
// forever; a new simulation for the same story starts a fresh
// incident/session pair instead of rewriting history.
func (e *Engine) Complete(ctx context.Context, sessionID types.ID) (*session.WorkflowSession, error) {
	return e.setStatus(ctx, sessionID, types.SessionStatusActive, types.SessionStatusCompleted)
}

func (e *Engine) setStatus(ctx context.Context, sessionID types.ID, from, to types.SessionStatus) (*session.WorkflowSession, error) {
	lock := e.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	current, err := e.store.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if current.Status != from {
		return nil, types.NewErrorf(types.INVALID_TRANSITION,
			"session %s is %s, expected %s", sessionID, current.Status, from)
	}

	next := current.Clone()
	next.Status = to
	updated, err := e.store.UpdateSession(ctx, next)
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "session status changed",
		"session_id", sessionID.String(),
		"from", from.String(),
		"to", to.String())
	return updated, nil
}

func (e *Engine) sessionLock(sessionID types.ID) *sync.Mutex {
	actual, _ := e.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return actual.(*sync.Mutex)
}
