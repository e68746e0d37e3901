// Package booking enforces capacity and idempotency for session bookings.
package booking

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/activity-booking/internal/persistence"
)

// TracerName is the instrumentation scope of engine spans.
const TracerName = "github.com/example/activity-booking/internal/booking"

// Reason explains why a Book or Cancel call did not change the session.
type Reason string

const (
	ReasonFull            Reason = "FULL"
	ReasonAlreadyBooked   Reason = "ALREADY_BOOKED"
	ReasonAlreadyCanceled Reason = "ALREADY_CANCELED"
)

// Result is the outcome of a Book or Cancel call. Session holds the state
// observed after the call whether or not it succeeded.
type Result struct {
	OK      bool
	Reason  Reason
	Session persistence.SessionState
}

// Option customises an Engine.
type Option func(*Engine)

// WithTracer replaces the tracer taken from the global otel provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithUnserializedWrites disables the write mutex. Concurrent Book calls can
// then over-book a session; only useful to reproduce that race.
func WithUnserializedWrites() Option {
	return func(e *Engine) {
		e.serialize = false
	}
}

// Engine applies the capacity and idempotency rules for session bookings on
// top of a SessionStore.
type Engine struct {
	store     persistence.SessionStore
	now       func() time.Time
	logger    *slog.Logger
	tracer    trace.Tracer
	serialize bool

	// writeMu spans load, check, mutate and save. The store replaces the
	// whole map on Save, so it covers every session at once.
	writeMu sync.Mutex
}

// NewEngine constructs a booking engine with the provided dependencies.
func NewEngine(store persistence.SessionStore, now func() time.Time, opts ...Option) *Engine {
	return NewEngineWithLogger(store, now, nil, opts...)
}

// NewEngineWithLogger constructs a booking engine with a specified logger.
func NewEngineWithLogger(store persistence.SessionStore, now func() time.Time, logger *slog.Logger, opts ...Option) *Engine {
	if now == nil {
		now = time.Now
	}
	e := &Engine{
		store:     store,
		now:       now,
		logger:    defaultLogger(logger),
		tracer:    otel.Tracer(TracerName),
		serialize: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, e.logger, operation, attrs...)
}

func (e *Engine) startSpan(ctx context.Context, operation, sessionID string) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "booking."+operation,
		trace.WithAttributes(attribute.String("booking.session_id", sessionID)),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// mutate runs fn against a freshly loaded map and saves it when fn reports a change.
func (e *Engine) mutate(ctx context.Context, fn func(sessions persistence.Sessions) (changed bool, err error)) error {
	if e.store == nil {
		return fmt.Errorf("booking: session store not configured")
	}
	if e.serialize {
		e.writeMu.Lock()
		defer e.writeMu.Unlock()
	}

	sessions, err := e.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("booking: load sessions: %w", err)
	}
	if sessions == nil {
		sessions = persistence.Sessions{}
	}

	changed, err := fn(sessions)
	if err != nil || !changed {
		return err
	}

	if err := e.store.Save(ctx, sessions); err != nil {
		return fmt.Errorf("booking: save sessions: %w", err)
	}
	return nil
}

func (e *Engine) snapshot(ctx context.Context) (persistence.Sessions, error) {
	if e.store == nil {
		return nil, fmt.Errorf("booking: session store not configured")
	}
	sessions, err := e.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("booking: load sessions: %w", err)
	}
	return sessions, nil
}

// EnsureSession creates the session with requestedCapacity when it does not
// exist yet. An existing session keeps its capacity and only has UpdatedAt
// advanced.
func (e *Engine) EnsureSession(ctx context.Context, sessionID string, requestedCapacity int) (state persistence.SessionState, err error) {
	if e == nil {
		err = fmt.Errorf("booking engine is nil")
		return
	}

	ctx, span := e.startSpan(ctx, "EnsureSession", sessionID)
	logger := e.loggerWith(ctx, "EnsureSession", "session_id", sessionID)
	created := false
	defer func() {
		endSpan(span, err)
		if err != nil {
			logger.ErrorContext(ctx, "failed to ensure session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("capacity", state.Capacity, "created", created).DebugContext(ctx, "session ensured")
	}()

	vErr := &ValidationError{}
	if strings.TrimSpace(sessionID) == "" {
		vErr.add("sessionId", "session id is required")
	}
	if requestedCapacity <= 0 {
		vErr.add("capacity", "capacity must be positive")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	err = e.mutate(ctx, func(sessions persistence.Sessions) (bool, error) {
		current, ok := sessions[sessionID]
		if !ok {
			current = persistence.SessionState{
				SessionID:     sessionID,
				Capacity:      requestedCapacity,
				BookedUserIDs: []string{},
			}
			created = true
		} else if current.Capacity != requestedCapacity {
			logger.DebugContext(ctx, "requested capacity ignored for existing session",
				"requested_capacity", requestedCapacity,
				"capacity", current.Capacity,
			)
		}
		current.UpdatedAt = e.now()
		sessions[sessionID] = current
		state = current.Clone()
		return true, nil
	})
	return
}

// HasBooking reports whether userID holds a booking in the session. A missing
// session reports false.
func (e *Engine) HasBooking(ctx context.Context, sessionID, userID string) (bool, error) {
	if e == nil {
		return false, fmt.Errorf("booking engine is nil")
	}
	if vErr := validateUser(userID); vErr.HasErrors() {
		return false, vErr
	}

	sessions, err := e.snapshot(ctx)
	if err != nil {
		return false, err
	}
	state, ok := sessions[sessionID]
	return ok && state.HasUser(userID), nil
}

// GetSession returns the stored state of a session.
func (e *Engine) GetSession(ctx context.Context, sessionID string) (persistence.SessionState, bool, error) {
	if e == nil {
		return persistence.SessionState{}, false, fmt.Errorf("booking engine is nil")
	}

	sessions, err := e.snapshot(ctx)
	if err != nil {
		return persistence.SessionState{}, false, err
	}
	state, ok := sessions[sessionID]
	if !ok {
		return persistence.SessionState{}, false, nil
	}
	return state.Clone(), true, nil
}

// Book adds userID to the session unless the user already holds a booking or
// the session is full. Neither case is an error.
func (e *Engine) Book(ctx context.Context, sessionID, userID string) (result Result, err error) {
	if e == nil {
		err = fmt.Errorf("booking engine is nil")
		return
	}

	ctx, span := e.startSpan(ctx, "Book", sessionID)
	logger := e.loggerWith(ctx, "Book", "session_id", sessionID, "user_id", userID)
	defer func() {
		span.SetAttributes(attribute.Bool("booking.ok", result.OK), attribute.String("booking.reason", string(result.Reason)))
		endSpan(span, err)
		logOutcome(ctx, logger, "booking", result, err)
	}()

	if vErr := validateUser(userID); vErr.HasErrors() {
		err = vErr
		return
	}

	err = e.mutate(ctx, func(sessions persistence.Sessions) (bool, error) {
		state, ok := sessions[sessionID]
		if !ok {
			return false, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		if state.HasUser(userID) {
			result = Result{Reason: ReasonAlreadyBooked, Session: state.Clone()}
			return false, nil
		}
		if state.Full() {
			result = Result{Reason: ReasonFull, Session: state.Clone()}
			return false, nil
		}

		state.BookedUserIDs = append(slices.Clone(state.BookedUserIDs), userID)
		state.UpdatedAt = e.now()
		sessions[sessionID] = state
		result = Result{OK: true, Session: state.Clone()}
		return true, nil
	})
	if err != nil {
		result = Result{}
	}
	return
}

// Cancel removes userID from the session. Cancelling a booking that does not
// exist reports ReasonAlreadyCanceled.
func (e *Engine) Cancel(ctx context.Context, sessionID, userID string) (result Result, err error) {
	if e == nil {
		err = fmt.Errorf("booking engine is nil")
		return
	}

	ctx, span := e.startSpan(ctx, "Cancel", sessionID)
	logger := e.loggerWith(ctx, "Cancel", "session_id", sessionID, "user_id", userID)
	defer func() {
		span.SetAttributes(attribute.Bool("booking.ok", result.OK), attribute.String("booking.reason", string(result.Reason)))
		endSpan(span, err)
		logOutcome(ctx, logger, "cancellation", result, err)
	}()

	if vErr := validateUser(userID); vErr.HasErrors() {
		err = vErr
		return
	}

	err = e.mutate(ctx, func(sessions persistence.Sessions) (bool, error) {
		state, ok := sessions[sessionID]
		if !ok {
			return false, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		if !state.HasUser(userID) {
			result = Result{Reason: ReasonAlreadyCanceled, Session: state.Clone()}
			return false, nil
		}

		state.BookedUserIDs = slices.DeleteFunc(slices.Clone(state.BookedUserIDs), func(id string) bool {
			return id == userID
		})
		state.UpdatedAt = e.now()
		sessions[sessionID] = state
		result = Result{OK: true, Session: state.Clone()}
		return true, nil
	})
	if err != nil {
		result = Result{}
	}
	return
}

// AttachChannelMessage records the chat message that announced the session.
// Capacity and bookings are left untouched.
func (e *Engine) AttachChannelMessage(ctx context.Context, sessionID string, msg persistence.ChannelMessage) (state persistence.SessionState, err error) {
	if e == nil {
		err = fmt.Errorf("booking engine is nil")
		return
	}

	ctx, span := e.startSpan(ctx, "AttachChannelMessage", sessionID)
	logger := e.loggerWith(ctx, "AttachChannelMessage", "session_id", sessionID)
	defer func() {
		endSpan(span, err)
		if err != nil {
			logger.ErrorContext(ctx, "failed to attach channel message", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "channel message attached", "activity_id", msg.ActivityID)
	}()

	err = e.mutate(ctx, func(sessions persistence.Sessions) (bool, error) {
		current, ok := sessions[sessionID]
		if !ok {
			return false, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		attached := msg
		current.ChannelMessage = &attached
		current.UpdatedAt = e.now()
		sessions[sessionID] = current
		state = current.Clone()
		return true, nil
	})
	return
}

// Apply ensures the action's session exists and then books or cancels for userID.
func (e *Engine) Apply(ctx context.Context, userID string, action Action) (Result, error) {
	if e == nil {
		return Result{}, fmt.Errorf("booking engine is nil")
	}
	if err := action.Validate(); err != nil {
		return Result{}, err
	}
	if vErr := validateUser(userID); vErr.HasErrors() {
		return Result{}, vErr
	}

	if _, err := e.EnsureSession(ctx, action.SessionID, action.Capacity); err != nil {
		return Result{}, err
	}

	switch action.Kind {
	case ActionBook:
		return e.Book(ctx, action.SessionID, userID)
	default:
		return e.Cancel(ctx, action.SessionID, userID)
	}
}

func validateUser(userID string) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(userID) == "" {
		vErr.add("userId", "user id is required")
	}
	return vErr
}

func logOutcome(ctx context.Context, logger *slog.Logger, subject string, result Result, err error) {
	if err != nil {
		logger.ErrorContext(ctx, subject+" failed", "error", err, "error_kind", ErrorKind(err))
		return
	}
	if !result.OK {
		logger.InfoContext(ctx, subject+" rejected", "reason", string(result.Reason))
		return
	}
	logger.With("booked", len(result.Session.BookedUserIDs), "capacity", result.Session.Capacity).
		InfoContext(ctx, subject+" accepted")
}
