// Package identity supplies the active user and workspace context.
// Resolution is modelled as an explicit readiness signal rather than a
// fixed-delay retry: callers await it under their own deadline and get a
// distinct, retryable error when it has not resolved yet.
package identity

import (
	"context"
	"errors"
	"sync"
)

// ErrNotReady reports that the identity context has not resolved. It is
// retryable and must never be masked by an arbitrary delay.
var ErrNotReady = errors.New("identity not ready")

// Session is the resolved identity context for one caller.
type Session struct {
	UserID      string
	WorkspaceID string
}

// Provider exposes the readiness future. Await blocks until the session
// resolves, the provider fails, or ctx expires; expiry surfaces
// ErrNotReady so callers can distinguish it from collaborator failures.
type Provider interface {
	Await(ctx context.Context) (Session, error)
}

// Resolver is a Provider that is completed exactly once, by whatever
// authentication layer sits in front of the ledger.
type Resolver struct {
	mu      sync.Mutex
	done    chan struct{}
	session Session
	err     error
}

func NewResolver() *Resolver {
	return &Resolver{done: make(chan struct{})}
}

var _ Provider = (*Resolver)(nil)

// Resolve completes the future with a session. Later calls are no-ops.
func (r *Resolver) Resolve(s Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	select {
	case <-r.done:
		return
	default:
	}
	r.session = s
	close(r.done)
}

// Fail completes the future with an error. Later calls are no-ops.
func (r *Resolver) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	select {
	case <-r.done:
		return
	default:
	}
	r.err = err
	close(r.done)
}

func (r *Resolver) Await(ctx context.Context) (Session, error) {
	select {
	case <-r.done:
		return r.session, r.err
	case <-ctx.Done():
		return Session{}, ErrNotReady
	}
}

// Static is a pre-resolved Provider for single-tenant deployments and
// tests.
type Static struct {
	Session Session
}

var _ Provider = Static{}

func (s Static) Await(context.Context) (Session, error) {
	if s.Session.WorkspaceID == "" {
		return Session{}, ErrNotReady
	}
	return s.Session, nil
}
