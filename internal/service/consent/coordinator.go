package consent

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crosscontext/crosscontext-backend/internal/domain/classification"
	"github.com/crosscontext/crosscontext-backend/internal/domain/consent"
	"github.com/crosscontext/crosscontext-backend/internal/domain/errors"
)

// Coordinator owns pending consent requests for the lifetime of their
// operations. At most one active request exists per operation correlation
// id. Waiting for caller approval is a suspension point with a hard
// timeout; expiry and caller-context cancellation both resolve the request
// so the pipeline always has a terminal state to audit.
type Coordinator struct {
	logger  *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]*pendingRequest // correlation id -> request
	byID    map[uuid.UUID]string       // request id -> correlation id
}

type pendingRequest struct {
	req      *consent.Request
	deadline time.Time
	done     chan struct{} // closed once the request reaches a terminal state
}

// NewCoordinator builds a coordinator with the configured consent timeout
func NewCoordinator(logger *zap.Logger, timeout time.Duration) *Coordinator {
	return &Coordinator{
		logger:  logger,
		timeout: timeout,
		pending: make(map[string]*pendingRequest),
		byID:    make(map[uuid.UUID]string),
	}
}

// Open evaluates an operation's disclosure request. Requests that need no
// consent come back already granted and are not registered. Pending
// requests are registered under the correlation id; a second active
// request for the same id is a conflict.
func (c *Coordinator) Open(operation, correlationID string, toolsInvolved []string, levels []classification.Level) (*consent.Request, error) {
	req := consent.Evaluate(operation, toolsInvolved, levels)
	if !req.RequiresConsent {
		return req, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.pending[correlationID]; exists {
		return nil, errors.ErrConsentDuplicate
	}
	c.pending[correlationID] = &pendingRequest{
		req:      req,
		deadline: time.Now().Add(c.timeout),
		done:     make(chan struct{}),
	}
	c.byID[req.ID] = correlationID

	c.logger.Info("consent request opened",
		zap.String("consent_id", req.ID.String()),
		zap.String("correlation_id", correlationID),
		zap.String("highest_classification", req.HighestClassification.String()),
	)
	return req, nil
}

// Await blocks until the request for correlationID resolves, the consent
// timeout elapses (-> expired), or ctx is cancelled (-> denied). It always
// returns a terminal snapshot of the request.
func (c *Coordinator) Await(ctx context.Context, correlationID string) (consent.Request, error) {
	c.mu.Lock()
	p, ok := c.pending[correlationID]
	c.mu.Unlock()
	if !ok {
		return consent.Request{}, errors.ErrConsentNotFound
	}

	timer := time.NewTimer(time.Until(p.deadline))
	defer timer.Stop()

	select {
	case <-p.done:
	case <-timer.C:
		c.resolve(p.req.ID, func(r *consent.Request) error { return r.Expire() })
	case <-ctx.Done():
		// Cancellation counts as denial, never an abandoned pending
		// request; the pipeline still writes its audit entry.
		c.resolve(p.req.ID, func(r *consent.Request) error {
			return r.Deny("caller context cancelled while awaiting consent")
		})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := *p.req
	return snapshot, nil
}

// Grant resolves a pending request in the caller's favor
func (c *Coordinator) Grant(id uuid.UUID) error {
	return c.resolve(id, func(r *consent.Request) error { return r.Grant() })
}

// Deny resolves a pending request against release
func (c *Coordinator) Deny(id uuid.UUID, reason string) error {
	return c.resolve(id, func(r *consent.Request) error { return r.Deny(reason) })
}

// Get returns a snapshot of the request with the given id
func (c *Coordinator) Get(id uuid.UUID) (consent.Request, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	correlationID, ok := c.byID[id]
	if !ok {
		return consent.Request{}, errors.ErrConsentNotFound
	}
	return *c.pending[correlationID].req, nil
}

// Pending returns snapshots of all unresolved requests
func (c *Coordinator) Pending() []consent.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]consent.Request, 0, len(c.pending))
	for _, p := range c.pending {
		if p.req.State == consent.StatePending {
			out = append(out, *p.req)
		}
	}
	return out
}

// RunSweeper expires overdue requests that nothing is currently awaiting.
// It returns when ctx is cancelled.
func (c *Coordinator) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sweep(time.Now())
		}
	}
}

func (c *Coordinator) sweep(now time.Time) {
	c.mu.Lock()
	var overdue []uuid.UUID
	for _, p := range c.pending {
		if p.req.State == consent.StatePending && now.After(p.deadline) {
			overdue = append(overdue, p.req.ID)
		}
	}
	c.mu.Unlock()

	for _, id := range overdue {
		_ = c.resolve(id, func(r *consent.Request) error { return r.Expire() })
	}
}

// resolve applies a terminal transition under the lock and wakes waiters.
// Losing a race to another resolution surfaces the domain's invalid-state
// error; the request keeps its first terminal state.
func (c *Coordinator) resolve(id uuid.UUID, transition func(*consent.Request) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	correlationID, ok := c.byID[id]
	if !ok {
		return errors.ErrConsentNotFound
	}
	p := c.pending[correlationID]
	if err := transition(p.req); err != nil {
		return err
	}
	close(p.done)
	delete(c.pending, correlationID)
	delete(c.byID, id)

	c.logger.Info("consent request resolved",
		zap.String("consent_id", id.String()),
		zap.String("correlation_id", correlationID),
		zap.String("state", p.req.State.String()),
		zap.String("reason", p.req.Reason),
	)
	return nil
}
