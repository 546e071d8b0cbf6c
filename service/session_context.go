package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/layer-3/taskchain/core"
	"github.com/layer-3/taskchain/ports"
)

// SessionState is the lifecycle stage of the session context
type SessionState int

const (
	SessionAbsent SessionState = iota
	SessionPending
	SessionEstablished
)

func (s SessionState) String() string {
	switch s {
	case SessionPending:
		return "pending"
	case SessionEstablished:
		return "established"
	default:
		return "absent"
	}
}

// SessionChange is delivered to subscribers on every state change
type SessionChange struct {
	State   SessionState
	Account core.Account // Zero when no session is held
}

// SessionReader is the read side of the session context
type SessionReader interface {
	Get() (ports.RemoteSession, bool)
}

// SessionContext holds the process-wide ledger session.
// Only the Negotiator establishes a session and only Logout removes it.
type SessionContext struct {
	mu          sync.RWMutex
	state       SessionState
	session     ports.RemoteSession
	subscribers map[int]chan SessionChange
	nextSubID   int

	events ports.EventPublisher
	logger *slog.Logger
}

// NewSessionContext creates an absent session context
func NewSessionContext(events ports.EventPublisher, logger *slog.Logger) *SessionContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionContext{
		subscribers: make(map[int]chan SessionChange),
		events:      events,
		logger:      logger,
	}
}

// Get returns the current session, if any. A session keeps being returned while a
// replacement is pending and after its TTL passed; the ledger rejects expired calls.
func (c *SessionContext) Get() (ports.RemoteSession, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.session, c.session != nil
}

// State returns the lifecycle stage
func (c *SessionContext) State() SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.state
}

// Subscribe returns a channel of state changes and a function to stop receiving them.
// Slow subscribers miss intermediate changes rather than block writers.
func (c *SessionContext) Subscribe() (<-chan SessionChange, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	ch := make(chan SessionChange, 4)
	c.subscribers[id] = ch

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subscribers[id]; ok {
			delete(c.subscribers, id)
			close(sub)
		}
	}
}

// Logout drops the session and best-effort revokes it on the ledger
func (c *SessionContext) Logout(ctx context.Context) error {
	c.mu.Lock()
	if c.state == SessionPending {
		c.mu.Unlock()
		return core.ErrNegotiationInFlight
	}
	session := c.session
	c.session = nil
	c.state = SessionAbsent
	c.notifyLocked()
	c.mu.Unlock()

	if session == nil {
		return nil
	}

	account := session.Account()
	if err := session.Close(ctx); err != nil {
		c.logger.Warn("failed to revoke session on ledger", "account", account.ID, "error", err)
	}
	if c.events != nil {
		if err := c.events.PublishSessionCleared(ctx, account.ID); err != nil {
			c.logger.Warn("failed to publish session cleared event", "account", account.ID, "error", err)
		}
	}
	c.logger.Info("session cleared", "account", account.ID)
	return nil
}

// begin moves the context to pending; only one negotiation may hold it
func (c *SessionContext) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == SessionPending {
		return core.ErrNegotiationInFlight
	}
	c.state = SessionPending
	c.notifyLocked()
	return nil
}

// establish replaces any previous session without tearing it down remotely
func (c *SessionContext) establish(ctx context.Context, session ports.RemoteSession, path string) {
	c.mu.Lock()
	c.session = session
	c.state = SessionEstablished
	c.notifyLocked()
	c.mu.Unlock()

	if c.events != nil {
		if err := c.events.PublishSessionEstablished(ctx, session.Account().ID, path); err != nil {
			c.logger.Warn("failed to publish session established event", "account", session.Account().ID, "error", err)
		}
	}
}

// abandon ends a failed negotiation, restoring the state it started from
func (c *SessionContext) abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		c.state = SessionEstablished
	} else {
		c.state = SessionAbsent
	}
	c.notifyLocked()
}

func (c *SessionContext) notifyLocked() {
	change := SessionChange{State: c.state}
	if c.session != nil {
		change.Account = c.session.Account()
	}
	for _, sub := range c.subscribers {
		select {
		case sub <- change:
		default:
		}
	}
}
