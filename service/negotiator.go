package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/layer-3/taskchain/core"
	"github.com/layer-3/taskchain/ports"
)

// State is a step of the authentication state machine
type State string

const (
	StateStart             State = "START"
	StateResolving         State = "RESOLVING"
	StateLoginPath         State = "LOGIN_PATH"
	StateRegisterPath      State = "REGISTER_PATH"
	StateRegisterCollision State = "REGISTER_COLLISION"
	StateEstablished       State = "ESTABLISHED"
	StateFailed            State = "FAILED"
)

// HomeRoute is where the edge sends the user after a successful login
const HomeRoute = "/"

// Outcome is the result of a successful authentication attempt
type Outcome struct {
	Session  ports.RemoteSession
	Path     State   // StateLoginPath or StateRegisterPath
	Trace    []State // Every state visited, in order
	Redirect string
}

// NegotiatorConfig wires the negotiator to its collaborators
type NegotiatorConfig struct {
	Detect        ports.ProviderDetector
	Bind          ports.KeyStoreBinder
	Ledger        ports.Ledger
	Sessions      *SessionContext
	SessionConfig core.SessionConfig
	DisplayName   func() string // Argument to register_user, none when nil
	Logger        *slog.Logger
}

// Negotiator decides between login and registration and establishes the session
type Negotiator struct {
	detect        ports.ProviderDetector
	bind          ports.KeyStoreBinder
	ledger        ports.Ledger
	resolver      *AccountResolver
	sessions      *SessionContext
	sessionConfig core.SessionConfig
	displayName   func() string
	logger        *slog.Logger
}

// NewNegotiator creates a negotiator
func NewNegotiator(cfg NegotiatorConfig) *Negotiator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sessionConfig := cfg.SessionConfig
	if sessionConfig.TTL <= 0 {
		sessionConfig = core.DefaultSessionConfig()
	}

	return &Negotiator{
		detect:        cfg.Detect,
		bind:          cfg.Bind,
		ledger:        cfg.Ledger,
		resolver:      NewAccountResolver(cfg.Ledger),
		sessions:      cfg.Sessions,
		sessionConfig: sessionConfig,
		displayName:   cfg.DisplayName,
		logger:        logger,
	}
}

// run is the state of a single authentication attempt
type run struct {
	trace    []State
	ks       ports.KeyStore
	resolved []core.Account
}

func (r *run) enter(s State) {
	r.trace = append(r.trace, s)
}

// Authenticate runs the state machine once. It blocks until the session is
// established or the attempt failed; a failure wraps one of the core sentinels
// and leaves the session context as it was.
func (n *Negotiator) Authenticate(ctx context.Context) (*Outcome, error) {
	if err := n.sessions.begin(); err != nil {
		return nil, err
	}

	r := &run{}
	outcome, err := n.authenticate(ctx, r)
	if err != nil {
		r.enter(StateFailed)
		n.sessions.abandon()
		n.logger.Error("authentication failed", "trace", r.trace, "error", err)
		return nil, err
	}

	r.enter(StateEstablished)
	outcome.Trace = r.trace
	outcome.Redirect = HomeRoute
	n.sessions.establish(ctx, outcome.Session, pathName(outcome.Path))
	n.logger.Info("session established",
		"account", outcome.Session.Account().ID,
		"path", outcome.Path,
		"expires_at", outcome.Session.ExpiresAt())

	return outcome, nil
}

func (n *Negotiator) authenticate(ctx context.Context, r *run) (*Outcome, error) {
	r.enter(StateStart)
	if n.detect == nil {
		return nil, core.ErrNotDetected
	}
	provider, err := n.detect(ctx)
	if err != nil {
		return nil, err
	}

	externals, err := provider.RequestAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(externals) == 0 {
		return nil, core.ErrUserDenied
	}

	r.ks, err = n.bind(provider, externals[0])
	if err != nil {
		return nil, fmt.Errorf("failed to bind key store: %w", err)
	}

	r.enter(StateResolving)
	r.resolved, err = n.resolver.ResolveAccounts(ctx, r.ks)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving accounts: %w", core.ErrRemoteCall, err)
	}
	n.logger.Debug("resolved accounts", "signer", r.ks.ID(), "count", len(r.resolved))

	if len(r.resolved) > 0 {
		return n.login(ctx, r)
	}
	return n.register(ctx, r)
}

func (n *Negotiator) login(ctx context.Context, r *run) (*Outcome, error) {
	r.enter(StateLoginPath)

	session, err := n.ledger.Interactor(r.ks).Login(ctx, r.resolved[0].ID, n.sessionConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrLoginRejected, err)
	}
	return &Outcome{Session: session, Path: StateLoginPath}, nil
}

func (n *Negotiator) register(ctx context.Context, r *run) (*Outcome, error) {
	r.enter(StateRegisterPath)

	session, err := n.registerOnce(ctx, r.ks)
	if err == nil {
		return &Outcome{Session: session, Path: StateRegisterPath}, nil
	}
	if !errors.Is(err, core.ErrRegistrationCollision) {
		return nil, fmt.Errorf("%w: %w", core.ErrRegistrationFailed, err)
	}

	r.enter(StateRegisterCollision)
	n.logger.Warn("auth descriptor limit reached, deleting resolved descriptors", "signer", r.ks.ID(), "count", len(r.resolved))

	// Sequential and not atomic: a failed delete leaves earlier deletes applied
	interactor := n.ledger.Interactor(r.ks)
	for _, account := range r.resolved {
		if err := interactor.DeleteAuthDescriptor(ctx, account.ID); err != nil {
			return nil, fmt.Errorf("%w: deleting descriptor of %s: %w", core.ErrRegistrationExhausted, account.ID, err)
		}
	}

	session, err = n.registerOnce(ctx, r.ks)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrRegistrationExhausted, err)
	}
	return &Outcome{Session: session, Path: StateRegisterPath}, nil
}

// registerOnce builds a fresh descriptor and runs one open registration
func (n *Negotiator) registerOnce(ctx context.Context, ks ports.KeyStore) (ports.RemoteSession, error) {
	descriptor := core.NewAuthDescriptor(ks.ID())
	strategy := core.OpenRegistration(descriptor, n.sessionConfig)

	op := core.Operation{Name: core.RegisterProcedure}
	if n.displayName != nil {
		op.Args = []any{n.displayName()}
	}

	return n.ledger.RegisterAccount(ctx, ks, strategy, op)
}

func pathName(s State) string {
	if s == StateLoginPath {
		return "login"
	}
	return "register"
}
