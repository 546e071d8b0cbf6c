// Package devledger is an in-memory ledger node for local development and tests.
// It keeps accounts, auth descriptors and tasks in process memory and issues
// ES256 session tokens through a ports.Tokenizer.
package devledger

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/taskchain/core"
	"github.com/layer-3/taskchain/internal/eth"
	"github.com/layer-3/taskchain/ledgerapi"
	"github.com/layer-3/taskchain/ports"
)

const (
	DefaultChallengeTTL  = 5 * time.Minute
	DefaultMaxSessionTTL = 24 * time.Hour
)

// Options configures a Ledger
type Options struct {
	Tokenizer          ports.Tokenizer
	Store              ports.Store
	ChallengeTTL       time.Duration
	MaxSessionTTL      time.Duration
	MaxAuthDescriptors int
	Logger             *slog.Logger
}

type account struct {
	id          string
	displayName string
	descriptors []core.AuthDescriptor
	createdAt   time.Time
}

func (a *account) descriptorIndex(signer string) int {
	for i, d := range a.descriptors {
		if d.Signer == signer {
			return i
		}
	}
	return -1
}

// Ledger is the state of one development chain
type Ledger struct {
	tokenizer      ports.Tokenizer
	store          ports.Store
	challengeTTL   time.Duration
	maxSessionTTL  time.Duration
	maxDescriptors int
	logger         *slog.Logger
	now            func() time.Time

	mu        sync.Mutex
	accounts  map[string]*account
	order     []string             // Account ids in creation order
	consumed  map[string]time.Time // Used challenge ids until their expiry
	tasks     map[string][]*core.Task
	taskOwner map[string]string
}

// New creates an empty ledger
func New(opts Options) *Ledger {
	l := &Ledger{
		tokenizer:      opts.Tokenizer,
		store:          opts.Store,
		challengeTTL:   opts.ChallengeTTL,
		maxSessionTTL:  opts.MaxSessionTTL,
		maxDescriptors: opts.MaxAuthDescriptors,
		logger:         opts.Logger,
		now:            time.Now,
		accounts:       make(map[string]*account),
		consumed:       make(map[string]time.Time),
		tasks:          make(map[string][]*core.Task),
		taskOwner:      make(map[string]string),
	}
	if l.challengeTTL <= 0 {
		l.challengeTTL = DefaultChallengeTTL
	}
	if l.maxSessionTTL <= 0 {
		l.maxSessionTTL = DefaultMaxSessionTTL
	}
	if l.maxDescriptors <= 0 {
		l.maxDescriptors = core.MaxAuthDescriptors
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Challenge issues a one-time challenge for signer
func (l *Ledger) Challenge(_ context.Context, req ledgerapi.ChallengeRequest) (ledgerapi.ChallengeResponse, error) {
	signer, err := eth.NormalizeAddress(req.Signer)
	if err != nil {
		return ledgerapi.ChallengeResponse{}, errBadRequest(err.Error())
	}

	now := l.now()
	challenge := &core.Challenge{
		ID:        uuid.NewString(),
		Signer:    signer,
		Nonce:     uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(l.challengeTTL),
	}

	token, err := l.tokenizer.ChallengeToToken(challenge)
	if err != nil {
		return ledgerapi.ChallengeResponse{}, errInternal(err, "failed to issue challenge")
	}

	return ledgerapi.ChallengeResponse{Challenge: token, ExpiresAt: challenge.ExpiresAt}, nil
}

// Lookup lists the accounts holding an auth descriptor of signer, oldest first
func (l *Ledger) Lookup(_ context.Context, req ledgerapi.LookupRequest) (ledgerapi.LookupResponse, error) {
	signer, err := eth.NormalizeAddress(req.Signer)
	if err != nil {
		return ledgerapi.LookupResponse{}, errBadRequest(err.Error())
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	resp := ledgerapi.LookupResponse{Accounts: []ledgerapi.Account{}}
	for _, id := range l.order {
		if l.accounts[id].descriptorIndex(signer) >= 0 {
			resp.Accounts = append(resp.Accounts, ledgerapi.Account{ID: id})
		}
	}
	return resp, nil
}

// Login opens a session on an account the signer holds a descriptor on
func (l *Ledger) Login(_ context.Context, req ledgerapi.LoginRequest) (ledgerapi.SessionResponse, error) {
	signer, err := l.verify(req.SignedRequest)
	if err != nil {
		return ledgerapi.SessionResponse{}, err
	}

	l.mu.Lock()
	acc, ok := l.accounts[req.AccountID]
	bound := ok && acc.descriptorIndex(signer) >= 0
	l.mu.Unlock()

	if !ok {
		return ledgerapi.SessionResponse{}, errNotFound("account not found")
	}
	if !bound {
		return ledgerapi.SessionResponse{}, errUnauthorized("signer has no auth descriptor on account")
	}

	l.logger.Info("login", "account", acc.id, "signer", signer)
	return l.issueSession(acc.id, signer, req.Config)
}

// Register opens a new account under the open strategy and runs its operation
func (l *Ledger) Register(_ context.Context, req ledgerapi.RegisterRequest) (ledgerapi.SessionResponse, error) {
	signer, err := l.verify(req.SignedRequest)
	if err != nil {
		return ledgerapi.SessionResponse{}, err
	}
	if req.Strategy != "open" {
		return ledgerapi.SessionResponse{}, errBadRequest("unsupported registration strategy " + req.Strategy)
	}

	descriptorSigner, err := eth.NormalizeAddress(req.AuthDescriptor.Signer)
	if err != nil {
		return ledgerapi.SessionResponse{}, errBadRequest(err.Error())
	}
	if descriptorSigner != signer {
		return ledgerapi.SessionResponse{}, errUnauthorized("auth descriptor signer does not match request signer")
	}
	descriptor := core.NewAuthDescriptor(signer)
	if len(req.AuthDescriptor.Permissions) > 0 {
		descriptor.Permissions = append([]string(nil), req.AuthDescriptor.Permissions...)
	}

	displayName, err := registerArgs(req.Operation)
	if err != nil {
		return ledgerapi.SessionResponse{}, err
	}

	l.mu.Lock()
	if n := l.descriptorCount(signer); n >= l.maxDescriptors {
		l.mu.Unlock()
		l.logger.Warn("registration rejected, descriptor limit", "signer", signer, "count", n)
		return ledgerapi.SessionResponse{}, errDescriptorLimit(l.maxDescriptors)
	}
	acc := &account{
		id:          newAccountID(),
		displayName: displayName,
		descriptors: []core.AuthDescriptor{descriptor},
		createdAt:   l.now(),
	}
	l.accounts[acc.id] = acc
	l.order = append(l.order, acc.id)
	l.mu.Unlock()

	l.logger.Info("account registered", "account", acc.id, "signer", signer, "display_name", displayName)
	return l.issueSession(acc.id, signer, req.Config)
}

// DeleteAuthDescriptor removes the signer's descriptor from an account.
// The account and its tasks stay.
func (l *Ledger) DeleteAuthDescriptor(_ context.Context, accountID string, req ledgerapi.SignedRequest) error {
	signer, err := l.verify(req)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[accountID]
	if !ok {
		return errNotFound("account not found")
	}
	i := acc.descriptorIndex(signer)
	if i < 0 {
		return errNotFound("signer has no auth descriptor on account")
	}
	acc.descriptors = append(acc.descriptors[:i], acc.descriptors[i+1:]...)

	l.logger.Info("auth descriptor deleted", "account", accountID, "signer", signer)
	return nil
}

// Authenticate resolves a bearer token to a live session
func (l *Ledger) Authenticate(ctx context.Context, token string) (*core.LedgerSession, error) {
	session, err := l.tokenizer.TokenToSession(token)
	if err != nil {
		if errors.Is(err, core.ErrTokenExpired) {
			return nil, errSessionExpired()
		}
		return nil, errUnauthorized("invalid session token")
	}

	revoked, err := l.store.IsTokenInvalidated(ctx, session.ID)
	if err != nil {
		return nil, errInternal(err, "failed to check session")
	}
	if revoked {
		return nil, errUnauthorized("session has been revoked")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[session.AccountID]
	if !ok || acc.descriptorIndex(session.Signer) < 0 {
		return nil, errUnauthorized("auth descriptor of session was removed")
	}
	return session, nil
}

// Logout revokes a session until it would have expired anyway
func (l *Ledger) Logout(ctx context.Context, session *core.LedgerSession) error {
	remaining := session.ExpiresAt.Sub(l.now())
	if remaining <= 0 {
		return nil
	}
	if err := l.store.InvalidateToken(ctx, session.ID, remaining); err != nil {
		return errInternal(err, "failed to revoke session")
	}

	l.logger.Info("session revoked", "account", session.AccountID, "session", session.ID)
	return nil
}

// Call runs a task procedure on behalf of the session's account
func (l *Ledger) Call(_ context.Context, session *core.LedgerSession, op ledgerapi.Operation) (json.RawMessage, error) {
	proc, ok := procedures[op.Name]
	if !ok {
		return nil, errNotFound("unknown procedure " + op.Name)
	}

	l.mu.Lock()
	result, err := proc(l, session.AccountID, op.Args)
	l.mu.Unlock()
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, errInternal(err, "failed to encode result")
	}
	return raw, nil
}

// DisplayName returns the name an account registered with
func (l *Ledger) DisplayName(accountID string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[accountID]
	if !ok {
		return "", false
	}
	return acc.displayName, true
}

// verify checks the signature of a signed request and consumes its challenge
func (l *Ledger) verify(req ledgerapi.SignedRequest) (string, error) {
	signer, err := eth.NormalizeAddress(req.Signer)
	if err != nil {
		return "", errBadRequest(err.Error())
	}

	if err := l.tokenizer.VerifySignature(req.Challenge, req.Signature, signer); err != nil {
		if errors.Is(err, core.ErrTokenExpired) {
			return "", errUnauthorized("challenge expired")
		}
		return "", errUnauthorized("challenge verification failed")
	}

	challenge, err := l.tokenizer.TokenToChallenge(req.Challenge)
	if err != nil {
		return "", errUnauthorized("challenge verification failed")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for id, until := range l.consumed {
		if !now.Before(until) {
			delete(l.consumed, id)
		}
	}
	if _, used := l.consumed[challenge.ID]; used {
		return "", errUnauthorized("challenge already used")
	}
	l.consumed[challenge.ID] = challenge.ExpiresAt

	return signer, nil
}

func (l *Ledger) issueSession(accountID, signer string, config ledgerapi.SessionConfig) (ledgerapi.SessionResponse, error) {
	ttl := time.Duration(config.TTLMillis) * time.Millisecond
	if ttl <= 0 {
		ttl = core.DefaultSessionTTL
	}
	if ttl > l.maxSessionTTL {
		ttl = l.maxSessionTTL
	}

	now := l.now()
	session := &core.LedgerSession{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Signer:    signer,
		Flags:     config.Flags,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	token, err := l.tokenizer.SessionToToken(session)
	if err != nil {
		return ledgerapi.SessionResponse{}, errInternal(err, "failed to issue session")
	}

	return ledgerapi.SessionResponse{
		SessionToken: token,
		AccountID:    accountID,
		ExpiresAt:    session.ExpiresAt,
	}, nil
}

// descriptorCount counts the descriptors of signer across all accounts, mu held
func (l *Ledger) descriptorCount(signer string) int {
	n := 0
	for _, acc := range l.accounts {
		for _, d := range acc.descriptors {
			if d.Signer == signer {
				n++
			}
		}
	}
	return n
}

// registerArgs validates the operation sent with a registration
func registerArgs(op *ledgerapi.Operation) (string, error) {
	if op == nil {
		return "", nil
	}
	if op.Name != core.RegisterProcedure {
		return "", errBadRequest("registration only runs " + core.RegisterProcedure)
	}
	if len(op.Args) == 0 {
		return "", nil
	}

	var name string
	if err := json.Unmarshal(op.Args[0], &name); err != nil {
		return "", errBadRequest("display name must be a string")
	}
	return strings.TrimSpace(name), nil
}

func newAccountID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
