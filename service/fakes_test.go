package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/layer-3/taskchain/core"
	"github.com/layer-3/taskchain/ports"
)

type fakeKeyStore struct {
	id string
}

func (k *fakeKeyStore) ID() string { return k.id }

func (k *fakeKeyStore) Sign(context.Context, []byte) ([]byte, error) {
	return []byte("sig"), nil
}

func bindFake(_ ports.IdentityProvider, account string) (ports.KeyStore, error) {
	return &fakeKeyStore{id: account}, nil
}

type fakeProvider struct {
	accounts []string
	err      error
	block    chan struct{} // RequestAccounts waits on it when set
}

func (p *fakeProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.accounts, p.err
}

func (p *fakeProvider) SignMessage(context.Context, string, []byte) ([]byte, error) {
	return []byte("sig"), nil
}

func detectFake(p *fakeProvider) ports.ProviderDetector {
	return func(context.Context) (ports.IdentityProvider, error) {
		return p, nil
	}
}

type fakeSession struct {
	mu        sync.Mutex
	account   core.Account
	expiresAt time.Time
	calls     []core.Operation
	closed    bool
	callFn    func(ctx context.Context, op core.Operation) (json.RawMessage, error)
}

func newFakeSession(accountID string) *fakeSession {
	return &fakeSession{account: core.Account{ID: accountID}, expiresAt: time.Now().Add(core.DefaultSessionTTL)}
}

func (s *fakeSession) Account() core.Account { return s.account }

func (s *fakeSession) ExpiresAt() time.Time { return s.expiresAt }

func (s *fakeSession) Call(ctx context.Context, op core.Operation) (json.RawMessage, error) {
	s.mu.Lock()
	s.calls = append(s.calls, op)
	fn := s.callFn
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx, op)
	}
	return json.RawMessage(`null`), nil
}

func (s *fakeSession) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSession) Calls() []core.Operation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Operation(nil), s.calls...)
}

// fakeLedger records every ledger interaction in order
type fakeLedger struct {
	mu sync.Mutex

	accounts     []core.Account
	accountsErr  error
	loginErr     error
	registerErrs []error // Returned by successive RegisterAccount calls, nil means success
	deleteErr    error
	newAccountID string

	log        []string
	strategies []core.RegistrationStrategy
	ops        []core.Operation
	logins     []core.SessionConfig
}

func (l *fakeLedger) record(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log = append(l.log, entry)
}

func (l *fakeLedger) Log() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.log...)
}

func (l *fakeLedger) count(prefix string) int {
	n := 0
	for _, entry := range l.Log() {
		if strings.HasPrefix(entry, prefix) {
			n++
		}
	}
	return n
}

func (l *fakeLedger) Interactor(ks ports.KeyStore) ports.KeyStoreInteractor {
	return &fakeInteractor{ledger: l, ks: ks}
}

func (l *fakeLedger) RegisterAccount(_ context.Context, ks ports.KeyStore, strategy core.RegistrationStrategy, op core.Operation) (ports.RemoteSession, error) {
	l.mu.Lock()
	attempt := len(l.strategies)
	l.strategies = append(l.strategies, strategy)
	l.ops = append(l.ops, op)
	var err error
	if attempt < len(l.registerErrs) {
		err = l.registerErrs[attempt]
	}
	l.mu.Unlock()

	l.record("register:" + ks.ID())
	if err != nil {
		return nil, err
	}
	id := l.newAccountID
	if id == "" {
		id = "new-account"
	}
	return newFakeSession(id), nil
}

type fakeInteractor struct {
	ledger *fakeLedger
	ks     ports.KeyStore
}

func (i *fakeInteractor) GetAccounts(context.Context) ([]core.Account, error) {
	i.ledger.record("lookup:" + i.ks.ID())
	if i.ledger.accountsErr != nil {
		return nil, i.ledger.accountsErr
	}
	return i.ledger.accounts, nil
}

func (i *fakeInteractor) Login(_ context.Context, accountID string, config core.SessionConfig) (ports.RemoteSession, error) {
	i.ledger.record("login:" + accountID)
	i.ledger.mu.Lock()
	i.ledger.logins = append(i.ledger.logins, config)
	i.ledger.mu.Unlock()
	if i.ledger.loginErr != nil {
		return nil, i.ledger.loginErr
	}
	return newFakeSession(accountID), nil
}

func (i *fakeInteractor) DeleteAuthDescriptor(_ context.Context, accountID string) error {
	i.ledger.record("delete:" + accountID)
	return i.ledger.deleteErr
}

type fakeEvents struct {
	mu     sync.Mutex
	events []string
}

func (e *fakeEvents) PublishSessionEstablished(_ context.Context, accountID string, path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, fmt.Sprintf("established:%s:%s", accountID, path))
	return nil
}

func (e *fakeEvents) PublishSessionCleared(_ context.Context, accountID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, "cleared:"+accountID)
	return nil
}

func (e *fakeEvents) Events() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.events...)
}

func collisionErr() error {
	return &core.LedgerError{
		Kind:    core.KindDescriptorLimit,
		Code:    "AUTH_DESCRIPTOR_LIMIT",
		Message: "Max <10> auth descriptor count reached",
		Status:  409,
	}
}
