package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/taskchain/core"
	"github.com/layer-3/taskchain/ledgerapi"
)

// session is a ledger session authorized by a bearer token
type session struct {
	client    *Client
	account   core.Account
	token     string
	expiresAt time.Time
}

func (c *Client) newSession(resp ledgerapi.SessionResponse) *session {
	expiresAt := resp.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = tokenExpiry(resp.SessionToken)
	}

	return &session{
		client:    c,
		account:   core.Account{ID: resp.AccountID},
		token:     resp.SessionToken,
		expiresAt: expiresAt,
	}
}

// tokenExpiry reads the exp claim without verifying, the ledger checks the signature
func tokenExpiry(token string) time.Time {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

func (s *session) Account() core.Account {
	return s.account
}

func (s *session) ExpiresAt() time.Time {
	return s.expiresAt
}

// Call runs a named procedure and returns its raw result
func (s *session) Call(ctx context.Context, op core.Operation) (json.RawMessage, error) {
	args := op.Args
	if args == nil {
		args = []any{}
	}

	var resp ledgerapi.CallResponse
	if err := s.client.do(ctx, http.MethodPost, ledgerapi.PathCall, s.token, core.Operation{Name: op.Name, Args: args}, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op.Name, err)
	}
	return resp.Result, nil
}

// Close revokes the session token on the ledger
func (s *session) Close(ctx context.Context) error {
	return s.client.do(ctx, http.MethodPost, ledgerapi.PathLogout, s.token, nil, nil)
}
