// Package ledgerapi is the HTTP contract between the taskchain client and a ledger node.
package ledgerapi

import (
	"encoding/json"
	"time"
)

// Routes, relative to ChainPrefix(rid)
const (
	PathChallenge        = "/challenge"
	PathAccountsLookup   = "/account-lookup"
	PathLogin            = "/login"
	PathRegister         = "/register"
	PathDeleteDescriptor = "/accounts/:id/auth-descriptors/delete"
	PathCall             = "/call"
	PathLogout           = "/logout"
)

// Error codes carried in ErrorBody
const (
	CodeDescriptorLimit = "AUTH_DESCRIPTOR_LIMIT"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeSessionExpired  = "SESSION_EXPIRED"
	CodeNotFound        = "NOT_FOUND"
	CodeBadRequest      = "BAD_REQUEST"
	CodeRejected        = "REJECTED"
	CodeInternal        = "INTERNAL"
)

// ChainPrefix is the route prefix of one blockchain on a node
func ChainPrefix(blockchainRID string) string {
	return "/v1/chains/" + blockchainRID
}

// DeleteDescriptorPath is PathDeleteDescriptor with the account id filled in
func DeleteDescriptorPath(accountID string) string {
	return "/accounts/" + accountID + "/auth-descriptors/delete"
}

type ChallengeRequest struct {
	Signer string `json:"signer" binding:"required"`
}

type ChallengeResponse struct {
	Challenge string    `json:"challenge"`
	ExpiresAt time.Time `json:"expires_at"`
}

type LookupRequest struct {
	Signer string `json:"signer" binding:"required"`
}

type Account struct {
	ID string `json:"id"`
}

type LookupResponse struct {
	Accounts []Account `json:"accounts"`
}

// SignedRequest proves control of Signer by a personal_sign signature over Challenge
type SignedRequest struct {
	Signer    string `json:"signer" binding:"required"`
	Challenge string `json:"challenge" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

type SessionConfig struct {
	TTLMillis int64    `json:"ttl_ms"`
	Flags     []string `json:"flags"`
}

type LoginRequest struct {
	SignedRequest
	AccountID string        `json:"account_id" binding:"required"`
	Config    SessionConfig `json:"config"`
}

type AuthDescriptor struct {
	Signer      string   `json:"signer"`
	Permissions []string `json:"permissions"`
}

type Operation struct {
	Name string            `json:"name" binding:"required"`
	Args []json.RawMessage `json:"args"`
}

type RegisterRequest struct {
	SignedRequest
	Strategy       string         `json:"strategy" binding:"required"`
	AuthDescriptor AuthDescriptor `json:"auth_descriptor"`
	Config         SessionConfig  `json:"config"`
	Operation      *Operation     `json:"operation,omitempty"`
}

type SessionResponse struct {
	SessionToken string    `json:"session_token"`
	AccountID    string    `json:"account_id"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type CallResponse struct {
	Result json.RawMessage `json:"result"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// EncodeOperation marshals positional arguments into wire form
func EncodeOperation(name string, args []any) (Operation, error) {
	op := Operation{Name: name, Args: make([]json.RawMessage, 0, len(args))}
	for _, arg := range args {
		raw, err := json.Marshal(arg)
		if err != nil {
			return Operation{}, err
		}
		op.Args = append(op.Args, raw)
	}
	return op, nil
}
