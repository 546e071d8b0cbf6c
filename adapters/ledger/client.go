package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/layer-3/taskchain/core"
	"github.com/layer-3/taskchain/ledgerapi"
	"github.com/layer-3/taskchain/ports"
)

const (
	defaultRequestTimeout = 30 * time.Second
	maxResponseBytes      = 4 << 20
)

// HTTPDoer is the part of *http.Client the ledger client needs
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config describes how to reach a ledger chain
type Config struct {
	NodeURLPool   []string // Node base URLs, tried in order on transport failure
	BlockchainRID string
	HTTPClient    HTTPDoer
	Logger        *slog.Logger
}

// Client talks to a ledger chain over HTTP
type Client struct {
	nodes      []string
	prefix     string
	httpClient HTTPDoer
	logger     *slog.Logger
}

var _ ports.Ledger = (*Client)(nil)

// NewClient creates a ledger client for one chain
func NewClient(cfg Config) (*Client, error) {
	var nodes []string
	for _, node := range cfg.NodeURLPool {
		node = strings.TrimRight(strings.TrimSpace(node), "/")
		if node != "" {
			nodes = append(nodes, node)
		}
	}
	if len(nodes) == 0 {
		return nil, errors.New("ledger: node url pool is empty")
	}
	if strings.TrimSpace(cfg.BlockchainRID) == "" {
		return nil, errors.New("ledger: blockchain rid is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		nodes:      nodes,
		prefix:     ledgerapi.ChainPrefix(strings.ToUpper(cfg.BlockchainRID)),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Interactor binds key store operations to ks
func (c *Client) Interactor(ks ports.KeyStore) ports.KeyStoreInteractor {
	return &interactor{client: c, ks: ks}
}

// RegisterAccount opens a new account for ks under strategy and runs op with it
func (c *Client) RegisterAccount(ctx context.Context, ks ports.KeyStore, strategy core.RegistrationStrategy, op core.Operation) (ports.RemoteSession, error) {
	signed, err := c.sign(ctx, ks)
	if err != nil {
		return nil, err
	}

	req := ledgerapi.RegisterRequest{
		SignedRequest: signed,
		Strategy:      strategy.Kind,
		AuthDescriptor: ledgerapi.AuthDescriptor{
			Signer:      strategy.Descriptor.Signer,
			Permissions: strategy.Descriptor.Permissions,
		},
		Config: wireConfig(strategy.Config),
	}
	if op.Name != "" {
		wireOp, err := ledgerapi.EncodeOperation(op.Name, op.Args)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s arguments: %w", op.Name, err)
		}
		req.Operation = &wireOp
	}

	var resp ledgerapi.SessionResponse
	if err := c.do(ctx, http.MethodPost, ledgerapi.PathRegister, "", req, &resp); err != nil {
		return nil, err
	}

	return c.newSession(resp), nil
}

// sign fetches a fresh challenge and has ks sign it
func (c *Client) sign(ctx context.Context, ks ports.KeyStore) (ledgerapi.SignedRequest, error) {
	var challenge ledgerapi.ChallengeResponse
	if err := c.do(ctx, http.MethodPost, ledgerapi.PathChallenge, "", ledgerapi.ChallengeRequest{Signer: ks.ID()}, &challenge); err != nil {
		return ledgerapi.SignedRequest{}, err
	}

	sig, err := ks.Sign(ctx, []byte(challenge.Challenge))
	if err != nil {
		return ledgerapi.SignedRequest{}, fmt.Errorf("failed to sign challenge: %w", err)
	}

	return ledgerapi.SignedRequest{
		Signer:    ks.ID(),
		Challenge: challenge.Challenge,
		Signature: hexutil.Encode(sig),
	}, nil
}

// do sends one JSON request, moving to the next node only when a node is unreachable
func (c *Client) do(ctx context.Context, method, path, token string, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	var lastErr error
	for _, node := range c.nodes {
		resp, err := c.send(ctx, method, node+c.prefix+path, token, payload)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("ledger node unreachable", "node", node, "path", path, "error", err)
			lastErr = err
			continue
		}
		return decodeResponse(resp, out)
	}

	return &core.LedgerError{
		Kind:    core.KindUnavailable,
		Message: fmt.Sprintf("no ledger node reachable: %v", lastErr),
	}
}

func (c *Client) send(ctx context.Context, method, url, token string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.httpClient.Do(req)
}

func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &core.LedgerError{Kind: core.KindUnavailable, Message: err.Error(), Status: resp.StatusCode}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode ledger response: %w", err)
	}
	return nil
}

func wireConfig(config core.SessionConfig) ledgerapi.SessionConfig {
	return ledgerapi.SessionConfig{
		TTLMillis: config.TTL.Milliseconds(),
		Flags:     config.Flags,
	}
}
