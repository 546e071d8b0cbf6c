package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/taskchain/core"
	"github.com/layer-3/taskchain/devledger"
	"github.com/layer-3/taskchain/ledgerapi"
)

// LedgerHandlers contains HTTP handlers for the ledger node endpoints
type LedgerHandlers struct {
	ledger *devledger.Ledger
}

// NewLedgerHandlers creates new ledger handlers
func NewLedgerHandlers(ledger *devledger.Ledger) *LedgerHandlers {
	return &LedgerHandlers{
		ledger: ledger,
	}
}

// Challenge handles the challenge request
func (h *LedgerHandlers) Challenge(c *gin.Context) {
	var req ledgerapi.ChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}

	resp, err := h.ledger.Challenge(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Lookup lists the accounts of a signer
func (h *LedgerHandlers) Lookup(c *gin.Context) {
	var req ledgerapi.LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}

	resp, err := h.ledger.Lookup(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Login handles the login request
func (h *LedgerHandlers) Login(c *gin.Context) {
	var req ledgerapi.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}

	resp, err := h.ledger.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Register handles account registration
func (h *LedgerHandlers) Register(c *gin.Context) {
	var req ledgerapi.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}

	resp, err := h.ledger.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeleteAuthDescriptor removes the signer's descriptor from the account in the path
func (h *LedgerHandlers) DeleteAuthDescriptor(c *gin.Context) {
	var req ledgerapi.SignedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c)
		return
	}

	if err := h.ledger.DeleteAuthDescriptor(c.Request.Context(), c.Param("id"), req); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Call runs a procedure with the session set by the session middleware
func (h *LedgerHandlers) Call(c *gin.Context) {
	var op ledgerapi.Operation
	if err := c.ShouldBindJSON(&op); err != nil {
		invalidRequest(c)
		return
	}

	result, err := h.ledger.Call(c.Request.Context(), sessionFrom(c), op)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ledgerapi.CallResponse{Result: result})
}

// Logout revokes the session of the request
func (h *LedgerHandlers) Logout(c *gin.Context) {
	if err := h.ledger.Logout(c.Request.Context(), sessionFrom(c)); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Me returns the account behind the session
func (h *LedgerHandlers) Me(c *gin.Context) {
	session := sessionFrom(c)
	name, _ := h.ledger.DisplayName(session.AccountID)

	c.JSON(http.StatusOK, gin.H{
		"account_id":   session.AccountID,
		"signer":       session.Signer,
		"display_name": name,
		"expires_at":   session.ExpiresAt,
	})
}

func sessionFrom(c *gin.Context) *core.LedgerSession {
	return c.MustGet(sessionKey).(*core.LedgerSession)
}
