package http

import (
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/taskchain/devledger"
	"github.com/layer-3/taskchain/ledgerapi"
	"github.com/layer-3/taskchain/log"
)

// SetupRouter sets up the Gin router of a ledger node serving one chain
func SetupRouter(ledger *devledger.Ledger, blockchainRID string, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.Default()
	router.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(log.IntoContext(c.Request.Context(), logger))
		c.Next()
	})

	// Create handlers
	handlers := NewLedgerHandlers(ledger)

	chain := router.Group(ledgerapi.ChainPrefix(strings.ToUpper(blockchainRID)))
	{
		chain.POST(ledgerapi.PathChallenge, handlers.Challenge)
		chain.POST(ledgerapi.PathAccountsLookup, handlers.Lookup)
		chain.POST(ledgerapi.PathLogin, handlers.Login)
		chain.POST(ledgerapi.PathRegister, handlers.Register)
		chain.POST(ledgerapi.PathDeleteDescriptor, handlers.DeleteAuthDescriptor)
	}

	// Session routes
	authed := chain.Group("")
	authed.Use(SessionMiddleware(ledger))
	{
		authed.POST(ledgerapi.PathCall, handlers.Call)
		authed.POST(ledgerapi.PathLogout, handlers.Logout)
		authed.GET("/me", handlers.Me)
	}

	return router
}
