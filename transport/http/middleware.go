package http

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/taskchain/devledger"
)

const sessionKey = "ledgerSession"

// SessionMiddleware creates middleware that validates session bearer tokens
func SessionMiddleware(ledger *devledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			abortUnauthorized(c, "Invalid authorization header")
			return
		}

		session, err := ledger.Authenticate(c.Request.Context(), token)
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}

		c.Set(sessionKey, session)

		c.Next()
	}
}
