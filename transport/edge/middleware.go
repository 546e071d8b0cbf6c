package edge

import (
	"github.com/gin-gonic/gin"
	"github.com/layer-3/taskchain/core"
	"github.com/layer-3/taskchain/service"
)

// SessionRequired rejects requests while no ledger session is held
func SessionRequired(sessions service.SessionReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := sessions.Get(); !ok {
			writeError(c, core.ErrNoSession)
			return
		}

		c.Next()
	}
}
