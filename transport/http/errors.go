package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	goerrors "github.com/goliatone/go-errors"
	"github.com/layer-3/taskchain/ledgerapi"
	"github.com/layer-3/taskchain/log"
)

// writeError renders a ledger error in the wire error envelope
func writeError(c *gin.Context, err error) {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Code != 0 {
		c.JSON(rich.Code, ledgerapi.ErrorBody{Error: ledgerapi.ErrorDetail{
			Code:    rich.TextCode,
			Message: rich.Message,
		}})
		return
	}

	log.FromContext(c.Request.Context(), nil).Error("unhandled ledger error", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, ledgerapi.ErrorBody{Error: ledgerapi.ErrorDetail{
		Code:    ledgerapi.CodeInternal,
		Message: "internal error",
	}})
}

func invalidRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, ledgerapi.ErrorBody{Error: ledgerapi.ErrorDetail{
		Code:    ledgerapi.CodeBadRequest,
		Message: "Invalid request",
	}})
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ledgerapi.ErrorBody{Error: ledgerapi.ErrorDetail{
		Code:    ledgerapi.CodeUnauthorized,
		Message: message,
	}})
}
