package edge

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	goerrors "github.com/goliatone/go-errors"
	"github.com/layer-3/taskchain/core"
	"github.com/layer-3/taskchain/log"
)

// Text codes of the edge error envelope
const (
	CodeNoSession           = "NO_SESSION"
	CodeProviderNotDetected = "PROVIDER_NOT_DETECTED"
	CodeUserDenied          = "USER_DENIED"
	CodeLoginRejected       = "LOGIN_REJECTED"
	CodeRegistrationFailed  = "REGISTRATION_FAILED"
	CodeRetryExhausted      = "REGISTRATION_EXHAUSTED"
	CodeAuthInProgress      = "AUTH_IN_PROGRESS"
	CodeSessionExpired      = "SESSION_EXPIRED"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeRemoteCall          = "REMOTE_CALL_FAILED"
	CodeInternal            = "INTERNAL"
)

// noSessionMessage is what a user sees when a task action needs a login
const noSessionMessage = "Please log in first"

var errorMapping = []struct {
	target   error
	category goerrors.Category
	status   int
	code     string
	message  string
}{
	{core.ErrNoSession, goerrors.CategoryAuth, http.StatusUnauthorized, CodeNoSession, noSessionMessage},
	{core.ErrNotDetected, goerrors.CategoryExternal, http.StatusServiceUnavailable, CodeProviderNotDetected, ""},
	{core.ErrUserDenied, goerrors.CategoryAuthz, http.StatusForbidden, CodeUserDenied, ""},
	{core.ErrLoginRejected, goerrors.CategoryAuth, http.StatusUnauthorized, CodeLoginRejected, ""},
	{core.ErrRegistrationExhausted, goerrors.CategoryConflict, http.StatusConflict, CodeRetryExhausted, ""},
	{core.ErrRegistrationFailed, goerrors.CategoryOperation, http.StatusUnprocessableEntity, CodeRegistrationFailed, ""},
	{core.ErrNegotiationInFlight, goerrors.CategoryConflict, http.StatusConflict, CodeAuthInProgress, ""},
	{core.ErrSessionExpired, goerrors.CategoryAuth, http.StatusUnauthorized, CodeSessionExpired, ""},
	{core.ErrInvalidInput, goerrors.CategoryBadInput, http.StatusBadRequest, CodeInvalidInput, ""},
	{core.ErrRemoteCall, goerrors.CategoryExternal, http.StatusBadGateway, CodeRemoteCall, ""},
}

// toEdgeError wraps err in the go-errors envelope of the first matching sentinel.
// Order matters: an expired session is also a failed remote call.
func toEdgeError(err error) *goerrors.Error {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich
	}

	for _, m := range errorMapping {
		if errors.Is(err, m.target) {
			message := m.message
			if message == "" {
				message = err.Error()
			}
			return goerrors.Wrap(err, m.category, message).
				WithCode(m.status).
				WithTextCode(m.code)
		}
	}

	return goerrors.Wrap(err, goerrors.CategoryInternal, "internal error").
		WithCode(http.StatusInternalServerError).
		WithTextCode(CodeInternal)
}

type errorDetail struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

func writeError(c *gin.Context, err error) {
	rich := toEdgeError(err)
	if rich.Code >= http.StatusInternalServerError {
		log.FromContext(c.Request.Context(), nil).Error("request failed", "path", c.FullPath(), "error", err)
	}

	c.AbortWithStatusJSON(rich.Code, errorBody{Error: errorDetail{
		Code:     rich.TextCode,
		Message:  rich.Message,
		Category: fmt.Sprint(rich.Category),
	}})
}
