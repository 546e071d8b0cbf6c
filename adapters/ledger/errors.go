package ledger

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/layer-3/taskchain/core"
	"github.com/layer-3/taskchain/ledgerapi"
)

// descriptorLimitText is how older ledger nodes word the descriptor ceiling when they send no code
const descriptorLimitText = "auth descriptor count reached"

// decodeError turns an error response into a tagged LedgerError.
// Prose is only inspected here so callers never have to.
func decodeError(status int, raw []byte) error {
	var body ledgerapi.ErrorBody
	if err := json.Unmarshal(raw, &body); err != nil || body.Error.Message == "" {
		body.Error.Message = strings.TrimSpace(string(raw))
		if body.Error.Message == "" {
			body.Error.Message = http.StatusText(status)
		}
	}

	return &core.LedgerError{
		Kind:    classify(status, body.Error.Code, body.Error.Message),
		Code:    body.Error.Code,
		Message: body.Error.Message,
		Status:  status,
	}
}

func classify(status int, code, message string) core.ErrorKind {
	switch code {
	case ledgerapi.CodeDescriptorLimit:
		return core.KindDescriptorLimit
	case ledgerapi.CodeSessionExpired:
		return core.KindSessionExpired
	case ledgerapi.CodeUnauthorized:
		return core.KindUnauthorized
	case ledgerapi.CodeNotFound:
		return core.KindNotFound
	case ledgerapi.CodeRejected, ledgerapi.CodeBadRequest:
		return core.KindRejected
	}

	if strings.Contains(strings.ToLower(message), descriptorLimitText) {
		return core.KindDescriptorLimit
	}

	switch {
	case status == http.StatusUnauthorized:
		return core.KindUnauthorized
	case status == http.StatusNotFound:
		return core.KindNotFound
	case status >= http.StatusInternalServerError:
		return core.KindUnavailable
	default:
		return core.KindRejected
	}
}
