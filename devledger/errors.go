package devledger

import (
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/layer-3/taskchain/ledgerapi"
)

func ledgerError(message string, category goerrors.Category, status int, code string) error {
	return goerrors.New(message, category).
		WithCode(status).
		WithTextCode(code)
}

func errDescriptorLimit(max int) error {
	return ledgerError(fmt.Sprintf("Max <%d> auth descriptor count reached", max),
		goerrors.CategoryConflict, http.StatusConflict, ledgerapi.CodeDescriptorLimit)
}

func errUnauthorized(message string) error {
	return ledgerError(message, goerrors.CategoryAuth, http.StatusUnauthorized, ledgerapi.CodeUnauthorized)
}

func errForbidden(message string) error {
	return ledgerError(message, goerrors.CategoryAuthz, http.StatusForbidden, ledgerapi.CodeUnauthorized)
}

func errSessionExpired() error {
	return ledgerError("session expired", goerrors.CategoryAuth, http.StatusUnauthorized, ledgerapi.CodeSessionExpired)
}

func errNotFound(message string) error {
	return ledgerError(message, goerrors.CategoryNotFound, http.StatusNotFound, ledgerapi.CodeNotFound)
}

func errBadRequest(message string) error {
	return ledgerError(message, goerrors.CategoryBadInput, http.StatusBadRequest, ledgerapi.CodeBadRequest)
}

func errRejected(message string) error {
	return ledgerError(message, goerrors.CategoryOperation, http.StatusUnprocessableEntity, ledgerapi.CodeRejected)
}

func errInternal(err error, message string) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, message).
		WithCode(http.StatusInternalServerError).
		WithTextCode(ledgerapi.CodeInternal)
}
