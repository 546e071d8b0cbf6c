package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLedgerError_Is(t *testing.T) {
	collision := &LedgerError{Kind: KindDescriptorLimit, Code: "AUTH_DESCRIPTOR_LIMIT", Message: "Max <10> auth descriptor count reached", Status: 409}
	wrapped := fmt.Errorf("registering: %w", collision)

	assert.ErrorIs(t, wrapped, ErrRegistrationCollision)
	assert.NotErrorIs(t, wrapped, ErrSessionExpired)
	assert.Equal(t, KindDescriptorLimit, KindOf(wrapped))
	assert.Equal(t, "ledger AUTH_DESCRIPTOR_LIMIT: Max <10> auth descriptor count reached", collision.Error())

	expired := &LedgerError{Kind: KindSessionExpired, Message: "session expired"}
	assert.ErrorIs(t, expired, ErrSessionExpired)
	assert.NotErrorIs(t, expired, ErrRegistrationCollision)
	assert.Equal(t, "ledger: session expired", expired.Error())

	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "descriptor_limit", KindDescriptorLimit.String())
	assert.Equal(t, "unavailable", KindUnavailable.String())
	assert.Equal(t, "unknown", ErrorKind(42).String())
}
