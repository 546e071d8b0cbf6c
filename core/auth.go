package core

import "time"

const (
	// DefaultSessionTTL is how long a ledger session stays valid unless configured otherwise
	DefaultSessionTTL = 2 * time.Hour

	// DefaultSessionFlag is the capability flag attached to every session
	DefaultSessionFlag = "MySession"

	// MaxAuthDescriptors is the observed ceiling of auth descriptors per signer
	MaxAuthDescriptors = 10

	// RegisterProcedure is the ledger procedure run alongside account registration
	RegisterProcedure = "register_user"
)

// DefaultPermissions are the flags granted to a freshly registered auth descriptor
var DefaultPermissions = []string{"A", "T"}

// Account is a remote account on the ledger bound to one or more key stores
type Account struct {
	ID string `json:"id"`
}

// AuthDescriptor binds a key store to authorization rules on the ledger
type AuthDescriptor struct {
	Signer      string   `json:"signer"`      // Checksummed address of the key store
	Permissions []string `json:"permissions"` // Flags granted to the signer
}

// NewAuthDescriptor creates a single-signature descriptor for the given signer
func NewAuthDescriptor(signer string) AuthDescriptor {
	permissions := make([]string, len(DefaultPermissions))
	copy(permissions, DefaultPermissions)

	return AuthDescriptor{
		Signer:      signer,
		Permissions: permissions,
	}
}

// SessionConfig controls the lifetime and capabilities of a ledger session
type SessionConfig struct {
	TTL   time.Duration
	Flags []string
}

// DefaultSessionConfig returns the two hour session with the default flag set
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		TTL:   DefaultSessionTTL,
		Flags: []string{DefaultSessionFlag},
	}
}

// RegistrationStrategy describes how a new account is admitted by the ledger
type RegistrationStrategy struct {
	Kind       string // Only "open" is supported
	Descriptor AuthDescriptor
	Config     SessionConfig
}

// OpenRegistration builds the open registration strategy for a descriptor
func OpenRegistration(descriptor AuthDescriptor, config SessionConfig) RegistrationStrategy {
	return RegistrationStrategy{
		Kind:       "open",
		Descriptor: descriptor,
		Config:     config,
	}
}

// Operation is a named ledger procedure with positional arguments
type Operation struct {
	Name string `json:"name"`
	Args []any  `json:"args"`
}
