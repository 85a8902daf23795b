package models

import "context"

// InvoiceIssuer turns an address record and an amount into a bolt11 payment
// request by calling the record's backend.
type InvoiceIssuer interface {
	Issue(ctx context.Context, rec *AddressRecord, amountMsat uint64, memo string) (string, error)
}

// RelayCredentials are the hosted-wallet credentials created when a keysend
// record is provisioned.
type RelayCredentials struct {
	UserID   string
	AdminKey string
	WalletID string
}

// Relay manages the hosted wallet's routing rules for keysend records.
type Relay interface {
	// Provision creates a sub-account on the hosted wallet, enables the
	// routing extension and binds pubKey with a routing rule.
	Provision(ctx context.Context, name, domain, pubKey string) (RelayCredentials, error)
	// UpdateRule rewrites the existing routing rule of the account owning
	// adminKey. Nil fields keep their current value.
	UpdateRule(ctx context.Context, adminKey string, pubKey, description *string) error
}

// Notifier pushes operator-facing events. Implementations must be safe to
// call with a nil receiver-equivalent disabled state.
type Notifier interface {
	RegistrationChanged(name, domain string, backend BackendKind, created bool)
}
