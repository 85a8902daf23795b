package models

import (
	"fmt"
	"time"
)

// Default sendable bounds in millisatoshi, applied when a record does not
// carry explicit ones.
const (
	DefaultMinSendable uint64 = 1_000
	DefaultMaxSendable uint64 = 1_000_000_000
)

// KeysendMinSendable is the floor forced on relayed keysend records. Amounts
// below ~3k msat tend to fail routing because of fees.
const KeysendMinSendable uint64 = 3_000

// BackendKind identifies one variant of the invoice backend union.
type BackendKind string

const (
	BackendLnd     BackendKind = "Lnd"
	BackendLNBits  BackendKind = "LNBits"
	BackendKeysend BackendKind = "Keysend"
)

// BackendKinds lists every supported backend variant.
func BackendKinds() []BackendKind {
	return []BackendKind{BackendLnd, BackendLNBits, BackendKeysend}
}

// LndParams holds credentials for a node-direct LND REST backend.
type LndParams struct {
	Host     string `json:"host"`
	Macaroon string `json:"macaroon"`
}

// LNBitsParams holds credentials for a hosted LNBits wallet backend.
type LNBitsParams struct {
	Host string `json:"host"`
	Key  string `json:"key"`
}

// KeysendParams holds the relayed keysend configuration. UserID, AdminKey and
// WalletID are filled in by provisioning against the hosted wallet; only
// PubKey is supplied by the registrant.
type KeysendParams struct {
	UserID   string `json:"userId,omitempty"`
	AdminKey string `json:"adminKey,omitempty"`
	WalletID string `json:"walletId,omitempty"`
	PubKey   string `json:"pubKey"`
}

// InvoiceAPI is the tagged union of backend configurations. Exactly one of
// the variant pointers matching Kind is populated.
type InvoiceAPI struct {
	Kind    BackendKind    `json:"kind"`
	Lnd     *LndParams     `json:"lnd,omitempty"`
	LNBits  *LNBitsParams  `json:"lnbits,omitempty"`
	Keysend *KeysendParams `json:"keysend,omitempty"`
}

// Validate checks that the union is fully populated for its kind and carries
// no stray variant data.
func (a *InvoiceAPI) Validate() error {
	switch a.Kind {
	case BackendLnd:
		if a.Lnd == nil || a.LNBits != nil || a.Keysend != nil {
			return fmt.Errorf("backend data not matching selection %q", a.Kind)
		}
		if a.Lnd.Host == "" || a.Lnd.Macaroon == "" {
			return fmt.Errorf("lnd backend requires host and macaroon")
		}
	case BackendLNBits:
		if a.LNBits == nil || a.Lnd != nil || a.Keysend != nil {
			return fmt.Errorf("backend data not matching selection %q", a.Kind)
		}
		if a.LNBits.Host == "" || a.LNBits.Key == "" {
			return fmt.Errorf("lnbits backend requires host and key")
		}
	case BackendKeysend:
		if a.Keysend == nil || a.Lnd != nil || a.LNBits != nil {
			return fmt.Errorf("backend data not matching selection %q", a.Kind)
		}
		if a.Keysend.PubKey == "" {
			return fmt.Errorf("keysend backend requires a public key")
		}
	default:
		return fmt.Errorf("backend %q not supported", a.Kind)
	}
	return nil
}

// Counter is a monotonically increasing counter with the timestamp of its
// last increment.
type Counter struct {
	Num        uint64    `json:"num"`
	LastUpdate time.Time `json:"lastUpdate"`
}

// Inc bumps the counter and stamps the update time.
func (c *Counter) Inc() {
	c.Num++
	c.LastUpdate = time.Now()
}

// Stats groups the per-record usage counters.
type Stats struct {
	Invoices Counter `json:"invoices"`
	Calls    Counter `json:"calls"`
	Edits    Counter `json:"edits"`
}

// Total sums all counters. Used to order stats reports.
func (s Stats) Total() uint64 {
	return s.Invoices.Num + s.Calls.Num + s.Edits.Num
}

// AddressRecord is one registered lightning address. Serialized as a single
// opaque value under the key name@domain.
type AddressRecord struct {
	Name   string     `json:"name"`
	Domain string     `json:"domain"`
	API    InvoiceAPI `json:"invoiceApi"`

	MinSendable *uint64 `json:"minSendable,omitempty"`
	MaxSendable *uint64 `json:"maxSendable,omitempty"`

	PIN   string `json:"pin"`
	Stats Stats  `json:"stats"`
}

// Key returns the unique store key for the record.
func (r *AddressRecord) Key() string {
	return r.Name + "@" + r.Domain
}

// SendableRange resolves the effective min/max sendable bounds in msat.
func (r *AddressRecord) SendableRange() (min, max uint64) {
	min = DefaultMinSendable
	max = DefaultMaxSendable
	if r.MinSendable != nil {
		min = *r.MinSendable
	}
	if r.MaxSendable != nil {
		max = *r.MaxSendable
	}
	return min, max
}
