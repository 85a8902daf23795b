package backend

import (
	"errors"

	"github.com/sataddr/sataddr/internal/models"
)

// ErrNotProvisioned is returned when a keysend record is missing its relay
// admin key, i.e. provisioning never completed.
var ErrNotProvisioned = errors.New("keysend backend not provisioned: admin key missing")

// Keysend issues invoices through the operator's hosted wallet, which
// forwards incoming payments to the registrant's node via a routing rule.
type Keysend struct {
	params    models.KeysendParams
	relayHost string
}

func (k *Keysend) Kind() models.BackendKind { return models.BackendKeysend }

// Host is the hosted wallet the payment is relayed through, not the
// registrant's node.
func (k *Keysend) Host() string { return k.relayHost }

func (k *Keysend) OnionHost() bool { return isOnion(k.relayHost) }

func (k *Keysend) CommentAllowed() int { return 0 }

func (k *Keysend) MinSendable() uint64 { return models.KeysendMinSendable }

func (k *Keysend) InvoiceRequest(amountMsat uint64, memo string, meta Metadata) (*Request, error) {
	if k.params.AdminKey == "" {
		return nil, ErrNotProvisioned
	}
	return lnbitsRequest(k.relayHost, k.params.AdminKey, amountMsat, memo, meta)
}
