// Package backend maps an address record's invoice backend configuration to
// concrete wallet API requests. The variants form a closed set behind the
// Variant interface; everything the call path needs to know about a backend
// (payload shape, credential header, onion routing, comment capability,
// amount floor) is answered here rather than by scattered type switches.
package backend

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/sataddr/sataddr/internal/models"
)

// Request is a fully built wallet API call, ready for a transport.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Variant is one invoice backend flavour.
type Variant interface {
	Kind() models.BackendKind
	// Host is the backend base URL the call goes to.
	Host() string
	// OnionHost reports whether the host needs Tor routing.
	OnionHost() bool
	// CommentAllowed is the comment length advertised to LNURL clients.
	CommentAllowed() int
	// MinSendable is the variant-specific amount floor in msat, 0 when the
	// variant imposes none beyond the record's own bounds.
	MinSendable() uint64
	// InvoiceRequest builds the wallet API call for the given amount. memo
	// is empty when the payer supplied no comment.
	InvoiceRequest(amountMsat uint64, memo string, meta Metadata) (*Request, error)
}

// FromRecord resolves the record's backend union into its variant. relayHost
// is the hosted wallet base URL that keysend records are relayed through.
func FromRecord(rec *models.AddressRecord, relayHost string) (Variant, error) {
	switch rec.API.Kind {
	case models.BackendLnd:
		if rec.API.Lnd == nil {
			return nil, fmt.Errorf("lnd backend data missing on %s", rec.Key())
		}
		return &Lnd{params: *rec.API.Lnd}, nil
	case models.BackendLNBits:
		if rec.API.LNBits == nil {
			return nil, fmt.Errorf("lnbits backend data missing on %s", rec.Key())
		}
		return &LNBits{params: *rec.API.LNBits}, nil
	case models.BackendKeysend:
		if rec.API.Keysend == nil {
			return nil, fmt.Errorf("keysend backend data missing on %s", rec.Key())
		}
		return &Keysend{params: *rec.API.Keysend, relayHost: relayHost}, nil
	default:
		return nil, fmt.Errorf("backend %q not supported", rec.API.Kind)
	}
}

func isOnion(host string) bool {
	return strings.Contains(host, ".onion")
}

func baseURL(host string) string {
	return strings.TrimRight(host, "/")
}
