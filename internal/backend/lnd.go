package backend

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/sataddr/sataddr/internal/models"
)

// Lnd talks to an LND node's REST API directly.
type Lnd struct {
	params models.LndParams
}

type lndInvoiceBody struct {
	ValueMsat uint64 `json:"value_msat"`
	Memo      string `json:"memo"`
	// DescriptionHash carries base64(sha256(metadata)) so wallets can verify
	// the invoice against the LNURL metadata.
	DescriptionHash string `json:"description_hash"`
}

func (l *Lnd) Kind() models.BackendKind { return models.BackendLnd }

func (l *Lnd) Host() string { return l.params.Host }

func (l *Lnd) OnionHost() bool { return isOnion(l.params.Host) }

// CommentAllowed is 128 for LND: the comment travels in the invoice memo,
// which LND caps well above that.
func (l *Lnd) CommentAllowed() int { return 128 }

func (l *Lnd) MinSendable() uint64 { return 0 }

func (l *Lnd) InvoiceRequest(amountMsat uint64, memo string, meta Metadata) (*Request, error) {
	if memo == "" {
		memo = meta.Text()
	}
	hash := meta.Hash()
	body, err := json.Marshal(lndInvoiceBody{
		ValueMsat:       amountMsat,
		Memo:            memo,
		DescriptionHash: base64.StdEncoding.EncodeToString(hash[:]),
	})
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Grpc-Metadata-macaroon", normalizeMacaroon(l.params.Macaroon))
	header.Set("Content-Type", "application/json")

	return &Request{
		Method: http.MethodPost,
		URL:    baseURL(l.params.Host) + "/v1/invoices",
		Header: header,
		Body:   body,
	}, nil
}

// normalizeMacaroon converts the macaroon to the hex form LND expects.
// Macaroons are usually handed out base64 encoded; anything that does not
// decode as base64 is assumed to be hex already.
func normalizeMacaroon(macaroon string) string {
	if decoded, err := base64.StdEncoding.DecodeString(macaroon); err == nil {
		return hex.EncodeToString(decoded)
	}
	return macaroon
}
