package backend

import (
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/sataddr/sataddr/internal/models"
)

// LNBits talks to a hosted LNBits wallet.
type LNBits struct {
	params models.LNBitsParams
}

type lnbitsInvoiceBody struct {
	// Amount is in satoshis, unlike the LND payload.
	Amount uint64 `json:"amount"`
	Out    bool   `json:"out"`
	Memo   string `json:"memo,omitempty"`
	// UnhashedDescription is hex(metadata). LNBits prefers it over memo when
	// both are present, so received payments show no memo upstream. Keeping
	// both anyway matches what sending wallets verify against.
	UnhashedDescription string `json:"unhashed_description"`
}

func (l *LNBits) Kind() models.BackendKind { return models.BackendLNBits }

func (l *LNBits) Host() string { return l.params.Host }

func (l *LNBits) OnionHost() bool { return isOnion(l.params.Host) }

// CommentAllowed is 0: the LNBits invoice API has no separate comment field.
func (l *LNBits) CommentAllowed() int { return 0 }

func (l *LNBits) MinSendable() uint64 { return 0 }

func (l *LNBits) InvoiceRequest(amountMsat uint64, memo string, meta Metadata) (*Request, error) {
	return lnbitsRequest(l.params.Host, l.params.Key, amountMsat, memo, meta)
}

func lnbitsRequest(host, apiKey string, amountMsat uint64, memo string, meta Metadata) (*Request, error) {
	body, err := json.Marshal(lnbitsInvoiceBody{
		Amount:              amountMsat / 1000,
		Out:                 false,
		Memo:                memo,
		UnhashedDescription: hex.EncodeToString([]byte(meta.String())),
	})
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("X-Api-Key", apiKey)
	header.Set("Content-Type", "application/json")

	return &Request{
		Method: http.MethodPost,
		URL:    baseURL(host) + "/api/v1/payments",
		Header: header,
		Body:   body,
	}, nil
}
