package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sataddr/sataddr/internal/models"
	"github.com/sataddr/sataddr/internal/transport"
	"github.com/sataddr/sataddr/pkg/logger"
)

func newGateway(timeout time.Duration) *Gateway {
	return New(logger.NewNop(), transport.Policy{AllowInsecureTLS: true}, "https://relay.example", timeout)
}

func lndRecord(host string) *models.AddressRecord {
	return &models.AddressRecord{
		Name:   "alice",
		Domain: "example.com",
		API: models.InvoiceAPI{
			Kind: models.BackendLnd,
			Lnd:  &models.LndParams{Host: host, Macaroon: "abcd"},
		},
	}
}

func TestIssueReturnsPaymentRequest(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/invoices", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NotEmpty(t, r.Header.Get("Grpc-Metadata-macaroon"))

		var body map[string]interface{}
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.EqualValues(t, 50_000, body["value_msat"])

		json.NewEncoder(w).Encode(map[string]string{"payment_request": "lnbc1examplepr"})
	}))
	defer srv.Close()

	pr, err := newGateway(10*time.Second).Issue(context.Background(), lndRecord(srv.URL), 50_000, "")
	require.NoError(t, err)
	assert.Equal(t, "lnbc1examplepr", pr)
}

func TestIssueBackendRejectionTruncatesBody(t *testing.T) {
	long := strings.Repeat("x", 1000)
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, long, http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newGateway(10*time.Second).Issue(context.Background(), lndRecord(srv.URL), 1000, "")
	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, http.StatusInternalServerError, backendErr.Status)
	assert.Len(t, backendErr.Body, 300)
}

func TestIssueBadJSONResponse(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "not json at all")
	}))
	defer srv.Close()

	_, err := newGateway(10*time.Second).Issue(context.Background(), lndRecord(srv.URL), 1000, "")
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestIssueMissingPaymentRequestField(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"detail":"fine but useless"}`)
	}))
	defer srv.Close()

	_, err := newGateway(10*time.Second).Issue(context.Background(), lndRecord(srv.URL), 1000, "")
	assert.ErrorIs(t, err, ErrBadResponse)
}

func TestIssueTimeout(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := newGateway(50*time.Millisecond).Issue(context.Background(), lndRecord(srv.URL), 1000, "")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestKeysendBelowFloorNeverReachesTransport(t *testing.T) {
	called := false
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	g := New(logger.NewNop(), transport.Policy{AllowInsecureTLS: true}, srv.URL, 10*time.Second)
	rec := &models.AddressRecord{
		Name: "carol", Domain: "example.com",
		API: models.InvoiceAPI{
			Kind:    models.BackendKeysend,
			Keysend: &models.KeysendParams{PubKey: "02ab", AdminKey: "adm"},
		},
	}

	_, err := g.Issue(context.Background(), rec, 2999, "")
	var amountErr *AmountTooLowError
	require.True(t, errors.As(err, &amountErr))
	assert.EqualValues(t, 3000, amountErr.FloorMsat)
	assert.False(t, called, "transport must not be reached on a floor rejection")
}
