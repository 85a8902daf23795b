// Package gateway performs the actual invoice issuance call against a
// record's wallet backend. One request in, one attempt out: a failed call
// surfaces immediately, there are no retries and each successful call may
// create a distinct invoice.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sataddr/sataddr/internal/backend"
	"github.com/sataddr/sataddr/internal/models"
	"github.com/sataddr/sataddr/internal/transport"
	"github.com/sataddr/sataddr/pkg/logger"
	"github.com/sataddr/sataddr/pkg/metrics"
)

// maxErrorBody caps how much of a backend error body is carried into the
// error shown to the caller.
const maxErrorBody = 300

var (
	// ErrTimeout marks an outbound call that exceeded the configured timeout.
	ErrTimeout = errors.New("connection to the wallet backend timed out")
	// ErrBadResponse marks a 2xx response whose body was not usable JSON.
	ErrBadResponse = errors.New("unable to parse the wallet backend response")
)

// AmountTooLowError rejects an amount below the backend variant's floor. It
// is a domain error: the transport is never reached.
type AmountTooLowError struct {
	AmountMsat uint64
	FloorMsat  uint64
}

func (e *AmountTooLowError) Error() string {
	return fmt.Sprintf("amount %d msat is below the backend minimum of %d msat", e.AmountMsat, e.FloorMsat)
}

// BackendError carries a non-2xx backend reply.
type BackendError struct {
	Status int
	Body   string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("wallet backend call failed (%d): %s", e.Status, e.Body)
}

// Gateway orchestrates payload building, transport selection and the call
// itself.
type Gateway struct {
	logger    *logger.Logger
	policy    transport.Policy
	relayHost string
	timeout   time.Duration
}

func New(log *logger.Logger, policy transport.Policy, relayHost string, timeout time.Duration) *Gateway {
	return &Gateway{
		logger:    log,
		policy:    policy,
		relayHost: relayHost,
		timeout:   timeout,
	}
}

// Issue requests an invoice for amountMsat from the record's backend and
// returns the bolt11 payment request. memo is empty when the payer supplied
// no comment.
func (g *Gateway) Issue(ctx context.Context, rec *models.AddressRecord, amountMsat uint64, memo string) (string, error) {
	variant, err := backend.FromRecord(rec, g.relayHost)
	if err != nil {
		return "", err
	}

	if floor := variant.MinSendable(); amountMsat < floor {
		return "", &AmountTooLowError{AmountMsat: amountMsat, FloorMsat: floor}
	}

	req, err := variant.InvoiceRequest(amountMsat, memo, backend.MetadataFor(rec))
	if err != nil {
		return "", err
	}

	client, err := g.policy.Client(variant.OnionHost(), g.timeout)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return "", fmt.Errorf("building backend request: %w", err)
	}
	httpReq.Header = req.Header

	start := time.Now()
	resp, err := client.Do(httpReq)
	metrics.BackendCallLatency.WithLabelValues(string(variant.Kind())).Observe(time.Since(start).Seconds())
	if err != nil {
		if isTimeout(err) {
			metrics.InvoiceFailures.WithLabelValues(string(variant.Kind()), "timeout").Inc()
			return "", ErrTimeout
		}
		metrics.InvoiceFailures.WithLabelValues(string(variant.Kind()), "transport").Inc()
		return "", fmt.Errorf("calling wallet backend: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.InvoiceFailures.WithLabelValues(string(variant.Kind()), "transport").Inc()
		return "", fmt.Errorf("reading backend response: %w", err)
	}

	if resp.StatusCode >= 300 {
		metrics.InvoiceFailures.WithLabelValues(string(variant.Kind()), "rejected").Inc()
		return "", &BackendError{Status: resp.StatusCode, Body: truncate(string(body), maxErrorBody)}
	}

	var parsed struct {
		PaymentRequest string `json:"payment_request"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.PaymentRequest == "" {
		g.logger.Debugf("Unparseable backend response (%v): %s", err, truncate(string(body), maxErrorBody))
		metrics.InvoiceFailures.WithLabelValues(string(variant.Kind()), "bad_response").Inc()
		return "", ErrBadResponse
	}

	g.logger.Debugf("Invoice generated via %s for %d msat", variant.Kind(), amountMsat)
	return parsed.PaymentRequest, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
