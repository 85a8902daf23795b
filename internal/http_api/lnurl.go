package http_api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sataddr/sataddr/internal/backend"
	"github.com/sataddr/sataddr/internal/models"
	"github.com/sataddr/sataddr/pkg/metrics"
)

// lnurlPayParams is the phase 1 (info) response: everything a wallet needs
// to render the payment form and call back.
type lnurlPayParams struct {
	Status         string `json:"status"`
	Tag            string `json:"tag"`
	Callback       string `json:"callback"`
	MinSendable    uint64 `json:"minSendable"`
	MaxSendable    uint64 `json:"maxSendable"`
	Metadata       string `json:"metadata"`
	CommentAllowed int    `json:"commentAllowed"`
}

type successAction struct {
	Tag     string `json:"tag"`
	Message string `json:"message,omitempty"`
}

// lnurlPayValues is the phase 2 (invoice) response.
type lnurlPayValues struct {
	Status        string        `json:"status"`
	Pr            string        `json:"pr"`
	SuccessAction successAction `json:"successAction"`
	Disposable    bool          `json:"disposable"`
}

// lnurlError is the in-band LNURL error shape. It is always sent with HTTP
// 200: LNURL clients parse the body regardless of the status code.
type lnurlError struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (s *HTTPServer) lnurlFail(c *gin.Context, reason string) {
	c.JSON(http.StatusOK, lnurlError{Status: "ERROR", Reason: reason})
}

// notFound is the generic rejection for unknown addresses. Deliberately
// uninformative so the endpoint cannot be used to enumerate registered
// names.
func (s *HTTPServer) notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"message": "Not Found"})
}

// lnurlPay handles both phases of the LNURL-pay exchange. The phases are
// disambiguated only by the presence of the amount query parameter; there is
// no session state between them.
func (s *HTTPServer) lnurlPay(c *gin.Context) {
	name, err := url.PathUnescape(c.Param("name"))
	if err != nil {
		s.notFound(c)
		return
	}

	domain := hostWithoutPort(c.Request.Host)
	if !s.cfg.HasDomain(domain) {
		s.notFound(c)
		return
	}

	s.logger.Debugf("LNURL request for %s@%s %v", name, domain, c.Request.URL.Query())

	rec, err := s.repo.Get(name, domain)
	if err != nil {
		if err != models.ErrNotFound {
			s.logger.Error("Failed to load record: ", err)
		}
		s.notFound(c)
		return
	}

	amount, hasAmount := c.GetQuery("amount")
	if !hasAmount {
		s.payParams(c, rec, name, domain)
		return
	}
	s.payInvoice(c, rec, amount)
}

// payParams serves phase 1: the payment parameters.
func (s *HTTPServer) payParams(c *gin.Context, rec *models.AddressRecord, name, domain string) {
	variant, err := backend.FromRecord(rec, s.cfg.LNBitsURL)
	if err != nil {
		s.logger.Error("Broken backend configuration: ", err)
		s.lnurlFail(c, "backend configuration error")
		return
	}

	minSendable, maxSendable := rec.SendableRange()

	rec.Stats.Calls.Inc()
	if err := s.repo.Update(rec); err != nil {
		s.logger.Error("Failed to persist info call: ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error"})
		return
	}

	metrics.InfoRequests.Inc()
	c.JSON(http.StatusOK, lnurlPayParams{
		Status:         "OK",
		Tag:            "payRequest",
		Callback:       fmt.Sprintf("https://%s/.well-known/lnurlp/%s", domain, name),
		MinSendable:    minSendable,
		MaxSendable:    maxSendable,
		Metadata:       backend.MetadataFor(rec).String(),
		CommentAllowed: variant.CommentAllowed(),
	})
}

// payInvoice serves phase 2: issue an invoice for the requested amount.
func (s *HTTPServer) payInvoice(c *gin.Context, rec *models.AddressRecord, amountParam string) {
	metrics.InvoiceRequests.WithLabelValues(string(rec.API.Kind)).Inc()

	amount, err := strconv.ParseUint(amountParam, 10, 64)
	if err != nil {
		s.lnurlFail(c, "invalid amount")
		return
	}

	comment := c.Query("comment")

	// A keysend comment lives on the relay's routing rule, not in the
	// invoice, so the rule has to be rewritten before the invoice call.
	if comment != "" && rec.API.Kind == models.BackendKeysend {
		if rec.API.Keysend == nil || rec.API.Keysend.AdminKey == "" {
			s.lnurlFail(c, "keysend backend not provisioned")
			return
		}
		if err := s.relay.UpdateRule(c.Request.Context(), rec.API.Keysend.AdminKey, nil, &comment); err != nil {
			s.logger.Error("Failed to update keysend rule: ", err)
			s.lnurlFail(c, fmt.Sprintf("problem updating keysend data: %s", err))
			return
		}
	}

	pr, err := s.issuer.Issue(c.Request.Context(), rec, amount, comment)
	if err != nil {
		s.logger.Error("Invoice issuance failed: ", err)
		s.lnurlFail(c, err.Error())
		return
	}

	rec.Stats.Invoices.Inc()
	if err := s.repo.Update(rec); err != nil {
		s.logger.Error("Failed to persist invoice issuance: ", err)
		s.lnurlFail(c, "internal error")
		return
	}

	c.JSON(http.StatusOK, lnurlPayValues{
		Status:        "OK",
		Pr:            pr,
		SuccessAction: successAction{Tag: "message", Message: "Payment received!"},
		Disposable:    false,
	})
}

func hostWithoutPort(host string) string {
	if i := strings.LastIndex(host, ":"); i != -1 {
		return host[:i]
	}
	return host
}
