package http_api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/sataddr/sataddr/internal/models"
	"github.com/sataddr/sataddr/pkg/metrics"
	"github.com/sataddr/sataddr/pkg/pin"
)

// testInvoiceMsat is issued against the freshly configured backend before a
// record is persisted. A registration with a broken backend would otherwise
// only fail once someone tries to pay it.
const testInvoiceMsat = 42_000

// registerRequest is the body of the registration/edit endpoint.
type registerRequest struct {
	Name    string `json:"name" binding:"required"`
	Domain  string `json:"domain" binding:"required"`
	Backend string `json:"backend" binding:"required"`
	Pin     string `json:"pin"`

	BackendData struct {
		Lnd     *models.LndParams     `json:"lnd,omitempty"`
		LNBits  *models.LNBitsParams  `json:"lnbits,omitempty"`
		Keysend *models.KeysendParams `json:"keysend,omitempty"`
	} `json:"backendData"`
}

type fieldError struct {
	Field       string   `json:"field"`
	FieldErrors []string `json:"fieldErrors"`
}

type errorResponse struct {
	Message string       `json:"message"`
	Errors  []fieldError `json:"errors,omitempty"`
}

func (s *HTTPServer) registerFail(c *gin.Context, status int, message string, errs ...fieldError) {
	c.JSON(status, errorResponse{Message: message, Errors: errs})
}

// grab reserves a new address or, given the matching PIN, modifies an
// existing one.
func (s *HTTPServer) grab(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var valErrs validator.ValidationErrors
		if errors.As(err, &valErrs) {
			fieldErrs := make([]fieldError, 0, len(valErrs))
			for _, fe := range valErrs {
				fieldErrs = append(fieldErrs, fieldError{
					Field:       fe.Field(),
					FieldErrors: []string{fe.Tag()},
				})
			}
			s.registerFail(c, http.StatusBadRequest, "field errors", fieldErrs...)
			return
		}
		s.registerFail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if !s.cfg.HasDomain(req.Domain) {
		s.registerFail(c, http.StatusBadRequest, "field errors",
			fieldError{Field: "domain", FieldErrors: []string{"domain not supported"}})
		return
	}

	if s.cfg.IsReservedName(req.Name) {
		s.registerFail(c, http.StatusBadRequest, "trying to use a reserved username")
		return
	}

	api := models.InvoiceAPI{
		Kind:    models.BackendKind(req.Backend),
		Lnd:     req.BackendData.Lnd,
		LNBits:  req.BackendData.LNBits,
		Keysend: req.BackendData.Keysend,
	}
	if err := api.Validate(); err != nil {
		s.registerFail(c, http.StatusBadRequest, "field errors",
			fieldError{Field: "backendData", FieldErrors: []string{err.Error()}})
		return
	}

	existing, err := s.repo.Get(req.Name, req.Domain)
	if err != nil && err != models.ErrNotFound {
		s.logger.Error("Failed to load record: ", err)
		s.registerFail(c, http.StatusInternalServerError, "store failure")
		return
	}

	recordPin := pin.Compute(s.pinSecret, req.Name, req.Domain)
	if existing != nil {
		switch {
		case req.Pin == "":
			s.registerFail(c, http.StatusBadRequest, "PIN required to modify record (entry already exists)")
			return
		case req.Pin != recordPin:
			s.registerFail(c, http.StatusBadRequest, "provided PIN incorrect")
			return
		}
	}

	rec := &models.AddressRecord{
		Name:   req.Name,
		Domain: req.Domain,
		API:    api,
		PIN:    recordPin,
	}
	if api.Kind == models.BackendKeysend {
		floor := models.KeysendMinSendable
		rec.MinSendable = &floor
	}
	if existing != nil {
		rec.Stats = existing.Stats
	}

	if api.Kind == models.BackendKeysend {
		if err := s.prepareKeysend(c, rec, existing); err != nil {
			return // response already written
		}
	}

	// Prove the backend actually works before persisting anything. The test
	// invoice also carries the PIN so the owner has it in their wallet
	// history.
	memo := fmt.Sprintf("%s@%s PIN: %s", rec.Name, rec.Domain, recordPin)
	if _, err := s.issuer.Issue(c.Request.Context(), rec, testInvoiceMsat, memo); err != nil {
		s.logger.Error("Test invoice failed during registration: ", err)
		s.registerFail(c, http.StatusBadRequest, err.Error())
		return
	}

	if existing != nil {
		rec.Stats.Edits.Inc()
	}

	existed, err := s.repo.Insert(rec.Name, rec.Domain, rec)
	if err != nil {
		s.logger.Error("Failed to persist record: ", err)
		s.registerFail(c, http.StatusInternalServerError, "store failure")
		return
	}

	kind := "created"
	if existed {
		kind = "edited"
	}
	metrics.Registrations.WithLabelValues(string(api.Kind), kind).Inc()
	s.notifier.RegistrationChanged(rec.Name, rec.Domain, api.Kind, !existed)
	s.logger.Infof("Address %s %s (backend %s)", rec.Key(), kind, api.Kind)

	c.JSON(http.StatusCreated, gin.H{
		"message": "success",
		"pin":     recordPin,
		"errors":  []string{},
	})
}

// prepareKeysend provisions the relay account for first-time keysend
// registrations, or carries over the existing credentials and points the
// routing rule at the (possibly new) public key on edits. Writes the error
// response itself and returns a non-nil error when the caller should stop.
func (s *HTTPServer) prepareKeysend(c *gin.Context, rec, existing *models.AddressRecord) error {
	if existing != nil && existing.API.Kind == models.BackendKeysend && existing.API.Keysend.AdminKey != "" {
		creds := existing.API.Keysend
		if err := s.relay.UpdateRule(c.Request.Context(), creds.AdminKey, &rec.API.Keysend.PubKey, nil); err != nil {
			s.logger.Error("Failed to update keysend pubkey: ", err)
			s.registerFail(c, http.StatusBadRequest, fmt.Sprintf("problem updating pubkey: %s", err))
			return err
		}
		rec.API.Keysend.UserID = creds.UserID
		rec.API.Keysend.AdminKey = creds.AdminKey
		rec.API.Keysend.WalletID = creds.WalletID
		return nil
	}

	creds, err := s.relay.Provision(c.Request.Context(), rec.Name, rec.Domain, rec.API.Keysend.PubKey)
	if err != nil {
		s.logger.Error("Failed to provision keysend backend: ", err)
		s.registerFail(c, http.StatusBadRequest, fmt.Sprintf("problems with provision backend: %s", err))
		return err
	}
	rec.API.Keysend.UserID = creds.UserID
	rec.API.Keysend.AdminKey = creds.AdminKey
	rec.API.Keysend.WalletID = creds.WalletID
	return nil
}
