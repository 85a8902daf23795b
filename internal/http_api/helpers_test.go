package http_api

import (
	"context"
	"errors"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/sataddr/sataddr/internal/config"
	"github.com/sataddr/sataddr/internal/models"
	"github.com/sataddr/sataddr/pkg/logger"
	"github.com/sataddr/sataddr/pkg/pin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testPinSecret = "s3cret"

// memRepo is an in-memory Repository for handler tests.
type memRepo struct {
	mu      sync.Mutex
	records map[string]models.AddressRecord
	failAll bool
}

func newMemRepo(records ...*models.AddressRecord) *memRepo {
	r := &memRepo{records: make(map[string]models.AddressRecord)}
	for _, rec := range records {
		r.records[rec.Key()] = *rec
	}
	return r
}

func (r *memRepo) Get(name, domain string) (*models.AddressRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[name+"@"+domain]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := rec
	return &copied, nil
}

func (r *memRepo) Insert(name, domain string, rec *models.AddressRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := name + "@" + domain
	_, existed := r.records[key]
	r.records[key] = *rec
	return existed, nil
}

func (r *memRepo) Update(rec *models.AddressRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.Key()]; !ok {
		return models.ErrNotFound
	}
	r.records[rec.Key()] = *rec
	return nil
}

func (r *memRepo) Delete(name, domain string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := name + "@" + domain
	if _, ok := r.records[key]; !ok {
		return models.ErrNotFound
	}
	delete(r.records, key)
	return nil
}

func (r *memRepo) All() ([]*models.AddressRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, errors.New("store offline")
	}
	out := make([]*models.AddressRecord, 0, len(r.records))
	for _, rec := range r.records {
		copied := rec
		out = append(out, &copied)
	}
	return out, nil
}

type issuedCall struct {
	Key        string
	AmountMsat uint64
	Memo       string
}

// fakeIssuer stands in for the invoice gateway.
type fakeIssuer struct {
	pr    string
	err   error
	calls []issuedCall
}

func (f *fakeIssuer) Issue(_ context.Context, rec *models.AddressRecord, amountMsat uint64, memo string) (string, error) {
	f.calls = append(f.calls, issuedCall{Key: rec.Key(), AmountMsat: amountMsat, Memo: memo})
	if f.err != nil {
		return "", f.err
	}
	return f.pr, nil
}

// fakeRelay records provisioning and rule updates.
type fakeRelay struct {
	creds models.RelayCredentials
	err   error

	provisioned []string // name@domain
	ruleUpdates []struct {
		AdminKey    string
		PubKey      *string
		Description *string
	}
}

func (f *fakeRelay) Provision(_ context.Context, name, domain, pubKey string) (models.RelayCredentials, error) {
	f.provisioned = append(f.provisioned, name+"@"+domain)
	return f.creds, f.err
}

func (f *fakeRelay) UpdateRule(_ context.Context, adminKey string, pubKey, description *string) error {
	f.ruleUpdates = append(f.ruleUpdates, struct {
		AdminKey    string
		PubKey      *string
		Description *string
	}{adminKey, pubKey, description})
	return f.err
}

type nopNotifier struct {
	changed []string
}

func (n *nopNotifier) RegistrationChanged(name, domain string, _ models.BackendKind, created bool) {
	kind := "edited "
	if created {
		kind = "created "
	}
	n.changed = append(n.changed, kind+name+"@"+domain)
}

type testEnv struct {
	server *HTTPServer
	repo   *memRepo
	issuer *fakeIssuer
	relay  *fakeRelay
	notif  *nopNotifier
}

func newTestEnv(records ...*models.AddressRecord) *testEnv {
	cfg := &config.Config{
		Development:   true,
		Domains:       []string{"example.com"},
		ReservedNames: []string{"admin", "root"},
		PinSecret:     testPinSecret,
		LNBitsURL:     "https://relay.example",
	}

	env := &testEnv{
		repo:   newMemRepo(records...),
		issuer: &fakeIssuer{pr: "lnbc1examplepr"},
		relay:  &fakeRelay{creds: models.RelayCredentials{UserID: "u1", AdminKey: "adm1", WalletID: "w1"}},
		notif:  &nopNotifier{},
	}

	srv := NewHTTPServer(cfg, env.repo, env.issuer, env.relay, env.notif, cfg.PinSecret, logger.NewNop())
	env.server = srv.(*HTTPServer)
	return env
}

func testPin(name, domain string) string {
	return pin.Compute(testPinSecret, name, domain)
}

func lndRecord(name, domain string) *models.AddressRecord {
	return &models.AddressRecord{
		Name:   name,
		Domain: domain,
		API: models.InvoiceAPI{
			Kind: models.BackendLnd,
			Lnd:  &models.LndParams{Host: "https://node.example", Macaroon: "abcd"},
		},
		PIN: testPin(name, domain),
	}
}

func keysendRecord(name, domain string) *models.AddressRecord {
	floor := models.KeysendMinSendable
	return &models.AddressRecord{
		Name:   name,
		Domain: domain,
		API: models.InvoiceAPI{
			Kind: models.BackendKeysend,
			Keysend: &models.KeysendParams{
				UserID: "u1", AdminKey: "adm1", WalletID: "w1", PubKey: "02old",
			},
		},
		MinSendable: &floor,
		PIN:         testPin(name, domain),
	}
}
