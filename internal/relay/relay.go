// Package relay manages the hosted wallet side of relayed keysend records:
// creating the sub-account, enabling the scrub routing extension and keeping
// the routing rule's public key and description in sync.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sataddr/sataddr/internal/models"
	"github.com/sataddr/sataddr/pkg/logger"
)

const scrubWalletName = "scrub_wallet"

// Client talks to the operator's hosted wallet management API.
type Client struct {
	logger *logger.Logger

	host    string
	apiKey  string
	adminID string

	http *http.Client
}

// New builds a relay client against the hosted wallet at host, authenticated
// with the operator's master API key. adminID is the wallet account that owns
// created sub-accounts.
func New(log *logger.Logger, host, apiKey, adminID string) *Client {
	return &Client{
		logger:  log,
		host:    strings.TrimRight(host, "/"),
		apiKey:  apiKey,
		adminID: adminID,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Provision runs the one-time setup for a new keysend record: create a
// sub-account named after the address, enable the scrub extension for it and
// create a scrub link forwarding to pubKey. The returned credentials must be
// stored on the record; they cannot be recovered later.
func (c *Client) Provision(ctx context.Context, name, domain, pubKey string) (models.RelayCredentials, error) {
	var creds models.RelayCredentials

	user, err := c.createUser(ctx, name+"@"+domain)
	if err != nil {
		return creds, fmt.Errorf("creating relay user: %w", err)
	}
	c.logger.Infof("Created relay user id=%s wallet=%s", user.ID, user.walletID())

	if err := c.enableScrub(ctx, user.ID); err != nil {
		return creds, fmt.Errorf("enabling scrub extension: %w", err)
	}

	scrubs := &scrubAPI{client: c, apiKey: user.adminKey(), walletID: user.walletID()}
	if err := scrubs.create(ctx, "Payment via "+domain, pubKey); err != nil {
		return creds, fmt.Errorf("creating scrub link: %w", err)
	}

	creds.UserID = user.ID
	creds.AdminKey = user.adminKey()
	creds.WalletID = user.walletID()
	return creds, nil
}

// UpdateRule rewrites the single scrub link of the account owning adminKey.
// Nil fields keep their current value.
func (c *Client) UpdateRule(ctx context.Context, adminKey string, pubKey, description *string) error {
	if pubKey == nil && description == nil {
		return fmt.Errorf("nothing to update: need a new pub key or description")
	}

	scrubs := &scrubAPI{client: c, apiKey: adminKey}
	links, err := scrubs.list(ctx)
	if err != nil {
		return fmt.Errorf("listing scrub links: %w", err)
	}
	if len(links) != 1 {
		return fmt.Errorf("expected exactly one scrub link, found %d", len(links))
	}

	link := links[0]
	scrubs.walletID = link.Wallet

	newKey := link.PayorAddress
	if pubKey != nil {
		newKey = *pubKey
	}
	newDescription := link.Description
	if description != nil {
		newDescription = *description
	}

	if err := scrubs.update(ctx, link.ID, newKey, newDescription); err != nil {
		return fmt.Errorf("updating scrub link: %w", err)
	}
	return nil
}

type relayUser struct {
	ID      string `json:"id"`
	Wallets []struct {
		ID       string `json:"id"`
		AdminKey string `json:"adminkey"`
	} `json:"wallets"`
}

func (u *relayUser) walletID() string {
	if len(u.Wallets) == 0 {
		return ""
	}
	return u.Wallets[0].ID
}

func (u *relayUser) adminKey() string {
	if len(u.Wallets) == 0 {
		return ""
	}
	return u.Wallets[0].AdminKey
}

func (c *Client) createUser(ctx context.Context, username string) (*relayUser, error) {
	body := map[string]string{
		"admin_id":    c.adminID,
		"wallet_name": scrubWalletName,
		"user_name":   username,
	}

	var user relayUser
	if err := c.call(ctx, http.MethodPost, c.host+"/usermanager/api/v1/users", c.apiKey, body, &user); err != nil {
		return nil, err
	}
	if user.ID == "" || user.walletID() == "" || user.adminKey() == "" {
		return nil, fmt.Errorf("relay user response incomplete")
	}
	return &user, nil
}

func (c *Client) enableScrub(ctx context.Context, userID string) error {
	q := url.Values{}
	q.Set("extension", "scrub")
	q.Set("userid", userID)
	q.Set("active", "true")

	endpoint := c.host + "/usermanager/api/v1/extensions?" + q.Encode()
	return c.call(ctx, http.MethodPost, endpoint, c.apiKey, nil, nil)
}

// scrubAPI covers the routing-rule endpoints, authenticated with the
// sub-account's own admin key.
type scrubAPI struct {
	client   *Client
	apiKey   string
	walletID string
}

type scrubLink struct {
	ID           string `json:"id"`
	Description  string `json:"description"`
	Wallet       string `json:"wallet"`
	PayorAddress string `json:"payoraddress"`
}

func (s *scrubAPI) list(ctx context.Context) ([]scrubLink, error) {
	var links []scrubLink
	if err := s.client.call(ctx, http.MethodGet, s.client.host+"/scrub/api/v1/links", s.apiKey, nil, &links); err != nil {
		return nil, err
	}
	return links, nil
}

func (s *scrubAPI) create(ctx context.Context, description, pubKey string) error {
	body := map[string]string{
		"wallet":       s.walletID,
		"description":  description,
		"payoraddress": pubKey,
	}
	return s.client.call(ctx, http.MethodPost, s.client.host+"/scrub/api/v1/links", s.apiKey, body, nil)
}

func (s *scrubAPI) update(ctx context.Context, linkID, pubKey, description string) error {
	body := map[string]string{
		"wallet":       s.walletID,
		"description":  description,
		"payoraddress": pubKey,
	}
	return s.client.call(ctx, http.MethodPut, s.client.host+"/scrub/api/v1/links/"+linkID, s.apiKey, body, nil)
}

// call performs one JSON request against the management API and decodes the
// response into out when non-nil.
func (c *Client) call(ctx context.Context, method, endpoint, apiKey string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("X-Api-Key", apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("relay call %s %s failed (%d): %s", method, endpoint, resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decoding relay response: %w", err)
		}
	}
	return nil
}
