package transport

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectClientHasNoProxyDialer(t *testing.T) {
	p := Policy{AllowInsecureTLS: true, TorProxyURL: "socks5://127.0.0.1:9050"}

	client, err := p.Client(false, 30*time.Second)
	require.NoError(t, err)

	tr, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Nil(t, tr.DialContext)
	assert.True(t, tr.TLSClientConfig.InsecureSkipVerify)
	assert.Equal(t, 30*time.Second, client.Timeout)
}

func TestOnionClientDialsThroughProxy(t *testing.T) {
	p := Policy{AllowInsecureTLS: true, TorProxyURL: "socks5://127.0.0.1:9050"}

	client, err := p.Client(true, 30*time.Second)
	require.NoError(t, err)

	tr, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.NotNil(t, tr.DialContext, "onion hosts must go through the socks dialer")
}

func TestOnionClientRejectsBadProxyURL(t *testing.T) {
	p := Policy{TorProxyURL: "http://127.0.0.1:9050"}

	_, err := p.Client(true, time.Second)
	assert.Error(t, err)
}

func TestInsecurePolicyAcceptsSelfSignedCert(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	insecure := Policy{AllowInsecureTLS: true}
	client, err := insecure.Client(false, 5*time.Second)
	require.NoError(t, err)

	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	strict := Policy{AllowInsecureTLS: false}
	client, err = strict.Client(false, 5*time.Second)
	require.NoError(t, err)

	_, err = client.Get(srv.URL)
	assert.Error(t, err, "verification must fail against the test server's self-signed cert")
}
