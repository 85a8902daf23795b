package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sataddr/sataddr/internal/models"
)

func TestRecordRoundTrip(t *testing.T) {
	min := uint64(3000)
	max := uint64(500_000_000)
	rec := &models.AddressRecord{
		Name:   "alice",
		Domain: "example.com",
		API: models.InvoiceAPI{
			Kind: models.BackendKeysend,
			Keysend: &models.KeysendParams{
				UserID:   "u1",
				AdminKey: "adm",
				WalletID: "w1",
				PubKey:   "02abc",
			},
		},
		MinSendable: &min,
		MaxSendable: &max,
		PIN:         "a8fe9f81",
		Stats: models.Stats{
			Invoices: models.Counter{Num: 7, LastUpdate: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
			Calls:    models.Counter{Num: 3, LastUpdate: time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC)},
		},
	}

	value, err := encodeRecord(rec)
	require.NoError(t, err)

	got, err := decodeRecord(value)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := decodeRecord([]byte("not json"))
	assert.Error(t, err)
}

func TestStoreKey(t *testing.T) {
	assert.Equal(t, "alice@example.com", storeKey("alice", "example.com"))
}
