package backend

import (
	"crypto/sha256"
	_ "embed"
	"encoding/base64"
	"encoding/json"

	"github.com/sataddr/sataddr/internal/models"
)

// banner is shown by wallets next to the payment form.
//
//go:embed assets/banner.png
var banner []byte

// Metadata is the LNURL-pay metadata document for one address. Its compact
// JSON form is used verbatim as the `metadata` field of the pay parameters
// and as the input of the description hash.
type Metadata struct {
	Name   string
	Domain string
}

// MetadataFor builds the metadata document for a record.
func MetadataFor(rec *models.AddressRecord) Metadata {
	return Metadata{Name: rec.Name, Domain: rec.Domain}
}

// ForWhom returns the name@domain identifier.
func (m Metadata) ForWhom() string {
	return m.Name + "@" + m.Domain
}

// Text returns the human readable payment description.
func (m Metadata) Text() string {
	return "Satoshis for " + m.ForWhom() + "."
}

// Entries returns the fixed, ordered entry list of the document.
func (m Metadata) Entries() [3][2]string {
	return [3][2]string{
		{"text/identifier", m.ForWhom()},
		{"text/plain", m.Text()},
		{"image/png;base64", base64.StdEncoding.EncodeToString(banner)},
	}
}

// String serializes the document to compact JSON.
func (m Metadata) String() string {
	b, _ := json.Marshal(m.Entries())
	return string(b)
}

// Hash returns the SHA-256 of the serialized document.
func (m Metadata) Hash() [sha256.Size]byte {
	return sha256.Sum256([]byte(m.String()))
}
