package models

import "errors"

// ErrNotFound is returned by the repository when no record exists for a key.
var ErrNotFound = errors.New("record not found")

// Repository is the keyed record store. Records are written as one atomic
// value; there are no partial updates.
type Repository interface {
	// Get loads the record for name@domain, ErrNotFound when absent.
	Get(name, domain string) (*AddressRecord, error)
	// Insert writes the record, reporting whether a record already existed
	// under the key (in which case it is replaced).
	Insert(name, domain string, rec *AddressRecord) (existed bool, err error)
	// Update rewrites an existing record. It is not an upsert: ErrNotFound
	// when the key is absent.
	Update(rec *AddressRecord) error
	// Delete removes the record for name@domain, ErrNotFound when absent.
	Delete(name, domain string) error
	// All returns every stored record. This is an explicit O(n) batch scan
	// for reporting, not part of the request hot path.
	All() ([]*AddressRecord, error)
}
