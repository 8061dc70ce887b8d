package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string used as a lead id. ULIDs sort by creation
// time, which keeps the leads table roughly in submission order.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
