// Package ulid wraps github.com/oklog/ulid/v2 with prefixed identifiers used for
// merge sessions and backend request tracing.
//
// A prefixed id looks like "mrg-01AN4Z07BY79KA1307SR9X4MV3". Ids sort by creation
// time, which keeps the merge history table ordered without an extra index.
package ulid

import (
	"crypto/rand"
	"database/sql/driver"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	// PrefixSession marks merge session ids
	PrefixSession = "mrg"

	// PrefixRequest marks outbound backend request ids
	PrefixRequest = "req"

	// PrefixSeparator is used to separate the prefix from the ULID
	PrefixSeparator = "-"
)

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// ULID is a ulid.ULID with an optional prefix
type ULID struct {
	ulid.ULID
	prefix string
}

// GenerateWithPrefix creates a new ULID with the current timestamp and a prefix
func GenerateWithPrefix(prefix string) ULID {
	entropyLock.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	entropyLock.Unlock()
	return ULID{id, prefix}
}

// Parse parses a plain or prefixed ULID string
func Parse(id string) (ULID, error) {
	prefix, rawID := splitPrefix(id)

	parsed, err := ulid.Parse(rawID)
	if err != nil {
		return ULID{}, fmt.Errorf("parsing ulid %q: %w", id, err)
	}

	return ULID{parsed, prefix}, nil
}

func splitPrefix(id string) (string, string) {
	prefix, rawID, found := strings.Cut(id, PrefixSeparator)
	if !found {
		return "", id
	}
	return prefix, rawID
}

// IsZero returns true if the ULID is the zero value
func (u ULID) IsZero() bool {
	return u.ULID == ulid.ULID{}
}

// Prefix returns the prefix of the ULID
func (u ULID) Prefix() string {
	return u.prefix
}

// String returns "prefix-ulid", or the bare ULID when there is no prefix
func (u ULID) String() string {
	if u.prefix != "" {
		return u.prefix + PrefixSeparator + u.ULID.String()
	}
	return u.ULID.String()
}

// Value implements driver.Valuer
func (u ULID) Value() (driver.Value, error) {
	return u.String(), nil
}

// Scan implements sql.Scanner
func (u *ULID) Scan(src interface{}) error {
	switch src := src.(type) {
	case nil:
		return nil
	case string:
		parsed, err := Parse(src)
		if err != nil {
			return err
		}
		*u = parsed
		return nil
	case []byte:
		parsed, err := Parse(string(src))
		if err != nil {
			return err
		}
		*u = parsed
		return nil
	}
	return fmt.Errorf("cannot scan %T into ULID", src)
}

// NewSessionID generates a new merge session id
func NewSessionID() ULID {
	return GenerateWithPrefix(PrefixSession)
}

// ParseSessionID parses a merge session id given on the command line
func ParseSessionID(id string) (ULID, error) {
	parsed, err := Parse(id)
	if err != nil {
		return ULID{}, err
	}
	if parsed.Prefix() != PrefixSession {
		return ULID{}, fmt.Errorf("%q is not a merge session id", id)
	}
	return parsed, nil
}

// RequestID generates a new backend request id
func RequestID() string {
	return GenerateWithPrefix(PrefixRequest).String()
}
