// Package uuidutil bridges the wire-level 16-byte UUID octet arrays used
// throughout the FWU metadata and protocol structures with canonical
// string UUIDs at the edges of the system (CLI, config, logs).
package uuidutil

import "github.com/google/uuid"

// UUID is the on-disk/on-wire representation: raw octets, not a parsed
// value. The agent never needs RFC-4122 field access, only identity
// comparison and canonical-string round-tripping at the boundary.
type UUID [16]byte

// Nil is the all-zero UUID, used as a "no value" sentinel.
var Nil = UUID{}

func (u UUID) IsNil() bool {
	return u == Nil
}

func (u UUID) String() string {
	return uuid.UUID(u).String()
}

// Parse converts a canonical UUID string into its wire octet form.
func Parse(s string) (UUID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, err
	}
	return UUID(parsed), nil
}

// MustParse is Parse, panicking on error; used for well-known constants.
func MustParse(s string) UUID {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// New generates a random UUID, used by Volume backends that need to
// synthesize a storage identity for backing stores with no native UUID.
func New() UUID {
	return UUID(uuid.New())
}
