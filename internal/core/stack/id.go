// Package stack contains the pure business logic for stack identity, resolution and ordering.
// Nothing in this package performs I/O.
package stack

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
)

const (
	// XDebugPortBase is the first port of the XDebug range.
	XDebugPortBase = 49000
	// XDebugPortSlots is the size of the XDebug port range.
	XDebugPortSlots = 10000

	// NamePrefix prefixes both the compose project name and the XDebug IDE key.
	NamePrefix = "slic_"

	hashLen = 8
)

// Identity holds the values derived from a stack id.
//
// Two distinct ids can map to the same XDebugPort: the range has only
// XDebugPortSlots slots and collisions are not detected.
type Identity struct {
	Hash        string
	ProjectName string
	XDebugPort  int
	XDebugKey   string
}

// Hash returns the first 8 hex characters of the MD5 digest of stackID.
func Hash(stackID string) string {
	sum := md5.Sum([]byte(stackID))
	return hex.EncodeToString(sum[:])[:hashLen]
}

// Derive computes the identity of a stack from its id alone.
func Derive(stackID string) Identity {
	h := Hash(stackID)
	n, _ := strconv.ParseUint(h, 16, 32)

	return Identity{
		Hash:        h,
		ProjectName: NamePrefix + h,
		XDebugPort:  XDebugPortBase + int(n%XDebugPortSlots),
		XDebugKey:   NamePrefix + h,
	}
}

// StateFileName returns the base name of the per-stack state file.
func StateFileName(stackID string) string {
	return Hash(stackID) + ".env"
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
