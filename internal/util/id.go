// Package util provides small helpers shared by platecost packages.
package util

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// IDGenerator produces UUIDv7 identifiers that sort by creation time, even
// for IDs issued within the same millisecond.
type IDGenerator struct {
	mu       sync.Mutex
	lastTime int64
	counter  uint16
}

// NewIDGenerator creates a new ID generator.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// NewID generates a new UUIDv7 identifier from this generator.
func (g *IDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UnixMilli()
	switch {
	case now > g.lastTime:
		g.lastTime = now
		g.counter = 0
	case g.counter == 0x0FFF:
		// 12-bit sequence exhausted: borrow the next millisecond.
		g.lastTime++
		g.counter = 0
	default:
		g.counter++
	}

	return uuidV7(g.lastTime, g.counter)
}

var defaultGenerator = NewIDGenerator()

// NewID generates a new UUIDv7 identifier from the shared generator.
func NewID() string {
	return defaultGenerator.NewID()
}

func uuidV7(unixMilli int64, seq uint16) string {
	var id uuid.UUID

	binary.BigEndian.PutUint32(id[0:4], uint32(unixMilli>>16))
	binary.BigEndian.PutUint16(id[4:6], uint16(unixMilli))
	binary.BigEndian.PutUint16(id[6:8], 0x7000|seq&0x0FFF)

	rand.Read(id[8:])
	id[8] = (id[8] & 0x3F) | 0x80

	return id.String()
}

// ParseID validates and canonicalizes a UUID string.
func ParseID(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid ID format: %w", err)
	}
	return id.String(), nil
}

// IsValidID checks if a string is a valid UUID format.
func IsValidID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// DeterministicID derives a stable UUIDv5 from a name, so seed files can
// refer to rows by code and reload to the same IDs.
func DeterministicID(namespace, name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("platecost:"+namespace+":"+name)).String()
}
