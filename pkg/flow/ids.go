package flow

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces node identifiers prefixed with the palette type.
type IDGenerator interface {
	NewID(prefix string) string
}

// UUIDGenerator derives ids from random UUIDs, so concurrent drops never collide.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// SequenceGenerator derives ids from a monotonic counter.
type SequenceGenerator struct {
	next atomic.Uint64
}

func (g *SequenceGenerator) NewID(prefix string) string {
	return prefix + "-" + strconv.FormatUint(g.next.Add(1), 10)
}
