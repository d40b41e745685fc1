package orchestrator

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ulidEntropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	ulidEntropyMu sync.Mutex
)

// NewProcessID mints a registration identity for processes launched without
// one, e.g. by a supervisor that does not template per-process IDs.
func NewProcessID() string {
	ulidEntropyMu.Lock()
	defer ulidEntropyMu.Unlock()
	return "proc-" + ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
}
