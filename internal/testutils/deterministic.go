// Package testutils provides deterministic generators and test doubles for MindMend.
// Generators keep production formats while producing stable output in test mode.
package testutils

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var (
	idCounter uint64
	idMutex   sync.Mutex
)

// GenerateUUID returns a random UUID, or a deterministic one when testMode is set.
// Deterministic UUIDs look like 00000001-0000-4000-8000-000000000001.
func GenerateUUID(testMode bool) string {
	if testMode {
		return getDeterministicUUID()
	}
	return uuid.New().String()
}

func getDeterministicUUID() string {
	idMutex.Lock()
	defer idMutex.Unlock()

	idCounter++
	return fmt.Sprintf("%08x-0000-4000-8000-%012x", idCounter, idCounter)
}

// ResetTestCounters resets the deterministic counters. Test code only.
func ResetTestCounters() {
	idMutex.Lock()
	defer idMutex.Unlock()
	idCounter = 0
}
