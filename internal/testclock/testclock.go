// Package testclock provides deterministic ports.Clock and ports.IDGenerator
// fakes for tests, so event id generation can be made reproducible under an
// injected clock and PRNG.
package testclock

import (
	"fmt"
	"sync"
	"time"
)

// Fixed is a Clock that advances by a fixed step every call to Now, so
// sequential events in a test get strictly increasing timestamps without
// relying on wall-clock resolution.
type Fixed struct {
	mu   sync.Mutex
	next int64
	step int64
}

// NewFixed returns a Fixed clock starting at startMillis, advancing 1ms per
// call.
func NewFixed(startMillis int64) *Fixed {
	return &Fixed{next: startMillis, step: 1}
}

func (f *Fixed) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := time.UnixMilli(f.next)
	f.next += f.step
	return t
}

// SeqIDs is an IDGenerator producing "<prefix>-<n>" identifiers in order.
type SeqIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func NewSeqIDs(prefix string) *SeqIDs {
	return &SeqIDs{prefix: prefix}
}

func (s *SeqIDs) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", s.prefix, s.n)
}
