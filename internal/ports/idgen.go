package ports

import "github.com/google/uuid"

// UUIDGenerator is the production IDGenerator, grounded on the teacher's use
// of github.com/google/uuid for shard/session identifiers.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}
