package consolidation

import (
	"errors"
	"fmt"
)

// ErrInvariantViolation marks a remapping failure that can only come from a
// logic or data corruption bug. It is never translated into a client error.
var ErrInvariantViolation = errors.New("invariant violation")

// idArena maps upstream relationship ids to the ids allocated for them during
// one rebuild. It is filled from the rows the store returns, not from the
// order they were written in.
type idArena struct {
	ids map[int64]int64
}

func newIDArena() *idArena {
	return &idArena{ids: map[int64]int64{}}
}

func (a *idArena) bind(sourceID, newID int64) {
	a.ids[sourceID] = newID
}

func (a *idArena) resolve(sourceID int64) (int64, error) {
	id, ok := a.ids[sourceID]
	if !ok {
		return 0, fmt.Errorf("%w: relationship %d was not created in this operation", ErrInvariantViolation, sourceID)
	}
	return id, nil
}
