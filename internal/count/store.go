package count

import (
	"encoding/json"
	"fmt"

	"github.com/warelane/warelane/internal/shared"
)

const stateSessionKey = "inventory_count_state"

// Store persists workflow state in the user's session, so an in-progress
// count survives page reloads for the session TTL.
type Store struct{}

// Load reads the state from the session, or starts a fresh workflow when
// none is stored.
func (Store) Load(sess *shared.Session) (State, error) {
	raw := sess.Get(stateSessionKey)
	if raw == "" {
		return NewState(), nil
	}
	var state State
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return State{}, fmt.Errorf("count: decode state: %w", err)
	}
	return state, nil
}

// Save writes the state back to the session.
func (Store) Save(sess *shared.Session, state State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("count: encode state: %w", err)
	}
	sess.Set(stateSessionKey, string(raw))
	return nil
}

// Reset discards any stored workflow.
func (Store) Reset(sess *shared.Session) {
	sess.Delete(stateSessionKey)
}
