package ledger

import (
	"time"

	"github.com/google/uuid"

	"github.com/NDJ-create/backend-stockage-clean/internal/shared"
)

// NewID returns a fresh entity id.
func NewID() string {
	return uuid.NewString()
}

// NewAction builds an audit entry attributed to the given identity, with the
// affected fields frozen into details at write time.
func NewAction(actor shared.Identity, action shared.ActionType, details map[string]any) ActionLogEntry {
	return ActionLogEntry{
		ID:        NewID(),
		At:        time.Now().UTC(),
		Action:    action,
		ActorID:   actor.ActorID,
		ActorRole: actor.Role,
		Details:   details,
	}
}
