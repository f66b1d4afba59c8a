// Package advisory produces free-text guidance strings keyed by incident,
// response phase, and audience role. Advisory text is display-only: it never
// influences which transitions the workflow engine accepts.
package advisory

import (
	"context"

	"github.com/haven-sec/rehearse/internal/incident"
	"github.com/haven-sec/rehearse/internal/types"
)

// Request identifies the guidance being asked for.
type Request struct {
	Incident *incident.Record
	Phase    types.Phase
	Role     types.UserRole
}

// Generator produces advisory text for a request. Implementations must be
// safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
