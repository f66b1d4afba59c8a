package engine

import (
	"context"
	"fmt"
	"time"
)

// ActionOutcome is the closed set of results an external action can report.
type ActionOutcome string

const (
	ActionOutcomeSuccess ActionOutcome = "success"
	ActionOutcomeFailed  ActionOutcome = "failed"
	ActionOutcomeSkipped ActionOutcome = "skipped"
)

// ActionRequest asks the action executor to perform one external action
// (isolate an endpoint, lock an account). The engine never issues these
// itself; the presentation layer runs the action first and calls Advance
// only if it succeeded.
type ActionRequest struct {
	ActionID   string            `json:"action_id"`
	IncidentID string            `json:"incident_id"`
	Target     string            `json:"target,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
}

// ActionResult is the explicitly enumerated outcome of an external action.
// No untyped payload crosses this boundary.
type ActionResult struct {
	ActionID   string            `json:"action_id"`
	Outcome    ActionOutcome     `json:"outcome"`
	Message    string            `json:"message,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
	FinishedAt time.Time         `json:"finished_at"`
}

// Succeeded reports whether the action completed.
func (r ActionResult) Succeeded() bool {
	return r.Outcome == ActionOutcomeSuccess
}

// ActionExecutor is the boundary to whatever performs real (or simulated)
// response actions. Engine correctness does not depend on it: a failed
// action simply should not be followed by an Advance call.
type ActionExecutor interface {
	ExecuteSideEffect(ctx context.Context, req ActionRequest) (ActionResult, error)
}

// SimulatedExecutor is the training-mode ActionExecutor: every action
// succeeds instantly and reports what would have happened.
type SimulatedExecutor struct {
	now func() time.Time
}

// NewSimulatedExecutor creates a SimulatedExecutor.
func NewSimulatedExecutor() *SimulatedExecutor {
	return &SimulatedExecutor{now: time.Now}
}

// ExecuteSideEffect implements ActionExecutor.
func (x *SimulatedExecutor) ExecuteSideEffect(_ context.Context, req ActionRequest) (ActionResult, error) {
	message := fmt.Sprintf("simulated action %s completed", req.ActionID)
	if req.Target != "" {
		message = fmt.Sprintf("simulated action %s completed against %s", req.ActionID, req.Target)
	}
	return ActionResult{
		ActionID:   req.ActionID,
		Outcome:    ActionOutcomeSuccess,
		Message:    message,
		FinishedAt: x.now(),
	}, nil
}

var _ ActionExecutor = (*SimulatedExecutor)(nil)
