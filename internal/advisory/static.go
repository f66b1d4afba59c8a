package advisory

import (
	"context"
	"fmt"
	"strings"

	"github.com/haven-sec/rehearse/internal/types"
)

// phaseGuidance is the per-phase core instruction, shared by every role.
var phaseGuidance = map[types.Phase]string{
	types.PhaseDetection:     "Validate the alert against raw telemetry before acting. Confirm the detection is not a false positive and identify the initially affected asset.",
	types.PhaseScoping:       "Establish how far the activity has spread. Review adjacent endpoints, authentication logs, and outbound connections from the affected segment.",
	types.PhaseInvestigation: "Build the attack narrative: initial access, persistence, and objective. Collect evidence before it ages out of retention.",
	types.PhaseRemediation:   "Remove attacker access and restore affected services. Verify each containment measure held before lifting isolation.",
	types.PhasePostIncident:  "Capture lessons learned while details are fresh. Track remediation follow-ups to closure and update detections for the observed techniques.",
}

// roleFraming adapts the register of the guidance to its audience.
var roleFraming = map[types.UserRole]string{
	types.UserRoleAnalyst: "Work the playbook node by node and record every action you take.",
	types.UserRoleManager: "Focus on coordination: confirm owners and deadlines for each open response task.",
	types.UserRoleClient:  "Your response team is handling technical containment. The notes below describe what is happening and what is needed from you.",
}

// StaticGenerator serves deterministic template guidance. It is the default
// generator and the fallback when no language model is configured.
type StaticGenerator struct{}

// NewStaticGenerator creates a StaticGenerator.
func NewStaticGenerator() *StaticGenerator {
	return &StaticGenerator{}
}

// Generate implements Generator. It never fails on a valid phase.
func (g *StaticGenerator) Generate(_ context.Context, req Request) (string, error) {
	core, ok := phaseGuidance[req.Phase]
	if !ok {
		return "", types.NewErrorf(types.CONFIG_VALIDATION_FAILED, "no guidance for phase %q", req.Phase)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s phase", req.Phase.Title())
	if req.Incident != nil {
		fmt.Fprintf(&b, ": %s (%s severity)", req.Incident.Title, req.Incident.Severity)
	}
	b.WriteString("\n\n")
	b.WriteString(core)
	if framing, ok := roleFraming[req.Role]; ok {
		b.WriteString("\n\n")
		b.WriteString(framing)
	}
	return b.String(), nil
}

var _ Generator = (*StaticGenerator)(nil)
