package report

import "github.com/haven-sec/rehearse/internal/types"

// recommendationsByRole is the fixed recommendation catalogue. The text is
// audience-appropriate boilerplate; the advisory generator, not this package,
// produces incident-specific guidance.
var recommendationsByRole = map[types.UserRole][]string{
	types.UserRoleAnalyst: {
		"Preserve volatile evidence (memory, network captures) from affected endpoints before reimaging.",
		"Verify containment by confirming isolated endpoints show no further outbound connections.",
		"Cross-reference observed techniques against detection coverage and file gaps with the detection engineering team.",
	},
	types.UserRoleManager: {
		"Confirm stakeholder notifications have gone out per the communication plan.",
		"Track containment and recovery milestones against the response SLA.",
		"Schedule a post-incident review within five business days of resolution.",
	},
	types.UserRoleClient: {
		"Rotate credentials for any accounts referenced in this incident.",
		"Apply pending security updates on systems in the affected segment.",
		"Report any further suspicious activity to your response contact immediately.",
	},
}

// RecommendationsFor returns the fixed recommendation set for a role. Unknown
// roles get the analyst set rather than an empty report section.
func RecommendationsFor(role types.UserRole) []string {
	recs, ok := recommendationsByRole[role]
	if !ok {
		recs = recommendationsByRole[types.UserRoleAnalyst]
	}
	out := make([]string, len(recs))
	copy(out, recs)
	return out
}
