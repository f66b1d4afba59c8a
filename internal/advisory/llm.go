package advisory

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

const advisoryMaxTokens = 512

// LLMGenerator asks a language model for phase guidance and falls back to the
// static templates when the model is unreachable. Output remains display-only
// text; nothing the model says can alter workflow behavior.
type LLMGenerator struct {
	model    llms.Model
	fallback Generator
}

// NewLLMGenerator wraps a langchaingo model. The fallback is required so a
// provider outage never blanks the guidance panel.
func NewLLMGenerator(model llms.Model, fallback Generator) *LLMGenerator {
	return &LLMGenerator{model: model, fallback: fallback}
}

// Generate implements Generator.
func (g *LLMGenerator) Generate(ctx context.Context, req Request) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, g.model, g.prompt(req),
		llms.WithMaxTokens(advisoryMaxTokens),
		llms.WithTemperature(0.3),
	)
	if err != nil {
		return g.fallback.Generate(ctx, req)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return g.fallback.Generate(ctx, req)
	}
	return out, nil
}

func (g *LLMGenerator) prompt(req Request) string {
	var b strings.Builder
	b.WriteString("You are an incident response coach in a training simulation. ")
	fmt.Fprintf(&b, "Write concise guidance for the %s phase, addressed to a %s.\n", req.Phase.Title(), req.Role)
	if req.Incident != nil {
		fmt.Fprintf(&b, "Incident: %s (type %s, severity %s, status %s).\n",
			req.Incident.Title, req.Incident.IncidentType, req.Incident.Severity, req.Incident.Status)
		if len(req.Incident.MITRETactics) > 0 {
			fmt.Fprintf(&b, "Observed MITRE tactics: %s.\n", strings.Join(req.Incident.MITRETactics, ", "))
		}
	}
	b.WriteString("Keep it under 120 words. Do not invent facts beyond the incident details given.")
	return b.String()
}

var _ Generator = (*LLMGenerator)(nil)
