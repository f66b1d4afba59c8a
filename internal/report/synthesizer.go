package report

import (
	"context"
	"log/slog"
	"time"

	"github.com/haven-sec/rehearse/internal/playbook"
	"github.com/haven-sec/rehearse/internal/store"
	"github.com/haven-sec/rehearse/internal/types"
)

// Synthesizer assembles reports from the session store and playbook store.
// It holds no state of its own and is safe for concurrent use.
type Synthesizer struct {
	store     store.SessionStore
	playbooks playbook.Store
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) { s.logger = logger }
}

// WithClock overrides the timestamp source for deterministic elapsed times
// in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Synthesizer) { s.now = now }
}

// NewSynthesizer creates a Synthesizer over the given stores.
func NewSynthesizer(sessions store.SessionStore, playbooks playbook.Store, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		store:     sessions,
		playbooks: playbooks,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateReport builds a point-in-time report for an incident from its
// current session and incident record. It never mutates either; a missing
// playbook degrades the technique union rather than failing the whole report,
// since the rest of the artifact is still derivable.
func (s *Synthesizer) GenerateReport(ctx context.Context, incidentID types.ID) (*Report, error) {
	rec, err := s.store.GetIncident(ctx, incidentID)
	if err != nil {
		return nil, err
	}

	sess, err := s.store.GetSession(ctx, incidentID)
	if err != nil {
		return nil, err
	}

	generatedAt := s.now()
	rep := &Report{
		IncidentID:  incidentID,
		SessionID:   sess.ID,
		GeneratedAt: generatedAt,
		Role:        sess.UserRole,
		Summary: Summary{
			Title:              rec.Title,
			IncidentType:       rec.IncidentType,
			Severity:           rec.Severity,
			IncidentStatus:     rec.Status,
			SessionStatus:      sess.Status,
			AffectedAssetCount: len(rec.AffectedEndpoints),
			ElapsedResponse:    generatedAt.Sub(sess.StartedAt),
		},
		Timeline:        make([]TimelineEntry, 0, len(sess.ActionsTaken)),
		MITRETactics:    append([]string{}, rec.MITRETactics...),
		Recommendations: RecommendationsFor(sess.UserRole),
	}

	// Log order is the authoritative chronology; no re-sorting.
	for _, entry := range sess.ActionsTaken {
		rep.Timeline = append(rep.Timeline, TimelineEntry{
			Timestamp:   entry.Timestamp,
			ActionLabel: entry.ActionLabel,
			FromNode:    entry.Details["from_node"],
			ToNode:      entry.Details["to_node"],
			ActionID:    entry.Details["action_id"],
		})
	}

	pb, err := s.playbooks.GetPlaybook(ctx, sess.PlaybookID)
	if err != nil {
		s.logger.WarnContext(ctx, "playbook unavailable for technique union",
			"incident_id", incidentID.String(),
			"playbook_id", sess.PlaybookID,
			"error", err.Error())
		rep.MITRETechniques = []string{}
		return rep, nil
	}
	rep.MITRETechniques = pb.TechniquesFor(sess.VisitedNodes())
	if rep.MITRETechniques == nil {
		rep.MITRETechniques = []string{}
	}
	return rep, nil
}
