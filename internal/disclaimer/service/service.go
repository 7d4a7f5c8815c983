// Package service orchestrates disclaimer resolution: load the rule set,
// evaluate it against the sending user's context, render every match, and
// combine the fragments. The whole pass is stateless request/response work;
// the only I/O is the rule load at the front.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"sigclause/internal/disclaimer/evaluator"
	"sigclause/internal/disclaimer/metrics"
	"sigclause/internal/disclaimer/models"
	"sigclause/internal/disclaimer/render"
	"sigclause/internal/disclaimer/store"
	id "sigclause/pkg/domain"
	audit "sigclause/pkg/platform/audit"
	"sigclause/pkg/requestcontext"
)

// AuditEmitter is the slice of the audit publisher the service needs.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service resolves the disclaimers a user's outgoing signature must carry.
type Service struct {
	rules   store.RuleLoader
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor AuditEmitter
}

// New constructs the resolution service. metrics and auditor may be nil;
// rules and logger are required.
func New(rules store.RuleLoader, logger *slog.Logger, m *metrics.Metrics, auditor AuditEmitter) (*Service, error) {
	if rules == nil {
		return nil, fmt.Errorf("rule loader is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{rules: rules, logger: logger, metrics: m, auditor: auditor}, nil
}

// Resolve returns every disclaimer the context's message must carry, both
// itemized (for display and audit) and combined into one HTML block (for
// embedding under the rendered signature).
//
// A storage failure fails the whole call: omitting required legal text is a
// compliance violation, not a degraded-but-acceptable result. A matched
// rule whose template record is missing is the one non-fatal anomaly — the
// match is dropped, logged, and counted, and resolution continues. That
// mirrors longstanding behavior; the metric exists so a missing required
// disclaimer is at least visible.
func (s *Service) Resolve(ctx context.Context, rctx models.RuleContext, mspParentID *id.OrganizationID) (*models.Resolution, error) {
	if rctx.OrgID.IsNil() {
		return nil, fmt.Errorf("organization id is required")
	}
	if rctx.Timestamp.IsZero() {
		rctx.Timestamp = requestcontext.Now(ctx)
	}

	records, err := s.rules.LoadForResolution(ctx, rctx.OrgID, mspParentID)
	if err != nil {
		return nil, fmt.Errorf("load disclaimer rules: %w", err)
	}

	rules := make([]models.Rule, 0, len(records))
	templates := make(map[id.RuleID]*models.Template, len(records))
	for _, rec := range records {
		rec = rec.Normalize()
		rules = append(rules, rec.Rule)
		templates[rec.Rule.ID] = rec.Template
	}

	matches := evaluator.Evaluate(rules, rctx)

	resolution := &models.Resolution{}
	fragments := make([]string, 0, len(matches))
	matchedRuleIDs := make([]id.RuleID, 0, len(matches))
	for _, m := range matches {
		tmpl := templates[m.RuleID]
		if tmpl == nil {
			s.dropMissingTemplate(ctx, rctx, m)
			continue
		}
		html := render.Template(*tmpl)
		resolution.Disclaimers = append(resolution.Disclaimers, models.ResolvedDisclaimer{
			TemplateID:   tmpl.ID,
			RuleID:       m.RuleID,
			RuleName:     m.RuleName,
			TemplateName: tmpl.Name,
			HTML:         html,
		})
		fragments = append(fragments, html)
		matchedRuleIDs = append(matchedRuleIDs, m.RuleID)
	}
	resolution.CombinedHTML = render.Combine(fragments)

	if s.metrics != nil {
		s.metrics.IncrementResolutions()
		s.metrics.AddMatches(len(resolution.Disclaimers))
	}
	s.emit(ctx, audit.Event{
		Action:    string(audit.EventDisclaimerResolved),
		Timestamp: rctx.Timestamp,
		OrgID:     rctx.OrgID,
		UserID:    rctx.UserID,
		RuleIDs:   matchedRuleIDs,
		RequestID: requestcontext.RequestID(ctx),
	})

	return resolution, nil
}

// dropMissingTemplate handles a matched rule whose template lookup failed:
// referential inconsistency in storage, not a context-matching failure.
func (s *Service) dropMissingTemplate(ctx context.Context, rctx models.RuleContext, m models.Match) {
	s.logger.WarnContext(ctx, "dropping matched rule with missing template",
		"rule_id", m.RuleID.String(),
		"rule_name", m.RuleName,
		"template_id", m.TemplateID.String(),
		"organization_id", rctx.OrgID.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementMissingTemplate()
	}
	s.emit(ctx, audit.Event{
		Action:     string(audit.EventTemplateMissing),
		Timestamp:  rctx.Timestamp,
		OrgID:      rctx.OrgID,
		UserID:     rctx.UserID,
		RuleIDs:    []id.RuleID{m.RuleID},
		TemplateID: m.TemplateID,
		Reason:     "matched rule references a template that no longer exists",
		RequestID:  requestcontext.RequestID(ctx),
	})
}

// emit sends an audit event best-effort: audit sink trouble must never fail
// a resolution that already has its legal text.
func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit emit failed",
			"action", event.Action,
			"error", err.Error(),
		)
	}
}
