// Package audit captures the compliance trail for disclaimer activity.
// Every resolution pass and every rule/template mutation emits an event;
// sinks (Kafka in production, memory in tests) fan out behind the Store
// interface.
package audit

import (
	"context"
	"time"

	id "sigclause/pkg/domain"
)

// EventCategory classifies audit events for retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance:
	// which disclaimers were (or could not be) attached to outgoing mail.
	// These require tamper-proof storage and long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine authoring activity; shorter
	// retention, may be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic. Transport-agnostic so stores and
// sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	Action    string

	OrgID  id.OrganizationID
	UserID id.UserID

	// RuleIDs lists the rules involved: every matched rule for a
	// resolution, the single rule for a mutation or a dropped match.
	RuleIDs []id.RuleID

	// TemplateID is set for template mutations and missing-template drops.
	TemplateID id.TemplateID

	Reason    string
	RequestID string
}

// AuditEvent names the actions this engine records.
type AuditEvent string

const (
	// Resolution events
	EventDisclaimerResolved AuditEvent = "disclaimer_resolved"
	EventTemplateMissing    AuditEvent = "disclaimer_template_missing"

	// Authoring events
	EventRuleCreated     AuditEvent = "disclaimer_rule_created"
	EventRuleUpdated     AuditEvent = "disclaimer_rule_updated"
	EventRuleDeleted     AuditEvent = "disclaimer_rule_deleted"
	EventTemplateCreated AuditEvent = "disclaimer_template_created"
	EventTemplateUpdated AuditEvent = "disclaimer_template_updated"
	EventTemplateDeleted AuditEvent = "disclaimer_template_deleted"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventDisclaimerResolved: CategoryCompliance,
	EventTemplateMissing:    CategoryCompliance,

	EventRuleCreated:     CategoryOperations,
	EventRuleUpdated:     CategoryOperations,
	EventRuleDeleted:     CategoryOperations,
	EventTemplateCreated: CategoryOperations,
	EventTemplateUpdated: CategoryOperations,
	EventTemplateDeleted: CategoryOperations,
}

// Category returns the event's category, defaulting to compliance so an
// unmapped event errs toward the stricter retention class.
func (e AuditEvent) Category() EventCategory {
	if c, ok := eventCategories[e]; ok {
		return c
	}
	return CategoryCompliance
}

// Store persists audit events. Implementations must be safe for concurrent
// use; Append must not block domain logic for longer than a local write.
type Store interface {
	Append(ctx context.Context, event Event) error
}
