// Package store persists disclaimer rules and templates and loads the rule
// set a resolution pass evaluates. Implementations come in pairs: an
// in-memory store for unit tests and a PostgreSQL store for production,
// optionally fronted by a Redis read-through cache.
package store

import (
	"context"
	"errors"

	"sigclause/internal/disclaimer/models"
	id "sigclause/pkg/domain"
)

// ErrNotFound is returned when a rule or template does not exist in the
// caller's organization.
var ErrNotFound = errors.New("not found")

// RuleLoader is the read path the resolution orchestrator depends on.
//
// LoadForResolution returns the organization's active rules joined with
// their templates; when mspParentID is non-nil it additionally returns the
// parent MSP's active rules marked cascade_to_clients. Own-org rules come
// first. Any fetch failure is returned as-is: a disclaimer must never be
// silently dropped because a read failed.
type RuleLoader interface {
	LoadForResolution(ctx context.Context, orgID id.OrganizationID, mspParentID *id.OrganizationID) ([]models.RuleRecord, error)
}

// RuleStore is the admin-facing CRUD surface for rules.
type RuleStore interface {
	RuleLoader

	CreateRule(ctx context.Context, rule *models.Rule) error
	GetRule(ctx context.Context, orgID id.OrganizationID, ruleID id.RuleID) (*models.Rule, error)
	ListRules(ctx context.Context, orgID id.OrganizationID) ([]*models.Rule, error)
	UpdateRule(ctx context.Context, rule *models.Rule) error
	DeleteRule(ctx context.Context, orgID id.OrganizationID, ruleID id.RuleID) error
}

// TemplateStore is the admin-facing CRUD surface for templates. Deleting a
// template still referenced by rules is not guarded here; the resolution
// path treats a dangling reference as a per-match drop.
type TemplateStore interface {
	CreateTemplate(ctx context.Context, tmpl *models.Template) error
	GetTemplate(ctx context.Context, orgID id.OrganizationID, templateID id.TemplateID) (*models.Template, error)
	ListTemplates(ctx context.Context, orgID id.OrganizationID) ([]*models.Template, error)
	UpdateTemplate(ctx context.Context, tmpl *models.Template) error
	DeleteTemplate(ctx context.Context, orgID id.OrganizationID, templateID id.TemplateID) error
}

// Store is the full persistence surface.
type Store interface {
	RuleStore
	TemplateStore
}
