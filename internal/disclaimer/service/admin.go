package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sigclause/internal/disclaimer/models"
	"sigclause/internal/disclaimer/store"
	id "sigclause/pkg/domain"
	dErrors "sigclause/pkg/domain-errors"
	audit "sigclause/pkg/platform/audit"
	pstrings "sigclause/pkg/platform/strings"
)

// CacheInvalidator drops cached rule sets after a write. Nil-safe wiring:
// deployments without Redis pass nil.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, orgID id.OrganizationID)
}

// Admin is the authoring surface behind the dashboard's rule and template
// CRUD forms. It owns validation, write-path audit, and cache invalidation;
// raw persistence stays in the store.
type Admin struct {
	store   store.Store
	logger  *slog.Logger
	cache   CacheInvalidator
	auditor AuditEmitter
}

func NewAdmin(st store.Store, logger *slog.Logger, cache CacheInvalidator, auditor AuditEmitter) (*Admin, error) {
	if st == nil {
		return nil, errors.New("store is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Admin{store: st, logger: logger, cache: cache, auditor: auditor}, nil
}

func (a *Admin) CreateRule(ctx context.Context, rule *models.Rule) (*models.Rule, error) {
	if err := a.validateRule(ctx, rule); err != nil {
		return nil, err
	}
	if rule.ID.IsNil() {
		rule.ID = id.NewRuleID()
	}
	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now

	if err := a.store.CreateRule(ctx, rule); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create rule", err)
	}
	a.afterWrite(ctx, rule.OrgID, audit.EventRuleCreated, rule.ID, id.TemplateID{})
	return rule, nil
}

func (a *Admin) GetRule(ctx context.Context, orgID id.OrganizationID, ruleID id.RuleID) (*models.Rule, error) {
	rule, err := a.store.GetRule(ctx, orgID, ruleID)
	if err != nil {
		return nil, mapStoreErr(err, "rule not found")
	}
	return rule, nil
}

func (a *Admin) ListRules(ctx context.Context, orgID id.OrganizationID) ([]*models.Rule, error) {
	rules, err := a.store.ListRules(ctx, orgID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list rules", err)
	}
	return rules, nil
}

func (a *Admin) UpdateRule(ctx context.Context, rule *models.Rule) (*models.Rule, error) {
	if err := a.validateRule(ctx, rule); err != nil {
		return nil, err
	}
	rule.UpdatedAt = time.Now()
	if err := a.store.UpdateRule(ctx, rule); err != nil {
		return nil, mapStoreErr(err, "rule not found")
	}
	a.afterWrite(ctx, rule.OrgID, audit.EventRuleUpdated, rule.ID, id.TemplateID{})
	return rule, nil
}

func (a *Admin) DeleteRule(ctx context.Context, orgID id.OrganizationID, ruleID id.RuleID) error {
	if err := a.store.DeleteRule(ctx, orgID, ruleID); err != nil {
		return mapStoreErr(err, "rule not found")
	}
	a.afterWrite(ctx, orgID, audit.EventRuleDeleted, ruleID, id.TemplateID{})
	return nil
}

func (a *Admin) CreateTemplate(ctx context.Context, tmpl *models.Template) (*models.Template, error) {
	if err := validateTemplate(tmpl); err != nil {
		return nil, err
	}
	if tmpl.ID.IsNil() {
		tmpl.ID = id.NewTemplateID()
	}
	now := time.Now()
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now

	if err := a.store.CreateTemplate(ctx, tmpl); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create template", err)
	}
	a.afterWrite(ctx, tmpl.OrgID, audit.EventTemplateCreated, id.RuleID{}, tmpl.ID)
	return tmpl, nil
}

func (a *Admin) GetTemplate(ctx context.Context, orgID id.OrganizationID, templateID id.TemplateID) (*models.Template, error) {
	tmpl, err := a.store.GetTemplate(ctx, orgID, templateID)
	if err != nil {
		return nil, mapStoreErr(err, "template not found")
	}
	return tmpl, nil
}

func (a *Admin) ListTemplates(ctx context.Context, orgID id.OrganizationID) ([]*models.Template, error) {
	templates, err := a.store.ListTemplates(ctx, orgID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list templates", err)
	}
	return templates, nil
}

func (a *Admin) UpdateTemplate(ctx context.Context, tmpl *models.Template) (*models.Template, error) {
	if err := validateTemplate(tmpl); err != nil {
		return nil, err
	}
	tmpl.UpdatedAt = time.Now()
	if err := a.store.UpdateTemplate(ctx, tmpl); err != nil {
		return nil, mapStoreErr(err, "template not found")
	}
	a.afterWrite(ctx, tmpl.OrgID, audit.EventTemplateUpdated, id.RuleID{}, tmpl.ID)
	return tmpl, nil
}

// DeleteTemplate removes a template without checking for referencing rules;
// the resolution path tolerates the dangling reference by dropping the
// match, and the dashboard warns before deletion.
func (a *Admin) DeleteTemplate(ctx context.Context, orgID id.OrganizationID, templateID id.TemplateID) error {
	if err := a.store.DeleteTemplate(ctx, orgID, templateID); err != nil {
		return mapStoreErr(err, "template not found")
	}
	a.afterWrite(ctx, orgID, audit.EventTemplateDeleted, id.RuleID{}, templateID)
	return nil
}

// validateRule keeps the condition discriminator set closed and verifies
// the rule's template exists in the same organization at authoring time.
func (a *Admin) validateRule(ctx context.Context, rule *models.Rule) error {
	if rule == nil {
		return dErrors.New(dErrors.CodeBadRequest, "rule body is required")
	}
	if rule.OrgID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "organization id is required")
	}
	if rule.Name == "" {
		return dErrors.New(dErrors.CodeBadRequest, "rule name is required")
	}
	if rule.TemplateID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "disclaimer template id is required")
	}

	for _, c := range []models.ListCondition{
		rule.DepartmentCondition, rule.RegionCondition,
		rule.IndustryCondition, rule.UserSourceCondition,
	} {
		switch c {
		case "", models.ConditionAll, models.ConditionSpecific:
		default:
			return dErrors.New(dErrors.CodeBadRequest, "unknown condition: "+string(c))
		}
	}
	switch rule.RecipientCondition {
	case "", models.RecipientAll, models.RecipientExternal,
		models.RecipientInternal, models.RecipientSpecificDomains:
	default:
		return dErrors.New(dErrors.CodeBadRequest,
			"unknown recipient condition: "+string(rule.RecipientCondition))
	}

	if rule.StartDate != nil && rule.EndDate != nil && rule.EndDate.Before(*rule.StartDate) {
		return dErrors.New(dErrors.CodeBadRequest, "end date precedes start date")
	}

	rule.Departments = pstrings.DedupeAndTrim(rule.Departments)
	rule.Regions = pstrings.DedupeAndTrim(rule.Regions)
	rule.Industries = pstrings.DedupeAndTrim(rule.Industries)
	rule.UserSources = pstrings.DedupeAndTrim(rule.UserSources)
	rule.RecipientDomains = pstrings.DedupeAndTrimLower(rule.RecipientDomains)

	if _, err := a.store.GetTemplate(ctx, rule.OrgID, rule.TemplateID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return dErrors.New(dErrors.CodeBadRequest, "disclaimer template does not exist")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "check template", err)
	}
	return nil
}

func validateTemplate(tmpl *models.Template) error {
	if tmpl == nil {
		return dErrors.New(dErrors.CodeBadRequest, "template body is required")
	}
	if tmpl.OrgID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "organization id is required")
	}
	if tmpl.Name == "" {
		return dErrors.New(dErrors.CodeBadRequest, "template name is required")
	}
	if tmpl.Content == "" && tmpl.ContentHTML == "" {
		return dErrors.New(dErrors.CodeBadRequest, "template content is required")
	}
	return nil
}

func (a *Admin) afterWrite(ctx context.Context, orgID id.OrganizationID, action audit.AuditEvent, ruleID id.RuleID, templateID id.TemplateID) {
	if a.cache != nil {
		a.cache.Invalidate(ctx, orgID)
	}
	if a.auditor == nil {
		return
	}
	event := audit.Event{
		Action: string(action),
		OrgID:  orgID,
	}
	if !ruleID.IsNil() {
		event.RuleIDs = []id.RuleID{ruleID}
	}
	if !templateID.IsNil() {
		event.TemplateID = templateID
	}
	if err := a.auditor.Emit(ctx, event); err != nil {
		a.logger.ErrorContext(ctx, "audit emit failed", "action", string(action), "error", err.Error())
	}
}

func mapStoreErr(err error, notFoundMsg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFoundMsg)
	}
	return dErrors.Wrap(dErrors.CodeInternal, "storage failure", err)
}
