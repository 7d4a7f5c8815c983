// Package models defines the disclaimer rule, template, and context types
// shared by the store, evaluator, renderer, and orchestrator.
package models

import (
	"time"

	id "sigclause/pkg/domain"
)

// ListCondition discriminates how a value-list dimension filters
// (department, region, industry, user source).
type ListCondition string

const (
	// ConditionAll means the dimension does not filter; every context passes.
	ConditionAll ListCondition = "all"
	// ConditionSpecific matches the context value against the rule's list.
	ConditionSpecific ListCondition = "specific"
)

// RecipientCondition discriminates how the recipient dimension filters.
type RecipientCondition string

const (
	RecipientAll             RecipientCondition = "all"
	RecipientExternal        RecipientCondition = "external"
	RecipientInternal        RecipientCondition = "internal"
	RecipientSpecificDomains RecipientCondition = "specific_domains"
)

// UserSource identifies the system a user record originated from. These
// are fixed system identifiers and compare case-sensitively.
type UserSource = string

const (
	UserSourceGoogle    UserSource = "google"
	UserSourceMicrosoft UserSource = "microsoft"
	UserSourceManual    UserSource = "manual"
	UserSourceHubspot   UserSource = "hubspot"
)

// Styling controls the rendered wrapper when a template has no pre-authored
// HTML. Zero-valued fields fall back to the renderer's defaults.
type Styling struct {
	BackgroundColor string `json:"backgroundColor,omitempty"`
	BorderColor     string `json:"borderColor,omitempty"`
	TextColor       string `json:"textColor,omitempty"`
	FontSize        string `json:"fontSize,omitempty"`
	Padding         string `json:"padding,omitempty"`
}

// Template is the renderable disclaimer content. When ContentHTML is set
// the renderer uses it verbatim and ignores Styling.
type Template struct {
	ID          id.TemplateID     `json:"id"`
	OrgID       id.OrganizationID `json:"organizationId"`
	Name        string            `json:"name"`
	Content     string            `json:"content"`
	ContentHTML string            `json:"contentHtml,omitempty"`
	Styling     *Styling          `json:"styling,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// Rule is a condition set mapped to a disclaimer template. All six
// dimensions AND together; a dimension whose condition is "all" (or whose
// value list is empty) never filters.
type Rule struct {
	ID         id.RuleID         `json:"id"`
	OrgID      id.OrganizationID `json:"organizationId"`
	Name       string            `json:"name"`
	Priority   int               `json:"priority"`
	IsActive   bool              `json:"isActive"`
	TemplateID id.TemplateID     `json:"disclaimerTemplateId"`

	DepartmentCondition ListCondition `json:"departmentCondition"`
	Departments         []string      `json:"departments,omitempty"`

	RegionCondition ListCondition `json:"regionCondition"`
	Regions         []string      `json:"regions,omitempty"`

	RecipientCondition RecipientCondition `json:"recipientCondition"`
	RecipientDomains   []string           `json:"recipientDomains,omitempty"`

	IndustryCondition ListCondition `json:"industryCondition"`
	Industries        []string      `json:"industries,omitempty"`

	UserSourceCondition ListCondition `json:"userSourceCondition"`
	UserSources         []string      `json:"userSources,omitempty"`

	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`

	// CascadeToClients makes an MSP parent's rule visible to every client
	// organization's resolution pass without copying it into their rule sets.
	CascadeToClients bool `json:"cascadeToClients"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RuleRecord is a rule row as it comes out of storage, joined with its
// template. Condition discriminators may be empty in legacy rows; Normalize
// centralizes the defaulting.
type RuleRecord struct {
	Rule     Rule
	Template *Template
}

// Normalize fills every absent condition discriminator with the documented
// default so downstream predicates never see an empty discriminator.
func (r RuleRecord) Normalize() RuleRecord {
	rule := r.Rule
	if rule.DepartmentCondition == "" {
		rule.DepartmentCondition = ConditionAll
	}
	if rule.RegionCondition == "" {
		rule.RegionCondition = ConditionAll
	}
	if rule.RecipientCondition == "" {
		rule.RecipientCondition = RecipientAll
	}
	if rule.IndustryCondition == "" {
		rule.IndustryCondition = ConditionAll
	}
	if rule.UserSourceCondition == "" {
		rule.UserSourceCondition = ConditionAll
	}
	return RuleRecord{Rule: rule, Template: r.Template}
}

// RuleContext describes the sending user and message for one resolution
// pass. It is never persisted.
type RuleContext struct {
	UserID    id.UserID         `json:"userId"`
	UserEmail string            `json:"userEmail"`
	OrgID     id.OrganizationID `json:"organizationId"`

	UserDepartment string   `json:"userDepartment,omitempty"`
	UserRegion     string   `json:"userRegion,omitempty"`
	UserSource     string   `json:"userSource,omitempty"`
	OrgDomain      string   `json:"organizationDomain,omitempty"`
	OrgIndustry    string   `json:"organizationIndustry,omitempty"`
	Recipients     []string `json:"recipients,omitempty"`

	// Timestamp is the evaluation instant; zero means "now" as supplied by
	// the caller (typically requestcontext.Now).
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Match is the evaluator's per-rule result: just enough identity to look up
// and render the template, in priority order.
type Match struct {
	RuleID     id.RuleID
	RuleName   string
	TemplateID id.TemplateID
}

// ResolvedDisclaimer is one rendered disclaimer with full identity for
// display and audit.
type ResolvedDisclaimer struct {
	TemplateID   id.TemplateID `json:"templateId"`
	RuleID       id.RuleID     `json:"ruleId"`
	RuleName     string        `json:"ruleName"`
	TemplateName string        `json:"templateName"`
	HTML         string        `json:"html"`
}

// Resolution is the orchestrator's output: the itemized disclaimers plus the
// combined HTML ready for embedding under a signature.
type Resolution struct {
	Disclaimers  []ResolvedDisclaimer `json:"disclaimers"`
	CombinedHTML string               `json:"combinedHtml"`
}
