// Package evaluator decides which disclaimer rules apply to a message.
//
// Evaluation is a pure function of the rule list and the context: no I/O,
// no clock reads (the evaluation instant travels in the context). Every
// satisfied rule contributes its disclaimer — a message can be subject to
// GDPR, a confidentiality notice, and an industry disclaimer all at once —
// so the result is the full set of matches in priority order, never just
// the first.
package evaluator

import (
	"sort"
	"strings"
	"time"

	"sigclause/internal/disclaimer/models"
	"sigclause/pkg/email"
)

// Evaluate filters rules to the active ones, sorts them by descending
// priority (stable, so equal priorities keep their input order), and
// returns a match for every rule whose six condition dimensions all pass.
func Evaluate(rules []models.Rule, ctx models.RuleContext) []models.Match {
	active := make([]models.Rule, 0, len(rules))
	for _, r := range rules {
		if r.IsActive {
			active = append(active, r)
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Priority > active[j].Priority
	})

	now := ctx.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	var matches []models.Match
	for _, r := range active {
		if !matchesDepartment(r, ctx) {
			continue
		}
		if !matchesRegion(r, ctx) {
			continue
		}
		if !matchesRecipients(r, ctx) {
			continue
		}
		if !matchesIndustry(r, ctx) {
			continue
		}
		if !matchesUserSource(r, ctx) {
			continue
		}
		if !withinDateWindow(r, now) {
			continue
		}
		matches = append(matches, models.Match{
			RuleID:     r.ID,
			RuleName:   r.Name,
			TemplateID: r.TemplateID,
		})
	}
	return matches
}

func matchesDepartment(r models.Rule, ctx models.RuleContext) bool {
	if r.DepartmentCondition == models.ConditionAll || len(r.Departments) == 0 {
		return true
	}
	return containsFold(r.Departments, ctx.UserDepartment)
}

func matchesRegion(r models.Rule, ctx models.RuleContext) bool {
	if r.RegionCondition == models.ConditionAll || len(r.Regions) == 0 {
		return true
	}
	return containsFold(r.Regions, ctx.UserRegion)
}

func matchesIndustry(r models.Rule, ctx models.RuleContext) bool {
	if r.IndustryCondition == models.ConditionAll || len(r.Industries) == 0 {
		return true
	}
	return containsFold(r.Industries, ctx.OrgIndustry)
}

// matchesUserSource compares exactly: user sources are fixed system
// identifiers (google, microsoft, manual, hubspot), not free text.
func matchesUserSource(r models.Rule, ctx models.RuleContext) bool {
	if r.UserSourceCondition == models.ConditionAll || len(r.UserSources) == 0 {
		return true
	}
	for _, s := range r.UserSources {
		if s == ctx.UserSource {
			return true
		}
	}
	return false
}

func matchesRecipients(r models.Rule, ctx models.RuleContext) bool {
	switch r.RecipientCondition {
	case models.RecipientAll, "":
		return true
	case models.RecipientExternal:
		if ctx.OrgDomain == "" {
			return false
		}
		for _, rcpt := range ctx.Recipients {
			d := email.Domain(rcpt)
			if d != "" && d != strings.ToLower(ctx.OrgDomain) {
				return true
			}
		}
		return false
	case models.RecipientInternal:
		if ctx.OrgDomain == "" {
			return false
		}
		for _, rcpt := range ctx.Recipients {
			if !email.SameDomain(rcpt, ctx.OrgDomain) {
				return false
			}
		}
		return true
	case models.RecipientSpecificDomains:
		if len(r.RecipientDomains) == 0 {
			return true
		}
		for _, rcpt := range ctx.Recipients {
			if containsFold(r.RecipientDomains, email.Domain(rcpt)) {
				return true
			}
		}
		return false
	default:
		// Unknown discriminators never match; admin-side validation keeps
		// the set closed, this is the storage-corruption path.
		return false
	}
}

func withinDateWindow(r models.Rule, now time.Time) bool {
	if r.StartDate != nil && now.Before(*r.StartDate) {
		return false
	}
	if r.EndDate != nil && now.After(*r.EndDate) {
		return false
	}
	return true
}

func containsFold(values []string, candidate string) bool {
	if candidate == "" {
		return false
	}
	for _, v := range values {
		if strings.EqualFold(v, candidate) {
			return true
		}
	}
	return false
}
