package evaluator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigclause/internal/disclaimer/models"
	id "sigclause/pkg/domain"
)

func activeRule(name string, priority int) models.Rule {
	return models.Rule{
		ID:                  id.NewRuleID(),
		Name:                name,
		Priority:            priority,
		IsActive:            true,
		TemplateID:          id.NewTemplateID(),
		DepartmentCondition: models.ConditionAll,
		RegionCondition:     models.ConditionAll,
		RecipientCondition:  models.RecipientAll,
		IndustryCondition:   models.ConditionAll,
		UserSourceCondition: models.ConditionAll,
	}
}

func baseContext() models.RuleContext {
	return models.RuleContext{
		UserID:    id.NewUserID(),
		UserEmail: "sender@acme.com",
		OrgID:     id.NewOrganizationID(),
		OrgDomain: "acme.com",
		Timestamp: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestEvaluate_ActiveFilter(t *testing.T) {
	active := activeRule("active", 10)
	inactive := activeRule("inactive", 20)
	inactive.IsActive = false

	matches := Evaluate([]models.Rule{inactive, active}, baseContext())
	require.Len(t, matches, 1)
	assert.Equal(t, active.ID, matches[0].RuleID)
}

func TestEvaluate_PriorityOrdering(t *testing.T) {
	r5 := activeRule("low", 5)
	r20 := activeRule("high", 20)
	r10 := activeRule("mid", 10)

	matches := Evaluate([]models.Rule{r5, r20, r10}, baseContext())
	require.Len(t, matches, 3)
	assert.Equal(t, []string{"high", "mid", "low"},
		[]string{matches[0].RuleName, matches[1].RuleName, matches[2].RuleName})
}

func TestEvaluate_TiesKeepInputOrder(t *testing.T) {
	first := activeRule("first", 10)
	second := activeRule("second", 10)

	matches := Evaluate([]models.Rule{first, second}, baseContext())
	require.Len(t, matches, 2)
	assert.Equal(t, first.ID, matches[0].RuleID)
	assert.Equal(t, second.ID, matches[1].RuleID)
}

func TestEvaluate_CollectAll(t *testing.T) {
	matches := Evaluate([]models.Rule{
		activeRule("a", 1), activeRule("b", 2), activeRule("c", 3),
	}, baseContext())
	assert.Len(t, matches, 3, "every satisfied rule must contribute, not just the first")
}

func TestDepartmentPredicate(t *testing.T) {
	t.Run("all passes regardless of department", func(t *testing.T) {
		rule := activeRule("any", 1)
		ctx := baseContext()
		ctx.UserDepartment = ""
		assert.Len(t, Evaluate([]models.Rule{rule}, ctx), 1)

		ctx.UserDepartment = "Engineering"
		assert.Len(t, Evaluate([]models.Rule{rule}, ctx), 1)
	})

	t.Run("matches case-insensitively", func(t *testing.T) {
		rule := activeRule("sales only", 1)
		rule.DepartmentCondition = models.ConditionSpecific
		rule.Departments = []string{"Sales", "Marketing"}

		ctx := baseContext()
		ctx.UserDepartment = "sales"
		assert.Len(t, Evaluate([]models.Rule{rule}, ctx), 1)

		ctx.UserDepartment = "Engineering"
		assert.Empty(t, Evaluate([]models.Rule{rule}, ctx))
	})

	t.Run("empty list never filters", func(t *testing.T) {
		rule := activeRule("empty list", 1)
		rule.DepartmentCondition = models.ConditionSpecific
		rule.Departments = nil

		ctx := baseContext()
		ctx.UserDepartment = "anything"
		assert.Len(t, Evaluate([]models.Rule{rule}, ctx), 1)
	})

	t.Run("specific list fails undefined department", func(t *testing.T) {
		rule := activeRule("sales only", 1)
		rule.DepartmentCondition = models.ConditionSpecific
		rule.Departments = []string{"Sales"}

		ctx := baseContext()
		ctx.UserDepartment = ""
		assert.Empty(t, Evaluate([]models.Rule{rule}, ctx))
	})
}

func TestRegionPredicate(t *testing.T) {
	rule := activeRule("eu only", 1)
	rule.RegionCondition = models.ConditionSpecific
	rule.Regions = []string{"EU", "UK"}

	ctx := baseContext()
	ctx.UserRegion = "eu"
	assert.Len(t, Evaluate([]models.Rule{rule}, ctx), 1)

	ctx.UserRegion = "US"
	assert.Empty(t, Evaluate([]models.Rule{rule}, ctx))
}

func TestRecipientPredicate_External(t *testing.T) {
	rule := activeRule("external", 1)
	rule.RecipientCondition = models.RecipientExternal

	t.Run("one external recipient matches", func(t *testing.T) {
		ctx := baseContext()
		ctx.Recipients = []string{"a@acme.com", "b@partner.com"}
		assert.Len(t, Evaluate([]models.Rule{rule}, ctx), 1)
	})

	t.Run("all internal does not match", func(t *testing.T) {
		ctx := baseContext()
		ctx.Recipients = []string{"a@acme.com", "b@ACME.com"}
		assert.Empty(t, Evaluate([]models.Rule{rule}, ctx))
	})

	t.Run("unknown org domain never matches", func(t *testing.T) {
		ctx := baseContext()
		ctx.OrgDomain = ""
		ctx.Recipients = []string{"b@partner.com"}
		assert.Empty(t, Evaluate([]models.Rule{rule}, ctx))
	})

	t.Run("malformed recipient does not count as external", func(t *testing.T) {
		ctx := baseContext()
		ctx.Recipients = []string{"not-an-email"}
		assert.Empty(t, Evaluate([]models.Rule{rule}, ctx))
	})
}

func TestRecipientPredicate_Internal(t *testing.T) {
	rule := activeRule("internal", 1)
	rule.RecipientCondition = models.RecipientInternal

	t.Run("mixed recipients do not match", func(t *testing.T) {
		ctx := baseContext()
		ctx.Recipients = []string{"a@acme.com", "b@partner.com"}
		assert.Empty(t, Evaluate([]models.Rule{rule}, ctx))
	})

	t.Run("all internal matches case-insensitively", func(t *testing.T) {
		ctx := baseContext()
		ctx.Recipients = []string{"a@acme.com", "b@Acme.COM"}
		assert.Len(t, Evaluate([]models.Rule{rule}, ctx), 1)
	})

	t.Run("unknown org domain never matches", func(t *testing.T) {
		ctx := baseContext()
		ctx.OrgDomain = ""
		ctx.Recipients = []string{"a@acme.com"}
		assert.Empty(t, Evaluate([]models.Rule{rule}, ctx))
	})
}

func TestRecipientPredicate_SpecificDomains(t *testing.T) {
	rule := activeRule("partners", 1)
	rule.RecipientCondition = models.RecipientSpecificDomains
	rule.RecipientDomains = []string{"partner.com", "client.org"}

	t.Run("listed domain matches", func(t *testing.T) {
		ctx := baseContext()
		ctx.Recipients = []string{"x@other.com", "y@Partner.com"}
		assert.Len(t, Evaluate([]models.Rule{rule}, ctx), 1)
	})

	t.Run("unlisted domains do not match", func(t *testing.T) {
		ctx := baseContext()
		ctx.Recipients = []string{"x@other.com"}
		assert.Empty(t, Evaluate([]models.Rule{rule}, ctx))
	})

	t.Run("empty domain list always passes", func(t *testing.T) {
		open := activeRule("open", 1)
		open.RecipientCondition = models.RecipientSpecificDomains
		ctx := baseContext()
		ctx.Recipients = []string{"x@anywhere.net"}
		assert.Len(t, Evaluate([]models.Rule{open}, ctx), 1)
	})
}

func TestRecipientPredicate_AllAlwaysPasses(t *testing.T) {
	rule := activeRule("any recipients", 1)

	ctx := baseContext()
	ctx.Recipients = nil
	assert.Len(t, Evaluate([]models.Rule{rule}, ctx), 1)

	ctx.Recipients = []string{"a@anywhere.com"}
	assert.Len(t, Evaluate([]models.Rule{rule}, ctx), 1)
}

func TestIndustryPredicate(t *testing.T) {
	rule := activeRule("healthcare", 1)
	rule.IndustryCondition = models.ConditionSpecific
	rule.Industries = []string{"Healthcare", "Pharma"}

	ctx := baseContext()
	ctx.OrgIndustry = "healthcare"
	assert.Len(t, Evaluate([]models.Rule{rule}, ctx), 1)

	ctx.OrgIndustry = "finance"
	assert.Empty(t, Evaluate([]models.Rule{rule}, ctx))
}

// User sources are fixed system identifiers and compare case-sensitively,
// unlike the other list dimensions. The asymmetry is deliberate; this test
// pins it so a future change is intentional.
func TestUserSourcePredicate_CaseSensitive(t *testing.T) {
	rule := activeRule("google users", 1)
	rule.UserSourceCondition = models.ConditionSpecific
	rule.UserSources = []string{models.UserSourceGoogle}

	ctx := baseContext()
	ctx.UserSource = "google"
	assert.Len(t, Evaluate([]models.Rule{rule}, ctx), 1)

	ctx.UserSource = "Google"
	assert.Empty(t, Evaluate([]models.Rule{rule}, ctx),
		"user source comparison must be exact, not case-folded")
}

func TestDateWindowPredicate(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)

	rule := activeRule("windowed", 1)
	rule.StartDate = &start
	rule.EndDate = &end

	t.Run("inside the window matches", func(t *testing.T) {
		ctx := baseContext()
		ctx.Timestamp = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
		assert.Len(t, Evaluate([]models.Rule{rule}, ctx), 1)
	})

	t.Run("after the window fails", func(t *testing.T) {
		ctx := baseContext()
		ctx.Timestamp = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		assert.Empty(t, Evaluate([]models.Rule{rule}, ctx))
	})

	t.Run("before the window fails", func(t *testing.T) {
		ctx := baseContext()
		ctx.Timestamp = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
		assert.Empty(t, Evaluate([]models.Rule{rule}, ctx))
	})

	t.Run("boundary instants are inclusive", func(t *testing.T) {
		ctx := baseContext()
		ctx.Timestamp = start
		assert.Len(t, Evaluate([]models.Rule{rule}, ctx), 1)
		ctx.Timestamp = end
		assert.Len(t, Evaluate([]models.Rule{rule}, ctx), 1)
	})
}

func TestEvaluate_AllDimensionsAndTogether(t *testing.T) {
	rule := activeRule("narrow", 1)
	rule.DepartmentCondition = models.ConditionSpecific
	rule.Departments = []string{"Sales"}
	rule.RecipientCondition = models.RecipientExternal

	ctx := baseContext()
	ctx.UserDepartment = "Sales"
	ctx.Recipients = []string{"x@partner.com"}
	assert.Len(t, Evaluate([]models.Rule{rule}, ctx), 1)

	// One failing dimension vetoes the match.
	ctx.Recipients = []string{"x@acme.com"}
	assert.Empty(t, Evaluate([]models.Rule{rule}, ctx))
}
