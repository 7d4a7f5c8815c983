package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"sigclause/internal/disclaimer/models"
	"sigclause/internal/disclaimer/store"
	id "sigclause/pkg/domain"
	audit "sigclause/pkg/platform/audit"
	auditmemory "sigclause/pkg/platform/audit/store/memory"
)

type recordingAuditor struct {
	store *auditmemory.InMemoryStore
}

func (r *recordingAuditor) Emit(ctx context.Context, event audit.Event) error {
	return r.store.Append(ctx, event)
}

type failingLoader struct{}

func (failingLoader) LoadForResolution(context.Context, id.OrganizationID, *id.OrganizationID) ([]models.RuleRecord, error) {
	return nil, errors.New("connection refused")
}

type ServiceSuite struct {
	suite.Suite

	store   *store.InMemoryStore
	audits  *auditmemory.InMemoryStore
	service *Service

	orgID id.OrganizationID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemoryStore()
	s.audits = auditmemory.NewInMemoryStore()
	s.orgID = id.NewOrganizationID()

	svc, err := New(s.store, slog.New(slog.NewTextHandler(io.Discard, nil)), nil, &recordingAuditor{store: s.audits})
	s.Require().NoError(err)
	s.service = svc
}

func (s *ServiceSuite) createTemplate(content string) *models.Template {
	tmpl := &models.Template{
		ID:      id.NewTemplateID(),
		OrgID:   s.orgID,
		Name:    content,
		Content: content,
	}
	s.Require().NoError(s.store.CreateTemplate(context.Background(), tmpl))
	return tmpl
}

func (s *ServiceSuite) createRule(rule *models.Rule) *models.Rule {
	if rule.ID.IsNil() {
		rule.ID = id.NewRuleID()
	}
	if rule.OrgID.IsNil() {
		rule.OrgID = s.orgID
	}
	s.Require().NoError(s.store.CreateRule(context.Background(), rule))
	return rule
}

func (s *ServiceSuite) baseContext() models.RuleContext {
	return models.RuleContext{
		UserID:    id.NewUserID(),
		UserEmail: "jane@acme.com",
		OrgID:     s.orgID,
		OrgDomain: "acme.com",
	}
}

// TestResolve_TwoMatchingRules walks the canonical two-rule case: a
// healthcare organization sends to an external recipient, one rule keyed on
// industry and one on recipient type, both matching, ordered by priority.
func (s *ServiceSuite) TestResolve_TwoMatchingRules() {
	hipaa := s.createTemplate("HIPAA: this message may contain PHI.")
	external := s.createTemplate("External: this message is confidential.")

	s.createRule(&models.Rule{
		Name:              "hipaa",
		Priority:          100,
		IsActive:          true,
		TemplateID:        hipaa.ID,
		IndustryCondition: models.ConditionSpecific,
		Industries:        []string{"healthcare"},
	})
	s.createRule(&models.Rule{
		Name:               "external recipients",
		Priority:           50,
		IsActive:           true,
		TemplateID:         external.ID,
		RecipientCondition: models.RecipientExternal,
	})

	rctx := s.baseContext()
	rctx.OrgIndustry = "Healthcare"
	rctx.Recipients = []string{"partner@other.com"}

	res, err := s.service.Resolve(context.Background(), rctx, nil)
	s.Require().NoError(err)
	s.Require().Len(res.Disclaimers, 2)
	s.Equal("hipaa", res.Disclaimers[0].RuleName)
	s.Equal("external recipients", res.Disclaimers[1].RuleName)

	hipaaIdx := strings.Index(res.CombinedHTML, "PHI")
	extIdx := strings.Index(res.CombinedHTML, "confidential")
	s.Greater(hipaaIdx, -1)
	s.Greater(extIdx, hipaaIdx, "combined HTML must preserve priority order")

	events, err := s.audits.ListByOrg(context.Background(), s.orgID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventDisclaimerResolved), events[0].Action)
	s.Len(events[0].RuleIDs, 2)
}

func (s *ServiceSuite) TestResolve_NoMatches() {
	tmpl := s.createTemplate("never applies")
	s.createRule(&models.Rule{
		Name:                "sales only",
		IsActive:            true,
		TemplateID:          tmpl.ID,
		DepartmentCondition: models.ConditionSpecific,
		Departments:         []string{"sales"},
	})

	rctx := s.baseContext()
	rctx.UserDepartment = "engineering"

	res, err := s.service.Resolve(context.Background(), rctx, nil)
	s.Require().NoError(err)
	s.Empty(res.Disclaimers)
	s.Equal("", res.CombinedHTML)
}

func (s *ServiceSuite) TestResolve_MSPCascade() {
	mspID := id.NewOrganizationID()
	mspTmpl := &models.Template{
		ID:      id.NewTemplateID(),
		OrgID:   mspID,
		Name:    "msp footer",
		Content: "Managed by MSP Corp.",
	}
	s.Require().NoError(s.store.CreateTemplate(context.Background(), mspTmpl))
	s.Require().NoError(s.store.CreateRule(context.Background(), &models.Rule{
		ID:               id.NewRuleID(),
		OrgID:            mspID,
		Name:             "msp footer",
		IsActive:         true,
		TemplateID:       mspTmpl.ID,
		CascadeToClients: true,
	}))

	rctx := s.baseContext()

	s.Run("with parent", func() {
		res, err := s.service.Resolve(context.Background(), rctx, &mspID)
		s.Require().NoError(err)
		s.Require().Len(res.Disclaimers, 1)
		s.Equal("msp footer", res.Disclaimers[0].RuleName)
	})

	s.Run("without parent", func() {
		res, err := s.service.Resolve(context.Background(), rctx, nil)
		s.Require().NoError(err)
		s.Empty(res.Disclaimers)
	})
}

func (s *ServiceSuite) TestResolve_MissingTemplateDropped() {
	kept := s.createTemplate("still here")
	gone := s.createTemplate("soon deleted")

	s.createRule(&models.Rule{Name: "kept", Priority: 10, IsActive: true, TemplateID: kept.ID})
	s.createRule(&models.Rule{Name: "orphaned", Priority: 20, IsActive: true, TemplateID: gone.ID})
	s.Require().NoError(s.store.DeleteTemplate(context.Background(), s.orgID, gone.ID))

	res, err := s.service.Resolve(context.Background(), s.baseContext(), nil)
	s.Require().NoError(err, "a missing template drops the match, it does not fail resolution")
	s.Require().Len(res.Disclaimers, 1)
	s.Equal("kept", res.Disclaimers[0].RuleName)

	events, err := s.audits.ListByOrg(context.Background(), s.orgID)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventTemplateMissing), events[0].Action)
	s.Equal(gone.ID, events[0].TemplateID)
	s.Equal(string(audit.EventDisclaimerResolved), events[1].Action)
}

func (s *ServiceSuite) TestResolve_ContentHTMLVerbatim() {
	tmpl := &models.Template{
		ID:          id.NewTemplateID(),
		OrgID:       s.orgID,
		Name:        "authored",
		Content:     "plain fallback",
		ContentHTML: `<table><tr><td>authored &amp; trusted</td></tr></table>`,
	}
	s.Require().NoError(s.store.CreateTemplate(context.Background(), tmpl))
	s.createRule(&models.Rule{Name: "authored", IsActive: true, TemplateID: tmpl.ID})

	res, err := s.service.Resolve(context.Background(), s.baseContext(), nil)
	s.Require().NoError(err)
	s.Require().Len(res.Disclaimers, 1)
	s.Equal(tmpl.ContentHTML, res.Disclaimers[0].HTML)
}

func (s *ServiceSuite) TestResolve_DefaultsTimestamp() {
	tmpl := s.createTemplate("windowed")
	start := time.Now().Add(-time.Hour)
	end := time.Now().Add(time.Hour)
	s.createRule(&models.Rule{
		Name:       "windowed",
		IsActive:   true,
		TemplateID: tmpl.ID,
		StartDate:  &start,
		EndDate:    &end,
	})

	rctx := s.baseContext()
	s.Require().True(rctx.Timestamp.IsZero())

	res, err := s.service.Resolve(context.Background(), rctx, nil)
	s.Require().NoError(err)
	s.Len(res.Disclaimers, 1)
}

func (s *ServiceSuite) TestResolve_StorageFailureIsFatal() {
	svc, err := New(failingLoader{}, slog.New(slog.NewTextHandler(io.Discard, nil)), nil, nil)
	s.Require().NoError(err)

	_, err = svc.Resolve(context.Background(), s.baseContext(), nil)
	s.Require().Error(err)
	s.Contains(err.Error(), "load disclaimer rules")
}

func (s *ServiceSuite) TestResolve_RequiresOrgID() {
	rctx := s.baseContext()
	rctx.OrgID = id.OrganizationID{}

	_, err := s.service.Resolve(context.Background(), rctx, nil)
	s.Require().Error(err)
}

func TestNew_Validation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := New(nil, logger, nil, nil)
	require.Error(t, err)

	_, err = New(store.NewInMemoryStore(), nil, nil, nil)
	require.Error(t, err)

	svc, err := New(store.NewInMemoryStore(), logger, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, svc)
}
