package handler_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigclause/internal/disclaimer/handler"
	"sigclause/internal/disclaimer/models"
	"sigclause/internal/disclaimer/service"
	"sigclause/internal/disclaimer/store"
	id "sigclause/pkg/domain"
	"sigclause/pkg/testutil"
)

type fixture struct {
	router *chi.Mux
	store  *store.InMemoryStore
	orgID  id.OrganizationID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.NewInMemoryStore()

	svc, err := service.New(st, logger, nil, nil)
	require.NoError(t, err)
	admin, err := service.NewAdmin(st, logger, nil, nil)
	require.NoError(t, err)

	router := chi.NewRouter()
	handler.New(svc, admin, logger).Register(router)

	return &fixture{router: router, store: st, orgID: id.NewOrganizationID()}
}

func (f *fixture) createTemplate(t *testing.T, content string) *models.Template {
	t.Helper()
	tmpl := &models.Template{
		ID:      id.NewTemplateID(),
		OrgID:   f.orgID,
		Name:    "template for " + content,
		Content: content,
	}
	require.NoError(t, f.store.CreateTemplate(context.Background(), tmpl))
	return tmpl
}

func TestHandleResolve(t *testing.T) {
	f := newFixture(t)
	tmpl := f.createTemplate(t, "Confidential - do not forward.")
	require.NoError(t, f.store.CreateRule(context.Background(), &models.Rule{
		ID:         id.NewRuleID(),
		OrgID:      f.orgID,
		Name:       "blanket",
		IsActive:   true,
		TemplateID: tmpl.ID,
	}))

	t.Run("matching rule", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/disclaimers/resolve", map[string]any{
			"organizationId": f.orgID.String(),
			"userEmail":      "jane@acme.com",
		})
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		res := testutil.UnmarshalResponse[models.Resolution](t, rr)
		require.Len(t, res.Disclaimers, 1)
		assert.Equal(t, "blanket", res.Disclaimers[0].RuleName)
		assert.Contains(t, res.CombinedHTML, "Confidential - do not forward.")
	})

	t.Run("missing organization id", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/disclaimers/resolve", map[string]any{
			"userEmail": "jane@acme.com",
		})
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("malformed msp organization id", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/disclaimers/resolve", map[string]any{
			"organizationId":    f.orgID.String(),
			"mspOrganizationId": "not-a-uuid",
		})
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestHandlePresets(t *testing.T) {
	f := newFixture(t)

	t.Run("list all", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodGet, "/v1/disclaimer-presets", nil)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		list := testutil.UnmarshalResponse[[]map[string]any](t, rr)
		assert.NotEmpty(t, *list)
	})

	t.Run("filter by regulation folds case", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodGet, "/v1/disclaimer-presets?regulation=HIPAA", nil)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		list := testutil.UnmarshalResponse[[]map[string]any](t, rr)
		require.Len(t, *list, 1)
		assert.Equal(t, "hipaa", (*list)[0]["regulationType"])
	})

	t.Run("filter by category folds case", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodGet, "/v1/disclaimer-presets?category=Financial", nil)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		list := testutil.UnmarshalResponse[[]map[string]any](t, rr)
		require.Len(t, *list, 2)
	})

	t.Run("get by id", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodGet, "/v1/disclaimer-presets/gdpr-standard", nil)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("unknown id", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodGet, "/v1/disclaimer-presets/no-such-preset", nil)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})
}

func TestRuleCRUDRoutes(t *testing.T) {
	f := newFixture(t)
	tmpl := f.createTemplate(t, "body")
	base := "/v1/organizations/" + f.orgID.String() + "/disclaimer-rules"

	req := testutil.NewJSONRequest(t, http.MethodPost, base, map[string]any{
		"name":                 "external only",
		"priority":             10,
		"isActive":             true,
		"disclaimerTemplateId": tmpl.ID.String(),
		"recipientCondition":   "external",
	})
	rr := testutil.DoRequest(f.router, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)
	created := testutil.UnmarshalResponse[models.Rule](t, rr)
	require.False(t, created.ID.IsNil())

	t.Run("get", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodGet, base+"/"+created.ID.String(), nil)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		got := testutil.UnmarshalResponse[models.Rule](t, rr)
		assert.Equal(t, "external only", got.Name)
	})

	t.Run("list", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodGet, base, nil)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		list := testutil.UnmarshalResponse[[]models.Rule](t, rr)
		require.Len(t, *list, 1)
	})

	t.Run("update", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPut, base+"/"+created.ID.String(), map[string]any{
			"name":                 "renamed",
			"priority":             20,
			"isActive":             false,
			"disclaimerTemplateId": tmpl.ID.String(),
		})
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		got := testutil.UnmarshalResponse[models.Rule](t, rr)
		assert.Equal(t, "renamed", got.Name)
		assert.Equal(t, 20, got.Priority)
	})

	t.Run("create with unknown template", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, base, map[string]any{
			"name":                 "dangling",
			"disclaimerTemplateId": id.NewTemplateID().String(),
		})
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("create with unknown condition", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, base, map[string]any{
			"name":                 "bad condition",
			"disclaimerTemplateId": tmpl.ID.String(),
			"departmentCondition":  "sometimes",
		})
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("delete", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodDelete, base+"/"+created.ID.String(), nil)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusNoContent)

		req = testutil.NewJSONRequest(t, http.MethodGet, base+"/"+created.ID.String(), nil)
		rr = testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})

	t.Run("malformed organization id", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodGet, "/v1/organizations/nope/disclaimer-rules", nil)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestTemplateCRUDRoutes(t *testing.T) {
	f := newFixture(t)
	base := "/v1/organizations/" + f.orgID.String() + "/disclaimer-templates"

	req := testutil.NewJSONRequest(t, http.MethodPost, base, map[string]any{
		"name":    "footer",
		"content": "May contain confidential information.",
	})
	rr := testutil.DoRequest(f.router, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)
	created := testutil.UnmarshalResponse[models.Template](t, rr)
	require.False(t, created.ID.IsNil())

	t.Run("create without content", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, base, map[string]any{"name": "empty"})
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("get", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodGet, base+"/"+created.ID.String(), nil)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
	})

	t.Run("list empty for other org", func(t *testing.T) {
		otherBase := "/v1/organizations/" + id.NewOrganizationID().String() + "/disclaimer-templates"
		req := testutil.NewJSONRequest(t, http.MethodGet, otherBase, nil)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.JSONEq(t, "[]", rr.Body.String())
	})

	t.Run("update", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPut, base+"/"+created.ID.String(), map[string]any{
			"name":        "footer v2",
			"contentHtml": "<p>authored</p>",
		})
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		got := testutil.UnmarshalResponse[models.Template](t, rr)
		assert.Equal(t, "footer v2", got.Name)
	})

	t.Run("delete", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodDelete, base+"/"+created.ID.String(), nil)
		rr := testutil.DoRequest(f.router, req)
		testutil.AssertStatus(t, rr, http.StatusNoContent)
	})
}
