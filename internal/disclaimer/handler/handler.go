// Package handler exposes the disclaimer engine over HTTP: the resolution
// endpoint the signature-assembly step calls, the rule/template CRUD the
// admin dashboard uses, and the static preset catalog.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"sigclause/internal/disclaimer/models"
	"sigclause/internal/disclaimer/presets"
	"sigclause/internal/platform/middleware"
	id "sigclause/pkg/domain"
	dErrors "sigclause/pkg/domain-errors"
)

// Resolver resolves disclaimers for a rule context.
type Resolver interface {
	Resolve(ctx context.Context, rctx models.RuleContext, mspParentID *id.OrganizationID) (*models.Resolution, error)
}

// AdminService is the authoring surface behind the CRUD routes.
type AdminService interface {
	CreateRule(ctx context.Context, rule *models.Rule) (*models.Rule, error)
	GetRule(ctx context.Context, orgID id.OrganizationID, ruleID id.RuleID) (*models.Rule, error)
	ListRules(ctx context.Context, orgID id.OrganizationID) ([]*models.Rule, error)
	UpdateRule(ctx context.Context, rule *models.Rule) (*models.Rule, error)
	DeleteRule(ctx context.Context, orgID id.OrganizationID, ruleID id.RuleID) error

	CreateTemplate(ctx context.Context, tmpl *models.Template) (*models.Template, error)
	GetTemplate(ctx context.Context, orgID id.OrganizationID, templateID id.TemplateID) (*models.Template, error)
	ListTemplates(ctx context.Context, orgID id.OrganizationID) ([]*models.Template, error)
	UpdateTemplate(ctx context.Context, tmpl *models.Template) (*models.Template, error)
	DeleteTemplate(ctx context.Context, orgID id.OrganizationID, templateID id.TemplateID) error
}

type Handler struct {
	logger   *slog.Logger
	resolver Resolver
	admin    AdminService
}

func New(resolver Resolver, admin AdminService, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, resolver: resolver, admin: admin}
}

// Register mounts all disclaimer routes with the shared middleware chain.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.ContentTypeJSON)

	router.Post("/disclaimers/resolve", h.handleResolve)

	router.Get("/disclaimer-presets", h.handleListPresets)
	router.Get("/disclaimer-presets/{presetID}", h.handleGetPreset)

	router.Route("/organizations/{orgID}/disclaimer-rules", func(r chi.Router) {
		r.Post("/", h.handleCreateRule)
		r.Get("/", h.handleListRules)
		r.Get("/{ruleID}", h.handleGetRule)
		r.Put("/{ruleID}", h.handleUpdateRule)
		r.Delete("/{ruleID}", h.handleDeleteRule)
	})
	router.Route("/organizations/{orgID}/disclaimer-templates", func(r chi.Router) {
		r.Post("/", h.handleCreateTemplate)
		r.Get("/", h.handleListTemplates)
		r.Get("/{templateID}", h.handleGetTemplate)
		r.Put("/{templateID}", h.handleUpdateTemplate)
		r.Delete("/{templateID}", h.handleDeleteTemplate)
	})

	r.Mount("/v1", router)
}

// resolveRequest is the wire shape of a resolution call: the rule context
// plus the optional MSP parent supplied by the org-hierarchy lookup.
type resolveRequest struct {
	models.RuleContext
	MSPOrganizationID string `json:"mspOrganizationId,omitempty"`
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.OrgID.IsNil() {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "organizationId is required"))
		return
	}

	var mspParentID *id.OrganizationID
	if req.MSPOrganizationID != "" {
		parsed, err := id.ParseOrganizationID(req.MSPOrganizationID)
		if err != nil {
			writeError(w, err)
			return
		}
		mspParentID = &parsed
	}

	resolution, err := h.resolver.Resolve(ctx, req.RuleContext, mspParentID)
	if err != nil {
		h.logger.ErrorContext(ctx, "disclaimer resolution failed",
			"organization_id", req.OrgID.String(),
			"error", err.Error(),
		)
		writeError(w, dErrors.Wrap(dErrors.CodeInternal, "resolution failed", err))
		return
	}
	writeJSON(w, http.StatusOK, resolution)
}

func (h *Handler) handleListPresets(w http.ResponseWriter, r *http.Request) {
	// Filter values fold to lower case, matching the case-insensitive
	// treatment the rule condition dimensions get.
	if reg := r.URL.Query().Get("regulation"); reg != "" {
		writeJSON(w, http.StatusOK, presets.ByRegulation(presets.Regulation(strings.ToLower(reg))))
		return
	}
	if cat := r.URL.Query().Get("category"); cat != "" {
		writeJSON(w, http.StatusOK, presets.ByCategory(presets.Category(strings.ToLower(cat))))
		return
	}
	writeJSON(w, http.StatusOK, presets.All())
}

func (h *Handler) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	p, ok := presets.ByID(chi.URLParam(r, "presetID"))
	if !ok {
		writeError(w, dErrors.New(dErrors.CodeNotFound, "preset not found"))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	var rule models.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	rule.OrgID = orgID

	created, err := h.admin.CreateRule(r.Context(), &rule)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleListRules(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	rules, err := h.admin.ListRules(r.Context(), orgID)
	if err != nil {
		writeError(w, err)
		return
	}
	if rules == nil {
		rules = []*models.Rule{}
	}
	writeJSON(w, http.StatusOK, rules)
}

func (h *Handler) handleGetRule(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	ruleID, err := id.ParseRuleID(chi.URLParam(r, "ruleID"))
	if err != nil {
		writeError(w, err)
		return
	}
	rule, err := h.admin.GetRule(r.Context(), orgID, ruleID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *Handler) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	ruleID, err := id.ParseRuleID(chi.URLParam(r, "ruleID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var rule models.Rule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	rule.ID = ruleID
	rule.OrgID = orgID

	updated, err := h.admin.UpdateRule(r.Context(), &rule)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	ruleID, err := id.ParseRuleID(chi.URLParam(r, "ruleID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.admin.DeleteRule(r.Context(), orgID, ruleID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	var tmpl models.Template
	if err := json.NewDecoder(r.Body).Decode(&tmpl); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	tmpl.OrgID = orgID

	created, err := h.admin.CreateTemplate(r.Context(), &tmpl)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	templates, err := h.admin.ListTemplates(r.Context(), orgID)
	if err != nil {
		writeError(w, err)
		return
	}
	if templates == nil {
		templates = []*models.Template{}
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *Handler) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	templateID, err := id.ParseTemplateID(chi.URLParam(r, "templateID"))
	if err != nil {
		writeError(w, err)
		return
	}
	tmpl, err := h.admin.GetTemplate(r.Context(), orgID, templateID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

func (h *Handler) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	templateID, err := id.ParseTemplateID(chi.URLParam(r, "templateID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var tmpl models.Template
	if err := json.NewDecoder(r.Body).Decode(&tmpl); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	tmpl.ID = templateID
	tmpl.OrgID = orgID

	updated, err := h.admin.UpdateTemplate(r.Context(), &tmpl)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	orgID, ok := h.orgID(w, r)
	if !ok {
		return
	}
	templateID, err := id.ParseTemplateID(chi.URLParam(r, "templateID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.admin.DeleteTemplate(r.Context(), orgID, templateID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) orgID(w http.ResponseWriter, r *http.Request) (id.OrganizationID, bool) {
	orgID, err := id.ParseOrganizationID(chi.URLParam(r, "orgID"))
	if err != nil {
		writeError(w, err)
		return id.OrganizationID{}, false
	}
	return orgID, true
}
