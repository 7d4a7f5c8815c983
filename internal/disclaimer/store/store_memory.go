package store

import (
	"context"
	"sync"

	"sigclause/internal/disclaimer/models"
	id "sigclause/pkg/domain"
)

// InMemoryStore keeps rules and templates in maps behind a RWMutex. It
// backs unit tests and local development; production uses PostgresStore.
type InMemoryStore struct {
	mu        sync.RWMutex
	rules     map[id.RuleID]models.Rule
	templates map[id.TemplateID]models.Template
	ruleOrder []id.RuleID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		rules:     make(map[id.RuleID]models.Rule),
		templates: make(map[id.TemplateID]models.Template),
	}
}

func (s *InMemoryStore) LoadForResolution(_ context.Context, orgID id.OrganizationID, mspParentID *id.OrganizationID) ([]models.RuleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []models.RuleRecord
	for _, ruleID := range s.ruleOrder {
		r, ok := s.rules[ruleID]
		if !ok || !r.IsActive || r.OrgID != orgID {
			continue
		}
		records = append(records, s.joined(r))
	}
	if mspParentID != nil {
		for _, ruleID := range s.ruleOrder {
			r, ok := s.rules[ruleID]
			if !ok || !r.IsActive || r.OrgID != *mspParentID || !r.CascadeToClients {
				continue
			}
			records = append(records, s.joined(r))
		}
	}
	return records, nil
}

// joined pairs a rule with its template, leaving Template nil on a dangling
// reference so the orchestrator sees the same shape Postgres produces.
func (s *InMemoryStore) joined(r models.Rule) models.RuleRecord {
	rec := models.RuleRecord{Rule: r}
	if t, ok := s.templates[r.TemplateID]; ok {
		tmpl := t
		rec.Template = &tmpl
	}
	return rec
}

func (s *InMemoryStore) CreateRule(_ context.Context, rule *models.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[rule.ID] = *rule
	s.ruleOrder = append(s.ruleOrder, rule.ID)
	return nil
}

func (s *InMemoryStore) GetRule(_ context.Context, orgID id.OrganizationID, ruleID id.RuleID) (*models.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[ruleID]
	if !ok || r.OrgID != orgID {
		return nil, ErrNotFound
	}
	out := r
	return &out, nil
}

func (s *InMemoryStore) ListRules(_ context.Context, orgID id.OrganizationID) ([]*models.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Rule
	for _, ruleID := range s.ruleOrder {
		if r, ok := s.rules[ruleID]; ok && r.OrgID == orgID {
			rr := r
			out = append(out, &rr)
		}
	}
	return out, nil
}

func (s *InMemoryStore) UpdateRule(_ context.Context, rule *models.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rules[rule.ID]
	if !ok || existing.OrgID != rule.OrgID {
		return ErrNotFound
	}
	s.rules[rule.ID] = *rule
	return nil
}

func (s *InMemoryStore) DeleteRule(_ context.Context, orgID id.OrganizationID, ruleID id.RuleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[ruleID]
	if !ok || r.OrgID != orgID {
		return ErrNotFound
	}
	delete(s.rules, ruleID)
	for i, rid := range s.ruleOrder {
		if rid == ruleID {
			s.ruleOrder = append(s.ruleOrder[:i], s.ruleOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (s *InMemoryStore) CreateTemplate(_ context.Context, tmpl *models.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[tmpl.ID] = *tmpl
	return nil
}

func (s *InMemoryStore) GetTemplate(_ context.Context, orgID id.OrganizationID, templateID id.TemplateID) (*models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[templateID]
	if !ok || t.OrgID != orgID {
		return nil, ErrNotFound
	}
	out := t
	return &out, nil
}

func (s *InMemoryStore) ListTemplates(_ context.Context, orgID id.OrganizationID) ([]*models.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Template
	for _, t := range s.templates {
		if t.OrgID == orgID {
			tt := t
			out = append(out, &tt)
		}
	}
	return out, nil
}

func (s *InMemoryStore) UpdateTemplate(_ context.Context, tmpl *models.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.templates[tmpl.ID]
	if !ok || existing.OrgID != tmpl.OrgID {
		return ErrNotFound
	}
	s.templates[tmpl.ID] = *tmpl
	return nil
}

func (s *InMemoryStore) DeleteTemplate(_ context.Context, orgID id.OrganizationID, templateID id.TemplateID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[templateID]
	if !ok || t.OrgID != orgID {
		return ErrNotFound
	}
	delete(s.templates, templateID)
	return nil
}
