package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"sigclause/internal/disclaimer/models"
	id "sigclause/pkg/domain"
)

// PostgresStore persists rules and templates in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const resolutionQuery = `
SELECT r.id, r.organization_id, r.name, r.priority, r.is_active, r.disclaimer_template_id,
       r.department_condition, r.departments,
       r.region_condition, r.regions,
       r.recipient_condition, r.recipient_domains,
       r.industry_condition, r.industries,
       r.user_source_condition, r.user_sources,
       r.start_date, r.end_date, r.cascade_to_clients,
       r.created_at, r.updated_at,
       t.id, t.organization_id, t.name, t.content, t.content_html, t.styling,
       t.created_at, t.updated_at
FROM disclaimer_rules r
LEFT JOIN disclaimer_templates t ON t.id = r.disclaimer_template_id
WHERE r.organization_id = $1 AND r.is_active`

// LoadForResolution fetches the organization's active rules and, when a
// parent MSP is supplied, its cascaded rules, each joined with its template.
// The two reads are independent and run concurrently; either failure fails
// the whole load.
func (s *PostgresStore) LoadForResolution(ctx context.Context, orgID id.OrganizationID, mspParentID *id.OrganizationID) ([]models.RuleRecord, error) {
	var own, cascaded []models.RuleRecord

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := s.queryResolution(gctx, resolutionQuery+` ORDER BY r.created_at`, uuid.UUID(orgID))
		if err != nil {
			return fmt.Errorf("load organization rules: %w", err)
		}
		own = records
		return nil
	})
	if mspParentID != nil {
		parent := uuid.UUID(*mspParentID)
		g.Go(func() error {
			records, err := s.queryResolution(gctx, resolutionQuery+` AND r.cascade_to_clients ORDER BY r.created_at`, parent)
			if err != nil {
				return fmt.Errorf("load cascaded msp rules: %w", err)
			}
			cascaded = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return append(own, cascaded...), nil
}

func (s *PostgresStore) queryResolution(ctx context.Context, query string, orgID uuid.UUID) ([]models.RuleRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.RuleRecord
	for rows.Next() {
		var (
			rule models.Rule
			tmpl models.Template

			ruleID, ruleOrg, tmplRef        uuid.UUID
			departments, regions            pq.StringArray
			recipientDomains, industries    pq.StringArray
			userSources                     pq.StringArray
			startDate, endDate              sql.NullTime
			tmplID, tmplOrg                 uuid.NullUUID
			tmplName, tmplContent, tmplHTML sql.NullString
			styling                         []byte
			tmplCreated, tmplUpdated        sql.NullTime
		)
		err := rows.Scan(
			&ruleID, &ruleOrg, &rule.Name, &rule.Priority, &rule.IsActive, &tmplRef,
			&rule.DepartmentCondition, &departments,
			&rule.RegionCondition, &regions,
			&rule.RecipientCondition, &recipientDomains,
			&rule.IndustryCondition, &industries,
			&rule.UserSourceCondition, &userSources,
			&startDate, &endDate, &rule.CascadeToClients,
			&rule.CreatedAt, &rule.UpdatedAt,
			&tmplID, &tmplOrg, &tmplName, &tmplContent, &tmplHTML, &styling,
			&tmplCreated, &tmplUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("scan rule row: %w", err)
		}

		rule.ID = id.RuleID(ruleID)
		rule.OrgID = id.OrganizationID(ruleOrg)
		rule.TemplateID = id.TemplateID(tmplRef)
		rule.Departments = departments
		rule.Regions = regions
		rule.RecipientDomains = recipientDomains
		rule.Industries = industries
		rule.UserSources = userSources
		if startDate.Valid {
			t := startDate.Time
			rule.StartDate = &t
		}
		if endDate.Valid {
			t := endDate.Time
			rule.EndDate = &t
		}

		record := models.RuleRecord{Rule: rule}
		if tmplID.Valid {
			tmpl.ID = id.TemplateID(tmplID.UUID)
			tmpl.OrgID = id.OrganizationID(tmplOrg.UUID)
			tmpl.Name = tmplName.String
			tmpl.Content = tmplContent.String
			tmpl.ContentHTML = tmplHTML.String
			tmpl.CreatedAt = tmplCreated.Time
			tmpl.UpdatedAt = tmplUpdated.Time
			if len(styling) > 0 {
				var st models.Styling
				// Malformed styling JSON falls back to renderer defaults
				// instead of failing the load.
				if err := json.Unmarshal(styling, &st); err == nil {
					tmpl.Styling = &st
				}
			}
			record.Template = &tmpl
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rule rows: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) CreateRule(ctx context.Context, rule *models.Rule) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO disclaimer_rules (
			id, organization_id, name, priority, is_active, disclaimer_template_id,
			department_condition, departments, region_condition, regions,
			recipient_condition, recipient_domains, industry_condition, industries,
			user_source_condition, user_sources, start_date, end_date,
			cascade_to_clients, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`,
		uuid.UUID(rule.ID), uuid.UUID(rule.OrgID), rule.Name, rule.Priority, rule.IsActive,
		uuid.UUID(rule.TemplateID),
		string(rule.DepartmentCondition), pq.Array(rule.Departments),
		string(rule.RegionCondition), pq.Array(rule.Regions),
		string(rule.RecipientCondition), pq.Array(rule.RecipientDomains),
		string(rule.IndustryCondition), pq.Array(rule.Industries),
		string(rule.UserSourceCondition), pq.Array(rule.UserSources),
		nullTime(rule.StartDate), nullTime(rule.EndDate),
		rule.CascadeToClients, rule.CreatedAt, rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create rule: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetRule(ctx context.Context, orgID id.OrganizationID, ruleID id.RuleID) (*models.Rule, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, organization_id, name, priority, is_active, disclaimer_template_id,
		       department_condition, departments, region_condition, regions,
		       recipient_condition, recipient_domains, industry_condition, industries,
		       user_source_condition, user_sources, start_date, end_date,
		       cascade_to_clients, created_at, updated_at
		FROM disclaimer_rules
		WHERE organization_id = $1 AND id = $2`,
		uuid.UUID(orgID), uuid.UUID(ruleID),
	)
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get rule: %w", err)
	}
	return rule, nil
}

func (s *PostgresStore) ListRules(ctx context.Context, orgID id.OrganizationID) ([]*models.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, organization_id, name, priority, is_active, disclaimer_template_id,
		       department_condition, departments, region_condition, regions,
		       recipient_condition, recipient_domains, industry_condition, industries,
		       user_source_condition, user_sources, start_date, end_date,
		       cascade_to_clients, created_at, updated_at
		FROM disclaimer_rules
		WHERE organization_id = $1
		ORDER BY priority DESC, created_at`,
		uuid.UUID(orgID),
	)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var out []*models.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateRule(ctx context.Context, rule *models.Rule) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE disclaimer_rules SET
			name = $3, priority = $4, is_active = $5, disclaimer_template_id = $6,
			department_condition = $7, departments = $8,
			region_condition = $9, regions = $10,
			recipient_condition = $11, recipient_domains = $12,
			industry_condition = $13, industries = $14,
			user_source_condition = $15, user_sources = $16,
			start_date = $17, end_date = $18, cascade_to_clients = $19, updated_at = $20
		WHERE organization_id = $1 AND id = $2`,
		uuid.UUID(rule.OrgID), uuid.UUID(rule.ID),
		rule.Name, rule.Priority, rule.IsActive, uuid.UUID(rule.TemplateID),
		string(rule.DepartmentCondition), pq.Array(rule.Departments),
		string(rule.RegionCondition), pq.Array(rule.Regions),
		string(rule.RecipientCondition), pq.Array(rule.RecipientDomains),
		string(rule.IndustryCondition), pq.Array(rule.Industries),
		string(rule.UserSourceCondition), pq.Array(rule.UserSources),
		nullTime(rule.StartDate), nullTime(rule.EndDate),
		rule.CascadeToClients, rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) DeleteRule(ctx context.Context, orgID id.OrganizationID, ruleID id.RuleID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM disclaimer_rules WHERE organization_id = $1 AND id = $2`,
		uuid.UUID(orgID), uuid.UUID(ruleID),
	)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) CreateTemplate(ctx context.Context, tmpl *models.Template) error {
	styling, err := marshalStyling(tmpl.Styling)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO disclaimer_templates (
			id, organization_id, name, content, content_html, styling, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		uuid.UUID(tmpl.ID), uuid.UUID(tmpl.OrgID), tmpl.Name, tmpl.Content,
		nullString(tmpl.ContentHTML), styling, tmpl.CreatedAt, tmpl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTemplate(ctx context.Context, orgID id.OrganizationID, templateID id.TemplateID) (*models.Template, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, organization_id, name, content, content_html, styling, created_at, updated_at
		FROM disclaimer_templates
		WHERE organization_id = $1 AND id = $2`,
		uuid.UUID(orgID), uuid.UUID(templateID),
	)
	tmpl, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get template: %w", err)
	}
	return tmpl, nil
}

func (s *PostgresStore) ListTemplates(ctx context.Context, orgID id.OrganizationID) ([]*models.Template, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, organization_id, name, content, content_html, styling, created_at, updated_at
		FROM disclaimer_templates
		WHERE organization_id = $1
		ORDER BY created_at`,
		uuid.UUID(orgID),
	)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []*models.Template
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateTemplate(ctx context.Context, tmpl *models.Template) error {
	styling, err := marshalStyling(tmpl.Styling)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE disclaimer_templates SET
			name = $3, content = $4, content_html = $5, styling = $6, updated_at = $7
		WHERE organization_id = $1 AND id = $2`,
		uuid.UUID(tmpl.OrgID), uuid.UUID(tmpl.ID),
		tmpl.Name, tmpl.Content, nullString(tmpl.ContentHTML), styling, tmpl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	return requireRowAffected(res)
}

func (s *PostgresStore) DeleteTemplate(ctx context.Context, orgID id.OrganizationID, templateID id.TemplateID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM disclaimer_templates WHERE organization_id = $1 AND id = $2`,
		uuid.UUID(orgID), uuid.UUID(templateID),
	)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return requireRowAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*models.Rule, error) {
	var (
		rule                         models.Rule
		ruleID, ruleOrg, tmplRef     uuid.UUID
		departments, regions         pq.StringArray
		recipientDomains, industries pq.StringArray
		userSources                  pq.StringArray
		startDate, endDate           sql.NullTime
	)
	err := row.Scan(
		&ruleID, &ruleOrg, &rule.Name, &rule.Priority, &rule.IsActive, &tmplRef,
		&rule.DepartmentCondition, &departments,
		&rule.RegionCondition, &regions,
		&rule.RecipientCondition, &recipientDomains,
		&rule.IndustryCondition, &industries,
		&rule.UserSourceCondition, &userSources,
		&startDate, &endDate, &rule.CascadeToClients,
		&rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rule.ID = id.RuleID(ruleID)
	rule.OrgID = id.OrganizationID(ruleOrg)
	rule.TemplateID = id.TemplateID(tmplRef)
	rule.Departments = departments
	rule.Regions = regions
	rule.RecipientDomains = recipientDomains
	rule.Industries = industries
	rule.UserSources = userSources
	if startDate.Valid {
		t := startDate.Time
		rule.StartDate = &t
	}
	if endDate.Valid {
		t := endDate.Time
		rule.EndDate = &t
	}
	return &rule, nil
}

func scanTemplate(row rowScanner) (*models.Template, error) {
	var (
		tmpl        models.Template
		tmplID, org uuid.UUID
		contentHTML sql.NullString
		styling     []byte
	)
	err := row.Scan(
		&tmplID, &org, &tmpl.Name, &tmpl.Content, &contentHTML, &styling,
		&tmpl.CreatedAt, &tmpl.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	tmpl.ID = id.TemplateID(tmplID)
	tmpl.OrgID = id.OrganizationID(org)
	tmpl.ContentHTML = contentHTML.String
	if len(styling) > 0 {
		var st models.Styling
		if err := json.Unmarshal(styling, &st); err == nil {
			tmpl.Styling = &st
		}
	}
	return &tmpl, nil
}

func marshalStyling(s *models.Styling) ([]byte, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal styling: %w", err)
	}
	return b, nil
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
