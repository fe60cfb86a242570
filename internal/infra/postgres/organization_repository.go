package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vulnreport/api/pkg/domain/organization"
	"github.com/vulnreport/api/pkg/domain/shared"
)

// OrganizationRepository implements organization.Repository backed by PostgreSQL.
type OrganizationRepository struct {
	db *DB
}

// NewOrganizationRepository creates a new organization repository.
func NewOrganizationRepository(db *DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// Create persists a new organization. The unique index on
// (lower(name), source_type) turns a concurrent duplicate insert into
// shared.ErrAlreadyExists so callers can re-run the lookup.
func (r *OrganizationRepository) Create(ctx context.Context, org *organization.Organization) error {
	query := `
		INSERT INTO organizations (id, name, source_type, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query,
		org.ID.String(),
		org.Name,
		org.SourceType.String(),
		org.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create organization: %w", err)
	}

	return nil
}

// GetByID retrieves an organization by ID.
func (r *OrganizationRepository) GetByID(ctx context.Context, id shared.ID) (*organization.Organization, error) {
	query := `
		SELECT id, name, source_type, created_at
		FROM organizations
		WHERE id = $1
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id.String()))
}

// GetByNameAndSourceType retrieves an organization by case-insensitive
// exact name match within a source type.
func (r *OrganizationRepository) GetByNameAndSourceType(ctx context.Context, name string, sourceType organization.SourceType) (*organization.Organization, error) {
	query := `
		SELECT id, name, source_type, created_at
		FROM organizations
		WHERE lower(name) = lower($1) AND source_type = $2
	`

	return r.scanOne(r.db.QueryRowContext(ctx, query, name, sourceType.String()))
}

// List returns all organizations ordered by name.
func (r *OrganizationRepository) List(ctx context.Context) ([]*organization.Organization, error) {
	query := `
		SELECT id, name, source_type, created_at
		FROM organizations
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []*organization.Organization
	for rows.Next() {
		org, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

func (r *OrganizationRepository) scanOne(row *sql.Row) (*organization.Organization, error) {
	var (
		org        organization.Organization
		idStr      string
		sourceType string
	)

	err := row.Scan(&idStr, &org.Name, &sourceType, &org.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan organization: %w", err)
	}

	id, err := shared.IDFromString(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid organization id: %w", err)
	}
	org.ID = id
	org.SourceType = organization.SourceType(sourceType)

	return &org, nil
}

func (r *OrganizationRepository) scanRow(rows *sql.Rows) (*organization.Organization, error) {
	var (
		org        organization.Organization
		idStr      string
		sourceType string
	)

	if err := rows.Scan(&idStr, &org.Name, &sourceType, &org.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan organization: %w", err)
	}

	id, err := shared.IDFromString(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid organization id: %w", err)
	}
	org.ID = id
	org.SourceType = organization.SourceType(sourceType)

	return &org, nil
}
