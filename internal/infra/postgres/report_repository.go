package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vulnreport/api/pkg/domain/organization"
	"github.com/vulnreport/api/pkg/domain/report"
	"github.com/vulnreport/api/pkg/domain/shared"
	"github.com/vulnreport/api/pkg/pagination"
)

const reportColumns = `
	r.id, r.org_id, o.name, o.source_type,
	r.iteration_number, r.previous_report_id, r.status,
	r.scan_start_date, r.scan_end_date,
	r.assessee, r.assessor, r.reviewer, r.approver,
	r.total_vulnerabilities, r.critical_count, r.high_count,
	r.medium_count, r.low_count, r.info_count, r.zero_day_count,
	r.created_at
`

// ReportRepository implements report.Repository backed by PostgreSQL.
type ReportRepository struct {
	db *DB
}

// NewReportRepository creates a new report repository.
func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create persists a new report. The unique index on
// (org_id, iteration_number) turns a lost iteration race into
// shared.ErrConflict so the caller can recompute and retry.
func (r *ReportRepository) Create(ctx context.Context, rep *report.Report) error {
	query := `
		INSERT INTO reports (
			id, org_id, iteration_number, previous_report_id, status,
			scan_start_date, scan_end_date,
			assessee, assessor, reviewer, approver,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		rep.ID.String(),
		rep.OrgID.String(),
		rep.IterationNumber,
		nullID(rep.PreviousReportID),
		rep.Status.String(),
		rep.ScanStartDate,
		rep.ScanEndDate,
		rep.Assessee,
		rep.Assessor,
		rep.Reviewer,
		rep.Approver,
		rep.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return shared.ErrConflict
		}
		return fmt.Errorf("failed to create report: %w", err)
	}

	return nil
}

// GetByID retrieves a report by ID.
func (r *ReportRepository) GetByID(ctx context.Context, id shared.ID) (*report.Report, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM reports r
		JOIN organizations o ON o.id = r.org_id
		WHERE r.id = $1
	`

	rep, err := scanReport(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return rep, nil
}

// GetLatestByOrg returns the report with the highest iteration number.
func (r *ReportRepository) GetLatestByOrg(ctx context.Context, orgID shared.ID) (*report.Report, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM reports r
		JOIN organizations o ON o.id = r.org_id
		WHERE r.org_id = $1
		ORDER BY r.iteration_number DESC
		LIMIT 1
	`

	rep, err := scanReport(r.db.QueryRowContext(ctx, query, orgID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return rep, nil
}

// List lists reports with filters and pagination, newest first.
func (r *ReportRepository) List(ctx context.Context, filter report.Filter, page pagination.Pagination) (pagination.Result[*report.Report], error) {
	var zero pagination.Result[*report.Report]

	where := " WHERE 1=1"
	args := []any{}
	argPos := 1

	if filter.OrgID != nil {
		where += fmt.Sprintf(" AND r.org_id = $%d", argPos)
		args = append(args, filter.OrgID.String())
		argPos++
	}
	if filter.SourceType != "" {
		where += fmt.Sprintf(" AND o.source_type = $%d", argPos)
		args = append(args, filter.SourceType.String())
		argPos++
	}
	if filter.Status != "" {
		where += fmt.Sprintf(" AND r.status = $%d", argPos)
		args = append(args, filter.Status.String())
		argPos++
	}

	countQuery := `
		SELECT COUNT(*)
		FROM reports r
		JOIN organizations o ON o.id = r.org_id
	` + where

	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return zero, fmt.Errorf("failed to count reports: %w", err)
	}

	query := `
		SELECT ` + reportColumns + `
		FROM reports r
		JOIN organizations o ON o.id = r.org_id
	` + where + fmt.Sprintf(" ORDER BY r.created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, page.Limit(), page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return zero, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := make([]*report.Report, 0, page.Limit())
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return zero, err
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return zero, err
	}

	return pagination.NewResult(reports, total, page), nil
}

// ListByOrg returns all reports for an organization by iteration ascending.
func (r *ReportRepository) ListByOrg(ctx context.Context, orgID shared.ID) ([]*report.Report, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM reports r
		JOIN organizations o ON o.id = r.org_id
		WHERE r.org_id = $1
		ORDER BY r.iteration_number
	`

	rows, err := r.db.QueryContext(ctx, query, orgID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list reports by org: %w", err)
	}
	defer rows.Close()

	var reports []*report.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

// UpdateStatus writes the status and rollup counters of a report.
func (r *ReportRepository) UpdateStatus(ctx context.Context, id shared.ID, status report.Status, counts report.Counts) error {
	query := `
		UPDATE reports SET
			status = $2,
			total_vulnerabilities = $3,
			critical_count = $4,
			high_count = $5,
			medium_count = $6,
			low_count = $7,
			info_count = $8,
			zero_day_count = $9
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		id.String(),
		status.String(),
		counts.Total,
		counts.Critical,
		counts.High,
		counts.Medium,
		counts.Low,
		counts.Info,
		counts.ZeroDay,
	)
	if err != nil {
		return fmt.Errorf("failed to update report status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return shared.ErrNotFound
	}

	return nil
}

// ListStaleProcessing returns processing reports created before the cutoff.
func (r *ReportRepository) ListStaleProcessing(ctx context.Context, cutoff time.Time) ([]*report.Report, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM reports r
		JOIN organizations o ON o.id = r.org_id
		WHERE r.status = $1 AND r.created_at < $2
		ORDER BY r.created_at
	`

	rows, err := r.db.QueryContext(ctx, query, report.StatusProcessing.String(), cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale reports: %w", err)
	}
	defer rows.Close()

	var reports []*report.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

// rowScanner abstracts sql.Row and sql.Rows for shared scan logic.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*report.Report, error) {
	var (
		rep        report.Report
		idStr      string
		orgIDStr   string
		sourceType string
		status     string
		prevID     sql.NullString
		startDate  sql.NullTime
		endDate    sql.NullTime
	)

	err := row.Scan(
		&idStr, &orgIDStr, &rep.OrgName, &sourceType,
		&rep.IterationNumber, &prevID, &status,
		&startDate, &endDate,
		&rep.Assessee, &rep.Assessor, &rep.Reviewer, &rep.Approver,
		&rep.TotalVulnerabilities, &rep.CriticalCount, &rep.HighCount,
		&rep.MediumCount, &rep.LowCount, &rep.InfoCount, &rep.ZeroDayCount,
		&rep.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}

	id, err := shared.IDFromString(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid report id: %w", err)
	}
	orgID, err := shared.IDFromString(orgIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid report org id: %w", err)
	}

	rep.ID = id
	rep.OrgID = orgID
	rep.SourceType = organization.SourceType(sourceType)
	rep.Status = report.Status(status)
	rep.PreviousReportID = parseNullID(prevID)
	if startDate.Valid {
		rep.ScanStartDate = startDate.Time
	}
	if endDate.Valid {
		rep.ScanEndDate = endDate.Time
	}

	return &rep, nil
}
