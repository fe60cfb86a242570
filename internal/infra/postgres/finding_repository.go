package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/vulnreport/api/pkg/domain/finding"
	"github.com/vulnreport/api/pkg/domain/shared"
	"github.com/vulnreport/api/pkg/pagination"
)

// FindingRepository implements finding.Repository backed by PostgreSQL.
type FindingRepository struct {
	db *DB
}

// NewFindingRepository creates a new finding repository.
func NewFindingRepository(db *DB) *FindingRepository {
	return &FindingRepository{db: db}
}

// CreateBatch persists a batch of findings in a single multi-row insert.
// The statement is atomic: on error nothing from the batch is kept and the
// whole batch is reported failed, so the caller can proceed with the next
// batch.
func (r *FindingRepository) CreateBatch(ctx context.Context, findings []*finding.Finding) (finding.BatchResult, error) {
	if len(findings) == 0 {
		return finding.BatchResult{}, nil
	}

	const fieldCount = 19
	placeholders := make([]string, 0, len(findings))
	args := make([]any, 0, len(findings)*fieldCount)

	for i, f := range findings {
		base := i * fieldCount
		marks := make([]string, fieldCount)
		for j := range marks {
			marks[j] = fmt.Sprintf("$%d", base+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(marks, ", ")+")")

		args = append(args,
			f.ID.String(),
			f.ReportID.String(),
			f.HostID.String(),
			f.CVEID,
			f.PluginID,
			f.Name,
			f.Severity.String(),
			nullFloat(f.CVSSScore),
			f.CVSSVector,
			f.Description,
			f.Solution,
			f.FixRecommendation,
			nullInt(f.Port),
			f.Protocol,
			f.Service,
			f.IsZeroDay,
			f.IsExploitable,
			f.PluginFamily,
			f.PluginOutput,
		)
	}

	query := `
		INSERT INTO findings (
			id, report_id, host_id, cve_id, plugin_id, name, severity,
			cvss_score, cvss_vector, description, solution, fix_recommendation,
			port, protocol, service, is_zero_day, is_exploitable,
			plugin_family, plugin_output
		) VALUES ` + strings.Join(placeholders, ", ")

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return finding.BatchResult{Failed: len(findings)}, fmt.Errorf("failed to create findings: %w", err)
	}

	return finding.BatchResult{Inserted: len(findings)}, nil
}

// ListByReport lists findings of a report ordered by severity, then name.
func (r *FindingRepository) ListByReport(ctx context.Context, reportID shared.ID, filter finding.Filter, page pagination.Pagination) (pagination.Result[*finding.Finding], error) {
	var zero pagination.Result[*finding.Finding]

	where := " WHERE f.report_id = $1"
	args := []any{reportID.String()}
	argPos := 2

	if filter.Severity != "" {
		where += fmt.Sprintf(" AND f.severity = $%d", argPos)
		args = append(args, filter.Severity.String())
		argPos++
	}
	if filter.HostIP != "" {
		where += fmt.Sprintf(" AND h.ip_address = $%d", argPos)
		args = append(args, filter.HostIP)
		argPos++
	}
	if filter.IsZeroDay != nil {
		where += fmt.Sprintf(" AND f.is_zero_day = $%d", argPos)
		args = append(args, *filter.IsZeroDay)
		argPos++
	}
	if filter.IsExploitable != nil {
		where += fmt.Sprintf(" AND f.is_exploitable = $%d", argPos)
		args = append(args, *filter.IsExploitable)
		argPos++
	}

	countQuery := `
		SELECT COUNT(*)
		FROM findings f
		JOIN hosts h ON h.id = f.host_id
	` + where

	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return zero, fmt.Errorf("failed to count findings: %w", err)
	}

	query := `
		SELECT
			f.id, f.report_id, f.host_id, h.ip_address,
			f.cve_id, f.plugin_id, f.name, f.severity,
			f.cvss_score, f.cvss_vector, f.description, f.solution,
			f.fix_recommendation, f.port, f.protocol, f.service,
			f.is_zero_day, f.is_exploitable, f.plugin_family, f.plugin_output
		FROM findings f
		JOIN hosts h ON h.id = f.host_id
	` + where + `
		ORDER BY
			CASE f.severity
				WHEN 'critical' THEN 5
				WHEN 'high' THEN 4
				WHEN 'medium' THEN 3
				WHEN 'low' THEN 2
				ELSE 1
			END DESC,
			f.name
	` + fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, page.Limit(), page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return zero, fmt.Errorf("failed to list findings: %w", err)
	}
	defer rows.Close()

	findings := make([]*finding.Finding, 0, page.Limit())
	for rows.Next() {
		f, err := scanFinding(rows)
		if err != nil {
			return zero, err
		}
		findings = append(findings, f)
	}
	if err := rows.Err(); err != nil {
		return zero, err
	}

	return pagination.NewResult(findings, total, page), nil
}

// CountByReport returns the number of persisted findings for a report.
func (r *FindingRepository) CountByReport(ctx context.Context, reportID shared.ID) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM findings WHERE report_id = $1`,
		reportID.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count findings: %w", err)
	}
	return count, nil
}

func scanFinding(row rowScanner) (*finding.Finding, error) {
	var (
		f           finding.Finding
		idStr       string
		reportIDStr string
		hostIDStr   string
		severity    string
		cvssScore   = nullFloat(nil)
		port        = nullInt(nil)
	)

	err := row.Scan(
		&idStr, &reportIDStr, &hostIDStr, &f.HostIP,
		&f.CVEID, &f.PluginID, &f.Name, &severity,
		&cvssScore, &f.CVSSVector, &f.Description, &f.Solution,
		&f.FixRecommendation, &port, &f.Protocol, &f.Service,
		&f.IsZeroDay, &f.IsExploitable, &f.PluginFamily, &f.PluginOutput,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan finding: %w", err)
	}

	id, err := shared.IDFromString(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid finding id: %w", err)
	}
	reportID, err := shared.IDFromString(reportIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid finding report id: %w", err)
	}
	hostID, err := shared.IDFromString(hostIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid finding host id: %w", err)
	}

	f.ID = id
	f.ReportID = reportID
	f.HostID = hostID
	f.Severity = finding.Severity(severity)
	f.CVSSScore = nullFloatValue(cvssScore)
	f.Port = nullIntValue(port)

	return &f, nil
}
